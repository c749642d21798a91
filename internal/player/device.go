//go:build !nocgo
// +build !nocgo

package player

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// deviceReadyTimeout bounds how long to wait for the audio backend.
const deviceReadyTimeout = 5 * time.Second

// Device plays audio through the host device via oto. The oto context is
// created once; its format is fixed for the player's lifetime.
type Device struct {
	format Format
	ctx    *oto.Context

	mu         sync.Mutex
	state      State
	player     *oto.Player
	active     []byte // keeps the buffer alive while the device streams it
	trackLen   time.Duration
	volume     float64
	startedAt  time.Time
	pausedAt   time.Duration
	totalPause time.Duration
}

// NewDevice opens the host audio device in the given format.
func NewDevice(format Format) (*Device, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format: %w", err)
	}

	options := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	select {
	case <-ready:
	case <-time.After(deviceReadyTimeout):
		// The oto context has no Close; it is collected once unreferenced.
		return nil, fmt.Errorf("audio device initialization timeout after %v", deviceReadyTimeout)
	}

	log.Debug("audio device ready",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	return &Device{
		format: format,
		ctx:    ctx,
		state:  StateStopped,
		volume: 1.0,
	}, nil
}

// Play starts the buffer from the beginning, replacing current playback.
func (d *Device) Play(data []byte) error {
	if len(data) == 0 {
		return errors.New("audio data is empty")
	}

	pcm, err := pcmPayload(data, d.format)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return errors.New("player is closed")
	}
	d.stopLocked()

	// Own a copy so the cache evicting the entry cannot free the bytes
	// out from under the device.
	d.active = make([]byte, len(pcm))
	copy(d.active, pcm)
	d.trackLen = d.format.Duration(len(d.active))

	p := d.ctx.NewPlayer(bytes.NewReader(d.active))
	p.SetVolume(d.volume)
	p.Play()

	d.player = p
	d.state = StatePlaying
	d.startedAt = time.Now()
	d.pausedAt = 0
	d.totalPause = 0
	return nil
}

// Pause suspends playback.
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", d.state)
	}
	d.player.Pause()
	d.pausedAt = d.positionLocked()
	d.state = StatePaused
	return nil
}

// Resume continues paused playback.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", d.state)
	}
	d.player.Play()
	// Keep position = wall elapsed - totalPause equal to pausedAt.
	d.totalPause = time.Since(d.startedAt) - d.pausedAt
	d.state = StatePlaying
	return nil
}

// Stop ends playback and releases the track.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateClosed {
		return nil
	}
	d.stopLocked()
	return nil
}

func (d *Device) stopLocked() {
	if d.player != nil {
		d.player.Pause()
		_ = d.player.Close()
		d.player = nil
	}
	d.active = nil
	d.trackLen = 0
	d.pausedAt = 0
	d.totalPause = 0
	if d.state != StateClosed {
		d.state = StateStopped
	}
}

// State reports the playback state, folding in natural track end.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePlaying && d.positionLocked() >= d.trackLen && !d.player.IsPlaying() {
		d.stopLocked()
	}
	return d.state
}

// Position is the elapsed playback time of the current track.
func (d *Device) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *Device) positionLocked() time.Duration {
	switch d.state {
	case StatePlaying:
		elapsed := time.Since(d.startedAt) - d.totalPause
		if elapsed > d.trackLen {
			elapsed = d.trackLen
		}
		return elapsed
	case StatePaused:
		return d.pausedAt
	default:
		return 0
	}
}

// SetVolume sets playback volume in [0, 1].
func (d *Device) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", v)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
	if d.player != nil {
		d.player.SetVolume(v)
	}
	return nil
}

// Volume returns the current volume.
func (d *Device) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// TrackDuration returns the length of the current track.
func (d *Device) TrackDuration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.trackLen
}

// Close stops playback and releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.state = StateClosed
	d.ctx = nil
	return nil
}

var _ Player = (*Device)(nil)
