package player

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Memory simulates playback against the wall clock without touching an
// audio device. It backs tests and hosts where NewDevice fails.
type Memory struct {
	format Format

	mu         sync.Mutex
	state      State
	active     []byte
	trackLen   time.Duration
	volume     float64
	startedAt  time.Time
	pausedAt   time.Duration
	totalPause time.Duration

	plays int
	stops int
}

// NewMemory creates a simulated player for the given format.
func NewMemory(format Format) *Memory {
	return &Memory{format: format, state: StateStopped, volume: 1.0}
}

// Play starts simulated playback of the buffer.
func (m *Memory) Play(data []byte) error {
	if len(data) == 0 {
		return errors.New("audio data is empty")
	}
	pcm, err := pcmPayload(data, m.format)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return errors.New("player is closed")
	}
	m.active = pcm
	m.trackLen = m.format.Duration(len(pcm))
	m.state = StatePlaying
	m.startedAt = time.Now()
	m.pausedAt = 0
	m.totalPause = 0
	m.plays++
	return nil
}

// Pause suspends simulated playback.
func (m *Memory) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", m.state)
	}
	m.pausedAt = m.positionLocked()
	m.state = StatePaused
	return nil
}

// Resume continues simulated playback.
func (m *Memory) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", m.state)
	}
	m.totalPause = time.Since(m.startedAt) - m.pausedAt
	m.state = StatePlaying
	return nil
}

// Stop ends simulated playback.
func (m *Memory) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return nil
	}
	m.stopLocked()
	return nil
}

func (m *Memory) stopLocked() {
	m.active = nil
	m.trackLen = 0
	m.pausedAt = 0
	m.totalPause = 0
	if m.state != StateClosed {
		m.state = StateStopped
	}
	m.stops++
}

// State reports the playback state, folding in natural track end.
func (m *Memory) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StatePlaying && m.positionLocked() >= m.trackLen {
		m.stopLocked()
	}
	return m.state
}

// Position is the elapsed simulated playback time.
func (m *Memory) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

func (m *Memory) positionLocked() time.Duration {
	switch m.state {
	case StatePlaying:
		elapsed := time.Since(m.startedAt) - m.totalPause
		if elapsed > m.trackLen {
			elapsed = m.trackLen
		}
		return elapsed
	case StatePaused:
		return m.pausedAt
	default:
		return 0
	}
}

// SetVolume sets the simulated volume in [0, 1].
func (m *Memory) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
	return nil
}

// Volume returns the current volume.
func (m *Memory) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// TrackDuration returns the length of the current track.
func (m *Memory) TrackDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackLen
}

// Plays returns how many tracks were started. Test helper.
func (m *Memory) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

// Close stops playback and marks the player unusable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.state = StateClosed
	return nil
}

var _ Player = (*Memory)(nil)
