//go:build nocgo
// +build nocgo

package player

import (
	"errors"
	"time"
)

// Device stub for builds without CGO audio support.
type Device struct{}

// NewDevice is unavailable in nocgo builds.
func NewDevice(format Format) (*Device, error) {
	return nil, errors.New("audio playback not available in nocgo build")
}

func (d *Device) Play(data []byte) error { return errors.New("audio not available in nocgo build") }

func (d *Device) Pause() error { return errors.New("audio not available in nocgo build") }

func (d *Device) Resume() error { return errors.New("audio not available in nocgo build") }

func (d *Device) Stop() error { return nil }

func (d *Device) State() State { return StateClosed }

func (d *Device) Position() time.Duration { return 0 }

func (d *Device) SetVolume(v float64) error { return nil }

func (d *Device) Volume() float64 { return 1.0 }

func (d *Device) TrackDuration() time.Duration { return 0 }

func (d *Device) Close() error { return nil }

var _ Player = (*Device)(nil)
