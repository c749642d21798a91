// Package player plays cached audio buffers on the host's audio device.
// One track plays at a time; starting a new track replaces the current
// one. A mock implementation backs tests and hosts without audio.
package player

import "time"

// State is the playback state of a Player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Player plays one audio buffer at a time. Buffers are either raw PCM in
// the player's format or WAV files holding such PCM. Implementations are
// safe for concurrent use.
type Player interface {
	// Play starts the buffer from the beginning, replacing any current
	// playback. The player keeps its own reference to the data for as
	// long as the device streams from it.
	Play(data []byte) error

	// Pause suspends playback; Resume continues it. Both fail unless the
	// player is in the matching state.
	Pause() error
	Resume() error

	// Stop ends playback and releases the track.
	Stop() error

	// State reports the playback state, accounting for tracks that have
	// run out since the last call.
	State() State

	// Position is the elapsed playback time of the current track.
	Position() time.Duration

	// TrackDuration is the full length of the current track, or zero when
	// nothing is loaded.
	TrackDuration() time.Duration

	// SetVolume sets playback volume in [0, 1].
	SetVolume(v float64) error
	Volume() float64

	// Close stops playback and releases the device. The player cannot be
	// reused afterwards.
	Close() error
}
