package source

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// Static serves a fixed buffer. It backs demo playlists and tests where
// no real file or network should be involved. Configure delay and
// failure before handing the source to a cache.
type Static struct {
	label string
	data  []byte
	delay time.Duration
	err   error
	reads atomic.Int32
}

// NewStatic creates a source serving data under the given label.
func NewStatic(label string, data []byte) *Static {
	return &Static{label: label, data: data}
}

// SetDelay makes Read sleep before returning, simulating a slow medium.
func (s *Static) SetDelay(d time.Duration) {
	s.delay = d
}

// SetFailure makes every Read fail with err.
func (s *Static) SetFailure(err error) {
	s.err = err
}

// Reads returns how many times Read was called.
func (s *Static) Reads() int {
	return int(s.reads.Load())
}

// Label returns the diagnostic label.
func (s *Static) Label() string {
	return s.label
}

// Read returns a copy of the buffer so callers can never see writes
// through a previously returned slice.
func (s *Static) Read(ctx context.Context, progress cache.ProgressFunc) ([]byte, error) {
	s.reads.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	if progress != nil {
		progress(int64(len(out)), int64(len(out)))
	}
	return out, nil
}

var _ cache.Source = (*Static)(nil)
