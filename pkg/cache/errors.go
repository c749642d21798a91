package cache

import "errors"

// Common errors for the audio buffer cache.
var (
	// Lookup errors
	ErrNotFound = errors.New("no source for the requested item")

	// Load errors
	ErrReadFailure = errors.New("source read failed")
	ErrCancelled   = errors.New("load was cancelled")

	// Lifecycle errors
	ErrClosed = errors.New("cache manager is closed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// IsTerminal reports whether an error from Request or Get ends the load
// for good. Cancelled loads can be retried with a fresh Request; closed
// managers cannot.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, ErrNotFound)
}
