package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	ShowAllFiles bool
	EnableMouse  bool
	HomeDir      string `env:"HOME"`

	// Playlist file or directory to browse
	Path string

	// Cache sizing. Zero values defer to the tier detected from the host.
	Tier         string
	PreloadWidth int
	StaleAge     time.Duration

	Shuffle bool
	Volume  float64

	// For hosts without a usable audio device
	DisableAudio bool `env:"AUDIOCACHE_NO_AUDIO"`

	// Heap budget for the fallback memory probe when the system one is
	// unavailable
	MemoryBudget uint64 `env:"AUDIOCACHE_MEMORY_BUDGET" envDefault:"536870912"`
}
