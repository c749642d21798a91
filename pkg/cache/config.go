package cache

import (
	"fmt"
	"time"
)

// Defaults for the monitor and stale-eviction knobs. These are
// tier-independent.
const (
	// DefaultStaleAge is the idle time after which an entry becomes a
	// candidate for the conservative (stale-only) eviction pass.
	DefaultStaleAge = 5 * time.Minute

	// DefaultMonitorInterval is how often the memory monitor samples the
	// probe.
	DefaultMonitorInterval = 30 * time.Second

	// DefaultHighWaterMark is the used/total ratio above which the monitor
	// runs a stale pass and emits a memory warning.
	DefaultHighWaterMark = 0.80
)

// Config holds the capacity profile and monitor knobs for a Manager. It is
// immutable after New.
type Config struct {
	// Tier records which profile the limits came from. Informational.
	Tier Tier

	// MaxBytes and MaxItems are the two eviction budgets. Exceeding either
	// triggers a standard eviction pass.
	MaxBytes int64
	MaxItems int

	// PreloadWidth is how many upcoming items PreloadUpcoming targets and
	// how far beyond the current index eviction protection extends.
	PreloadWidth int

	// StaleAge is the idle threshold for the stale-only pass.
	StaleAge time.Duration

	// MonitorInterval is the probe sampling period. The monitor only runs
	// when a probe is supplied.
	MonitorInterval time.Duration

	// HighWaterMark is the used/total memory ratio that triggers a stale
	// pass and a memory warning.
	HighWaterMark float64

	// MaxConcurrentLoads caps simultaneous physical reads across all keys.
	// Zero means unbounded.
	MaxConcurrentLoads int64
}

// ConfigForTier builds the configuration for a capacity tier with default
// monitor knobs.
func ConfigForTier(t Tier) Config {
	limits, ok := tierConfigs[t]
	if !ok {
		limits = tierConfigs[TierMedium]
		t = TierMedium
	}
	return Config{
		Tier:            t,
		MaxBytes:        limits.maxBytes,
		MaxItems:        limits.maxItems,
		PreloadWidth:    limits.preloadWidth,
		StaleAge:        DefaultStaleAge,
		MonitorInterval: DefaultMonitorInterval,
		HighWaterMark:   DefaultHighWaterMark,
	}
}

// ConfigForHints resolves a tier from capability hints and builds its
// configuration.
func ConfigForHints(h Hints) Config {
	return ConfigForTier(ResolveTier(h))
}

// withDefaults fills unset monitor knobs so hand-built configs only need
// the budgets.
func (c Config) withDefaults() Config {
	if c.StaleAge == 0 {
		c.StaleAge = DefaultStaleAge
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
	if c.HighWaterMark == 0 {
		c.HighWaterMark = DefaultHighWaterMark
	}
	return c
}

// Validate checks the configuration for values the engine cannot operate
// with.
func (c Config) Validate() error {
	if c.MaxBytes <= 0 {
		return fmt.Errorf("%w: MaxBytes must be positive, got %d", ErrInvalidConfig, c.MaxBytes)
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("%w: MaxItems must be positive, got %d", ErrInvalidConfig, c.MaxItems)
	}
	if c.PreloadWidth < 0 {
		return fmt.Errorf("%w: PreloadWidth must not be negative, got %d", ErrInvalidConfig, c.PreloadWidth)
	}
	if c.StaleAge <= 0 {
		return fmt.Errorf("%w: StaleAge must be positive, got %v", ErrInvalidConfig, c.StaleAge)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("%w: MonitorInterval must be positive, got %v", ErrInvalidConfig, c.MonitorInterval)
	}
	if c.HighWaterMark <= 0 || c.HighWaterMark > 1 {
		return fmt.Errorf("%w: HighWaterMark must be in (0, 1], got %.2f", ErrInvalidConfig, c.HighWaterMark)
	}
	if c.MaxConcurrentLoads < 0 {
		return fmt.Errorf("%w: MaxConcurrentLoads must not be negative, got %d", ErrInvalidConfig, c.MaxConcurrentLoads)
	}
	return nil
}
