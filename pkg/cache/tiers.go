package cache

import "strings"

// Tier is a named capacity profile selected once from host capability
// hints. Larger tiers hold more audio and preload further ahead.
type Tier int

const (
	// TierLow suits constrained hosts (little memory, few cores).
	TierLow Tier = iota
	// TierMedium is the default profile when hints are absent.
	TierMedium
	// TierHigh suits hosts with plenty of memory and cores.
	TierHigh
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier maps a tier name to its Tier, case-insensitively. Unknown
// names resolve to TierMedium, matching ConfigForTier's fallback.
func ParseTier(s string) Tier {
	switch strings.ToLower(s) {
	case "low":
		return TierLow
	case "high":
		return TierHigh
	default:
		return TierMedium
	}
}

// tierLimits is one row of the capacity table.
type tierLimits struct {
	maxBytes     int64
	maxItems     int
	preloadWidth int
}

const (
	gib = 1 << 30
	mib = 1 << 20
)

// tierConfigs maps each tier to its capacity profile. The table is
// consulted once at construction and never mutated.
var tierConfigs = map[Tier]tierLimits{
	TierHigh:   {maxBytes: 100 * mib, maxItems: 10, preloadWidth: 3},
	TierMedium: {maxBytes: 50 * mib, maxItems: 6, preloadWidth: 2},
	TierLow:    {maxBytes: 20 * mib, maxItems: 3, preloadWidth: 1},
}

// Hints carries approximate host capability figures used to pick a tier.
// Zero values mean "unknown".
type Hints struct {
	TotalMemory uint64 // bytes of physical memory
	NumCPU      int
}

// ResolveTier selects a capacity tier from host capability hints. Unknown
// memory resolves to TierMedium, matching hosts that expose no
// introspection at all.
func ResolveTier(h Hints) Tier {
	if h.TotalMemory == 0 {
		return TierMedium
	}
	switch {
	case h.TotalMemory >= 8*gib && h.NumCPU >= 4:
		return TierHigh
	case h.TotalMemory >= 4*gib:
		return TierMedium
	default:
		return TierLow
	}
}
