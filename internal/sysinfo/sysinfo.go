// Package sysinfo detects host capability hints for capacity tier
// selection and provides memory probes for the cache's pressure monitor.
package sysinfo

import (
	"errors"
	"runtime"

	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// ErrUnsupported is returned by System on platforms without a host
// memory interface.
var ErrUnsupported = errors.New("system memory probe not supported on this platform")

// Detect gathers capability hints from the host. Figures that cannot be
// determined stay zero, which the tier resolver treats as unknown.
func Detect() cache.Hints {
	return cache.Hints{
		TotalMemory: totalMemory(),
		NumCPU:      runtime.NumCPU(),
	}
}

// Runtime returns a probe that samples the Go heap against a fixed
// budget. It works on every platform but only sees this process, so it
// suits hosts where System is unavailable. A zero budget produces
// samples the monitor ignores.
func Runtime(budget uint64) cache.MemoryProbe {
	return &runtimeProbe{budget: budget}
}

type runtimeProbe struct {
	budget uint64
}

func (p *runtimeProbe) Sample() (used, total uint64, err error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, p.budget, nil
}
