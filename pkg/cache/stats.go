package cache

import (
	"sort"
	"sync/atomic"
	"time"
)

// counters holds the monotonic activity counters. They are atomics so the
// hot paths can bump them without widening the critical section.
type counters struct {
	loaded  atomic.Uint64
	evicted atomic.Uint64
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// Stats returns a snapshot of cache activity. The monotonic counters
// survive Close; BytesUsed and ItemCount reflect the live (post-Close:
// empty) store.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	bytesUsed := m.bytesUsed
	itemCount := len(m.entries)
	m.mu.Unlock()

	hits := m.counters.hits.Load()
	misses := m.counters.misses.Load()
	s := Stats{
		Loaded:    m.counters.loaded.Load(),
		Evicted:   m.counters.evicted.Load(),
		Hits:      hits,
		Misses:    misses,
		BytesUsed: bytesUsed,
		ItemCount: itemCount,
	}
	if hits+misses > 0 {
		s.HitRate = float64(hits) / float64(hits+misses)
	}
	return s
}

// EntryDiagnostics returns one row per stored buffer, sorted by key. Ages
// are measured from load time; reading diagnostics does not count as an
// access.
func (m *Manager) EntryDiagnostics() []EntryDiagnostic {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	diags := make([]EntryDiagnostic, 0, len(m.entries))
	for key, e := range m.entries {
		diags = append(diags, EntryDiagnostic{
			Key:         key,
			Label:       e.label,
			SizeBytes:   e.size,
			Age:         now.Sub(e.loadedAt),
			AccessCount: e.accessCount,
			IsCurrent:   key == m.currentIndex,
		})
	}
	sort.Slice(diags, func(i, j int) bool { return diags[i].Key < diags[j].Key })
	return diags
}
