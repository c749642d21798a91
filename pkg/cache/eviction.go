package cache

import (
	"sort"
	"time"
)

// candidate pairs a key with its entry for the eviction sort.
type candidate struct {
	key int
	e   *entry
}

// protectedLocked computes the set of keys no eviction pass may remove:
// the current item plus the preload window ahead of it. Shuffled playback
// protects only the current item, since the upcoming order is
// unpredictable. Caller holds m.mu.
func (m *Manager) protectedLocked() map[int]struct{} {
	p := map[int]struct{}{m.currentIndex: {}}
	if m.shuffled {
		return p
	}
	for i := 1; i <= m.cfg.PreloadWidth; i++ {
		p[m.currentIndex+i] = struct{}{}
	}
	return p
}

// evictionCandidatesLocked snapshots every non-protected entry sorted
// oldest access first; entries with identical access times keep insertion
// order. The snapshot is taken under the same lock that serializes
// touches, so a candidate cannot be concurrently refreshed. Caller holds
// m.mu.
func (m *Manager) evictionCandidatesLocked(protected map[int]struct{}) []candidate {
	cands := make([]candidate, 0, len(m.entries))
	for key, e := range m.entries {
		if _, ok := protected[key]; ok {
			continue
		}
		cands = append(cands, candidate{key: key, e: e})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].e.lastAccessedAt.Equal(cands[j].e.lastAccessedAt) {
			return cands[i].e.seq < cands[j].e.seq
		}
		return cands[i].e.lastAccessedAt.Before(cands[j].e.lastAccessedAt)
	})
	return cands
}

// enforceLimitsLocked runs the standard eviction pass: while either budget
// is exceeded, remove the oldest non-protected entries. Protected entries
// are never sacrificed, even if that leaves the store over budget — the
// upcoming playback window is worth more than the budget. Caller holds
// m.mu.
func (m *Manager) enforceLimitsLocked() {
	if m.withinBudgetLocked() {
		return
	}
	protected := m.protectedLocked()
	for _, cand := range m.evictionCandidatesLocked(protected) {
		if m.withinBudgetLocked() {
			return
		}
		m.evictLocked(cand.key, cand.e)
	}
	if !m.withinBudgetLocked() {
		m.log.Debug("over budget after eviction pass, protected entries kept",
			"bytesUsed", m.bytesUsed,
			"items", len(m.entries))
	}
}

// withinBudgetLocked reports whether both budgets hold. Caller holds m.mu.
func (m *Manager) withinBudgetLocked() bool {
	return m.bytesUsed <= m.cfg.MaxBytes && len(m.entries) <= m.cfg.MaxItems
}

// evictStaleLocked runs the conservative pass: only candidates idle longer
// than maxAge are removed, regardless of memory pressure. Returns the
// number of entries removed. Caller holds m.mu.
func (m *Manager) evictStaleLocked(maxAge time.Duration) int {
	now := time.Now()
	protected := m.protectedLocked()
	removed := 0
	for _, cand := range m.evictionCandidatesLocked(protected) {
		if now.Sub(cand.e.lastAccessedAt) <= maxAge {
			continue
		}
		m.evictLocked(cand.key, cand.e)
		removed++
	}
	return removed
}

// evictLocked removes a single candidate and accounts for it. Caller
// holds m.mu.
func (m *Manager) evictLocked(key int, e *entry) {
	idle := time.Since(e.lastAccessedAt)
	m.removeEntryLocked(key, e)
	m.counters.evicted.Add(1)
	m.log.Debug("evicted", "key", key, "size", e.size, "idle", idle)
}

// EvictStale runs a stale-only eviction pass with the given idle
// threshold, returning how many entries were removed. The memory monitor
// uses the configured StaleAge; callers may run stricter passes manually.
func (m *Manager) EvictStale(maxAge time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.evictStaleLocked(maxAge), nil
}
