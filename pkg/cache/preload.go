package cache

import (
	"context"
	"sort"
	"sync"
)

// preloadTarget is one upcoming item the scheduler decided to load.
type preloadTarget struct {
	key int
	src Source
}

// preloadTargetsLocked picks up to PreloadWidth keys after currentIndex
// that exist in the playlist and are neither stored nor pending. Shuffled
// playback yields no targets at all: the upcoming order is unpredictable,
// so preloading would burn budget on guesses. Caller holds m.mu.
func (m *Manager) preloadTargetsLocked(currentIndex int) []preloadTarget {
	if m.shuffled || m.cfg.PreloadWidth <= 0 {
		return nil
	}
	var targets []preloadTarget
	for i := 1; i <= m.cfg.PreloadWidth; i++ {
		key := currentIndex + i
		if key < 0 {
			continue
		}
		if key >= len(m.items) {
			break
		}
		if _, ok := m.entries[key]; ok {
			continue
		}
		if _, ok := m.pending[key]; ok {
			continue
		}
		if m.items[key].Source == nil {
			continue
		}
		targets = append(targets, preloadTarget{key: key, src: m.items[key].Source})
	}
	return targets
}

// PreloadUpcoming records currentIndex as the playback position and loads
// the upcoming window. Targets load concurrently and settle independently:
// one failed target never cancels or fails the rest. The returned keys are
// the targets that actually loaded, ascending. OnPreloadComplete fires
// with the same keys once the batch settles (it is not fired when there
// was nothing to do).
func (m *Manager) PreloadUpcoming(ctx context.Context, currentIndex int) ([]int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.currentIndex = currentIndex
	targets := m.preloadTargetsLocked(currentIndex)
	m.mu.Unlock()

	if len(targets) == 0 {
		return nil, nil
	}
	m.log.Debug("preloading", "current", currentIndex, "targets", len(targets))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		loaded []int
	)
	for _, t := range targets {
		wg.Add(1)
		go func(t preloadTarget) {
			defer wg.Done()
			if _, err := m.Request(ctx, t.key, t.src); err != nil {
				m.log.Debug("preload target failed", "key", t.key, "err", err)
				return
			}
			mu.Lock()
			loaded = append(loaded, t.key)
			mu.Unlock()
		}(t)
	}
	wg.Wait()
	sort.Ints(loaded)

	m.mu.Lock()
	cb := m.callbacks.OnPreloadComplete
	m.mu.Unlock()
	if cb != nil {
		cb(loaded)
	}
	return loaded, nil
}
