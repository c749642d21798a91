package cache

import "time"

// startMonitor launches the memory monitor goroutine. Only called from New
// and only when a probe is present.
func (m *Manager) startMonitor() {
	m.monitorStop = make(chan struct{})
	m.monitorWg.Add(1)
	go m.monitorLoop()
}

// stopMonitor stops the ticker goroutine and waits for it to exit. Safe to
// call when the monitor never started.
func (m *Manager) stopMonitor() {
	if m.monitorStop == nil {
		return
	}
	close(m.monitorStop)
	m.monitorWg.Wait()
	m.monitorStop = nil
}

// monitorLoop samples the probe on every tick until stopped.
func (m *Manager) monitorLoop() {
	defer m.monitorWg.Done()
	ticker := time.NewTicker(m.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.samplePressure()
		case <-m.monitorStop:
			return
		}
	}
}

// samplePressure takes one probe sample. Above the high-water mark it runs
// a stale-only pass and emits a memory warning; probe failures skip the
// pass. It never raises to callers.
func (m *Manager) samplePressure() {
	used, total, err := m.probe.Sample()
	if err != nil {
		m.log.Warn("memory probe failed, skipping pass", "err", err)
		return
	}
	if total == 0 {
		return
	}
	ratio := float64(used) / float64(total)
	if ratio <= m.cfg.HighWaterMark {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	removed := m.evictStaleLocked(m.cfg.StaleAge)
	cb := m.callbacks.OnMemoryWarning
	m.mu.Unlock()

	pct := ratio * 100
	m.log.Warn("memory pressure high",
		"usedPercent", pct,
		"staleEvicted", removed)
	if cb != nil {
		cb(pct)
	}
}
