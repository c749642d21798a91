package cache

import "time"

// insertLocked creates the entry for a completed load, charges its size to
// the byte counter and runs the standard eviction pass. An existing entry
// under the same key is removed first; entries are never mutated in place.
// Caller holds m.mu.
func (m *Manager) insertLocked(key int, buf []byte, label string) {
	if old, ok := m.entries[key]; ok {
		m.removeEntryLocked(key, old)
	}
	now := time.Now()
	m.nextSeq++
	e := &entry{
		bytes:          buf,
		size:           int64(len(buf)),
		label:          label,
		loadedAt:       now,
		lastAccessedAt: now,
		accessCount:    1,
		seq:            m.nextSeq,
	}
	m.entries[key] = e
	m.bytesUsed += e.size
	m.counters.loaded.Add(1)
	m.enforceLimitsLocked()
}

// removeEntryLocked drops an entry and releases its bytes from the
// counter. Caller holds m.mu and has already looked the entry up.
func (m *Manager) removeEntryLocked(key int, e *entry) {
	delete(m.entries, key)
	m.bytesUsed -= e.size
	e.bytes = nil
}
