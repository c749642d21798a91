package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

// Manager owns the buffer store, the pending-load registry, and the
// playback context, and serializes every mutation behind a single mutex.
// Physical reads run in their own goroutines; waiters block on the
// pending call's done channel.
type Manager struct {
	cfg Config
	log *log.Logger

	mu        sync.Mutex
	closed    bool
	entries   map[int]*entry
	bytesUsed int64
	nextSeq   uint64
	pending   map[int]*call

	// Playback context, supplied by the caller
	items        []Item
	currentIndex int
	shuffled     bool

	callbacks Callbacks

	// Metrics
	counters counters

	// Optional cap on concurrent physical reads
	sem *semaphore.Weighted

	// Memory monitor
	probe       MemoryProbe
	monitorStop chan struct{}
	monitorWg   sync.WaitGroup
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger replaces the manager's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMemoryProbe supplies a memory-pressure probe. The monitor goroutine
// only starts when a probe is present; without one the manager never
// samples memory at all.
func WithMemoryProbe(p MemoryProbe) Option {
	return func(m *Manager) {
		m.probe = p
	}
}

// New creates a Manager for the given configuration. The monitor starts
// only when WithMemoryProbe supplies a probe.
func New(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:     cfg,
		log:     log.WithPrefix("cache"),
		entries: make(map[int]*entry),
		pending: make(map[int]*call),
	}
	for _, opt := range opts {
		opt(m)
	}
	if cfg.MaxConcurrentLoads > 0 {
		m.sem = semaphore.NewWeighted(cfg.MaxConcurrentLoads)
	}
	if m.probe != nil {
		m.startMonitor()
	}
	m.log.Debug("manager initialized",
		"tier", cfg.Tier,
		"maxBytes", cfg.MaxBytes,
		"maxItems", cfg.MaxItems,
		"preloadWidth", cfg.PreloadWidth,
		"monitor", m.probe != nil)
	return m, nil
}

// Get returns the buffer for a playlist item, loading it through the
// item's source when absent. It fails with ErrNotFound when the key has
// no playlist entry.
func (m *Manager) Get(ctx context.Context, key int) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := m.entries[key]; ok {
		e.touch(time.Now())
		m.counters.hits.Add(1)
		buf := e.bytes
		m.mu.Unlock()
		return buf, nil
	}
	if key < 0 || key >= len(m.items) || m.items[key].Source == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, key)
	}
	src := m.items[key].Source
	m.mu.Unlock()
	return m.Request(ctx, key, src)
}

// Remove drops a stored buffer. It reports whether the key was present.
func (m *Manager) Remove(key int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	m.removeEntryLocked(key, e)
	return true, nil
}

// Clear drops every stored buffer. Pending loads are unaffected; use
// CancelAll to abort those.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	n := len(m.entries)
	m.entries = make(map[int]*entry)
	m.bytesUsed = 0
	m.log.Debug("store cleared", "dropped", n)
	return nil
}

// Contains reports whether a buffer is stored for the key. It does not
// count as an access.
func (m *Manager) Contains(key int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Pending reports whether a load for the key is in flight.
func (m *Manager) Pending(key int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// SetPlaylist replaces the playback context's ordered items and resets the
// playback position to the first item. Buffers cached under old indices
// stay stored until evicted or removed.
func (m *Manager) SetPlaylist(items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items = append([]Item(nil), items...)
	m.currentIndex = 0
	m.log.Debug("playlist set", "items", len(items))
	return nil
}

// SetShuffle toggles shuffled playback. While shuffled, preloading is
// suspended and eviction protects only the current item.
func (m *Manager) SetShuffle(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.shuffled = enabled
	return nil
}

// SetCallbacks registers the event callbacks. The set is replaced as a
// whole; pass a zero Callbacks to silence all events.
func (m *Manager) SetCallbacks(cb Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.callbacks = cb
	return nil
}

// Close tears the manager down: every pending load is cancelled (its
// waiters resolve with ErrCancelled), the memory monitor stops, the store
// is emptied and callbacks are dropped. After Close every loading or
// mutating operation fails with ErrClosed; Stats and EntryDiagnostics
// keep working and report an empty store. A second Close returns
// ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	calls := make([]*call, 0, len(m.pending))
	for _, c := range m.pending {
		c.cancelled = true
		calls = append(calls, c)
	}
	m.pending = make(map[int]*call)
	m.entries = make(map[int]*entry)
	m.bytesUsed = 0
	m.callbacks = Callbacks{}
	m.items = nil
	m.mu.Unlock()

	for _, c := range calls {
		c.cancel()
	}
	m.stopMonitor()
	m.log.Debug("manager closed", "cancelledLoads", len(calls))
	return nil
}
