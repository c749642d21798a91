package cache

import (
	"context"
	"time"
)

// ProgressFunc receives read progress for an in-flight load. total is -1
// when the source cannot determine its size up front.
type ProgressFunc func(read, total int64)

// Source produces the audio bytes for a single playlist item. Read must
// honor ctx cancellation and may call progress (when non-nil) as bytes
// arrive. Implementations live outside this package; the cache treats the
// handle as opaque.
type Source interface {
	// Label returns a short human-readable description of the source,
	// carried into entry diagnostics and load callbacks.
	Label() string

	// Read produces the complete buffer for the item.
	Read(ctx context.Context, progress ProgressFunc) ([]byte, error)
}

// Item is one slot of the playback context: a label plus the source handle
// used by Get and PreloadUpcoming. The item's key is its playlist index.
type Item struct {
	Label  string
	Source Source
}

// MemoryProbe samples host memory pressure for the monitor. Sample returns
// used and total bytes; implementations that cannot determine pressure
// should return an error, which skips the pass.
type MemoryProbe interface {
	Sample() (used, total uint64, err error)
}

// Callbacks is the typed event interface invoked synchronously from load
// and monitor completion points. All fields are optional. Callbacks run
// outside the manager's lock, so they may call back into the Manager, but
// they should return quickly: a slow callback delays the waiters of the
// load that fired it. OnMemoryWarning receives used memory as a 0-100
// percentage; OnLoadError fires for failed reads, not cancelled ones.
type Callbacks struct {
	OnLoadStart       func(key int, label string)
	OnLoadProgress    func(key int, read, total int64)
	OnLoadComplete    func(key int, size int64)
	OnLoadError       func(key int, err error)
	OnMemoryWarning   func(usedPercent float64)
	OnPreloadComplete func(keys []int)
}

// Stats is a point-in-time view of cache activity. Loaded, Evicted, Hits
// and Misses are monotonic counters; BytesUsed and ItemCount mirror the
// live store.
type Stats struct {
	Loaded    uint64
	Evicted   uint64
	Hits      uint64
	Misses    uint64
	BytesUsed int64
	ItemCount int
	HitRate   float64
}

// EntryDiagnostic describes one stored buffer for inspection tooling.
type EntryDiagnostic struct {
	Key         int
	Label       string
	SizeBytes   int64
	Age         time.Duration
	AccessCount uint32
	IsCurrent   bool
}

// entry is a stored buffer and its bookkeeping. Entries are owned
// exclusively by the store; the byte slice is handed out on hits and must
// be treated as read-only by callers.
type entry struct {
	bytes          []byte
	size           int64
	label          string
	loadedAt       time.Time
	lastAccessedAt time.Time
	accessCount    uint32
	seq            uint64 // insertion order, eviction tie-break
}

// touch marks a cache hit on the entry.
func (e *entry) touch(now time.Time) {
	e.lastAccessedAt = now
	e.accessCount++
}
