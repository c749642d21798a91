package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// stubSource is the in-test read primitive. When gate is non-nil, Read
// blocks until the gate closes or the read context is cancelled;
// ignoreCtx simulates a read primitive with no abort support.
type stubSource struct {
	label     string
	data      []byte
	err       error
	gate      chan struct{}
	ignoreCtx bool
	reads     atomic.Int32
}

func (s *stubSource) Label() string {
	if s.label == "" {
		return "stub"
	}
	return s.label
}

func (s *stubSource) Read(ctx context.Context, progress ProgressFunc) ([]byte, error) {
	s.reads.Add(1)
	if s.gate != nil {
		if s.ignoreCtx {
			<-s.gate
		} else {
			select {
			case <-s.gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if progress != nil {
		progress(int64(len(s.data)), int64(len(s.data)))
	}
	return s.data, nil
}

// testConfig matches the medium capacity tier with fast monitor knobs.
func testConfig() Config {
	return Config{
		Tier:         TierMedium,
		MaxBytes:     50_000_000,
		MaxItems:     6,
		PreloadWidth: 2,
	}
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()
	m, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// mustLoad stores size bytes under key through the normal request path.
func mustLoad(t *testing.T, m *Manager, key, size int) {
	t.Helper()
	src := &stubSource{data: make([]byte, size), label: fmt.Sprintf("item-%d", key)}
	if _, err := m.Request(context.Background(), key, src); err != nil {
		t.Fatalf("Request(%d) failed: %v", key, err)
	}
}

// setLastAccess backdates an entry for eviction tests.
func setLastAccess(t *testing.T, m *Manager, key int, at time.Time) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		t.Fatalf("no entry for key %d", key)
	}
	e.lastAccessedAt = at
}

func pendingCount(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// waitForPending polls until n loads are in flight.
func waitForPending(t *testing.T, m *Manager, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for pendingCount(m) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending loads, have %d", n, pendingCount(m))
		}
		time.Sleep(time.Millisecond)
	}
}

// assertCounterIntegrity checks bytesUsed against the sum of entry sizes.
func assertCounterIntegrity(t *testing.T, m *Manager) {
	t.Helper()
	var sum int64
	for _, d := range m.EntryDiagnostics() {
		sum += d.SizeBytes
	}
	if got := m.Stats().BytesUsed; got != sum {
		t.Errorf("bytesUsed = %d, want sum of entry sizes %d", got, sum)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	bad := []Config{
		{MaxBytes: 0, MaxItems: 6, PreloadWidth: 2},
		{MaxBytes: 1024, MaxItems: 0, PreloadWidth: 2},
		{MaxBytes: 1024, MaxItems: 6, PreloadWidth: -1},
		{MaxBytes: 1024, MaxItems: 6, HighWaterMark: 1.5},
		{MaxBytes: 1024, MaxItems: 6, MaxConcurrentLoads: -1},
	}
	for i, cfg := range bad {
		if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("config %d: got %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestManager_GetLoadsThroughPlaylist(t *testing.T) {
	m := newTestManager(t, testConfig())
	src := &stubSource{data: []byte("side-a")}
	if err := m.SetPlaylist([]Item{{Label: "track-0", Source: src}}); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}

	buf, err := m.Get(context.Background(), 0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(buf) != "side-a" {
		t.Errorf("Get returned %q, want %q", buf, "side-a")
	}

	// Second Get is a hit and must not read again.
	if _, err := m.Get(context.Background(), 0); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if n := src.reads.Load(); n != 1 {
		t.Errorf("source read %d times, want 1", n)
	}
	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestManager_GetUnknownKey(t *testing.T) {
	m := newTestManager(t, testConfig())
	if _, err := m.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(42) = %v, want ErrNotFound", err)
	}
}

func TestManager_RemoveAndClear(t *testing.T) {
	m := newTestManager(t, testConfig())
	mustLoad(t, m, 0, 100)
	mustLoad(t, m, 1, 100)
	assertCounterIntegrity(t, m)

	removed, err := m.Remove(0)
	if err != nil || !removed {
		t.Fatalf("Remove(0) = %v, %v, want true, nil", removed, err)
	}
	if m.Contains(0) {
		t.Error("key 0 still stored after Remove")
	}
	removed, err = m.Remove(0)
	if err != nil || removed {
		t.Fatalf("second Remove(0) = %v, %v, want false, nil", removed, err)
	}
	assertCounterIntegrity(t, m)

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	stats := m.Stats()
	if stats.ItemCount != 0 || stats.BytesUsed != 0 {
		t.Errorf("after Clear: itemCount=%d bytesUsed=%d, want 0/0", stats.ItemCount, stats.BytesUsed)
	}
}

func TestManager_Callbacks(t *testing.T) {
	m := newTestManager(t, testConfig())

	var started, progressed atomic.Int32
	completed := make(chan int64, 1)
	failed := make(chan error, 1)
	err := m.SetCallbacks(Callbacks{
		OnLoadStart:    func(key int, label string) { started.Add(1) },
		OnLoadProgress: func(key int, read, total int64) { progressed.Add(1) },
		OnLoadComplete: func(key int, size int64) { completed <- size },
		OnLoadError:    func(key int, err error) { failed <- err },
	})
	if err != nil {
		t.Fatalf("SetCallbacks failed: %v", err)
	}

	mustLoad(t, m, 0, 64)
	select {
	case size := <-completed:
		if size != 64 {
			t.Errorf("OnLoadComplete size = %d, want 64", size)
		}
	case <-time.After(time.Second):
		t.Fatal("OnLoadComplete never fired")
	}
	if started.Load() != 1 {
		t.Errorf("OnLoadStart fired %d times, want 1", started.Load())
	}
	if progressed.Load() == 0 {
		t.Error("OnLoadProgress never fired")
	}

	boom := errors.New("boom")
	if _, err := m.Request(context.Background(), 1, &stubSource{err: boom}); !errors.Is(err, ErrReadFailure) {
		t.Fatalf("failing Request = %v, want ErrReadFailure", err)
	}
	select {
	case loadErr := <-failed:
		if !errors.Is(loadErr, boom) {
			t.Errorf("OnLoadError err = %v, want wrapped %v", loadErr, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("OnLoadError never fired")
	}
}

func TestManager_CancelledLoadDoesNotFireOnLoadError(t *testing.T) {
	m := newTestManager(t, testConfig())
	errored := make(chan struct{}, 1)
	if err := m.SetCallbacks(Callbacks{
		OnLoadError: func(int, error) { errored <- struct{}{} },
	}); err != nil {
		t.Fatalf("SetCallbacks failed: %v", err)
	}

	gate := make(chan struct{})
	src := &stubSource{data: []byte("x"), gate: gate}
	res := make(chan error, 1)
	go func() {
		_, err := m.Request(context.Background(), 0, src)
		res <- err
	}()
	waitForPending(t, m, 1)
	if err := m.Cancel(0); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := <-res; !errors.Is(err, ErrCancelled) {
		t.Fatalf("cancelled Request = %v, want ErrCancelled", err)
	}
	select {
	case <-errored:
		t.Error("OnLoadError fired for a cancelled load")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_CloseFinality(t *testing.T) {
	m := newTestManager(t, testConfig())
	mustLoad(t, m, 0, 128)

	gate := make(chan struct{})
	defer close(gate)
	res := make(chan error, 1)
	go func() {
		_, err := m.Request(context.Background(), 5, &stubSource{data: []byte("x"), gate: gate})
		res <- err
	}()
	waitForPending(t, m, 1)

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := <-res; !errors.Is(err, ErrCancelled) {
		t.Errorf("pending load after Close = %v, want ErrCancelled", err)
	}

	ctx := context.Background()
	if _, err := m.Request(ctx, 1, &stubSource{data: []byte("x")}); !errors.Is(err, ErrClosed) {
		t.Errorf("Request after Close = %v, want ErrClosed", err)
	}
	if _, err := m.Get(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if _, err := m.PreloadUpcoming(ctx, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("PreloadUpcoming after Close = %v, want ErrClosed", err)
	}
	if err := m.Cancel(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Cancel after Close = %v, want ErrClosed", err)
	}
	if err := m.CancelAll(); !errors.Is(err, ErrClosed) {
		t.Errorf("CancelAll after Close = %v, want ErrClosed", err)
	}
	if _, err := m.Remove(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Remove after Close = %v, want ErrClosed", err)
	}
	if err := m.Clear(); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear after Close = %v, want ErrClosed", err)
	}
	if _, err := m.EvictStale(time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("EvictStale after Close = %v, want ErrClosed", err)
	}
	if err := m.SetPlaylist(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SetPlaylist after Close = %v, want ErrClosed", err)
	}
	if err := m.SetShuffle(true); !errors.Is(err, ErrClosed) {
		t.Errorf("SetShuffle after Close = %v, want ErrClosed", err)
	}
	if err := m.SetCallbacks(Callbacks{}); !errors.Is(err, ErrClosed) {
		t.Errorf("SetCallbacks after Close = %v, want ErrClosed", err)
	}

	if got := m.Stats().ItemCount; got != 0 {
		t.Errorf("Stats().ItemCount after Close = %d, want 0", got)
	}
	if diags := m.EntryDiagnostics(); len(diags) != 0 {
		t.Errorf("EntryDiagnostics after Close has %d rows, want 0", len(diags))
	}
	if err := m.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}

func TestManager_MaxConcurrentLoads(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentLoads = 1
	m := newTestManager(t, cfg)

	var inFlight, maxInFlight atomic.Int32
	slowRead := func() ([]byte, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return []byte("x"), nil
	}

	done := make(chan error, 3)
	for key := 0; key < 3; key++ {
		go func(key int) {
			_, err := m.Request(context.Background(), key, funcSource(slowRead))
			done <- err
		}(key)
	}
	for i := 0; i < 3; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Request failed: %v", err)
		}
	}
	if maxInFlight.Load() > 1 {
		t.Errorf("observed %d concurrent reads, want at most 1", maxInFlight.Load())
	}
}

// funcSource adapts a function to the Source interface.
type funcSource func() ([]byte, error)

func (f funcSource) Label() string { return "func" }

func (f funcSource) Read(ctx context.Context, _ ProgressFunc) ([]byte, error) {
	return f()
}
