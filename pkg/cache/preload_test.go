package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func playlistOf(sources ...*stubSource) []Item {
	items := make([]Item, len(sources))
	for i, src := range sources {
		items[i] = Item{Label: src.Label(), Source: src}
	}
	return items
}

func TestPreloadUpcoming_LoadsWindow(t *testing.T) {
	m := newTestManager(t, testConfig()) // preload width 2

	sources := []*stubSource{
		{label: "t0", data: []byte("0")},
		{label: "t1", data: []byte("1")},
		{label: "t2", data: []byte("2")},
		{label: "t3", data: []byte("3")},
	}
	if err := m.SetPlaylist(playlistOf(sources...)); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}

	loaded, err := m.PreloadUpcoming(context.Background(), 0)
	if err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(loaded, want) {
		t.Errorf("loaded = %v, want %v", loaded, want)
	}
	if m.Contains(0) || m.Contains(3) {
		t.Error("preload touched items outside the window")
	}
	if sources[1].reads.Load() != 1 || sources[2].reads.Load() != 1 {
		t.Error("window sources were not read exactly once")
	}
}

func TestPreloadUpcoming_SkipsCachedAndPending(t *testing.T) {
	m := newTestManager(t, testConfig())

	gate := make(chan struct{})
	sources := []*stubSource{
		{label: "t0", data: []byte("0")},
		{label: "t1", data: []byte("1")},
		{label: "t2", data: []byte("2"), gate: gate},
	}
	if err := m.SetPlaylist(playlistOf(sources...)); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}

	// Key 1 is already cached; key 2 is mid-flight.
	mustLoad(t, m, 1, 16)
	go func() {
		_, _ = m.Request(context.Background(), 2, sources[2])
	}()
	waitForPending(t, m, 1)

	loaded, err := m.PreloadUpcoming(context.Background(), 0)
	if err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want none (cached and pending skipped)", loaded)
	}
	if n := sources[1].reads.Load(); n != 0 {
		t.Errorf("cached target read %d times, want 0", n)
	}
	if n := sources[2].reads.Load(); n != 1 {
		t.Errorf("pending target read %d times, want 1 (the original read)", n)
	}
	close(gate)
}

func TestPreloadUpcoming_EmptyUnderShuffle(t *testing.T) {
	m := newTestManager(t, testConfig())

	sources := []*stubSource{
		{label: "t0", data: []byte("0")},
		{label: "t1", data: []byte("1")},
		{label: "t2", data: []byte("2")},
		{label: "t3", data: []byte("3")},
		{label: "t4", data: []byte("4")},
	}
	if err := m.SetPlaylist(playlistOf(sources...)); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}
	if err := m.SetShuffle(true); err != nil {
		t.Fatalf("SetShuffle failed: %v", err)
	}

	loaded, err := m.PreloadUpcoming(context.Background(), 3)
	if err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want none under shuffle", loaded)
	}
	for i, src := range sources {
		if src.reads.Load() != 0 {
			t.Errorf("source %d was read under shuffle", i)
		}
	}

	// The playback position was still recorded.
	mustLoad(t, m, 3, 16)
	diags := m.EntryDiagnostics()
	if len(diags) != 1 || !diags[0].IsCurrent {
		t.Error("current index 3 was not recorded by PreloadUpcoming")
	}
}

func TestPreloadUpcoming_FailSoft(t *testing.T) {
	m := newTestManager(t, testConfig())

	sources := []*stubSource{
		{label: "t0", data: []byte("0")},
		{label: "t1", err: errors.New("bad sector")},
		{label: "t2", data: []byte("2")},
	}
	if err := m.SetPlaylist(playlistOf(sources...)); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}

	batch := make(chan []int, 1)
	if err := m.SetCallbacks(Callbacks{
		OnPreloadComplete: func(keys []int) { batch <- keys },
	}); err != nil {
		t.Fatalf("SetCallbacks failed: %v", err)
	}

	loaded, err := m.PreloadUpcoming(context.Background(), 0)
	if err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}
	if want := []int{2}; !reflect.DeepEqual(loaded, want) {
		t.Errorf("loaded = %v, want %v (one bad target must not fail the batch)", loaded, want)
	}
	if !m.Contains(2) {
		t.Error("healthy target was not cached")
	}
	if m.Contains(1) {
		t.Error("failed target ended up cached")
	}
	select {
	case keys := <-batch:
		if want := []int{2}; !reflect.DeepEqual(keys, want) {
			t.Errorf("OnPreloadComplete keys = %v, want %v", keys, want)
		}
	case <-time.After(time.Second):
		t.Fatal("OnPreloadComplete never fired")
	}
}

func TestPreloadUpcoming_EndOfPlaylist(t *testing.T) {
	m := newTestManager(t, testConfig())

	sources := []*stubSource{
		{label: "t0", data: []byte("0")},
		{label: "t1", data: []byte("1")},
	}
	if err := m.SetPlaylist(playlistOf(sources...)); err != nil {
		t.Fatalf("SetPlaylist failed: %v", err)
	}

	loaded, err := m.PreloadUpcoming(context.Background(), 1)
	if err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want none past the last item", loaded)
	}
}
