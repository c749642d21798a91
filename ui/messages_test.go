package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBridgeCallbacksDelivers(t *testing.T) {
	ch := make(chan cacheEventMsg, 4)
	cb := bridgeCallbacks(ch)

	cb.OnLoadStart(3, "coffee.pcm")
	cb.OnLoadProgress(3, 512, 1024)
	cb.OnLoadComplete(3, 1024)
	cb.OnMemoryWarning(91.5)

	want := []cacheEventKind{eventLoadStart, eventLoadProgress, eventLoadComplete, eventMemoryWarning}
	for i, kind := range want {
		ev := <-ch
		if ev.kind != kind {
			t.Fatalf("event %d kind = %d, want %d", i, ev.kind, kind)
		}
		if kind == eventLoadProgress && (ev.read != 512 || ev.total != 1024) {
			t.Fatalf("progress event = %+v", ev)
		}
		if kind == eventMemoryWarning && ev.percent != 91.5 {
			t.Fatalf("warning percent = %v, want 91.5", ev.percent)
		}
	}
}

func TestBridgeCallbacksNeverBlocks(t *testing.T) {
	ch := make(chan cacheEventMsg, 1)
	cb := bridgeCallbacks(ch)

	// With nobody draining, extra events drop instead of stalling the
	// load goroutine that fired them.
	cb.OnLoadStart(0, "a")
	cb.OnLoadStart(1, "b")
	cb.OnLoadError(2, errors.New("boom"))

	if got := len(ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
	ev := <-ch
	if ev.kind != eventLoadStart || ev.key != 0 {
		t.Fatalf("surviving event = %+v, want first load start", ev)
	}
}

func TestLoadPlaylistDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pcm", "a.pcm"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	pl, err := loadPlaylist(dir, false)
	if err != nil {
		t.Fatalf("loadPlaylist: %v", err)
	}
	if pl.Len() != 2 {
		t.Fatalf("len = %d, want 2", pl.Len())
	}
	if pl.Items[0].Label != "a.pcm" {
		t.Fatalf("first label = %q, want a.pcm", pl.Items[0].Label)
	}
}

func TestLoadPlaylistMissing(t *testing.T) {
	if _, err := loadPlaylist(filepath.Join(t.TempDir(), "absent.md"), false); err == nil {
		t.Fatal("expected error for missing playlist")
	}
}
