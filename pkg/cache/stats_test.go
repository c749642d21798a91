package cache

import (
	"context"
	"testing"
)

func TestStats_ZeroRequestsHasZeroHitRate(t *testing.T) {
	m := newTestManager(t, testConfig())

	st := m.Stats()
	if st.HitRate != 0 {
		t.Errorf("HitRate = %v with no requests, want 0", st.HitRate)
	}
	if st.Hits != 0 || st.Misses != 0 || st.Loaded != 0 || st.Evicted != 0 {
		t.Errorf("fresh manager counters = %+v, want all zero", st)
	}
}

func TestStats_HitRate(t *testing.T) {
	m := newTestManager(t, testConfig())
	src := &stubSource{data: make([]byte, 32)}

	if _, err := m.Request(context.Background(), 1, src); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := m.Request(context.Background(), 1, src); err != nil {
			t.Fatalf("Request failed: %v", err)
		}
	}

	st := m.Stats()
	if st.Hits != 3 || st.Misses != 1 {
		t.Fatalf("hits/misses = %d/%d, want 3/1", st.Hits, st.Misses)
	}
	if st.HitRate != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", st.HitRate)
	}
	if st.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", st.Loaded)
	}
	if st.BytesUsed != 32 || st.ItemCount != 1 {
		t.Errorf("BytesUsed/ItemCount = %d/%d, want 32/1", st.BytesUsed, st.ItemCount)
	}
}

func TestEntryDiagnostics_SortedByKey(t *testing.T) {
	m := newTestManager(t, testConfig())

	// Insert out of key order.
	for _, key := range []int{5, 1, 3} {
		mustLoad(t, m, key, 16)
	}
	if err := m.SetShuffle(true); err != nil {
		t.Fatalf("SetShuffle failed: %v", err)
	}
	if _, err := m.PreloadUpcoming(context.Background(), 3); err != nil {
		t.Fatalf("PreloadUpcoming failed: %v", err)
	}

	diags := m.EntryDiagnostics()
	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(diags))
	}
	for i, want := range []int{1, 3, 5} {
		if diags[i].Key != want {
			t.Errorf("diags[%d].Key = %d, want %d", i, diags[i].Key, want)
		}
	}
	for _, d := range diags {
		if got, want := d.IsCurrent, d.Key == 3; got != want {
			t.Errorf("diags key %d IsCurrent = %v, want %v", d.Key, got, want)
		}
		if d.SizeBytes != 16 {
			t.Errorf("diags key %d SizeBytes = %d, want 16", d.Key, d.SizeBytes)
		}
		if d.Age < 0 {
			t.Errorf("diags key %d Age = %v, negative", d.Key, d.Age)
		}
	}
}

func TestEntryDiagnostics_AccessCount(t *testing.T) {
	m := newTestManager(t, testConfig())
	mustLoad(t, m, 2, 16)

	for i := 0; i < 4; i++ {
		if _, err := m.Get(context.Background(), 2); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	diags := m.EntryDiagnostics()
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	// One access from the initial load plus four hits.
	if diags[0].AccessCount != 5 {
		t.Errorf("AccessCount = %d, want 5", diags[0].AccessCount)
	}
	if diags[0].Label != "item-2" {
		t.Errorf("Label = %q, want %q", diags[0].Label, "item-2")
	}
}

func TestStats_ReadableAfterClose(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mustLoad(t, m, 1, 64)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	st := m.Stats()
	if st.ItemCount != 0 || st.BytesUsed != 0 {
		t.Errorf("post-close ItemCount/BytesUsed = %d/%d, want 0/0", st.ItemCount, st.BytesUsed)
	}
	if st.Loaded != 1 || st.Misses != 1 {
		t.Errorf("post-close Loaded/Misses = %d/%d, want 1/1", st.Loaded, st.Misses)
	}
	if len(m.EntryDiagnostics()) != 0 {
		t.Error("post-close diagnostics not empty")
	}
}
