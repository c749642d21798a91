package sysinfo

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	h := Detect()
	if h.NumCPU < 1 {
		t.Errorf("NumCPU = %d, want at least 1", h.NumCPU)
	}
}

func TestRuntimeProbe(t *testing.T) {
	const budget = 1 << 30
	probe := Runtime(budget)

	used, total, err := probe.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if total != budget {
		t.Errorf("total = %d, want %d", total, budget)
	}
	if used == 0 {
		t.Error("used = 0, want a live heap figure")
	}
}

func TestSystemProbe(t *testing.T) {
	probe, err := System()
	if errors.Is(err, ErrUnsupported) {
		t.Skip("no system probe on this platform")
	}
	if err != nil {
		t.Fatalf("System failed: %v", err)
	}

	used, total, err := probe.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if total == 0 {
		t.Error("total = 0, want host memory size")
	}
	if used > total {
		t.Errorf("used %d exceeds total %d", used, total)
	}
}
