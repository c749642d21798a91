package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/audiocache/internal/player"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{61 * time.Second, "1:01"},
		{10 * time.Minute, "10:00"},
		{90 * time.Minute, "90:00"},
		{-time.Second, "0:00"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	if got := renderProgressBar(5, 0.5, playingColor); got != "" {
		t.Errorf("narrow bar = %q, want empty", got)
	}

	bar := renderProgressBar(20, 0.5, playingColor)
	if got := strings.Count(bar, "█"); got != 10 {
		t.Errorf("filled cells = %d, want 10", got)
	}
	if got := strings.Count(bar, "░"); got != 10 {
		t.Errorf("empty cells = %d, want 10", got)
	}

	// Fractions outside [0, 1] clamp instead of overflowing the bar.
	full := renderProgressBar(10, 1.5, playingColor)
	if got := strings.Count(full, "█"); got != 10 {
		t.Errorf("overfull bar filled cells = %d, want 10", got)
	}
	empty := renderProgressBar(10, -0.2, playingColor)
	if got := strings.Count(empty, "░"); got != 10 {
		t.Errorf("underfull bar empty cells = %d, want 10", got)
	}
}

func TestCompactStatus(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	n := newNowPlayingModel(common)

	if got := n.compactStatus(); got != "" {
		t.Errorf("idle compact status = %q, want empty", got)
	}

	n.key = 2
	n.state = player.StatePlaying
	n.position = 3 * time.Second
	n.duration = 10 * time.Second
	out := n.compactStatus()
	for _, want := range []string{"▶", "3", "0:03", "0:10"} {
		if !strings.Contains(out, want) {
			t.Errorf("compact status missing %q: %q", want, out)
		}
	}
}

func TestNowPlayingViewStates(t *testing.T) {
	common := &commonModel{width: 80, height: 24}
	n := newNowPlayingModel(common)

	if out := n.view(); !strings.Contains(out, "Nothing playing") {
		t.Errorf("idle view = %q", out)
	}

	n.startLoading(1, "Coffee Shop")
	n.read = 512
	n.total = 1024
	out := n.view()
	for _, want := range []string{"Coffee Shop", "loading", "50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("loading view missing %q:\n%s", want, out)
		}
	}

	n.finishLoading(nil)
	n.state = player.StatePlaying
	n.position = 2 * time.Second
	n.duration = 8 * time.Second
	out = n.view()
	for _, want := range []string{"▶", "0:02 / 0:08", "█"} {
		if !strings.Contains(out, want) {
			t.Errorf("playing view missing %q:\n%s", want, out)
		}
	}
}
