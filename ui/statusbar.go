package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// statusBarView composes the bottom bar: logo, playlist note or transient
// status message, transport status and track counter.
func (m model) statusBarView() string {
	logo := logoStyle.Render("audiocache")

	note := m.pl.Name
	if m.statusMessage != "" {
		note = m.statusMessage
	}

	var right strings.Builder
	if transport := m.nowPlaying.compactStatus(); transport != "" {
		right.WriteString(" ")
		right.WriteString(transport)
	}
	if m.shuffle {
		right.WriteString(statusBarNoteStyle.Render(" ⇄"))
	}
	if m.current >= 0 {
		right.WriteString(statusBarNoteStyle.Render(fmt.Sprintf(" %d/%d ", m.current+1, m.pl.Len())))
	} else {
		right.WriteString(statusBarNoteStyle.Render(fmt.Sprintf(" %d tracks ", m.pl.Len())))
	}

	avail := m.common.width - lipgloss.Width(logo) - lipgloss.Width(right.String())
	if avail < 0 {
		avail = 0
	}
	raw := " " + note
	if avail > 1 {
		raw = truncate.StringWithTail(raw, uint(avail), ellipsis)
	}
	if pad := avail - runewidth.StringWidth(raw); pad > 0 {
		raw += strings.Repeat(" ", pad)
	}

	return logo + statusBarNoteStyle.Render(raw) + right.String()
}

// helpView is the single-line key legend under the status bar.
func (m model) helpView() string {
	help := "enter: play • space: pause • n/p: next/prev • s: shuffle • /: filter • i: stats • q: quit"
	if m.state == stateShowStats {
		help = "y: copy diagnostics • i: back to playlist • q: quit"
	}
	line := "  " + help
	if m.common.width > 0 {
		line = truncate.StringWithTail(line, uint(m.common.width), ellipsis)
	}
	return subtleStyle.Render(line)
}
