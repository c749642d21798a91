package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// diagLabelWidth is the label column of the diagnostics table.
const diagLabelWidth = 28

// statsModel renders cache statistics and per-entry diagnostics. It holds
// no state of its own; the snapshot is taken at render time.
type statsModel struct {
	common *commonModel
}

func (s statsModel) view(st cache.Stats, diags []cache.EntryDiagnostic) string {
	var out strings.Builder

	out.WriteString(panelHeaderStyle.Render("Cache"))
	out.WriteString("\n\n")

	out.WriteString(fmt.Sprintf("  %s in %s buffers\n",
		humanize.IBytes(uint64(st.BytesUsed)),
		humanize.Comma(int64(st.ItemCount))))
	out.WriteString(fmt.Sprintf("  hit rate %.1f%%  (%s hits, %s misses)\n",
		st.HitRate*100,
		humanize.Comma(int64(st.Hits)),
		humanize.Comma(int64(st.Misses))))
	out.WriteString(fmt.Sprintf("  loaded %s, evicted %s\n",
		humanize.Comma(int64(st.Loaded)),
		humanize.Comma(int64(st.Evicted))))

	if len(diags) == 0 {
		out.WriteString("\n")
		out.WriteString(subtleStyle.Render("  (cache is empty)"))
		return out.String()
	}

	out.WriteString("\n")
	header := fmt.Sprintf("  %4s  %-*s%10s%8s%8s",
		"key", diagLabelWidth, "track", "size", "age", "plays")
	out.WriteString(subtleStyle.Render(header))
	out.WriteString("\n")

	for _, d := range diags {
		line := fmt.Sprintf("  %4d  %s%10s%8s%8d",
			d.Key+1,
			padLabel(d.Label, diagLabelWidth),
			humanize.IBytes(uint64(d.SizeBytes)),
			d.Age.Truncate(time.Second).String(),
			d.AccessCount)
		if d.IsCurrent {
			out.WriteString(playingMarkStyle.Render(line))
		} else {
			out.WriteString(line)
		}
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(subtleStyle.Render("  y: copy diagnostics   i: back to playlist"))
	return out.String()
}

// padLabel truncates and right-pads a label so wide runes keep the table
// columns aligned.
func padLabel(label string, width int) string {
	s := truncate.StringWithTail(label, uint(width-1), ellipsis)
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

// diagnosticsText renders a plain-text report for the clipboard.
func diagnosticsText(st cache.Stats, diags []cache.EntryDiagnostic) string {
	var out strings.Builder
	fmt.Fprintf(&out, "audiocache: %s in %d buffers, hit rate %.1f%% (%d hits, %d misses), loaded %d, evicted %d\n",
		humanize.IBytes(uint64(st.BytesUsed)), st.ItemCount, st.HitRate*100,
		st.Hits, st.Misses, st.Loaded, st.Evicted)
	for _, d := range diags {
		current := " "
		if d.IsCurrent {
			current = "*"
		}
		fmt.Fprintf(&out, "%s %4d  %-40s %10s  age %-8s plays %d\n",
			current, d.Key+1, d.Label,
			humanize.IBytes(uint64(d.SizeBytes)),
			d.Age.Truncate(time.Second).String(), d.AccessCount)
	}
	return out.String()
}
