package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"

	"github.com/dgnsrekt/audiocache/pkg/cache"
)

type filterState int

const (
	unfiltered filterState = iota
	filtering
	filterApplied
)

// browserModel is the scrollable playlist listing with fuzzy filtering.
type browserModel struct {
	common *commonModel

	items   []cache.Item
	targets []string // item labels, the fuzzy search corpus
	all     []int    // identity indexes, reused when unfiltered

	// filtered holds playlist indexes in match order while a filter is
	// active.
	filtered    []int
	filterState filterState
	filterInput textinput.Model

	cursor int // offset into the visible rows
	top    int // first visible row
	height int // rows available for the listing
}

func newBrowserModel(common *commonModel) browserModel {
	si := textinput.New()
	si.Prompt = "Filter: "
	si.PromptStyle = filterPromptStyle
	si.Cursor.Style = filterPromptStyle
	si.CharLimit = 64
	return browserModel{
		common:      common,
		filterInput: si,
		height:      1,
	}
}

func (b *browserModel) setItems(items []cache.Item) {
	b.items = items
	b.targets = make([]string, len(items))
	b.all = make([]int, len(items))
	for i, it := range items {
		b.targets[i] = it.Label
		b.all[i] = i
	}
	b.resetFilter()
	b.cursor = 0
	b.top = 0
}

func (b *browserModel) setSize(width, height int) {
	if height < 1 {
		height = 1
	}
	b.height = height
	b.filterInput.Width = width - len(b.filterInput.Prompt) - 1
	b.clampCursor()
}

// visible returns the playlist indexes currently listed, in display order.
func (b browserModel) visible() []int {
	if b.filterState != unfiltered {
		return b.filtered
	}
	return b.all
}

// selected returns the playlist index under the cursor, or -1 when the
// listing is empty.
func (b browserModel) selected() int {
	rows := b.visible()
	if len(rows) == 0 || b.cursor < 0 || b.cursor >= len(rows) {
		return -1
	}
	return rows[b.cursor]
}

func (b *browserModel) applyFilter() {
	query := b.filterInput.Value()
	if query == "" {
		b.filtered = b.all
	} else {
		matches := fuzzy.Find(query, b.targets)
		b.filtered = make([]int, len(matches))
		for i, m := range matches {
			b.filtered[i] = m.Index
		}
	}
	b.cursor = 0
	b.top = 0
}

func (b *browserModel) resetFilter() {
	b.filterState = unfiltered
	b.filterInput.Blur()
	b.filterInput.SetValue("")
	b.filtered = nil
	b.clampCursor()
}

func (b *browserModel) moveCursor(delta int) {
	b.cursor += delta
	b.clampCursor()
}

func (b *browserModel) clampCursor() {
	max := len(b.visible()) - 1
	if b.cursor > max {
		b.cursor = max
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor < b.top {
		b.top = b.cursor
	}
	if b.cursor >= b.top+b.height {
		b.top = b.cursor - b.height + 1
	}
	if b.top < 0 {
		b.top = 0
	}
}

func (b browserModel) update(msg tea.Msg) (browserModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	// While the filter input has focus every printable key belongs to it.
	if b.filterState == filtering {
		switch key.String() {
		case "esc":
			b.resetFilter()
			return b, nil
		case "enter", "tab":
			if b.filterInput.Value() == "" {
				b.resetFilter()
			} else {
				b.filterState = filterApplied
				b.filterInput.Blur()
			}
			return b, nil
		}
		var cmd tea.Cmd
		b.filterInput, cmd = b.filterInput.Update(msg)
		b.applyFilter()
		return b, cmd
	}

	switch key.String() {
	case "/":
		b.filterState = filtering
		b.filterInput.SetValue("")
		b.applyFilter()
		return b, tea.Batch(b.filterInput.Focus(), textinput.Blink)
	case "esc":
		b.resetFilter()
	case "down", "j":
		b.moveCursor(1)
	case "up", "k":
		b.moveCursor(-1)
	case "pgdown":
		b.moveCursor(b.height)
	case "pgup":
		b.moveCursor(-b.height)
	case "home", "g":
		b.cursor = 0
		b.top = 0
	case "end", "G":
		b.cursor = len(b.visible()) - 1
		b.clampCursor()
	}
	return b, nil
}

// filtering reports whether keystrokes currently belong to the filter
// input rather than global shortcuts.
func (b browserModel) isFiltering() bool {
	return b.filterState == filtering
}

// view renders the listing. current marks the playing track; isCached and
// isPending report per-item cache status for the leading marker.
func (b browserModel) view(current int, isCached, isPending func(int) bool) string {
	var out strings.Builder

	if b.filterState == filtering {
		out.WriteString(b.filterInput.View())
	} else {
		header := fmt.Sprintf("%d tracks", len(b.items))
		if b.filterState == filterApplied {
			header = fmt.Sprintf("%d of %d tracks match %q",
				len(b.filtered), len(b.items), b.filterInput.Value())
		}
		out.WriteString(subtleStyle.Render(header))
	}
	out.WriteString("\n\n")

	rows := b.visible()
	if len(rows) == 0 {
		out.WriteString(subtleStyle.Render("  (no matching tracks)"))
		return out.String()
	}

	end := b.top + b.height
	if end > len(rows) {
		end = len(rows)
	}
	for row := b.top; row < end; row++ {
		idx := rows[row]
		out.WriteString(b.renderRow(row, idx, current, isCached, isPending))
		if row < end-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

func (b browserModel) renderRow(row, idx, current int, isCached, isPending func(int) bool) string {
	mark := "  "
	switch {
	case idx == current:
		mark = playingMarkStyle.Render("▶ ")
	case isPending != nil && isPending(idx):
		mark = pendingMarkStyle.Render("◌ ")
	case isCached != nil && isCached(idx):
		mark = cachedMarkStyle.Render("● ")
	}

	num := subtleStyle.Render(fmt.Sprintf("%3d", idx+1))

	width := b.common.width - 10
	if width < 8 {
		width = 8
	}
	label := truncate.StringWithTail(b.items[idx].Label, uint(width), ellipsis)

	line := fmt.Sprintf("%s %s %s", mark, num, label)
	if row == b.cursor {
		return selectedRowStyle.Render("> ") + line
	}
	return "  " + line
}
