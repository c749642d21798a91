package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/audiocache/internal/player"
)

// nowPlayingModel renders the playback panel: track, transport state, load
// progress while a buffer is fetched and position once it plays.
type nowPlayingModel struct {
	common  *commonModel
	spinner spinner.Model

	key   int // playlist index, -1 when nothing is selected
	label string

	loading bool
	read    int64
	total   int64 // -1 when the source size is unknown
	loadErr error

	state    player.State
	position time.Duration
	duration time.Duration
	volume   float64
}

func newNowPlayingModel(common *commonModel) nowPlayingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(loadingColor)
	return nowPlayingModel{
		common:  common,
		spinner: sp,
		key:     -1,
		volume:  1,
	}
}

// startLoading marks a fetch in flight for the given track.
func (n *nowPlayingModel) startLoading(key int, label string) {
	n.key = key
	n.label = label
	n.loading = true
	n.read = 0
	n.total = 0
	n.loadErr = nil
}

func (n *nowPlayingModel) finishLoading(err error) {
	n.loading = false
	n.loadErr = err
}

func (n nowPlayingModel) update(msg tea.Msg) (nowPlayingModel, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && n.loading {
		var cmd tea.Cmd
		n.spinner, cmd = n.spinner.Update(msg)
		return n, cmd
	}
	return n, nil
}

// compactStatus is the short form shown in the status bar.
func (n nowPlayingModel) compactStatus() string {
	if n.key < 0 {
		return ""
	}
	icon, color := stateIcon(n.state, n.loading)
	style := lipgloss.NewStyle().Foreground(color)
	status := style.Render(fmt.Sprintf("%s %d", icon, n.key+1))
	if !n.loading && n.duration > 0 {
		status += subtleStyle.Render(fmt.Sprintf(" %s/%s",
			formatDuration(n.position), formatDuration(n.duration)))
	}
	return status
}

// view renders the multi-line panel above the status bar.
func (n nowPlayingModel) view() string {
	width := n.common.width
	if width < 20 {
		width = 20
	}

	var lines []string

	if n.key < 0 {
		lines = append(lines, subtleStyle.Render("Nothing playing. Press enter to play the selected track."))
		return strings.Join(lines, "\n")
	}

	icon, color := stateIcon(n.state, n.loading)
	stateStyle := lipgloss.NewStyle().Foreground(color)
	label := truncate.StringWithTail(n.label, uint(width-12), ellipsis)
	lines = append(lines, fmt.Sprintf("%s %s",
		stateStyle.Render(icon),
		panelHeaderStyle.Render(label)))

	switch {
	case n.loading:
		line := n.spinner.View() + " loading"
		if n.total > 0 {
			frac := float64(n.read) / float64(n.total)
			line += fmt.Sprintf(" %3.f%%", frac*100)
			lines = append(lines, line)
			lines = append(lines, renderProgressBar(width-4, frac, loadingColor))
		} else {
			lines = append(lines, line)
		}
	case n.loadErr != nil:
		msg := truncate.StringWithTail(n.loadErr.Error(), uint(width-9), ellipsis)
		lines = append(lines, errorStyle.Render("Error: "+msg))
	case n.duration > 0:
		lines = append(lines, fmt.Sprintf("%s / %s",
			formatDuration(n.position), formatDuration(n.duration)))
		frac := float64(n.position) / float64(n.duration)
		lines = append(lines, renderProgressBar(width-4, frac, color))
	}

	lines = append(lines, subtleStyle.Render(fmt.Sprintf("volume %3.f%%", n.volume*100)))
	return strings.Join(lines, "\n")
}

// renderProgressBar draws a fixed-width bar filled to frac.
func renderProgressBar(width int, frac float64, color lipgloss.Color) string {
	if width < 10 {
		return ""
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filledWidth := int(frac * float64(width))
	if filledWidth > width {
		filledWidth = width
	}
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(barEmptyFg)
	return filledStyle.Render(filled) + emptyStyle.Render(empty)
}

// formatDuration renders m:ss for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
