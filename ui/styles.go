package ui

import (
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"

	"github.com/dgnsrekt/audiocache/internal/player"
)

var (
	playingColor = lipgloss.Color("#00FF00")
	pausedColor  = lipgloss.Color("#FFFF00")
	stoppedColor = lipgloss.Color("#888888")
	loadingColor = lipgloss.Color("#00AAFF")
	errorColor   = lipgloss.Color("#FF0000")
	warningColor = lipgloss.Color("#FF8800")
	barEmptyFg   = lipgloss.Color("#333333")

	fuchsia = lipgloss.Color("#EE6FF8")

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})

	panelHeaderStyle = lipgloss.NewStyle().Bold(true)

	selectedRowStyle = lipgloss.NewStyle().Foreground(fuchsia)

	cachedMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"})

	playingMarkStyle = lipgloss.NewStyle().Foreground(playingColor)
	pendingMarkStyle = lipgloss.NewStyle().Foreground(loadingColor)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor)

	warningStyle = lipgloss.NewStyle().Foreground(warningColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#3C3C3C", Dark: "#DDDADA"}).
			Background(lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"})

	statusBarNoteStyle = statusBarStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"})

	filterPromptStyle = lipgloss.NewStyle().Foreground(fuchsia)
)

// logoStyle picks the logo colors once at startup; the terminal background
// does not change mid-session.
var logoStyle = func() lipgloss.Style {
	fg := lipgloss.Color("#ECFD65")
	if !te.HasDarkBackground() {
		fg = lipgloss.Color("#6A4C0A")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(fg).
		Background(lipgloss.Color("#5A56E0")).
		Padding(0, 1)
}()

// stateIcon returns the glyph and color for a playback state. A load in
// flight overrides the player state.
func stateIcon(st player.State, loading bool) (string, lipgloss.Color) {
	if loading {
		return "⟳", loadingColor
	}
	switch st {
	case player.StatePlaying:
		return "▶", playingColor
	case player.StatePaused:
		return "⏸", pausedColor
	case player.StateClosed:
		return "◼", warningColor
	default:
		return "■", stoppedColor
	}
}
