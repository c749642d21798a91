package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/audiocache/internal/playlist"
)

var (
	showWidth uint

	showCmd = &cobra.Command{
		Use:   "show [PLAYLIST|DIR]",
		Short: "Print a playlist without playing it",
		Long: paragraph(
			fmt.Sprintf("\n%s a playlist in the terminal. Markdown playlists render as-is; M3U files and directories are summarized as a track list.", keyword("Show")),
		),
		Example: paragraph("audiocache show mixtape.md\naudiocache show ~/Music"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    executeShow,
	}
)

func executeShow(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	width := showWidth
	if !cmd.Flags().Changed("width") {
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return fmt.Errorf("unable to get terminal size: %w", err)
			}
			width = uint(w) //nolint:gosec
		}
		if width > 120 {
			width = 120
		}
	}
	if width == 0 {
		width = 80
	}

	md, err := playlistMarkdown(path)
	if err != nil {
		return err
	}

	style := glamour.WithAutoStyle()
	if !isTerminal {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(int(width))) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render playlist: %w", err)
	}
	fmt.Print(out)
	return nil
}

// playlistMarkdown produces the markdown to render for path. Markdown
// playlists pass through untouched so their own prose survives; anything
// else becomes a generated track list.
func playlistMarkdown(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", path, err)
	}

	if !info.IsDir() && playlist.IsMarkdown(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("unable to read %s: %w", path, err)
		}
		return string(data), nil
	}

	var pl *playlist.Playlist
	if info.IsDir() {
		pl, err = playlist.FromDir(path, showAllFiles)
	} else {
		pl, err = playlist.Load(path)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", pl.Name)
	switch pl.Len() {
	case 0:
		b.WriteString("No tracks found.\n")
	case 1:
		b.WriteString("1 track\n\n")
	default:
		fmt.Fprintf(&b, "%d tracks\n\n", pl.Len())
	}
	for i, item := range pl.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Label)
	}
	return b.String(), nil
}

func init() {
	showCmd.Flags().UintVarP(&showWidth, "width", "w", 0, "word-wrap at width")
}
