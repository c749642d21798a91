package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/audiocache/internal/playlist"
	"github.com/dgnsrekt/audiocache/internal/sysinfo"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// statsLoadTimeout bounds the one-shot load so a dead remote host cannot
// hang the command.
const statsLoadTimeout = time.Minute

var statsCmd = &cobra.Command{
	Use:   "stats [PLAYLIST|DIR]",
	Short: "Load a playlist once and report cache activity",
	Long: paragraph(
		fmt.Sprintf("\nLoad the first track of a playlist, %s the upcoming ones and print the cache counters and per-entry diagnostics that result.", keyword("preload")),
	),
	Example: paragraph("audiocache stats mixtape.m3u\naudiocache stats ~/Music --tier low"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		return runStats(os.Stdout, path)
	},
}

func runStats(w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", path, err)
	}
	var pl *playlist.Playlist
	if info.IsDir() {
		pl, err = playlist.FromDir(path, showAllFiles)
	} else {
		pl, err = playlist.Load(path)
	}
	if err != nil {
		return err
	}
	if pl.Len() == 0 {
		return fmt.Errorf("%s: no tracks found", path)
	}

	cfg := cache.ConfigForHints(sysinfo.Detect())
	if tier != "" {
		cfg = cache.ConfigForTier(cache.ParseTier(tier))
	}
	if preload > 0 {
		cfg.PreloadWidth = preload
	}
	if staleAge > 0 {
		cfg.StaleAge = staleAge
	}

	mgr, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("unable to create cache: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	if err := mgr.SetPlaylist(pl.Items); err != nil {
		return err //nolint:wrapcheck
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsLoadTimeout)
	defer cancel()

	if _, err := mgr.Get(ctx, 0); err != nil {
		return fmt.Errorf("unable to load %s: %w", pl.Items[0].Label, err)
	}
	if _, err := mgr.PreloadUpcoming(ctx, 0); err != nil {
		return err //nolint:wrapcheck
	}

	printStats(w, pl, cfg, mgr.Stats(), mgr.EntryDiagnostics())
	return nil
}

func printStats(w io.Writer, pl *playlist.Playlist, cfg cache.Config, st cache.Stats, diags []cache.EntryDiagnostic) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "%s: %d tracks, %s tier\n\n", pl.Name, pl.Len(), cfg.Tier)
	p.Fprintf(w, "  stored    %s in %d buffers (%d bytes)\n",
		humanize.IBytes(uint64(st.BytesUsed)), st.ItemCount, st.BytesUsed) //nolint:gosec
	p.Fprintf(w, "  loaded    %d\n", st.Loaded)
	p.Fprintf(w, "  evicted   %d\n", st.Evicted)
	p.Fprintf(w, "  hit rate  %.1f%% (%d hits, %d misses)\n", st.HitRate*100, st.Hits, st.Misses)

	if len(diags) == 0 {
		return
	}
	p.Fprintln(w)
	for _, d := range diags {
		marker := " "
		if d.IsCurrent {
			marker = "*"
		}
		p.Fprintf(w, "  %s %3d  %-40s %10s  %s\n",
			marker, d.Key, d.Label, humanize.IBytes(uint64(d.SizeBytes)), d.Age.Truncate(time.Millisecond)) //nolint:gosec
	}
}
