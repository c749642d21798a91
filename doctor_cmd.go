package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dgnsrekt/audiocache/internal/sysinfo"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report host capabilities and the cache profile they select",
	Long: paragraph(
		fmt.Sprintf("\nInspect the host and print the %s the cache would run with: the detected capability hints, the capacity tier they resolve to and the resulting budgets.", keyword("profile")),
	),
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		return runDoctor(os.Stdout)
	},
}

func runDoctor(w io.Writer) error {
	p := message.NewPrinter(language.English)

	hints := sysinfo.Detect()
	p.Fprintln(w, "Host")
	p.Fprintf(w, "  cpus              %d\n", hints.NumCPU)
	if hints.TotalMemory > 0 {
		p.Fprintf(w, "  physical memory   %s (%d bytes)\n", humanize.IBytes(hints.TotalMemory), hints.TotalMemory)
	} else {
		p.Fprintln(w, "  physical memory   unknown")
	}

	if probe, err := sysinfo.System(); err != nil {
		p.Fprintf(w, "  memory in use     unavailable: %v\n", err)
	} else if used, total, err := probe.Sample(); err != nil {
		p.Fprintf(w, "  memory in use     unavailable: %v\n", err)
	} else if total > 0 {
		p.Fprintf(w, "  memory in use     %s of %s (%.1f%%)\n",
			humanize.IBytes(used), humanize.IBytes(total), float64(used)/float64(total)*100)
	}

	cfg := cache.ConfigForHints(hints)
	origin := "detected from host"
	if tier != "" {
		cfg = cache.ConfigForTier(cache.ParseTier(tier))
		origin = "set by configuration"
	}

	p.Fprintln(w)
	p.Fprintln(w, "Cache profile")
	p.Fprintf(w, "  tier              %s (%s)\n", cfg.Tier, origin)
	p.Fprintf(w, "  max bytes         %s (%d bytes)\n", humanize.IBytes(uint64(cfg.MaxBytes)), cfg.MaxBytes) //nolint:gosec
	p.Fprintf(w, "  max items         %d\n", cfg.MaxItems)
	p.Fprintf(w, "  preload width     %d\n", cfg.PreloadWidth)
	p.Fprintf(w, "  stale age         %s\n", cfg.StaleAge)
	p.Fprintf(w, "  monitor interval  %s\n", cfg.MonitorInterval)
	p.Fprintf(w, "  high water mark   %.0f%%\n", cfg.HighWaterMark*100)
	return nil
}
