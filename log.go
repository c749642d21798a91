package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog sets up logging. Logging is discarded unless AUDIOCACHE_LOGFILE
// points at a file, in which case debug logging is written there.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)
	if logFile := os.Getenv("AUDIOCACHE_LOGFILE"); logFile != "" {
		f, err := tea.LogToFile(logFile, "audiocache")
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
