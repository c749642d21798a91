package playlist

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/muesli/gitcha"

	"github.com/dgnsrekt/audiocache/internal/source"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

var (
	audioExtensions = []string{
		"*.pcm", "*.wav", "*.mp3", "*.ogg", "*.flac", "*.zst",
	}

	ignorePatterns = []string{"node_modules", ".*"}
)

// FromDir builds a playlist from the audio files under dir, ordered by
// path. showAll bypasses gitignore rules during the search.
func FromDir(dir string, showAll bool) (*Playlist, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	var ch chan gitcha.SearchResult
	if showAll {
		ch, err = gitcha.FindAllFilesExcept(abs, audioExtensions, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(abs, audioExtensions, ignorePatterns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", abs, err)
	}

	var paths []string
	for res := range ch {
		paths = append(paths, res.Path)
	}
	sort.Strings(paths)

	pl := &Playlist{Name: filepath.Base(abs), Path: abs}
	for _, p := range paths {
		label := p
		if rel, err := filepath.Rel(abs, p); err == nil {
			label = rel
		}
		src, err := source.NewFile(source.FileConfig{Path: p, Label: label})
		if err != nil {
			return nil, err
		}
		pl.Items = append(pl.Items, cache.Item{Label: label, Source: src})
	}
	return pl, nil
}
