// Package playlist builds ordered sets of playable items from playlist
// files and directories. Markdown playlists list tracks as links; plain
// playlists follow the M3U line format. Item keys are positions.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/audiocache/internal/source"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// Playlist is an ordered set of playable items. The key handed to the
// cache for an item is its position in Items.
type Playlist struct {
	Name  string
	Path  string
	Items []cache.Item
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	return len(p.Items)
}

// markdownExtensions are the playlist files parsed as markdown. Anything
// else goes through the M3U parser.
var markdownExtensions = map[string]bool{
	".md": true, ".mdown": true, ".mkdn": true, ".mkd": true, ".markdown": true,
}

// IsMarkdown reports whether path has a markdown playlist extension.
func IsMarkdown(path string) bool {
	return markdownExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads a playlist file, dispatching on its extension. Remote
// entries share one rate limiter so a preload burst cannot hammer the
// host.
func Load(path string) (*Playlist, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand playlist path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(expanded), filepath.Ext(expanded))
	baseDir := filepath.Dir(expanded)
	limiter := source.HostLimiter(0)

	var pl *Playlist
	if IsMarkdown(expanded) {
		pl, err = parseMarkdown(name, data, baseDir, limiter)
	} else {
		pl, err = parseM3U(name, data, baseDir, limiter)
	}
	if err != nil {
		return nil, err
	}
	pl.Path = expanded
	return pl, nil
}

// newItem builds a playlist item for a track target, which is either an
// HTTP URL or a file path. Relative paths resolve against the playlist's
// directory and a leading ~ expands to the home directory.
func newItem(label, target, baseDir string, limiter *rate.Limiter) (cache.Item, error) {
	if isRemote(target) {
		src, err := source.NewHTTP(source.HTTPConfig{URL: target, Label: label, Limiter: limiter})
		if err != nil {
			return cache.Item{}, err
		}
		return cache.Item{Label: src.Label(), Source: src}, nil
	}

	path, err := homedir.Expand(target)
	if err != nil {
		return cache.Item{}, fmt.Errorf("failed to expand %s: %w", target, err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	src, err := source.NewFile(source.FileConfig{Path: path, Label: label})
	if err != nil {
		return cache.Item{}, err
	}
	return cache.Item{Label: src.Label(), Source: src}, nil
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
