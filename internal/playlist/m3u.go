package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

const extinfPrefix = "#EXTINF:"

// parseM3U builds a playlist from M3U or plain line-oriented content.
// Non-comment lines are track targets; an #EXTINF directive titles the
// entry that follows it. Other # lines are ignored.
func parseM3U(name string, data []byte, baseDir string, limiter *rate.Limiter) (*Playlist, error) {
	pl := &Playlist{Name: name}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var nextTitle string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if rest, ok := strings.CutPrefix(line, extinfPrefix); ok {
				// #EXTINF:<seconds>,<title>
				if _, title, found := strings.Cut(rest, ","); found {
					nextTitle = strings.TrimSpace(title)
				}
			}
			continue
		}

		item, err := newItem(nextTitle, line, baseDir, limiter)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", name, err)
		}
		pl.Items = append(pl.Items, item)
		nextTitle = ""
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan playlist %s: %w", name, err)
	}
	return pl, nil
}
