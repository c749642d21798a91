package ui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/editor"
	"github.com/fsnotify/fsnotify"

	"github.com/dgnsrekt/audiocache/internal/playlist"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

// eventBufferSize bounds the callback-to-update bridge. Events beyond the
// buffer are dropped rather than blocking a load goroutine.
const eventBufferSize = 64

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type tickMsg time.Time

type trackLoadedMsg struct {
	key  int
	data []byte
	err  error
}

type preloadDoneMsg struct {
	keys []int
	err  error
}

type playlistChangedMsg struct{}

type playlistReloadedMsg struct {
	pl  *playlist.Playlist
	err error
}

type editorFinishedMsg struct{ err error }

type diagnosticsCopiedMsg struct{ err error }

type statusMessageTimeoutMsg struct{ id int }

// cacheEventKind discriminates bridged cache callbacks.
type cacheEventKind int

const (
	eventLoadStart cacheEventKind = iota
	eventLoadProgress
	eventLoadComplete
	eventLoadError
	eventMemoryWarning
	eventPreloadComplete
)

// cacheEventMsg carries one cache callback into the update loop.
type cacheEventMsg struct {
	kind    cacheEventKind
	key     int
	label   string
	read    int64
	total   int64
	size    int64
	percent float64
	keys    []int
	err     error
}

// bridgeCallbacks adapts the cache's callback interface to a message
// channel. Sends never block: the callbacks run on load goroutines and a
// stalled UI must not stall a load.
func bridgeCallbacks(ch chan<- cacheEventMsg) cache.Callbacks {
	send := func(ev cacheEventMsg) {
		select {
		case ch <- ev:
		default:
		}
	}
	return cache.Callbacks{
		OnLoadStart: func(key int, label string) {
			send(cacheEventMsg{kind: eventLoadStart, key: key, label: label})
		},
		OnLoadProgress: func(key int, read, total int64) {
			send(cacheEventMsg{kind: eventLoadProgress, key: key, read: read, total: total})
		},
		OnLoadComplete: func(key int, size int64) {
			send(cacheEventMsg{kind: eventLoadComplete, key: key, size: size})
		},
		OnLoadError: func(key int, err error) {
			send(cacheEventMsg{kind: eventLoadError, key: key, err: err})
		},
		OnMemoryWarning: func(usedPercent float64) {
			send(cacheEventMsg{kind: eventMemoryWarning, percent: usedPercent})
		},
		OnPreloadComplete: func(keys []int) {
			send(cacheEventMsg{kind: eventPreloadComplete, keys: keys})
		},
	}
}

func waitForCacheEvent(ch <-chan cacheEventMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func tick() tea.Cmd {
	return tea.Tick(positionTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func requestTrackCmd(mgr *cache.Manager, key int) tea.Cmd {
	return func() tea.Msg {
		data, err := mgr.Get(context.Background(), key)
		return trackLoadedMsg{key: key, data: data, err: err}
	}
}

func preloadCmd(mgr *cache.Manager, currentIndex int) tea.Cmd {
	return func() tea.Msg {
		keys, err := mgr.PreloadUpcoming(context.Background(), currentIndex)
		return preloadDoneMsg{keys: keys, err: err}
	}
}

// waitForPlaylistChange blocks on the watcher until the playlist file is
// rewritten. The watch is on the directory: most editors replace the file
// on save, which would silently detach a watch on the file itself.
func waitForPlaylistChange(w *fsnotify.Watcher, path string) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Name != path {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					return playlistChangedMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return errMsg{err}
			}
		}
	}
}

func reloadPlaylistCmd(path string, showAll bool) tea.Cmd {
	return func() tea.Msg {
		pl, err := loadPlaylist(path, showAll)
		return playlistReloadedMsg{pl: pl, err: err}
	}
}

// loadPlaylist resolves a path to a playlist: directories are scanned for
// audio files, anything else is parsed as a playlist file.
func loadPlaylist(path string, showAll bool) (*playlist.Playlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return playlist.FromDir(path, showAll)
	}
	return playlist.Load(path)
}

func openEditorCmd(path string) tea.Cmd {
	cb, err := editor.Cmd("audiocache", path)
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	cb.Dir = filepath.Dir(path)
	return tea.ExecProcess(cb, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func copyDiagnosticsCmd(mgr *cache.Manager) tea.Cmd {
	return func() tea.Msg {
		text := diagnosticsText(mgr.Stats(), mgr.EntryDiagnostics())
		return diagnosticsCopiedMsg{err: clipboard.WriteAll(text)}
	}
}
