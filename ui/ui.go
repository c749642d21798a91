// Package ui provides the terminal UI for the audiocache player.
package ui

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/reflow/indent"

	"github.com/dgnsrekt/audiocache/internal/player"
	"github.com/dgnsrekt/audiocache/internal/playlist"
	"github.com/dgnsrekt/audiocache/internal/sysinfo"
	"github.com/dgnsrekt/audiocache/pkg/cache"
)

const (
	statusMessageTimeout = time.Second * 3 // how long transient status notes stay up
	positionTickInterval = time.Millisecond * 250
	ellipsis             = "…"
)

// state dictates which panel fills the main area.
type state int

const (
	stateShowBrowser state = iota
	stateShowStats
)

func (s state) String() string {
	return map[state]string{
		stateShowBrowser: "browsing playlist",
		stateShowStats:   "showing cache stats",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	manager *cache.Manager
	player  player.Player
	pl      *playlist.Playlist

	// Sub-models
	browser    browserModel
	nowPlaying nowPlayingModel
	stats      statsModel

	// Channel that receives bridged cache callbacks, drained one message
	// per waitForCacheEvent command.
	events chan cacheEventMsg

	// Watches the playlist file for external edits; nil when the playlist
	// came from a directory scan.
	watcher *fsnotify.Watcher

	current int // playlist index of the playing track, -1 before first play
	shuffle bool

	statusMessage   string
	statusMessageID int

	quitting bool
}

// NewProgram builds the Bubble Tea program for the given configuration.
func NewProgram(cfg Config) *tea.Program {
	log.Debug("starting ui", "path", cfg.Path, "tier", cfg.Tier, "shuffle", cfg.Shuffle)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg), opts...)
}

func newModel(cfg Config) tea.Model {
	common := commonModel{cfg: cfg}
	m := model{
		common:  &common,
		state:   stateShowBrowser,
		browser: newBrowserModel(&common),
		stats:   statsModel{common: &common},
		current: -1,
		shuffle: cfg.Shuffle,
	}
	m.nowPlaying = newNowPlayingModel(&common)

	pl, err := loadPlaylist(cfg.Path, cfg.ShowAllFiles)
	if err != nil {
		log.Error("unable to load playlist", "path", cfg.Path, "error", err)
		m.fatalErr = err
		return m
	}
	if pl.Len() == 0 {
		m.fatalErr = fmt.Errorf("no playable tracks in %s", cfg.Path)
		return m
	}
	m.pl = pl
	m.browser.setItems(pl.Items)

	mgr, err := newManager(cfg)
	if err != nil {
		m.fatalErr = err
		return m
	}
	m.manager = mgr
	m.events = make(chan cacheEventMsg, eventBufferSize)

	// These cannot fail on a freshly constructed manager.
	mgr.SetCallbacks(bridgeCallbacks(m.events))
	mgr.SetPlaylist(pl.Items)
	mgr.SetShuffle(cfg.Shuffle)

	m.player = newPlayer(cfg)
	if cfg.Volume > 0 {
		m.player.SetVolume(cfg.Volume)
		m.nowPlaying.volume = m.player.Volume()
	}

	if pl.Path != "" {
		if w, err := fsnotify.NewWatcher(); err != nil {
			log.Warn("playlist watch unavailable", "error", err)
		} else if err := w.Add(filepath.Dir(pl.Path)); err != nil {
			log.Warn("playlist watch unavailable", "error", err)
			w.Close()
		} else {
			m.watcher = w
		}
	}

	return m
}

// newManager sizes the cache from explicit configuration where given and
// detected host capabilities otherwise.
func newManager(cfg Config) (*cache.Manager, error) {
	var cc cache.Config
	if cfg.Tier != "" {
		cc = cache.ConfigForTier(cache.ParseTier(cfg.Tier))
	} else {
		cc = cache.ConfigForHints(sysinfo.Detect())
	}
	if cfg.PreloadWidth > 0 {
		cc.PreloadWidth = cfg.PreloadWidth
	}
	if cfg.StaleAge > 0 {
		cc.StaleAge = cfg.StaleAge
	}

	probe, err := sysinfo.System()
	if err != nil {
		log.Debug("system memory probe unavailable, sampling the heap", "error", err)
		probe = sysinfo.Runtime(cfg.MemoryBudget)
	}
	return cache.New(cc, cache.WithMemoryProbe(probe))
}

// newPlayer opens the audio device, falling back to simulated playback
// when no device is usable.
func newPlayer(cfg Config) player.Player {
	format := player.DefaultFormat()
	if cfg.DisableAudio {
		return player.NewMemory(format)
	}
	dev, err := player.NewDevice(format)
	if err != nil {
		log.Warn("audio device unavailable, playback is simulated", "error", err)
		return player.NewMemory(format)
	}
	return dev
}

func (m model) Init() tea.Cmd {
	if m.fatalErr != nil {
		return nil
	}
	cmds := []tea.Cmd{
		waitForCacheEvent(m.events),
		tick(),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForPlaylistChange(m.watcher, m.pl.Path))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if msg.String() == "ctrl+c" {
			return m.shutdown()
		}

		// The filter input owns the keyboard while it has focus.
		if m.browser.isFiltering() {
			var cmd tea.Cmd
			m.browser, cmd = m.browser.update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m.shutdown()

		case "ctrl+z":
			return m, tea.Suspend

		case "enter":
			if idx := m.browser.selected(); idx >= 0 {
				cmd := m.playTrack(idx)
				return m, cmd
			}

		case " ":
			cmd := m.togglePause()
			return m, cmd

		case "n", "right":
			cmd := m.playNext()
			return m, cmd

		case "p", "left":
			cmd := m.playPrevious()
			return m, cmd

		case "s":
			cmd := m.toggleShuffle()
			return m, cmd

		case "i":
			if m.state == stateShowStats {
				m.state = stateShowBrowser
			} else {
				m.state = stateShowStats
			}

		case "y":
			return m, copyDiagnosticsCmd(m.manager)

		case "e":
			if m.pl.Path != "" {
				return m, openEditorCmd(m.pl.Path)
			}

		case "r":
			return m, reloadPlaylistCmd(m.common.cfg.Path, m.common.cfg.ShowAllFiles)

		case "x":
			if idx := m.browser.selected(); idx >= 0 {
				if removed, err := m.manager.Remove(idx); err == nil && removed {
					cmds = append(cmds, m.setStatusMessage(fmt.Sprintf("dropped %q from cache", m.itemLabel(idx))))
				}
			}

		case "+", "=":
			m.adjustVolume(0.1)

		case "-", "_":
			m.adjustVolume(-0.1)

		default:
			var cmd tea.Cmd
			m.browser, cmd = m.browser.update(msg)
			cmds = append(cmds, cmd)
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.browser.setSize(msg.Width, m.listHeight())

	case tickMsg:
		cmds = append(cmds, m.onTick()...)
		cmds = append(cmds, tick())

	case cacheEventMsg:
		cmds = append(cmds, m.onCacheEvent(msg)...)
		cmds = append(cmds, waitForCacheEvent(m.events))

	case trackLoadedMsg:
		cmds = append(cmds, m.onTrackLoaded(msg)...)

	case preloadDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, cache.ErrClosed) {
			log.Debug("preload pass failed", "error", msg.err)
		}

	case playlistChangedMsg:
		cmds = append(cmds, reloadPlaylistCmd(m.pl.Path, m.common.cfg.ShowAllFiles))
		if m.watcher != nil {
			cmds = append(cmds, waitForPlaylistChange(m.watcher, m.pl.Path))
		}

	case playlistReloadedMsg:
		cmds = append(cmds, m.onPlaylistReloaded(msg)...)

	case editorFinishedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setStatusMessage("editor error: "+msg.err.Error()))
		} else if m.pl.Path != "" {
			cmds = append(cmds, reloadPlaylistCmd(m.pl.Path, m.common.cfg.ShowAllFiles))
		}

	case diagnosticsCopiedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setStatusMessage("copy failed: "+msg.err.Error()))
		} else {
			cmds = append(cmds, m.setStatusMessage("diagnostics copied to clipboard"))
		}

	case statusMessageTimeoutMsg:
		if msg.id == m.statusMessageID {
			m.statusMessage = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.nowPlaying, cmd = m.nowPlaying.update(msg)
		cmds = append(cmds, cmd)

	case errMsg:
		log.Error("ui error", "error", msg.err)
		cmds = append(cmds, m.setStatusMessage(msg.err.Error()))
	}

	return m, tea.Batch(cmds...)
}

// shutdown releases the player, the cache and the watcher before quitting.
func (m model) shutdown() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, tea.Quit
	}
	m.quitting = true
	if m.watcher != nil {
		m.watcher.Close()
	}
	if m.player != nil {
		m.player.Close()
	}
	if m.manager != nil {
		m.manager.Close()
	}
	return m, tea.Quit
}

// playTrack makes idx the current track and fetches its buffer. A load
// still pending for the track we navigated away from is cancelled;
// preloading will fetch it again if it re-enters the window.
func (m *model) playTrack(idx int) tea.Cmd {
	if idx < 0 || idx >= m.pl.Len() {
		return nil
	}
	prev := m.current
	m.current = idx
	m.nowPlaying.startLoading(idx, m.itemLabel(idx))
	if prev >= 0 && prev != idx {
		m.manager.Cancel(prev)
	}
	return tea.Batch(
		requestTrackCmd(m.manager, idx),
		m.nowPlaying.spinner.Tick,
	)
}

func (m *model) togglePause() tea.Cmd {
	switch m.player.State() {
	case player.StatePlaying:
		if err := m.player.Pause(); err != nil {
			return m.setStatusMessage(err.Error())
		}
		m.nowPlaying.state = player.StatePaused
	case player.StatePaused:
		if err := m.player.Resume(); err != nil {
			return m.setStatusMessage(err.Error())
		}
		m.nowPlaying.state = player.StatePlaying
	case player.StateStopped:
		if m.current >= 0 {
			return m.playTrack(m.current)
		}
		if idx := m.browser.selected(); idx >= 0 {
			return m.playTrack(idx)
		}
	}
	return nil
}

func (m *model) playNext() tea.Cmd {
	if m.pl.Len() == 0 {
		return nil
	}
	return m.playTrack(m.nextIndex())
}

// nextIndex picks the follow-up track: random under shuffle, otherwise the
// next playlist slot with wrap-around.
func (m *model) nextIndex() int {
	if m.shuffle {
		return rand.Intn(m.pl.Len())
	}
	if m.current < 0 {
		return 0
	}
	return (m.current + 1) % m.pl.Len()
}

func (m *model) playPrevious() tea.Cmd {
	if m.pl.Len() == 0 {
		return nil
	}
	if m.shuffle {
		return m.playTrack(rand.Intn(m.pl.Len()))
	}
	prev := m.current - 1
	if prev < 0 {
		prev = 0
	}
	return m.playTrack(prev)
}

func (m *model) toggleShuffle() tea.Cmd {
	m.shuffle = !m.shuffle
	if err := m.manager.SetShuffle(m.shuffle); err != nil {
		return m.setStatusMessage(err.Error())
	}
	note := "shuffle off"
	if m.shuffle {
		note = "shuffle on"
	}
	cmds := []tea.Cmd{m.setStatusMessage(note)}
	// Leaving shuffle re-arms the preload window around the current track.
	if !m.shuffle && m.current >= 0 {
		cmds = append(cmds, preloadCmd(m.manager, m.current))
	}
	return tea.Batch(cmds...)
}

func (m *model) adjustVolume(delta float64) {
	v := m.player.Volume() + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	m.player.SetVolume(v)
	m.nowPlaying.volume = v
}

func (m *model) setStatusMessage(s string) tea.Cmd {
	m.statusMessage = s
	m.statusMessageID++
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}

// onTick refreshes transport state from the player and advances to the
// next track when the current one has run out.
func (m *model) onTick() []tea.Cmd {
	st := m.player.State()
	wasPlaying := m.nowPlaying.state == player.StatePlaying
	m.nowPlaying.state = st
	m.nowPlaying.position = m.player.Position()
	m.nowPlaying.duration = m.player.TrackDuration()

	if wasPlaying && st == player.StateStopped && m.current >= 0 && !m.nowPlaying.loading {
		return []tea.Cmd{m.playNext()}
	}
	return nil
}

func (m *model) onCacheEvent(ev cacheEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	switch ev.kind {
	case eventLoadProgress:
		if ev.key == m.current && m.nowPlaying.loading {
			m.nowPlaying.read = ev.read
			m.nowPlaying.total = ev.total
		}
	case eventLoadError:
		if ev.key == m.current {
			m.nowPlaying.finishLoading(ev.err)
		}
		cmds = append(cmds, m.setStatusMessage(fmt.Sprintf("load failed: %v", ev.err)))
	case eventMemoryWarning:
		log.Warn("memory pressure", "usedPercent", ev.percent)
		cmds = append(cmds, m.setStatusMessage(
			warningStyle.Render(fmt.Sprintf("memory pressure: %.0f%% used", ev.percent))))
	case eventPreloadComplete:
		log.Debug("preload complete", "keys", ev.keys)
	}
	return cmds
}

func (m *model) onTrackLoaded(msg trackLoadedMsg) []tea.Cmd {
	if msg.key != m.current {
		// Superseded by a later selection.
		return nil
	}
	if msg.err != nil {
		m.nowPlaying.finishLoading(msg.err)
		if errors.Is(msg.err, cache.ErrCancelled) {
			return nil
		}
		log.Error("track load failed", "key", msg.key, "error", msg.err)
		return []tea.Cmd{m.setStatusMessage(fmt.Sprintf("cannot play %q: %v", m.itemLabel(msg.key), msg.err))}
	}
	m.nowPlaying.finishLoading(nil)
	if err := m.player.Play(msg.data); err != nil {
		m.nowPlaying.loadErr = err
		log.Error("playback failed", "key", msg.key, "error", err)
		return []tea.Cmd{m.setStatusMessage(fmt.Sprintf("cannot play %q: %v", m.itemLabel(msg.key), err))}
	}
	m.nowPlaying.state = player.StatePlaying
	m.nowPlaying.position = 0
	m.nowPlaying.duration = m.player.TrackDuration()
	return []tea.Cmd{preloadCmd(m.manager, msg.key)}
}

// onPlaylistReloaded swaps in the re-read playlist. The playing buffer is
// left alone; the current marker resets because indexes may have shifted.
func (m *model) onPlaylistReloaded(msg playlistReloadedMsg) []tea.Cmd {
	if msg.err != nil {
		return []tea.Cmd{m.setStatusMessage("playlist reload failed: " + msg.err.Error())}
	}
	m.pl = msg.pl
	m.browser.setItems(msg.pl.Items)
	m.manager.SetPlaylist(msg.pl.Items)
	m.current = -1
	return []tea.Cmd{m.setStatusMessage(fmt.Sprintf("playlist reloaded: %d tracks", msg.pl.Len()))}
}

func (m model) itemLabel(idx int) string {
	if m.pl == nil || idx < 0 || idx >= m.pl.Len() {
		return ""
	}
	return m.pl.Items[idx].Label
}

// listHeight is the row budget for the browser listing once the chrome
// around it is accounted for.
func (m model) listHeight() int {
	h := m.common.height - 12
	if h < 3 {
		h = 3
	}
	return h
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr)
	}
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	var body string
	switch m.state {
	case stateShowStats:
		body = m.stats.view(m.manager.Stats(), m.manager.EntryDiagnostics())
	default:
		body = m.browser.view(m.current, m.manager.Contains, m.manager.Pending)
	}
	b.WriteString(indent.String(body, 2))
	b.WriteString("\n\n")
	b.WriteString(indent.String(m.nowPlaying.view(), 2))
	b.WriteString("\n\n")
	b.WriteString(m.statusBarView())
	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func errorView(err error) string {
	return indent.String(fmt.Sprintf("\n%s\n\n%v\n\npress any key to exit",
		errorStyle.Render("ERROR"), err), 2)
}
