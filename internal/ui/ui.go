package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mree-music/mree/internal/catalog"
	"github.com/mree-music/mree/internal/models"
	"github.com/mree-music/mree/internal/playback"
	"github.com/mree-music/mree/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryListView ViewState = iota
	PlayerView
)

// seekStep is how far the arrow keys move the playhead.
const seekStep = 5 * time.Second

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	catalog     *catalog.Client
	player      *playback.Manager
	width       int
	height      int
	trackList   list.Model
	tracks      []models.Track
	current     *models.Track
	progressBar progress.Model
	snapshot    playback.Snapshot
	err         error
	help        help.Model
	keys        keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	pause key.Binding
	fwd   key.Binding
	rew   key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		fwd: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "seek +5s"),
		),
		rew: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "seek -5s"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.pause, k.fwd, k.rew},
		{k.back, k.quit},
	}
}

// trackItem wraps [models.Track] to implement list.Item.
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	if i.track.CanPlay() {
		return i.track.Title
	}
	return fmt.Sprintf("%s (not downloaded)", i.track.Title)
}
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.Duration))
}

type libraryFetchedMsg struct {
	tracks []models.Track
	err    error
}

type playStartedMsg struct {
	err error
}

type tickMsg time.Time

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, cat *catalog.Client, player *playback.Manager) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		ctx:         ctx,
		view:        LibraryListView,
		catalog:     cat,
		player:      player,
		progressBar: prog,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by fetching the library.
func (m *Model) Init() tea.Cmd {
	return m.fetchLibrary()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryListView:
			return m.handleLibraryKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		}

	case libraryFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.tracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = "Library"
		m.trackList.SetSize(m.width-4, m.height-8)
		return m, nil

	case playStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = LibraryListView
			return m, nil
		}
		m.view = PlayerView
		return m, m.tick()

	case tickMsg:
		if m.view != PlayerView {
			return m, nil
		}
		m.snapshot = m.player.Snapshot()
		if m.snapshot.State == playback.StateIdle {
			m.view = LibraryListView
			m.current = nil
			return m, nil
		}
		var percent float64
		if m.snapshot.Duration > 0 {
			percent = float64(m.snapshot.Position) / float64(m.snapshot.Duration)
		}
		return m, tea.Batch(m.progressBar.SetPercent(percent), m.tick())

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == LibraryListView && len(m.tracks) == 0 {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LibraryListView:
		return m.renderLibrary()
	case PlayerView:
		return m.renderPlayer()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Stop()
		return m, tea.Quit
	case "enter":
		selected := m.trackList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(trackItem); ok && item.track.CanPlay() {
				m.err = nil
				track := item.track
				m.current = &track
				return m, m.startPlayback(track)
			}
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Stop()
		return m, tea.Quit
	case "esc":
		m.player.Stop()
		m.view = LibraryListView
		m.current = nil
		return m, nil
	case " ":
		m.player.TogglePause()
		return m, nil
	case "right", "l":
		m.player.Seek(m.player.Snapshot().Position + seekStep)
		return m, nil
	case "left", "h":
		m.player.Seek(m.player.Snapshot().Position - seekStep)
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == LibraryListView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchLibrary() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.catalog.Library(m.ctx)
		return libraryFetchedMsg{tracks: tracks, err: err}
	}
}

func (m *Model) startPlayback(track models.Track) tea.Cmd {
	return func() tea.Msg {
		return playStartedMsg{err: m.player.Play(m.ctx, track)}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) renderLibrary() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return fmt.Sprintf("%s%s\n\n%s", m.trackList.View(), errLine, helpView)
}

func (m *Model) renderPlayer() string {
	if m.current == nil {
		return ""
	}

	title := styles.title.Render("♪ Now Playing")
	info := fmt.Sprintf("%s — %s", m.current.Artist, m.current.Title)
	if m.current.Album != "" {
		info = fmt.Sprintf("%s\n%s", info, styles.help.Render(m.current.Album))
	}

	var status string
	switch m.snapshot.State {
	case playback.StateLoading:
		status = styles.warn.Render("Loading...")
	case playback.StatePaused:
		status = styles.warn.Render("⏸ Paused")
	case playback.StateErrored:
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.snapshot.Err))
	default:
		status = styles.ok.Render("▶ Playing")
	}

	timeText := fmt.Sprintf("%s / %s",
		shared.FormatDuration(int(m.snapshot.Position.Seconds())),
		shared.FormatDuration(int(m.snapshot.Duration.Seconds())))

	helpKeys := []key.Binding{m.keys.pause, m.keys.rew, m.keys.fwd, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s\n\n%s",
		title, info, status, m.progressBar.View(), timeText, helpView)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
