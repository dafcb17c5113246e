// Package tui is the interactive terminal interface: a now-playing panel with
// a draggable progress bar, the lyric panel, the queue and play history.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cadence/internal/core"
	"github.com/tessro/cadence/internal/tui/components"
	"github.com/tessro/cadence/internal/tui/styles"
)

// Controls is the engine input the TUI drives.
type Controls interface {
	UserDragStart()
	UserDragMove(seconds float64)
	UserDragRelease()
	UserDragCancel()
	UserSeek(seconds float64)
	UserSetVolume(percent int)
	UserTogglePause()
}

// Player is the queue side of a session.
type Player interface {
	Next()
	Prev()
	Play(tracks []core.Track, start int)
	SetRepeat(mode core.RepeatMode)
	Queue(ctx context.Context) (core.Queue, error)
}

// HistorySource lists recently played tracks.
type HistorySource interface {
	History(limit int) ([]core.HistoryEntry, error)
}

// Options configures the TUI.
type Options struct {
	Theme   string
	Mouse   bool
	History HistorySource
	Refresh time.Duration
}

// Panel represents which panel is focused
type Panel int

const (
	PanelLyrics Panel = iota
	PanelQueue
	PanelHistory
	panelCount
)

const (
	seekStep     = 5.0
	volumeStep   = 5
	nowPlayingH  = 7
	historyLimit = 20
)

// Model is the main TUI model
type Model struct {
	ctrl    Controls
	player  Player
	history HistorySource
	opts    Options

	keys keyMap
	help help.Model

	width        int
	height       int
	focusedPanel Panel

	view     View
	queue    *core.Queue
	entries  []core.HistoryEntry
	dragging bool

	nowPlaying  *components.NowPlaying
	lyricsView  *components.Lyrics
	queueView   *components.Queue
	historyView *components.History

	lastError   error
	errorExpiry time.Time
	quitting    bool
}

// NewModel creates a new TUI model
func NewModel(ctrl Controls, player Player, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = 2 * time.Second
	}
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = styles.Dim
	h.Styles.ShortDesc = styles.Dim
	h.Styles.FullKey = styles.Dim
	h.Styles.FullDesc = styles.Dim

	return Model{
		ctrl:        ctrl,
		player:      player,
		history:     opts.History,
		opts:        opts,
		keys:        newKeyMap(),
		help:        h,
		view:        View{Highlight: core.NoLyricLine},
		nowPlaying:  components.NewNowPlaying(),
		lyricsView:  components.NewLyrics(),
		queueView:   components.NewQueue(),
		historyView: components.NewHistory(),
	}
}

// Messages
type tickMsg time.Time
type queueMsg *core.Queue
type historyMsg []core.HistoryEntry
type errMsg error

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchQueue() tea.Cmd {
	if m.player == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		q, err := m.player.Queue(ctx)
		if err != nil {
			return errMsg(err)
		}
		return queueMsg(&q)
	}
}

func (m Model) fetchHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := m.history.History(historyLimit)
		if err != nil {
			return errMsg(err)
		}
		return historyMsg(entries)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.fetchQueue(), m.fetchHistory())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		changed := msg.Title != m.view.Title || msg.Artist != m.view.Artist
		m.view = View(msg)
		if changed {
			return m, tea.Batch(m.fetchQueue(), m.fetchHistory())
		}
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, tea.Batch(m.tick(), m.fetchQueue(), m.fetchHistory())

	case queueMsg:
		m.queue = msg
		return m, nil

	case historyMsg:
		m.entries = msg
		return m, nil

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(5 * time.Second)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.dragging {
			m.dragging = false
			m.ctrl.UserDragCancel()
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.dragging {
			m.dragging = false
			m.ctrl.UserDragCancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.ctrl.UserTogglePause()
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.ctrl.UserSeek(m.view.Position - seekStep)
		return m, nil

	case key.Matches(msg, m.keys.Forward):
		m.ctrl.UserSeek(m.view.Position + seekStep)
		return m, nil

	case key.Matches(msg, m.keys.VolumeUp):
		m.ctrl.UserSetVolume(m.view.Volume + volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.VolumeDown):
		m.ctrl.UserSetVolume(m.view.Volume - volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	}

	if m.player == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Next):
		m.player.Next()
	case key.Matches(msg, m.keys.Prev):
		m.player.Prev()
	case key.Matches(msg, m.keys.Repeat):
		m.player.SetRepeat(nextRepeat(m.queue))
		return m, m.fetchQueue()
	}

	if m.focusedPanel == PanelQueue && m.queue != nil {
		switch {
		case key.Matches(msg, m.keys.Down):
			m.queueView.SelectNext(m.queue.Len())
		case key.Matches(msg, m.keys.Up):
			m.queueView.SelectPrev()
		case key.Matches(msg, m.keys.Select):
			if sel := m.queueView.Selected(); sel >= 0 && sel < m.queue.Len() {
				m.player.Play(m.queue.Tracks, sel)
			}
		}
	}
	return m, nil
}

func nextRepeat(q *core.Queue) core.RepeatMode {
	cur := core.RepeatOff
	if q != nil && q.Repeat != "" {
		cur = q.Repeat
	}
	switch cur {
	case core.RepeatOff:
		return core.RepeatAll
	case core.RepeatAll:
		return core.RepeatOne
	}
	return core.RepeatOff
}

// handleMouse maps pointer input on the progress bar to a drag session:
// press starts it, motion anywhere moves it, release commits.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.opts.Mouse {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || msg.Y != components.ProgressRow {
			return m, nil
		}
		x, w := m.progressSpan()
		if msg.X < x || msg.X >= x+w || m.view.Duration <= 0 {
			return m, nil
		}
		m.dragging = true
		m.ctrl.UserDragStart()
		m.ctrl.UserDragMove(m.valueAt(msg.X))

	case tea.MouseActionMotion:
		if m.dragging {
			m.ctrl.UserDragMove(m.valueAt(msg.X))
		}

	case tea.MouseActionRelease:
		if m.dragging {
			m.dragging = false
			m.ctrl.UserDragRelease()
		}
	}
	return m, nil
}

func (m Model) panelWidth() int {
	return m.width - 2
}

func (m Model) progressSpan() (x, w int) {
	return components.ProgressSpan(m.panelWidth(), m.view.Duration)
}

// valueAt converts a screen column to a track position, clamped to the bar.
func (m Model) valueAt(col int) float64 {
	x, w := m.progressSpan()
	if w <= 1 {
		return 0
	}
	frac := float64(col-x) / float64(w-1)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return frac * m.view.Duration
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	pb := m.view.Playback
	pb.Dragging = m.dragging
	top := m.nowPlaying.Render(pb, m.panelWidth(), nowPlayingH, false)

	bottomHeight := m.height - nowPlayingH - 2 - 2 - 1
	if bottomHeight < 4 {
		bottomHeight = 4
	}
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth
	queueHeight := bottomHeight / 2
	historyHeight := bottomHeight - queueHeight - 2

	lyrics := m.lyricsView.Render(m.view.Lines, m.view.Highlight, leftWidth-2, bottomHeight, m.focusedPanel == PanelLyrics)
	queue := m.queueView.Render(m.queue, rightWidth-2, queueHeight, m.focusedPanel == PanelQueue)
	history := m.historyView.Render(m.entries, rightWidth-2, historyHeight, m.focusedPanel == PanelHistory)

	right := lipgloss.JoinVertical(lipgloss.Left, queue, history)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, lyrics, right)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.View(m.keys)
	if m.lastError != nil {
		status = lipgloss.NewStyle().Foreground(styles.Error).Render("Error: " + m.lastError.Error())
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controls, player Player, presenter *Presenter, opts Options) error {
	if err := styles.Use(opts.Theme); err != nil {
		return err
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(NewModel(ctrl, player, opts), progOpts...)

	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()
	go presenter.Pump(pumpCtx, p.Send)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
