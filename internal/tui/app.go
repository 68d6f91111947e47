// Package tui implements the interactive now-playing dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/nowsync/internal/client"
	"github.com/tessro/nowsync/internal/core"
	"github.com/tessro/nowsync/internal/tui/components"
	"github.com/tessro/nowsync/internal/tui/styles"
)

const (
	seekStep      = 10 * time.Second
	actionTimeout = 5 * time.Second
	errorTTL      = 5 * time.Second
)

// Player is the client surface the dashboard drives. *client.Client
// implements it.
type Player interface {
	Snapshot() core.NowPlayingState
	Status() client.Status
	Subscribe() (<-chan client.Update, func())
	Execute(ctx context.Context, cmd core.Command) error
	SeekTo(ctx context.Context, position time.Duration) error
	Refresh(ctx context.Context)
}

// Model is the main TUI model
type Model struct {
	player      Player
	refreshRate time.Duration
	updates     <-chan client.Update
	unsubscribe func()

	keys keyMap
	help help.Model

	width  int
	height int
	now    time.Time

	state  core.NowPlayingState
	status client.Status

	nowPlaying *components.NowPlaying

	showHelp bool

	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a model observing player. The subscription is released
// when the model quits.
func NewModel(player Player, refreshRate time.Duration) Model {
	updates, unsubscribe := player.Subscribe()
	return Model{
		player:      player,
		refreshRate: refreshRate,
		updates:     updates,
		unsubscribe: unsubscribe,
		keys:        defaultKeyMap(),
		help:        help.New(),
		now:         time.Now(),
		state:       player.Snapshot(),
		status:      player.Status(),
		nowPlaying:  components.NewNowPlaying(),
	}
}

// Messages
type tickMsg time.Time
type updateMsg client.Update
type closedMsg struct{}
type errMsg struct{ err error }

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return updateMsg(u)
	}
}

func (m Model) execute(cmd core.Command) tea.Cmd {
	player := m.player
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if err := player.Execute(ctx, cmd); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) seekBy(delta time.Duration) tea.Cmd {
	if !m.state.HasTrack() {
		return nil
	}
	target := m.state.Position(m.now) + delta.Seconds()
	if m.state.Duration > 0 && target > m.state.Duration {
		target = m.state.Duration
	}
	if target < 0 {
		target = 0
	}

	player := m.player
	position := time.Duration(target * float64(time.Second))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		if err := player.SeekTo(ctx, position); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) refresh() tea.Cmd {
	player := m.player
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		player.Refresh(ctx)
		return nil
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForUpdate())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if m.lastError != nil && m.now.After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, m.tick()

	case updateMsg:
		m.state = msg.State
		m.status = msg.Status
		return m, m.waitForUpdate()

	case closedMsg:
		return m.quit()

	case errMsg:
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(errorTTL)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Toggle):
		return m, m.execute(core.CommandToggle)
	case key.Matches(msg, m.keys.Next):
		return m, m.execute(core.CommandNext)
	case key.Matches(msg, m.keys.Previous):
		return m, m.execute(core.CommandPrevious)
	case key.Matches(msg, m.keys.Back):
		return m, m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.Forward):
		return m, m.seekBy(seekStep)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if !m.quitting && m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.quitting = true
	return m, tea.Quit
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	panelHeight := max(m.height-3, 12)
	panel := m.nowPlaying.Render(&m.state, m.status, m.now, m.width-2, panelHeight)

	return lipgloss.JoinVertical(lipgloss.Left, panel, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.ShortHelpView(m.keys.ShortHelp())

	if m.lastError != nil {
		status = styles.Failure.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.Highlight.Render("nowsync - Keyboard Shortcuts"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		styles.Dim.Render("Press ? or Esc to close"),
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(content))
}

// Run starts the dashboard and blocks until the user quits.
func Run(player Player, refreshRate time.Duration, theme string) error {
	styles.ApplyTheme(theme)

	model := NewModel(player, refreshRate)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
