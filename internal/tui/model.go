// Package tui is the terminal viewer. It polls the session for a frame
// snapshot on a short tick and never blocks on image loading.
package tui

import (
	"fmt"
	"time"

	"imgsort/internal/config"
	"imgsort/internal/log"
	"imgsort/internal/session"
	"imgsort/internal/tui/common"
	"imgsort/internal/tui/components"
	"imgsort/internal/tui/messages"
	"imgsort/internal/tui/views"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 100 * time.Millisecond

type Model struct {
	src    common.Source
	cfg    *config.Config
	keys   keyMap
	help   help.Model
	status *components.StatusBar

	frame    session.Frame
	width    int
	height   int
	busy     bool // a move or rescan is running
	quitting bool
}

func New(src common.Source, cfg *config.Config) *Model {
	if cfg == nil {
		cfg = config.New()
	}

	m := &Model{
		src:    src,
		cfg:    cfg,
		keys:   newKeyMap(cfg.Tags.Keys),
		help:   help.New(),
		status: components.NewStatusBar(),
	}
	m.refresh()
	return m
}

// Run starts the viewer on the alternate screen and returns when the
// user quits.
func Run(src common.Source, cfg *config.Config) error {
	_, err := tea.NewProgram(New(src, cfg), tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return messages.TickMsg(t)
	})
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.status.Tick)
}

// Frame returns the snapshot currently on screen.
func (m *Model) Frame() session.Frame {
	return m.frame
}

func (m *Model) Quitting() bool {
	return m.quitting
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return views.RenderMainView(m.frame, m.src.Dir(), m.status.View(), m.help.View(m.keys),
		views.Layout{Width: m.width, Height: m.height})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case messages.TickMsg:
		m.refresh()
		return m, tick()
	case spinner.TickMsg:
		return m, m.status.Update(msg)
	case messages.MoveCompleteMsg:
		m.busy = false
		m.status.SetMessage(moveSummary(msg), msg.Err != nil)
		m.refresh()
	case messages.RescanCompleteMsg:
		m.busy = false
		if msg.Err != nil {
			m.status.SetMessage(msg.Err.Error(), true)
		} else {
			m.status.SetMessage("Rescanned", false)
		}
		m.refresh()
	case messages.ErrorMsg:
		m.status.SetMessage(msg.Err.Error(), true)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status.SetMessage("", false)

	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Prev):
		m.src.Prev()
	case key.Matches(msg, m.keys.Next):
		m.src.Next()
	case key.Matches(msg, m.keys.First):
		m.src.First()
	case key.Matches(msg, m.keys.Last):
		m.src.Last()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Untag):
		err = m.src.Untag()
	case key.Matches(msg, m.keys.Retry):
		err = m.src.Retry()
	case key.Matches(msg, m.keys.Rescan):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.rescan()
	case key.Matches(msg, m.keys.Move):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status.SetMessage("Moving tagged images...", false)
		return m, m.moveTagged()
	case key.Matches(msg, m.keys.Tag):
		if tag, ok := m.cfg.TagForKey(msg.String()); ok {
			err = m.src.Tag(tag)
		}
	}

	if err != nil {
		log.LogWithError(err).Debug("Key action rejected")
		m.status.SetMessage(err.Error(), true)
	}
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	m.frame = m.src.Frame()
	m.status.SetText(m.frame.Status)
	m.status.SetLoading(m.frame.Loading > 0)
}

func (m *Model) rescan() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		return messages.RescanCompleteMsg{Err: src.Rescan()}
	}
}

func (m *Model) moveTagged() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		results, err := src.MoveAllTagged()
		return messages.MoveCompleteMsg{Results: results, Err: err}
	}
}

func moveSummary(msg messages.MoveCompleteMsg) string {
	moved := 0
	for _, r := range msg.Results {
		if r.Moved {
			moved++
		}
	}
	if msg.Err != nil {
		return fmt.Sprintf("Moved %d of %d images: %v", moved, len(msg.Results), msg.Err)
	}
	if len(msg.Results) == 0 {
		return "Nothing tagged"
	}
	return fmt.Sprintf("Moved %d of %d images", moved, len(msg.Results))
}
