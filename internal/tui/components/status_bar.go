package components

import (
	"imgsort/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows the session status line with a spinner while images
// are decoding.
type StatusBar struct {
	text    string
	message string
	isError bool
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Theme.Help

	return &StatusBar{
		style:   styles.Theme.Help,
		spinner: s,
	}
}

func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

func (s *StatusBar) Loading() bool {
	return s.loading
}

func (s *StatusBar) SetText(text string) {
	s.text = text
}

// SetMessage shows a one-off message after the status text until the
// next call. Errors are rendered in the error style.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.message = msg
	s.isError = isError
}

// Tick starts the spinner.
func (s *StatusBar) Tick() tea.Msg {
	return s.spinner.Tick()
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

func (s *StatusBar) View() string {
	if s.text == "" && s.message == "" && !s.loading {
		return ""
	}

	line := s.style.Render(s.text)
	if s.loading {
		line = s.style.Render(s.spinner.View() + " " + s.text)
	}
	if s.message != "" {
		msgStyle := s.style
		if s.isError {
			msgStyle = styles.Theme.Error
		}
		line += "  " + msgStyle.Render(s.message)
	}
	return line
}
