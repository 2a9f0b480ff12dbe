package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

// StatusBar shows the active context, location, and unread counters at the
// bottom of the screen.
type StatusBar struct {
	context  string
	url      string
	position string // e.g. "3/25"
	unread   int
	loading  bool
	message  string // temporary status message
	width    int
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{context: "page"}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetContext updates the active context name.
func (s *StatusBar) SetContext(name string) {
	s.context = name
}

// SetURL updates the displayed location.
func (s *StatusBar) SetURL(url string) {
	s.url = url
}

// SetPosition sets the selection position string.
func (s *StatusBar) SetPosition(index, total int) {
	if total == 0 {
		s.position = "-"
		return
	}
	s.position = fmt.Sprintf("%d/%d", index+1, total)
}

// SetUnread sets the unread counter.
func (s *StatusBar) SetUnread(n int) {
	s.unread = n
}

// SetLoading sets the loading indicator state.
func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	ctxStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background)
	switch s.context {
	case "feed":
		ctxStyle = ctxStyle.Background(t.Primary)
	case "post":
		ctxStyle = ctxStyle.Background(t.Accent)
	case "profile":
		ctxStyle = ctxStyle.Background(t.Secondary)
	case "input":
		ctxStyle = ctxStyle.Background(t.Success)
	default:
		ctxStyle = ctxStyle.Background(t.TextDim)
	}
	ctx := ctxStyle.Render(s.context)

	barStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface)

	var left string
	switch {
	case s.loading:
		left = lipgloss.NewStyle().
			Foreground(t.Warning).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1).
			Render("loading…")
	case s.message != "":
		left = lipgloss.NewStyle().
			Foreground(t.Info).
			Background(t.Surface).
			Padding(0, 1).
			Render(s.message)
	default:
		left = lipgloss.NewStyle().
			Foreground(t.TextDim).
			Background(t.Surface).
			Padding(0, 1).
			Render(s.url)
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)
	var right string
	if s.unread > 0 {
		right += lipgloss.NewStyle().
			Foreground(t.Unread).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("● %d unread", s.unread))
	}
	right += rightStyle.Render(s.position)

	spacerWidth := s.width - lipgloss.Width(ctx) - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().
		Background(t.Surface).
		Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return barStyle.Render(ctx + left + spacer + right)
}
