package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

// InputBar is the search/command input at the top of the screen. While it
// holds focus the dispatcher routes every key here instead of the navigation
// bindings.
type InputBar struct {
	input  textinput.Model
	active bool
	width  int
}

// NewInputBar creates an inactive input bar.
func NewInputBar() InputBar {
	ti := textinput.New()
	ti.Placeholder = "Search or enter a path…"
	ti.CharLimit = 512
	ti.Width = 60

	return InputBar{input: ti}
}

// SetWidth updates the input bar width.
func (u *InputBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 8
}

// Focus activates the input bar.
func (u *InputBar) Focus() tea.Cmd {
	u.active = true
	return u.input.Focus()
}

// Blur deactivates the input bar.
func (u *InputBar) Blur() {
	u.active = false
	u.input.Blur()
}

// IsActive reports whether the input bar is focused.
func (u *InputBar) IsActive() bool {
	return u.active
}

// Value returns the current input text.
func (u *InputBar) Value() string {
	return u.input.Value()
}

// Reset clears the input.
func (u *InputBar) Reset() {
	u.input.Reset()
}

// Update handles messages while focused.
func (u *InputBar) Update(msg tea.Msg) (*InputBar, tea.Cmd) {
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View renders the input bar.
func (u *InputBar) View() string {
	t := theme.Current

	border := t.Border
	fg := t.TextDim
	if u.active {
		border = t.BorderFocus
		fg = t.Text
	}
	barStyle := lipgloss.NewStyle().
		Foreground(fg).
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)

	prompt := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Render("/")

	return barStyle.Render(prompt + " " + u.input.View())
}
