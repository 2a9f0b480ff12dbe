package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

// HelpOverlay renders the full keymap as a markdown overlay.
type HelpOverlay struct {
	open     bool
	rendered string
	width    int
	sections []helpSection
}

type helpSection struct {
	title    string
	bindings []key.Binding
	extra    [][2]string // rows without a key.Binding (global chords)
}

// NewHelpOverlay creates a closed help overlay.
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{width: 80}
}

// AddSection appends a titled group of bindings.
func (h *HelpOverlay) AddSection(title string, bindings ...key.Binding) {
	h.sections = append(h.sections, helpSection{title: title, bindings: bindings})
	h.rendered = ""
}

// AddRows appends a titled group of raw key/description rows.
func (h *HelpOverlay) AddRows(title string, rows [][2]string) {
	h.sections = append(h.sections, helpSection{title: title, extra: rows})
	h.rendered = ""
}

// SetWidth resizes the overlay.
func (h *HelpOverlay) SetWidth(w int) {
	if w != h.width {
		h.width = w
		h.rendered = ""
	}
}

// Toggle flips visibility.
func (h *HelpOverlay) Toggle() { h.open = !h.open }

// Close hides the overlay.
func (h *HelpOverlay) Close() { h.open = false }

// IsOpen reports whether the overlay is showing.
func (h *HelpOverlay) IsOpen() bool { return h.open }

// View renders the overlay.
func (h *HelpOverlay) View() string {
	if h.rendered == "" {
		h.rendered = h.render()
	}
	t := theme.Current
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
	return frame.Render(h.rendered)
}

func (h *HelpOverlay) render() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	for _, s := range h.sections {
		fmt.Fprintf(&b, "## %s\n\n", s.title)
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, kb := range s.bindings {
			help := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", help.Key, help.Desc)
		}
		for _, row := range s.extra {
			fmt.Fprintf(&b, "| `%s` | %s |\n", row[0], row[1])
		}
		b.WriteString("\n")
	}

	width := h.width - 6
	if width < 40 {
		width = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return b.String()
	}
	out, err := r.Render(b.String())
	if err != nil {
		return b.String()
	}
	return out
}
