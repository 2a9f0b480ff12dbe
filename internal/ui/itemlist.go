package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

const snippetLimit = 200

// row is the rendered state of one list item.
type row struct {
	author   string
	snippet  string
	selected bool
	read     bool
}

// ItemList renders the active context's item snapshot inside a viewport and
// receives visual updates from the item controller.
type ItemList struct {
	vp       viewport.Model
	rows     []row
	starts   []int // first content line of each row
	width    int
	height   int
	empty    string
	hideRead bool
}

// SetHideRead collapses read items to their header line.
func (l *ItemList) SetHideRead(hide bool) {
	l.hideRead = hide
	l.render()
}

// NewItemList creates an empty item list view.
func NewItemList() *ItemList {
	return &ItemList{
		vp:    viewport.New(80, 24),
		empty: "no items",
	}
}

// SetSize resizes the viewport.
func (l *ItemList) SetSize(w, h int) {
	l.width = w
	l.height = h
	l.vp.Width = w
	l.vp.Height = h
	l.render()
}

// SetEmptyMessage sets the placeholder shown when the snapshot is empty.
func (l *ItemList) SetEmptyMessage(msg string) {
	l.empty = msg
}

// Reset clears the rows ahead of a full state pass.
func (l *ItemList) Reset(n int) {
	l.rows = make([]row, n)
}

// ApplyState records one item's display state. The content pass ends with a
// ScrollTo, which re-renders.
func (l *ItemList) ApplyState(item items.Item, selected, read bool) {
	if item.DisplayIndex < 0 || item.DisplayIndex >= len(l.rows) {
		return
	}
	author, snippet := summarize(item)
	l.rows[item.DisplayIndex] = row{
		author:   author,
		snippet:  snippet,
		selected: selected,
		read:     read,
	}
}

// ScrollTo re-renders and brings the indexed row into view. top forces a
// jump to the very top of the list.
func (l *ItemList) ScrollTo(index int, top bool) {
	l.render()
	if top {
		l.vp.GotoTop()
		return
	}
	if index < 0 || index >= len(l.starts) {
		return
	}
	start := l.starts[index]
	end := start + l.rowHeight(index)
	if start < l.vp.YOffset {
		l.vp.SetYOffset(start)
	} else if end > l.vp.YOffset+l.vp.Height {
		l.vp.SetYOffset(end - l.vp.Height)
	}
}

// Unread counts the rows currently shown as unread.
func (l *ItemList) Unread() int {
	n := 0
	for _, r := range l.rows {
		if !r.read {
			n++
		}
	}
	return n
}

// Total returns the number of rows.
func (l *ItemList) Total() int { return len(l.rows) }

// Update passes scroll messages to the viewport.
func (l *ItemList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.vp, cmd = l.vp.Update(msg)
	return cmd
}

// View renders the list.
func (l *ItemList) View() string {
	return l.vp.View()
}

func (l *ItemList) rowHeight(i int) int {
	if i+1 < len(l.starts) {
		return l.starts[i+1] - l.starts[i]
	}
	return 1
}

func (l *ItemList) render() {
	t := theme.Current

	if len(l.rows) == 0 {
		style := lipgloss.NewStyle().Foreground(t.TextDim).Padding(1, 2)
		l.vp.SetContent(style.Render(l.empty))
		l.starts = nil
		return
	}

	width := l.width - 4
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	l.starts = make([]int, len(l.rows))
	line := 0
	for i, r := range l.rows {
		l.starts[i] = line

		marker := "  "
		if r.selected {
			marker = lipgloss.NewStyle().Foreground(t.Selected).Bold(true).Render("▌ ")
		}
		dot := lipgloss.NewStyle().Foreground(t.Unread).Render("●")
		if r.read {
			dot = lipgloss.NewStyle().Foreground(t.TextDim).Render("○")
		}

		authorStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
		bodyStyle := lipgloss.NewStyle().Foreground(t.Text).Width(width)
		if r.read {
			authorStyle = authorStyle.Foreground(t.TextDim).Bold(false)
			bodyStyle = bodyStyle.Foreground(t.TextDim)
		}
		if r.selected {
			bodyStyle = bodyStyle.Foreground(t.TextBright)
			if r.read {
				bodyStyle = bodyStyle.Foreground(t.Text)
			}
		}

		header := marker + dot + " " + authorStyle.Render(r.author)
		block := header
		if !l.hideRead || !r.read || r.selected {
			body := bodyStyle.Render(r.snippet)
			block += "\n" + indent(body, "    ")
		}

		b.WriteString(block)
		b.WriteString("\n\n")
		line += lipgloss.Height(block) + 1
	}

	l.vp.SetContent(b.String())
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = prefix + ln
	}
	return strings.Join(lines, "\n")
}

// summarize pulls a display author and text snippet out of an item's node.
func summarize(it items.Item) (author, snippet string) {
	author = "(unknown)"
	snippet = ""
	if it.Node == nil {
		return
	}
	if a := strings.TrimSpace(it.Node.Find(`a[href^="/profile/"]`).First().Text()); a != "" {
		author = a
	}
	text := strings.Join(strings.Fields(it.Node.Text()), " ")
	text = strings.TrimSpace(strings.TrimPrefix(text, author))
	// Truncate by rune so a multi-byte character is never split.
	if runes := []rune(text); len(runes) > snippetLimit {
		text = string(runes[:snippetLimit]) + "…"
	}
	snippet = text
	return
}
