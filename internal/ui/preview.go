package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tonycpsu/bluesky-navigator/internal/browser"
	"github.com/tonycpsu/bluesky-navigator/internal/bsky"
	"github.com/tonycpsu/bluesky-navigator/internal/theme"
)

// PreviewPane is an overlay that renders reader-view article previews and
// unrolled threads as markdown.
type PreviewPane struct {
	vp      viewport.Model
	open    bool
	title   string
	width   int
	height  int
	content string
}

// NewPreviewPane creates a closed preview pane.
func NewPreviewPane() *PreviewPane {
	return &PreviewPane{vp: viewport.New(80, 24)}
}

// SetSize resizes the pane.
func (p *PreviewPane) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.vp.Width = w - 4
	p.vp.Height = h - 4
	if p.content != "" {
		p.renderMarkdown(p.content)
	}
}

// IsOpen reports whether the pane is showing.
func (p *PreviewPane) IsOpen() bool { return p.open }

// Close hides the pane.
func (p *PreviewPane) Close() { p.open = false }

// ShowArticle renders an extracted article.
func (p *PreviewPane) ShowArticle(a *browser.Article) {
	p.title = a.Title
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", a.Title)
	if a.Byline != "" {
		fmt.Fprintf(&b, "_%s_\n\n", a.Byline)
	}
	if a.SiteName != "" {
		fmt.Fprintf(&b, "**%s** · %s\n\n", a.SiteName, a.URL)
	} else {
		fmt.Fprintf(&b, "%s\n\n", a.URL)
	}
	b.WriteString(a.TextContent)
	p.renderMarkdown(b.String())
	p.open = true
}

// ShowThread renders an unrolled thread, root first.
func (p *PreviewPane) ShowThread(t *bsky.Thread) {
	if len(t.Posts) == 0 {
		return
	}
	p.title = "thread"
	var b strings.Builder
	fmt.Fprintf(&b, "# Thread by @%s\n\n", t.Posts[0].AuthorHandle)
	for i, post := range t.Posts {
		if i > 0 {
			fmt.Fprintf(&b, "---\n\n**@%s**\n\n", post.AuthorHandle)
		}
		b.WriteString(post.Text)
		b.WriteString("\n\n")
	}
	p.renderMarkdown(b.String())
	p.open = true
}

// Update passes scroll messages to the viewport while open.
func (p *PreviewPane) Update(msg tea.Msg) tea.Cmd {
	if !p.open {
		return nil
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

// View renders the pane inside a focused border.
func (p *PreviewPane) View() string {
	t := theme.Current
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(0, 1).
		Width(p.width - 2)
	title := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Render(p.title)
	hint := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Render("  esc/q close · j/k scroll")
	return frame.Render(title + hint + "\n\n" + p.vp.View())
}

func (p *PreviewPane) renderMarkdown(md string) {
	p.content = md
	width := p.vp.Width
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		p.vp.SetContent(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		p.vp.SetContent(md)
		return
	}
	p.vp.SetContent(out)
	p.vp.GotoTop()
}
