package contexts

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/page"
)

// navShortcut maps one global Alt chord to a navigation link in the host
// page's chrome, located by its aria-label.
type navShortcut struct {
	key   string
	label string
}

// navShortcuts is the closed table of global navigation chords. Routing never
// consults handler state for these; the Alt modifier keeps them out of the
// way of plain typing, so they fire in every context, input focus included.
var navShortcuts = []navShortcut{
	{"alt+h", "Home"},
	{"alt+s", "Search"},
	{"alt+n", "Notifications"},
	{"alt+m", "Chat"},
	{"alt+f", "Feeds"},
	{"alt+l", "Lists"},
	{"alt+p", "Profile"},
}

// Router sends each key press to the active handler first and falls back to
// the global navigation shortcuts.
type Router struct {
	dispatcher *Dispatcher
	doc        *page.Document
}

// NewRouter creates a router over the dispatcher and document.
func NewRouter(dispatcher *Dispatcher, doc *page.Document) *Router {
	return &Router{dispatcher: dispatcher, doc: doc}
}

// Route processes one key press. The bool reports whether the key was
// consumed; the app treats unconsumed keys as its own (quit, help, input).
func (r *Router) Route(msg tea.KeyMsg) (tea.Cmd, bool) {
	if h := r.dispatcher.Active(); h != nil {
		if cmd, handled := h.HandleKey(msg); handled {
			return cmd, true
		}
	}

	pressed := msg.String()
	for _, s := range navShortcuts {
		if s.key != pressed {
			continue
		}
		href := r.navTarget(s.label)
		if href == "" {
			// The page chrome has no such link right now (logged out,
			// partial render). Consume the chord silently.
			return nil, true
		}
		return func() tea.Msg { return NavigateMsg{URL: href} }, true
	}

	return nil, false
}

// navTarget finds the chrome link for a shortcut label in the current
// document.
func (r *Router) navTarget(label string) string {
	sel := r.doc.First(fmt.Sprintf(`a[aria-label=%q]`, label))
	if sel == nil {
		return ""
	}
	href, _ := sel.Attr("href")
	return href
}

// Shortcuts returns the global chord table for the help overlay.
func Shortcuts() []struct{ Key, Target string } {
	out := make([]struct{ Key, Target string }, 0, len(navShortcuts))
	for _, s := range navShortcuts {
		out = append(out, struct{ Key, Target string }{s.key, s.label})
	}
	return out
}
