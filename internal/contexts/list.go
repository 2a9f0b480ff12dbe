package contexts

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// NavigateMsg asks the app to load a new host location.
type NavigateMsg struct {
	URL string
}

// PreviewMsg asks the app to open the reader-view preview of an external
// link embedded in the selected item.
type PreviewMsg struct {
	URL string
}

// UnrollMsg asks the app to fetch and render the selected post's full thread.
type UnrollMsg struct {
	Actor string
	RKey  string
}

// pageStep is how many items a PageUp/PageDown press moves the selection.
const pageStep = 10

// ListOptions carries the per-handler configuration knobs.
type ListOptions struct {
	// MarkReadOnMove marks the departed item read on single-step moves.
	MarkReadOnMove bool
}

// listHandler implements the navigation behavior common to every list
// context. Concrete contexts differ only in name, match rule, and item kind.
type listHandler struct {
	name    string
	matches func(path string) bool
	ctrl    *items.Controller
	keys    ListKeyMap
	opts    ListOptions

	// lastG tracks a pending "g" for the gg chord.
	lastG bool
}

func newListHandler(name string, matches func(string) bool, ctrl *items.Controller, opts ListOptions) *listHandler {
	return &listHandler{
		name:    name,
		matches: matches,
		ctrl:    ctrl,
		keys:    DefaultListKeyMap(),
		opts:    opts,
	}
}

func (h *listHandler) Name() string { return h.name }

func (h *listHandler) Matches(path string, inputFocused bool) bool {
	if inputFocused {
		return false
	}
	return h.matches(path)
}

func (h *listHandler) Activate() {
	h.lastG = false
}

func (h *listHandler) Deactivate() {
	h.lastG = false
}

func (h *listHandler) Controller() *items.Controller { return h.ctrl }

func (h *listHandler) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// The gg chord: a pending "g" followed by anything other than "g"
	// clears the chord and falls through to normal handling.
	if h.lastG {
		h.lastG = false
		if msg.String() == "g" {
			h.ctrl.JumpToStart()
			return nil, true
		}
	}

	switch {
	case key.Matches(msg, h.keys.GotoFirst):
		h.lastG = true
		return nil, true

	case key.Matches(msg, h.keys.Home):
		h.ctrl.JumpToStart()
		return nil, true

	case key.Matches(msg, h.keys.GotoLast):
		h.ctrl.JumpToEnd()
		return nil, true

	case key.Matches(msg, h.keys.Next):
		h.ctrl.Move(1, h.opts.MarkReadOnMove)
		return nil, true

	case key.Matches(msg, h.keys.Prev):
		h.ctrl.Move(-1, h.opts.MarkReadOnMove)
		return nil, true

	// Page moves jump several items at once; like gg/G they are exempt
	// from read-on-pass marking.
	case key.Matches(msg, h.keys.PageDown):
		h.ctrl.Move(pageStep, false)
		return nil, true

	case key.Matches(msg, h.keys.PageUp):
		h.ctrl.Move(-pageStep, false)
		return nil, true

	case key.Matches(msg, h.keys.ToggleRead):
		h.ctrl.ToggleReadAtSelection()
		return nil, true

	case key.Matches(msg, h.keys.MarkRead):
		h.ctrl.MarkSelection(readstate.MarkRead)
		return nil, true

	case key.Matches(msg, h.keys.MarkUnread):
		h.ctrl.MarkSelection(readstate.MarkUnread)
		return nil, true

	case key.Matches(msg, h.keys.Open):
		sel, ok := h.ctrl.Selected()
		if !ok {
			return nil, true
		}
		href := permalink(sel)
		if href == "" {
			return nil, true
		}
		return func() tea.Msg { return NavigateMsg{URL: href} }, true

	case key.Matches(msg, h.keys.Preview):
		sel, ok := h.ctrl.Selected()
		if !ok {
			return nil, true
		}
		ext := externalLink(sel)
		if ext == "" {
			return nil, true
		}
		return func() tea.Msg { return PreviewMsg{URL: ext} }, true

	case key.Matches(msg, h.keys.Unroll):
		sel, ok := h.ctrl.Selected()
		if !ok || sel.StableID == "" {
			return nil, true
		}
		actor, rkey, ok := strings.Cut(sel.StableID, "/")
		if !ok {
			return nil, true
		}
		return func() tea.Msg { return UnrollMsg{Actor: actor, RKey: rkey} }, true
	}

	return nil, false
}

// permalink returns the item's own host link, preferring the post permalink
// over any profile links inside the node.
func permalink(it items.Item) string {
	if it.Node == nil {
		return ""
	}
	if href, ok := it.Node.Find(`a[href*="/post/"]`).First().Attr("href"); ok {
		return href
	}
	if href, ok := it.Node.Find(`a[href^="/profile/"]`).First().Attr("href"); ok {
		return href
	}
	return ""
}

// externalLink returns the first embedded link pointing outside the host.
func externalLink(it items.Item) string {
	if it.Node == nil {
		return ""
	}
	var found string
	it.Node.Find(`a[href^="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href != "" && !strings.Contains(href, "bsky.app") {
			found = href
			return false
		}
		return true
	})
	return found
}
