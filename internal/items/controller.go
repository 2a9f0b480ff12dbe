package items

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// Item is a lazily derived view over one rendered node in the host page's
// item list. Items are recomputed on every snapshot rebuild; a DisplayIndex
// captured before a rebuild is meaningless afterwards.
type Item struct {
	StableID     string // "" when no permalink could be parsed
	Node         *goquery.Selection
	DisplayIndex int
}

// View receives the visual side effects of controller mutations: per-item
// selected/read state and scroll-into-view requests.
type View interface {
	Reset(n int)
	ApplyState(item Item, selected, read bool)
	ScrollTo(index int, top bool)
}

// Controller owns one snapshot of the active context's items, the selection
// index into it, and the translation from navigation commands to index
// mutation plus side effects.
type Controller struct {
	kind     Kind
	ledger   *readstate.Ledger
	view     View
	snapshot []Item
	index    int
}

// NewController creates a controller for one item kind. view may be nil in
// which case visual side effects are skipped.
func NewController(kind Kind, ledger *readstate.Ledger, view View) *Controller {
	return &Controller{kind: kind, ledger: ledger, view: view}
}

// Kind returns the item kind this controller navigates.
func (c *Controller) Kind() Kind { return c.kind }

// Len returns the current snapshot length.
func (c *Controller) Len() int { return len(c.snapshot) }

// Index returns the current selection index.
func (c *Controller) Index() int { return c.index }

// Selected returns the currently selected item, if the snapshot is non-empty.
func (c *Controller) Selected() (Item, bool) {
	if c.index < 0 || c.index >= len(c.snapshot) {
		return Item{}, false
	}
	return c.snapshot[c.index], true
}

// Items returns the current snapshot.
func (c *Controller) Items() []Item { return c.snapshot }

// Rebuild replaces the snapshot wholesale from the document's current
// matches. If the previously selected item is still present (by stable ID),
// the selection follows it to its new position; otherwise the old index is
// clamped to the new length.
func (c *Controller) Rebuild(doc *page.Document) {
	var prevID string
	if sel, ok := c.Selected(); ok {
		prevID = sel.StableID
	}

	c.snapshot = c.snapshot[:0]
	for _, node := range doc.Select(c.kind.Selector()) {
		if !visible(node) {
			continue
		}
		c.snapshot = append(c.snapshot, Item{
			StableID:     c.kind.StableID(node),
			Node:         node,
			DisplayIndex: len(c.snapshot),
		})
	}

	c.index = c.clamp(c.index)
	if prevID != "" {
		for _, it := range c.snapshot {
			if it.StableID == prevID {
				c.index = it.DisplayIndex
				break
			}
		}
	}
	c.update()
}

// SetIndex moves the selection to i, clamped to the snapshot bounds.
func (c *Controller) SetIndex(i int) {
	c.index = c.clamp(i)
	c.update()
}

// Move shifts the selection by delta, clamped. When markPrevious is set and
// the index actually changed, the item selected before the move is marked
// read — the "read as you scroll past" behavior of single-step moves.
func (c *Controller) Move(delta int, markPrevious bool) {
	next := c.clamp(c.index + delta)
	if next == c.index {
		return
	}
	if markPrevious {
		if prev, ok := c.Selected(); ok {
			c.ledger.Mark(prev.StableID, readstate.MarkRead)
		}
	}
	c.index = next
	c.update()
}

// JumpToStart selects the first item. Jump commands never mark anything read.
func (c *Controller) JumpToStart() {
	c.index = 0
	c.update()
}

// JumpToEnd selects the last item. Jump commands never mark anything read.
func (c *Controller) JumpToEnd() {
	c.index = c.clamp(len(c.snapshot) - 1)
	c.update()
}

// ToggleReadAtSelection flips the read marker on the selected item and
// redraws. Items without a stable ID are skipped.
func (c *Controller) ToggleReadAtSelection() {
	sel, ok := c.Selected()
	if !ok {
		return
	}
	c.ledger.Mark(sel.StableID, readstate.ToggleRead)
	c.update()
}

// MarkSelection applies an explicit mark to the selected item.
func (c *Controller) MarkSelection(m readstate.Mark) {
	sel, ok := c.Selected()
	if !ok {
		return
	}
	c.ledger.Mark(sel.StableID, m)
	c.update()
}

func (c *Controller) clamp(i int) int {
	if len(c.snapshot) == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= len(c.snapshot) {
		return len(c.snapshot) - 1
	}
	return i
}

// update reapplies visual state to every item in a single pass, then scrolls:
// index 0 goes to the page top, anything else scrolls the selection into view.
func (c *Controller) update() {
	if c.view == nil {
		return
	}
	c.view.Reset(len(c.snapshot))
	for i, it := range c.snapshot {
		c.view.ApplyState(it, i == c.index, c.ledger.IsRead(it.StableID))
	}
	c.view.ScrollTo(c.index, c.index == 0)
}

// visible filters out nodes the host page has hidden but not removed.
func visible(sel *goquery.Selection) bool {
	if _, hidden := sel.Attr("hidden"); hidden {
		return false
	}
	if v, _ := sel.Attr("aria-hidden"); v == "true" {
		return false
	}
	return true
}
