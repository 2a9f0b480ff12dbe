package items

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// fakeView records the visual side effects of controller passes.
type fakeView struct {
	states    []struct{ selected, read bool }
	scrollIdx int
	scrollTop bool
}

func (v *fakeView) Reset(n int) {
	v.states = make([]struct{ selected, read bool }, n)
}

func (v *fakeView) ApplyState(item Item, selected, read bool) {
	if item.DisplayIndex < len(v.states) {
		v.states[item.DisplayIndex] = struct{ selected, read bool }{selected, read}
	}
}

func (v *fakeView) ScrollTo(index int, top bool) {
	v.scrollIdx = index
	v.scrollTop = top
}

func feedDoc(t *testing.T, ids ...string) *page.Document {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for _, id := range ids {
		if id == "" {
			// An item whose permalink is missing: untrackable.
			sb.WriteString(`<div data-testid="feedItem-by-x"><span>no link here</span></div>`)
			continue
		}
		fmt.Fprintf(&sb, `<div data-testid="feedItem-by-x"><a href="/profile/alice.test/post/%s">post %s</a></div>`, id, id)
	}
	sb.WriteString("</body></html>")

	doc := page.NewDocument()
	if err := doc.Apply("https://bsky.app/", []byte(sb.String())); err != nil {
		t.Fatal(err)
	}
	return doc
}

func newTestController(view View) *Controller {
	return NewController(KindFeed, readstate.Load(nil, 100), view)
}

func TestSelectionAlwaysClamped(t *testing.T) {
	c := newTestController(nil)
	c.Rebuild(feedDoc(t, "a", "b", "c"))

	for _, delta := range []int{+5, +1, -100, -1, +2, +2, -1, +99} {
		c.Move(delta, false)
		if c.Index() < 0 || c.Index() >= c.Len() {
			t.Fatalf("index %d out of bounds after move %+d (len %d)", c.Index(), delta, c.Len())
		}
	}

	// Empty snapshot pins the index at 0.
	c.Rebuild(feedDoc(t))
	c.Move(+3, false)
	c.SetIndex(42)
	if c.Index() != 0 {
		t.Errorf("empty snapshot index = %d, want 0", c.Index())
	}
}

func TestReadOnPassExemption(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	c := NewController(KindFeed, ledger, nil)
	c.Rebuild(feedDoc(t, "a", "b", "c", "d"))

	// Single-step move marks the passed item.
	c.Move(+1, true)
	if !ledger.IsRead("alice.test/a") {
		t.Error("move(+1, mark) should mark the pre-move item read")
	}

	// A move that cannot change the index marks nothing.
	c.JumpToStart()
	c.Move(-1, true)
	if ledger.IsRead("alice.test/a") != true {
		t.Error("existing marker should survive")
	}
	if ledger.Len() != 1 {
		t.Errorf("clamped move should not add markers, ledger has %d", ledger.Len())
	}

	// Jumps never mark, regardless of distance.
	c.JumpToEnd()
	if ledger.Len() != 1 {
		t.Errorf("JumpToEnd marked items: ledger has %d entries", ledger.Len())
	}
	c.JumpToStart()
	if ledger.Len() != 1 {
		t.Errorf("JumpToStart marked items: ledger has %d entries", ledger.Len())
	}
}

func TestReconciliationFollowsStableID(t *testing.T) {
	c := newTestController(nil)
	c.Rebuild(feedDoc(t, "a", "b", "c"))
	c.SetIndex(1) // "b"

	// The host page re-renders with "b" at a different position.
	c.Rebuild(feedDoc(t, "x", "y", "b", "z"))
	sel, ok := c.Selected()
	if !ok {
		t.Fatal("selection lost after rebuild")
	}
	if sel.StableID != "alice.test/b" {
		t.Errorf("selection should follow stable ID, got %q at index %d", sel.StableID, c.Index())
	}
	if c.Index() != 2 {
		t.Errorf("index = %d, want 2", c.Index())
	}
}

func TestReconciliationClampsWhenSelectionGone(t *testing.T) {
	c := newTestController(nil)
	c.Rebuild(feedDoc(t, "a", "b", "c", "d", "e"))
	c.JumpToEnd()

	// Selection disappears and the list shrinks past the old index.
	c.Rebuild(feedDoc(t, "a", "b"))
	if c.Index() != 1 {
		t.Errorf("index = %d, want clamped to 1", c.Index())
	}
}

func TestScrollPolicy(t *testing.T) {
	view := &fakeView{}
	c := newTestController(view)
	c.Rebuild(feedDoc(t, "a", "b", "c"))

	if !view.scrollTop {
		t.Error("index 0 should scroll to page top")
	}
	c.SetIndex(2)
	if view.scrollTop || view.scrollIdx != 2 {
		t.Errorf("scroll = (%d, top=%v), want (2, false)", view.scrollIdx, view.scrollTop)
	}
}

func TestVisualStatePass(t *testing.T) {
	view := &fakeView{}
	ledger := readstate.Load(nil, 100)
	c := NewController(KindFeed, ledger, view)
	c.Rebuild(feedDoc(t, "a", "b", "c"))

	c.Move(+1, true) // marks "a", selects "b"
	if !view.states[0].read {
		t.Error("item 0 should render as read")
	}
	if !view.states[1].selected || view.states[0].selected {
		t.Error("exactly item 1 should render as selected")
	}
}

func TestUntrackableItemsAreNoOps(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	c := NewController(KindFeed, ledger, nil)
	c.Rebuild(feedDoc(t, "a", "", "c"))

	c.SetIndex(1) // the item with no permalink
	c.ToggleReadAtSelection()
	if ledger.Len() != 0 {
		t.Errorf("toggling an untrackable item should be a no-op, ledger has %d", ledger.Len())
	}

	// Passing over it marks nothing either.
	c.Move(+1, true)
	if ledger.Len() != 0 {
		t.Errorf("passing an untrackable item should mark nothing, ledger has %d", ledger.Len())
	}
}

func TestScrollThroughFeedScenario(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	c := NewController(KindFeed, ledger, nil)

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	c.Rebuild(feedDoc(t, ids...))

	for i := 0; i < 5; i++ {
		c.Move(+1, true)
	}
	if c.Index() != 5 {
		t.Errorf("index = %d, want 5", c.Index())
	}
	if ledger.Len() != 5 {
		t.Fatalf("ledger has %d entries, want 5", ledger.Len())
	}
	for i := 0; i < 5; i++ {
		if !ledger.IsRead("alice.test/p" + fmt.Sprint(i)) {
			t.Errorf("item p%d should be read", i)
		}
	}
}

func TestHiddenItemsExcludedFromSnapshot(t *testing.T) {
	html := `<html><body>
		<div data-testid="feedItem-by-x"><a href="/profile/a.test/post/1">one</a></div>
		<div data-testid="feedItem-by-x" aria-hidden="true"><a href="/profile/a.test/post/2">two</a></div>
		<div data-testid="feedItem-by-x" hidden><a href="/profile/a.test/post/3">three</a></div>
	</body></html>`
	doc := page.NewDocument()
	if err := doc.Apply("https://bsky.app/", []byte(html)); err != nil {
		t.Fatal(err)
	}

	c := newTestController(nil)
	c.Rebuild(doc)
	if c.Len() != 1 {
		t.Errorf("snapshot length = %d, want 1 (hidden items excluded)", c.Len())
	}
}

func TestStableIDExtraction(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		html string
		want string
	}{
		{"feed permalink", KindFeed,
			`<div><a href="/profile/alice.test/post/3k44dz"></a></div>`, "alice.test/3k44dz"},
		{"absolute permalink", KindPost,
			`<div><a href="https://bsky.app/profile/did:plc:abc/post/3k44dz"></a></div>`, "did:plc:abc/3k44dz"},
		{"query string stripped", KindFeed,
			`<div><a href="/profile/alice.test/post/3k44dz?ref=feed"></a></div>`, "alice.test/3k44dz"},
		{"missing link", KindFeed, `<div><span>nope</span></div>`, ""},
		{"malformed path", KindFeed, `<div><a href="/post/only"></a></div>`, ""},
		{"profile card", KindProfile,
			`<div><a href="/profile/bob.test"></a></div>`, "bob.test"},
		{"profile with trailing segment", KindProfile,
			`<div><a href="/profile/bob.test/follows"></a></div>`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tc.html))
			if err != nil {
				t.Fatal(err)
			}
			got := tc.kind.StableID(doc.Find("div").First())
			if got != tc.want {
				t.Errorf("StableID = %q, want %q", got, tc.want)
			}
		})
	}
}
