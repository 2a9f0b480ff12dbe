package contexts

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune(s)})
}

func altKey(s string) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune(s), Alt: true})
}

func feedPage(n int) []byte {
	html := `<html><body><nav>` +
		`<a aria-label="Home" href="/"></a>` +
		`<a aria-label="Search" href="/search"></a>` +
		`<a aria-label="Notifications" href="/notifications"></a>` +
		`</nav><div>`
	for i := 0; i < n; i++ {
		html += fmt.Sprintf(
			`<div data-testid="feedItem-%d"><a href="/profile/user%d.test/post/rkey%d">post %d</a></div>`,
			i, i, i, i)
	}
	return []byte(html + `</div></body></html>`)
}

func newTestDoc(t *testing.T, n int) *page.Document {
	t.Helper()
	doc := page.NewDocument()
	if err := doc.Apply("https://bsky.app/", feedPage(n)); err != nil {
		t.Fatal(err)
	}
	return doc
}

func newTestRegistry(ledger *readstate.Ledger, opts ListOptions) *Registry {
	return NewRegistry(
		NewInputHandler(),
		NewPostHandler(ledger, nil, opts),
		NewProfileHandler(ledger, nil, opts),
		NewFeedHandler(ledger, nil, opts),
		NewDefaultHandler(),
	)
}

func TestResolutionPriority(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	reg := newTestRegistry(ledger, ListOptions{})

	cases := []struct {
		path    string
		focused bool
		want    string
	}{
		{"/", false, "feed"},
		{"/search", false, "feed"},
		{"/notifications", false, "feed"},
		{"/hashtag/golang", false, "feed"},
		{"/profile/alice.test", false, "profile"},
		{"/profile/alice.test/post/abc", false, "post"},
		{"/settings", false, "page"},
		{"/profile/alice.test", true, "input"},
		{"/", true, "input"},
	}
	for _, c := range cases {
		h := reg.Resolve(c.path, c.focused)
		if h == nil {
			t.Fatalf("Resolve(%q, %v) = nil", c.path, c.focused)
		}
		if h.Name() != c.want {
			t.Errorf("Resolve(%q, %v) = %s, want %s", c.path, c.focused, h.Name(), c.want)
		}
	}
}

// recordingHandler wraps another handler and logs lifecycle calls.
type recordingHandler struct {
	Handler
	log  *[]string
	name string
}

func (r recordingHandler) Name() string { return r.name }
func (r recordingHandler) Activate() {
	*r.log = append(*r.log, "activate:"+r.name)
	r.Handler.Activate()
}
func (r recordingHandler) Deactivate() {
	*r.log = append(*r.log, "deactivate:"+r.name)
	r.Handler.Deactivate()
}

func TestSwitchDeactivatesBeforeActivating(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	var log []string
	feed := recordingHandler{NewFeedHandler(ledger, nil, ListOptions{}), &log, "feed"}
	profile := recordingHandler{NewProfileHandler(ledger, nil, ListOptions{}), &log, "profile"}
	reg := NewRegistry(profile, feed, NewDefaultHandler())

	doc := newTestDoc(t, 2)
	d := NewDispatcher(reg, doc, 10*time.Millisecond)

	d.PollLocation("/")
	if d.Active().Name() != "feed" {
		t.Fatalf("active = %s, want feed", d.Active().Name())
	}
	d.PollLocation("/profile/alice.test")
	if d.Active().Name() != "profile" {
		t.Fatalf("active = %s, want profile", d.Active().Name())
	}

	want := []string{"activate:feed", "deactivate:feed", "activate:profile"}
	if len(log) != len(want) {
		t.Fatalf("lifecycle log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("lifecycle log = %v, want %v", log, want)
		}
	}
	d.Shutdown()
}

func TestSamePathPollIsNoOp(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	var log []string
	feed := recordingHandler{NewFeedHandler(ledger, nil, ListOptions{}), &log, "feed"}
	reg := NewRegistry(feed, NewDefaultHandler())

	d := NewDispatcher(reg, newTestDoc(t, 1), 10*time.Millisecond)
	d.PollLocation("/")
	d.PollLocation("/")
	d.PollLocation("/")

	if len(log) != 1 || log[0] != "activate:feed" {
		t.Errorf("lifecycle log = %v, want single activation", log)
	}
	d.Shutdown()
}

func TestPathChangeWithinSameHandlerRebindsCleanly(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	var log []string
	feed := recordingHandler{NewFeedHandler(ledger, nil, ListOptions{}), &log, "feed"}
	reg := NewRegistry(feed, NewDefaultHandler())

	d := NewDispatcher(reg, newTestDoc(t, 1), 10*time.Millisecond)
	d.PollLocation("/")
	d.PollLocation("/search") // still the feed handler, new page

	// A location change within the same context still runs the full
	// deactivate/activate pair so the watch restarts against the new page.
	want := []string{"activate:feed", "deactivate:feed", "activate:feed"}
	if len(log) != len(want) {
		t.Fatalf("lifecycle log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("lifecycle log = %v, want %v", log, want)
		}
	}
	d.Shutdown()
}

func TestFocusOverrideAndRestore(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	reg := newTestRegistry(ledger, ListOptions{})
	d := NewDispatcher(reg, newTestDoc(t, 1), 10*time.Millisecond)

	d.PollLocation("/profile/alice.test")
	if d.Active().Name() != "profile" {
		t.Fatalf("active = %s, want profile", d.Active().Name())
	}

	d.SetInputFocused(true)
	if d.Active().Name() != "input" {
		t.Fatalf("active with focus = %s, want input", d.Active().Name())
	}
	// Redundant focus updates are no-ops.
	d.SetInputFocused(true)
	if d.Active().Name() != "input" {
		t.Fatal("redundant focus update changed the active handler")
	}

	d.SetInputFocused(false)
	if d.Active().Name() != "profile" {
		t.Fatalf("active after blur = %s, want profile", d.Active().Name())
	}
	d.Shutdown()
}

func TestWatchDeliversInitialBatchAndStopsOnSwitch(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	reg := newTestRegistry(ledger, ListOptions{})
	doc := newTestDoc(t, 3)
	d := NewDispatcher(reg, doc, 5*time.Millisecond)

	d.PollLocation("/")
	ch := d.Batches()
	if ch == nil {
		t.Fatal("feed handler should have a batch stream")
	}

	select {
	case b := <-ch:
		if len(b.Added) != 3 {
			t.Errorf("initial batch Added = %d, want 3", len(b.Added))
		}
		d.Apply(b)
	case <-time.After(time.Second):
		t.Fatal("no initial batch")
	}
	if got := d.Active().Controller().Len(); got != 3 {
		t.Errorf("snapshot after Apply = %d items, want 3", got)
	}

	// Switching away cancels the watch; the old stream closes.
	d.PollLocation("/settings")
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("old stream should close after switch, got a batch")
		}
	case <-time.After(time.Second):
		t.Fatal("old stream did not close")
	}
	if d.Batches() != nil {
		t.Error("default handler should have no batch stream")
	}
	d.Shutdown()
}

func TestStaleBatchIgnoredAfterSwitch(t *testing.T) {
	ledger := readstate.Load(nil, 100)
	reg := newTestRegistry(ledger, ListOptions{})
	doc := newTestDoc(t, 2)
	d := NewDispatcher(reg, doc, 5*time.Millisecond)

	d.PollLocation("/")
	stale := page.Batch{Selector: items.KindProfile.Selector(), Added: []string{"x"}}
	d.Apply(stale) // wrong selector for the active feed handler

	if got := d.Active().Controller().Len(); got != 0 {
		t.Errorf("stale batch should not rebuild, snapshot = %d items", got)
	}
	d.Shutdown()
}
