package page

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Document holds the parsed HTML of the host page. The page is replaced
// wholesale on every refresh, so node references are only valid for the
// generation they were selected from; watchers are notified after each
// replacement.
type Document struct {
	mu   sync.RWMutex
	doc  *goquery.Document
	url  string
	gen  uint64
	subs map[int]chan struct{}
	next int
}

// NewDocument returns an empty document. Queries against it match nothing.
func NewDocument() *Document {
	return &Document{subs: make(map[int]chan struct{})}
}

// Apply replaces the document content with freshly fetched HTML and wakes
// all watchers.
func (d *Document) Apply(rawURL string, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	d.mu.Lock()
	d.doc = doc
	d.url = rawURL
	d.gen++
	subs := make([]chan struct{}, 0, len(d.subs))
	for _, ch := range d.subs {
		subs = append(subs, ch)
	}
	d.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default: // watcher already has a pending wakeup
		}
	}
	return nil
}

// URL returns the URL the current content was loaded from.
func (d *Document) URL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url
}

// Generation returns the replacement counter. It increments on every Apply.
func (d *Document) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen
}

// Select returns every node currently matching selector, in document order.
// An empty or not-yet-loaded document yields no matches; callers must treat
// every query as possibly-empty.
func (d *Document) Select(selector string) []*goquery.Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.doc == nil {
		return nil
	}
	var nodes []*goquery.Selection
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s)
	})
	return nodes
}

// First returns the first node matching selector, or nil.
func (d *Document) First(selector string) *goquery.Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.doc == nil {
		return nil
	}
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

// subscribe registers a wakeup channel signaled after every Apply. The
// returned cancel func must be called when the watcher stops.
func (d *Document) subscribe() (<-chan struct{}, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	ch := make(chan struct{}, 1)
	d.subs[id] = ch
	return ch, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}
