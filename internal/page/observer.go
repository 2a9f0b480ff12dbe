package page

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Batch describes how the set of nodes matching a watched selector changed
// between two document generations.
type Batch struct {
	Selector   string
	Generation uint64
	Added      []string
	Removed    []string
	Changed    []string
}

// Empty reports whether the batch carries no changes.
func (b Batch) Empty() bool {
	return len(b.Added) == 0 && len(b.Removed) == 0 && len(b.Changed) == 0
}

// KeyFunc derives a diffing key for a matched node. Keys should be stable
// across re-renders of the same logical item.
type KeyFunc func(i int, sel *goquery.Selection) string

// DefaultKey keys a node by its first link target, falling back to a content
// hash when no link is present.
func DefaultKey(i int, sel *goquery.Selection) string {
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok && href != "" {
		return href
	}
	return contentHash(sel)
}

func contentHash(sel *goquery.Selection) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(sel.Text())))
	return hex.EncodeToString(sum[:8])
}

// Watch produces a stream of mutation batches for selector. The first batch
// reports every current match as added, then one batch follows each document
// replacement that changed the match set (no-op replacements are skipped).
// The stream ends when ctx is cancelled; watching again restarts it.
func Watch(ctx context.Context, doc *Document, selector string, key KeyFunc) <-chan Batch {
	if key == nil {
		key = DefaultKey
	}
	out := make(chan Batch, 1)

	go func() {
		defer close(out)

		wake, cancel := doc.subscribe()
		defer cancel()

		prev := map[string]string{}
		emit := func() {
			gen := doc.Generation()
			cur := map[string]string{}
			for i, sel := range doc.Select(selector) {
				cur[key(i, sel)] = contentHash(sel)
			}
			batch := diff(selector, gen, prev, cur)
			prev = cur
			if batch.Empty() && gen > 0 {
				return
			}
			select {
			case out <- batch:
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-wake:
				emit()
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func diff(selector string, gen uint64, prev, cur map[string]string) Batch {
	b := Batch{Selector: selector, Generation: gen}
	for k, h := range cur {
		old, ok := prev[k]
		switch {
		case !ok:
			b.Added = append(b.Added, k)
		case old != h:
			b.Changed = append(b.Changed, k)
		}
	}
	for k := range prev {
		if _, ok := cur[k]; !ok {
			b.Removed = append(b.Removed, k)
		}
	}
	return b
}

// Debounce coalesces bursts of batches: batches arriving within quiet of each
// other are merged and emitted once the stream goes quiet. Closing the input
// (or cancelling ctx) flushes any pending merge and ends the output stream.
func Debounce(ctx context.Context, in <-chan Batch, quiet time.Duration) <-chan Batch {
	out := make(chan Batch, 1)

	go func() {
		defer close(out)

		var pending Batch
		var havePending bool
		timer := time.NewTimer(quiet)
		if !timer.Stop() {
			<-timer.C
		}

		flush := func() {
			if !havePending {
				return
			}
			select {
			case out <- pending:
			case <-ctx.Done():
			}
			pending = Batch{}
			havePending = false
		}

		for {
			select {
			case b, ok := <-in:
				if !ok {
					flush()
					return
				}
				pending = merge(pending, b)
				havePending = true
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(quiet)
			case <-timer.C:
				flush()
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// merge folds b into acc, keeping the newest generation and the union of keys.
func merge(acc, b Batch) Batch {
	if acc.Selector == "" {
		return b
	}
	acc.Generation = b.Generation
	acc.Added = appendUnique(acc.Added, b.Added)
	acc.Removed = appendUnique(acc.Removed, b.Removed)
	acc.Changed = appendUnique(acc.Changed, b.Changed)
	return acc
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, k := range dst {
		seen[k] = true
	}
	for _, k := range src {
		if !seen[k] {
			dst = append(dst, k)
			seen[k] = true
		}
	}
	return dst
}
