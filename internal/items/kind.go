package items

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tonycpsu/bluesky-navigator/internal/page"
)

// Kind discriminates what kind of list item a context navigates over. Each
// kind carries its own selector and stable-ID extraction strategy; the
// selectors are the only coupling to the host page's markup and every lookup
// through them may come back empty.
type Kind int

const (
	KindFeed    Kind = iota // timeline entries
	KindPost                // posts within a thread view
	KindProfile             // profile cards (follows, followers, search)
)

func (k Kind) String() string {
	switch k {
	case KindFeed:
		return "feed"
	case KindPost:
		return "post"
	case KindProfile:
		return "profile"
	}
	return "unknown"
}

// Selector returns the host-page selector matching this kind's items.
func (k Kind) Selector() string {
	switch k {
	case KindFeed:
		return `div[data-testid^="feedItem"]`
	case KindPost:
		return `div[data-testid^="postThreadItem"]`
	case KindProfile:
		return `div[data-testid="profileCard"]`
	}
	return ""
}

// StableID extracts a stable identifier from an item's embedded permalink.
// It returns "" on any parse failure; such items cannot be read-tracked and
// read-state operations on them are no-ops.
func (k Kind) StableID(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	switch k {
	case KindFeed, KindPost:
		href, ok := sel.Find(`a[href*="/post/"]`).First().Attr("href")
		if !ok {
			return ""
		}
		return postID(href)
	case KindProfile:
		href, ok := sel.Find(`a[href^="/profile/"]`).First().Attr("href")
		if !ok {
			return ""
		}
		parts := pathSegments(href)
		if len(parts) != 2 || parts[0] != "profile" || parts[1] == "" {
			return ""
		}
		return parts[1]
	}
	return ""
}

// Key adapts StableID for mutation watching, falling back to a generic node
// key for unextractable items so they still participate in diffing.
func (k Kind) Key(i int, sel *goquery.Selection) string {
	if id := k.StableID(sel); id != "" {
		return id
	}
	return page.DefaultKey(i, sel)
}

// postID parses a permalink path of the form /profile/{actor}/post/{rkey}
// into "{actor}/{rkey}". Malformed paths yield "".
func postID(href string) string {
	parts := pathSegments(href)
	if len(parts) != 4 || parts[0] != "profile" || parts[2] != "post" {
		return ""
	}
	if parts[1] == "" || parts[3] == "" {
		return ""
	}
	return parts[1] + "/" + parts[3]
}

func pathSegments(href string) []string {
	// Permalinks may be absolute; strip scheme+host down to the path.
	if i := strings.Index(href, "://"); i >= 0 {
		href = href[i+3:]
		if j := strings.Index(href, "/"); j >= 0 {
			href = href[j:]
		} else {
			href = "/"
		}
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	return strings.Split(strings.Trim(href, "/"), "/")
}
