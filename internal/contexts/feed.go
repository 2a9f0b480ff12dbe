package contexts

import (
	"strings"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// feedPrefixes are the host locations that render a feed-style item list.
var feedPrefixes = []string{
	"/search",
	"/notifications",
	"/feeds",
	"/lists",
	"/hashtag/",
}

// NewFeedHandler creates the handler for feed-style pages: the home timeline,
// search results, notifications, and saved feeds.
func NewFeedHandler(ledger *readstate.Ledger, view items.View, opts ListOptions) Handler {
	ctrl := items.NewController(items.KindFeed, ledger, view)
	return newListHandler("feed", matchesFeed, ctrl, opts)
}

func matchesFeed(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	for _, p := range feedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
