package contexts

import (
	"strings"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// NewPostHandler creates the handler for single-post thread pages. Post pages
// live under profile paths, so this handler must be registered before the
// profile handler.
func NewPostHandler(ledger *readstate.Ledger, view items.View, opts ListOptions) Handler {
	ctrl := items.NewController(items.KindPost, ledger, view)
	return newListHandler("post", matchesPost, ctrl, opts)
}

func matchesPost(path string) bool {
	return strings.HasPrefix(path, "/profile/") && strings.Contains(path, "/post/")
}
