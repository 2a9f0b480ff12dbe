package contexts

import (
	"strings"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
	"github.com/tonycpsu/bluesky-navigator/internal/readstate"
)

// NewProfileHandler creates the handler for profile pages, which render the
// profile's posts as a feed-style list.
func NewProfileHandler(ledger *readstate.Ledger, view items.View, opts ListOptions) Handler {
	ctrl := items.NewController(items.KindProfile, ledger, view)
	return newListHandler("profile", matchesProfile, ctrl, opts)
}

func matchesProfile(path string) bool {
	return strings.HasPrefix(path, "/profile/")
}
