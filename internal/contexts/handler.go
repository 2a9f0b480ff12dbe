package contexts

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
)

// Handler owns the behavior for one page context: which locations it claims,
// which keys it consumes, and the item controller (if any) it drives.
//
// Exactly one handler is active at a time; the dispatcher enforces the
// deactivate-then-activate ordering on every switch.
type Handler interface {
	// Name identifies the handler in the status bar and help overlay.
	Name() string

	// Matches reports whether this handler claims the given host path.
	// inputFocused overrides path-based matching for the input handler.
	Matches(path string, inputFocused bool) bool

	// Activate prepares the handler for use. Called after the previous
	// handler's Deactivate has completed.
	Activate()

	// Deactivate releases anything Activate set up. Must be safe to call
	// when the handler was never activated.
	Deactivate()

	// HandleKey processes one key press. The bool reports whether the key
	// was consumed; unconsumed keys fall through to the global router.
	HandleKey(msg tea.KeyMsg) (tea.Cmd, bool)

	// Controller returns the item controller, or nil for handlers that do
	// not navigate a list.
	Controller() *items.Controller
}

// Registry is an ordered set of handlers. Resolution is first-match-wins, so
// more specific handlers are registered before more general ones. The
// registry is built once at startup and injected wherever handlers are
// needed; nothing reads it through package state.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates a registry with the given handlers in priority order.
// The last handler should match unconditionally so resolution never fails.
func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// Resolve returns the first handler claiming the path.
func (r *Registry) Resolve(path string, inputFocused bool) Handler {
	for _, h := range r.handlers {
		if h.Matches(path, inputFocused) {
			return h
		}
	}
	return nil
}

// Handlers returns the registered handlers in priority order.
func (r *Registry) Handlers() []Handler {
	return r.handlers
}
