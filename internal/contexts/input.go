package contexts

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tonycpsu/bluesky-navigator/internal/items"
)

// inputHandler claims every location while a text input holds focus. It
// consumes nothing, so all keys reach the focused input instead of the
// navigation bindings.
type inputHandler struct{}

// NewInputHandler creates the focus-override handler.
func NewInputHandler() Handler { return inputHandler{} }

func (inputHandler) Name() string { return "input" }

func (inputHandler) Matches(_ string, inputFocused bool) bool { return inputFocused }

func (inputHandler) Activate()   {}
func (inputHandler) Deactivate() {}

func (inputHandler) HandleKey(tea.KeyMsg) (tea.Cmd, bool) { return nil, false }

func (inputHandler) Controller() *items.Controller { return nil }

// defaultHandler matches every location. It is registered last so unclaimed
// pages (settings, moderation, chat) still have an active handler and keys
// fall through to the global shortcuts.
type defaultHandler struct{}

// NewDefaultHandler creates the catch-all handler.
func NewDefaultHandler() Handler { return defaultHandler{} }

func (defaultHandler) Name() string { return "page" }

func (defaultHandler) Matches(string, bool) bool { return true }

func (defaultHandler) Activate()   {}
func (defaultHandler) Deactivate() {}

func (defaultHandler) HandleKey(tea.KeyMsg) (tea.Cmd, bool) { return nil, false }

func (defaultHandler) Controller() *items.Controller { return nil }
