package contexts

import "github.com/charmbracelet/bubbles/key"

// ListKeyMap defines the keybindings shared by every list context.
type ListKeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	PageDown   key.Binding
	PageUp     key.Binding
	GotoFirst  key.Binding
	Home       key.Binding
	GotoLast   key.Binding
	Open       key.Binding
	ToggleRead key.Binding
	MarkRead   key.Binding
	MarkUnread key.Binding
	Preview    key.Binding
	Unroll     key.Binding
}

// DefaultListKeyMap returns the vim-style list bindings.
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "next item"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "previous item"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		GotoFirst: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "first item"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first item"),
		),
		GotoLast: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G/end", "last item"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "o"),
			key.WithHelp("enter/o", "open item"),
		),
		ToggleRead: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "toggle read"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "mark read"),
		),
		MarkUnread: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "mark unread"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview embedded link"),
		),
		Unroll: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "unroll thread"),
		),
	}
}
