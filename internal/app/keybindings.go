package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the app-level keybindings. Context handlers and the global
// navigation chords are routed before any of these fire.
type KeyMap struct {
	// Browser
	Back    key.Binding
	Forward key.Binding
	Reload  key.Binding

	// Modes
	FocusInput key.Binding

	// Actions
	Quit     key.Binding
	Help     key.Binding
	Escape   key.Binding
	SyncNow  key.Binding
	HideRead key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Back: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "go back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "go forward"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("Ctrl+r", "reload page"),
		),
		FocusInput: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		SyncNow: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sync read state"),
		),
		HideRead: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "toggle hide read"),
		),
	}
}
