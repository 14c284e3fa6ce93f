package input

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"searchbox/internal/autocomplete"
)

// KeyMap holds the terminal key bindings. Navigation bindings map onto
// controller keys, the rest are handled by the UI model itself.
type KeyMap struct {
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Select   key.Binding
	Dismiss  key.Binding
	Complete key.Binding

	Details key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓/ctrl+n", "next"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑/ctrl+p", "previous"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "last"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "first"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close/clear"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Details: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "details"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Select, k.Dismiss, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.PageDown, k.PageUp},
		{k.Select, k.Dismiss, k.Complete},
		{k.Details, k.Help, k.Quit},
	}
}

// Translate maps a terminal key to the controller key it stands for
func (k KeyMap) Translate(msg tea.KeyMsg) (autocomplete.Key, bool) {
	switch {
	case key.Matches(msg, k.Down):
		return autocomplete.KeyArrowDown, true
	case key.Matches(msg, k.Up):
		return autocomplete.KeyArrowUp, true
	case key.Matches(msg, k.PageDown):
		return autocomplete.KeyPageDown, true
	case key.Matches(msg, k.PageUp):
		return autocomplete.KeyPageUp, true
	case key.Matches(msg, k.Select):
		return autocomplete.KeyEnter, true
	case key.Matches(msg, k.Dismiss):
		return autocomplete.KeyEscape, true
	case key.Matches(msg, k.Complete):
		return autocomplete.KeyTab, true
	}
	return "", false
}
