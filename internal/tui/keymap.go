package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser's shortcuts. Row navigation uses the table's own bindings.
type KeyMap struct {
	SortSupport    key.Binding
	SortConfidence key.Binding
	SortLift       key.Binding
	Search         key.Binding
	ClearSearch    key.Binding
	ApplySearch    key.Binding
	ToggleHelp     key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SortSupport: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by support"),
		),
		SortConfidence: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "sort by confidence"),
		),
		SortLift: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "sort by lift"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search items"),
		),
		ClearSearch: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear search"),
		),
		ApplySearch: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply search"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SortLift, k.Search, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SortSupport, k.SortConfidence, k.SortLift},
		{k.Search, k.ApplySearch, k.ClearSearch},
		{k.ToggleHelp, k.Quit},
	}
}
