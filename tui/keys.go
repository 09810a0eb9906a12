package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextVersion key.Binding
	PrevVersion key.Binding
	CopyLink    key.Binding
	CopyText    key.Binding
	CopyHash    key.Binding
	Quit        key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextVersion, k.CopyLink, k.CopyText, k.CopyHash, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextVersion, k.PrevVersion},
		{k.CopyLink, k.CopyText, k.CopyHash},
		{k.Quit},
	}
}

// ctrl+h arrives as backspace on many terminals, so hash copy is bound to
// ctrl+y only.
var keys = keyMap{
	NextVersion: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next version"),
	),
	PrevVersion: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous version"),
	),
	CopyLink: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "copy link"),
	),
	CopyText: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "copy text"),
	),
	CopyHash: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy hash"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}
