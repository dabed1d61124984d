package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keybindings for the editor
type KeyMap struct {
	Accept     key.Binding
	AcceptWord key.Binding
	Dismiss    key.Binding
	Left       key.Binding
	Right      key.Binding
	Up         key.Binding
	Down       key.Binding
	LineStart  key.Binding
	LineEnd    key.Binding
	Newline    key.Binding
	Backspace  key.Binding
	Save       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings for the editor
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Accept: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "accept"),
		),
		AcceptWord: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("ctrl+→", "accept word"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
		),
		LineStart: key.NewBinding(
			key.WithKeys("home", "ctrl+a"),
		),
		LineEnd: key.NewBinding(
			key.WithKeys("end", "ctrl+e"),
		),
		Newline: key.NewBinding(
			key.WithKeys("enter"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Accept, k.AcceptWord, k.Dismiss, k.Save, k.Quit}
}

// FullHelp returns keybindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.AcceptWord, k.Dismiss},
		{k.Save, k.Quit},
	}
}
