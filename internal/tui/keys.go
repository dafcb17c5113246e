package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause      key.Binding
	Back       key.Binding
	Forward    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Next       key.Binding
	Prev       key.Binding
	Repeat     key.Binding
	Focus      key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5s")),
		Forward:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5s")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		Repeat:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play selected")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel seek")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Back, k.Forward, k.Next, k.Prev, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Back, k.Forward, k.Cancel},
		{k.VolumeUp, k.VolumeDown, k.Next, k.Prev, k.Repeat},
		{k.Focus, k.Up, k.Down, k.Select},
		{k.Help, k.Quit},
	}
}
