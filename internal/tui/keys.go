package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard's keyboard bindings.
type keyMap struct {
	Toggle   key.Binding
	Next     key.Binding
	Previous key.Binding
	Back     key.Binding
	Forward  key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next track"),
		),
		Previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous track"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back 10s"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward 10s"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns bindings for the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Previous, k.Help, k.Quit}
}

// FullHelp returns bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next, k.Previous},
		{k.Back, k.Forward, k.Refresh},
		{k.Help, k.Quit},
	}
}
