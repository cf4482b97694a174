package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts of the tree view
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Tree operations
	Toggle   key.Binding
	Rename   key.Binding
	EditData key.Binding
	AddChild key.Binding

	// Export modal
	Export key.Binding
	Copy   key.Binding
	Close  key.Binding

	// Editing
	Commit key.Binding
	Cancel key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "collapse/expand"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		EditData: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit data"),
		),
		AddChild: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add child"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "done"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "done"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Rename, k.EditData, k.AddChild, k.Export, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Toggle, k.Rename, k.EditData, k.AddChild},
		{k.Export, k.Copy, k.Close, k.Quit},
	}
}

// exportHelp lists the bindings active while the export modal is open
func (k KeyMap) exportHelp() []key.Binding {
	return []key.Binding{k.Copy, k.Close}
}

// editHelp lists the bindings active while a text field is focused
func (k KeyMap) editHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Cancel}
}
