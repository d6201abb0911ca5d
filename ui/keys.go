package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send   key.Binding
	New    key.Binding
	Delete key.Binding
	Prev   key.Binding
	Next   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	New:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
	Delete: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete chat")),
	Prev:   key.NewBinding(key.WithKeys("ctrl+left", "alt+["), key.WithHelp("ctrl+←", "previous chat")),
	Next:   key.NewBinding(key.WithKeys("ctrl+right", "alt+]"), key.WithHelp("ctrl+→", "next chat")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.New, k.Delete, k.Prev, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
