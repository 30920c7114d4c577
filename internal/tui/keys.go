package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the navigation and editing bindings. Duplicate, delete and undo
// are not here: they go through the editor's intent dispatcher and its keymap.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Open     key.Binding
	Edit     key.Binding
	Add      key.Binding
	Toggle   key.Binding
	Clear    key.Binding
	Save     key.Binding
	Reload   key.Binding
	Preview  key.Binding
	Switch   key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
		MoveDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
		Open:     key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		Clear:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Preview:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "lessons/blocks")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		h := b.Help()
		if i > 0 {
			out += "  "
		}
		out += h.Key + " " + h.Desc
	}
	return out
}
