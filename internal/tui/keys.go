package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	PickUp key.Binding
	Enter  key.Binding
	Cancel key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Member key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding

	// Detail view.
	Toggle     key.Binding
	AddSubtask key.Binding
	AddComment key.Binding

	// Forms.
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cycle     key.Binding

	Yes key.Binding
	No  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column")),
		Right:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column")),
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		PickUp: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop/open")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Member: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "members")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Toggle:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		AddSubtask: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add subtask")),
		AddComment: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Submit:    key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "save")),
		Cycle:     key.NewBinding(key.WithKeys("right", "l", " "), key.WithHelp("→", "change")),

		Yes: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
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
