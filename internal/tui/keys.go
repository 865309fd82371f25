package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	RangeUp     key.Binding
	RangeDown   key.Binding
	Select      key.Binding
	RangeSelect key.Binding
	Expand      key.Binding
	CollapseAll key.Binding
	BulkDelete  key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	NextView    key.Binding
	PrevView    key.Binding
	Refresh     key.Binding

	PrevField  key.Binding
	NextField  key.Binding
	EditField  key.Binding
	AddItem    key.Binding
	RemoveItem key.Binding
	Save       key.Binding
	Cancel     key.Binding
	Sync       key.Binding
	Delete     key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		RangeUp:     key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("shift+↑", "extend up")),
		RangeDown:   key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("shift+↓", "extend down")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		RangeSelect: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "select range")),
		Expand:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/close")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		BulkDelete:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		PrevPage:    key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "page")),
		NextPage:    key.NewBinding(key.WithKeys("]")),
		NextView:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevView:    key.NewBinding(key.WithKeys("shift+tab")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

		PrevField:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "field")),
		NextField:  key.NewBinding(key.WithKeys("right", "l")),
		EditField:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		AddItem:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add item")),
		RemoveItem: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove item")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Sync:       key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "sync")),
		Delete:     key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.RangeSelect, k.Expand, k.BulkDelete, k.PrevPage, k.NextView, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.RangeUp, k.RangeDown, k.Select, k.RangeSelect},
		{k.Expand, k.CollapseAll, k.BulkDelete, k.PrevPage, k.NextView, k.Refresh},
		{k.PrevField, k.EditField, k.AddItem, k.RemoveItem, k.Save, k.Cancel, k.Sync, k.Delete},
		{k.Help, k.Quit},
	}
}

// editorHelp is shown in place of ShortHelp while the cursor row is open.
type editorHelp struct{ k keyMap }

func (e editorHelp) ShortHelp() []key.Binding {
	return []key.Binding{e.k.PrevField, e.k.EditField, e.k.AddItem, e.k.RemoveItem, e.k.Save, e.k.Cancel, e.k.Sync, e.k.Delete}
}

func (e editorHelp) FullHelp() [][]key.Binding { return e.k.FullHelp() }
