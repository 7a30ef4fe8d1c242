package visittui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	FirstPage  key.Binding
	LastPage   key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	JumpTab    key.Binding
	ColLeft    key.Binding
	ColRight   key.Binding
	Sort       key.Binding
	HideColumn key.Binding
	ShowAll    key.Binding
	Select     key.Binding
	SelectPage key.Binding
	ClearSel   key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	ResetOrder key.Binding
	Filter     key.Binding
	Visit      key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding

	Confirm key.Binding
	Cancel  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:   key.NewBinding(key.WithKeys("pgup", "["), key.WithHelp("[/]", "page")),
		NextPage:   key.NewBinding(key.WithKeys("pgdown", "]")),
		FirstPage:  key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/G", "first/last page")),
		LastPage:   key.NewBinding(key.WithKeys("end", "G")),
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab")),
		JumpTab:    key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "jump to tab")),
		ColLeft:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "column")),
		ColRight:   key.NewBinding(key.WithKeys("right", "l")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		HideColumn: key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide column")),
		ShowAll:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "show all columns")),
		Select:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectPage: key.NewBinding(key.WithKeys("a"), key.WithHelp("a/A", "select page/clear")),
		ClearSel:   key.NewBinding(key.WithKeys("A")),
		MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K/J", "move row")),
		MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down")),
		ResetOrder: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset order")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Visit:      key.NewBinding(key.WithKeys("enter", "v"), key.WithHelp("enter", "record visit")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Visit, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.FirstPage, k.NextTab, k.JumpTab},
		{k.ColLeft, k.Sort, k.HideColumn, k.ShowAll, k.Filter},
		{k.Select, k.SelectPage, k.MoveUp, k.ResetOrder},
		{k.Visit, k.Reload, k.Help, k.Quit},
	}
}
