package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	First  key.Binding
	Last   key.Binding
	Tag    key.Binding
	Untag  key.Binding
	Retry  key.Binding
	Rescan key.Binding
	Move   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap(tagKeys string) keyMap {
	tagHelp := "a-g"
	if runes := []rune(tagKeys); len(runes) > 0 {
		tagHelp = string(runes[0]) + "-" + string(runes[len(runes)-1])
	}

	return keyMap{
		Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		First:  key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
		Last:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
		Tag:    key.NewBinding(key.WithKeys(splitKeys(tagKeys)...), key.WithHelp(tagHelp, "tag")),
		Untag:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "untag")),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Rescan: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rescan")),
		Move:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move tagged")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func splitKeys(s string) []string {
	keys := make([]string, 0, len(s))
	for _, r := range s {
		keys = append(keys, string(r))
	}
	return keys
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Tag, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Tag, k.Untag, k.Move},
		{k.Retry, k.Rescan, k.Help, k.Quit},
	}
}
