package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	NextFocus   key.Binding
	PrevFocus   key.Binding
	Back        key.Binding
	Toggle      key.Binding
	SkipBack    key.Binding
	SkipForward key.Binding
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Send        key.Binding
	Newline     key.Binding
	Attach      key.Binding
	Detach      key.Binding
	NewSession  key.Binding
	Filter      key.Binding
	Refresh     key.Binding
	Copy        key.Binding
	VoiceVolume key.Binding
	AmbVolume   key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pane"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		SkipBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		SkipForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "generate"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "attach file"),
		),
		Detach: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "remove file"),
		),
		NewSession: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new project"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy line"),
		),
		VoiceVolume: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "voice volume"),
		),
		AmbVolume: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ambience volume"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "=", "up", "k"),
			key.WithHelp("+", "louder"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "_", "down", "j"),
			key.WithHelp("-", "quieter"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SkipBack, k.SkipForward, k.NextFocus, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.SkipBack, k.SkipForward, k.Copy},
		{k.NextFocus, k.PrevFocus, k.Up, k.Down, k.Select},
		{k.Send, k.Newline, k.Attach, k.Detach},
		{k.NewSession, k.Filter, k.Refresh},
		{k.VoiceVolume, k.AmbVolume, k.VolumeUp, k.VolumeDown},
		{k.Back, k.Help, k.Quit},
	}
}
