package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	next      key.Binding
	yes       key.Binding
	no        key.Binding
	home      key.Binding
	playlists key.Binding
	forYou    key.Binding
	login     key.Binding
	signUp    key.Binding
	logout    key.Binding
	search    key.Binding
	genre     key.Binding
	prevPage  key.Binding
	nextPage  key.Binding
	add       key.Binding
	create    key.Binding
	remove    key.Binding
	delete    key.Binding
	refresh   key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		home:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
		playlists: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "playlists")),
		forYou:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "for you")),
		login:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
		signUp:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign up")),
		logout:    key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "logout")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		genre:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "genre")),
		prevPage:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		nextPage:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		create:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create")),
		remove:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove track")),
		delete:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete playlist")),
		refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.home, k.playlists, k.forYou},
		{k.login, k.signUp, k.logout, k.quit},
	}
}
