package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type field struct {
	label       string
	placeholder string
	secret      bool
}

// form is a column of text inputs with one focused field.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
	busy   bool
	err    string
}

func newForm(fields ...field) form {
	f := form{labels: make([]string, len(fields)), inputs: make([]textinput.Model, len(fields))}
	for i, fd := range fields {
		in := textinput.New()
		in.Placeholder = fd.placeholder
		in.CharLimit = 256
		in.Cursor.SetMode(cursor.CursorStatic)
		if fd.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.labels[i] = fd.label
		f.inputs[i] = in
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.focus = i
	f.inputs[i].Focus()
}

// update moves focus on tab/shift+tab/up/down and forwards everything else to the focused input.
func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.busy = false
	f.err = ""
	f.setFocus(0)
}

func (f form) view() string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			label = styles.brand.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	if f.busy {
		b.WriteString(styles.muted.Render("Working...") + "\n")
	}
	if f.err != "" {
		b.WriteString(styles.err.Render(f.err) + "\n")
	}
	return b.String()
}
