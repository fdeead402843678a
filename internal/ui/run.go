package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the program and forwards session changes to it until the program exits.
func Run(ctx context.Context, opts Options, progOpts ...tea.ProgramOption) error {
	model := NewModel(ctx, opts)
	defer model.Close()

	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)...)

	states, cancel := opts.Session.Subscribe()
	defer cancel()
	go func() {
		for st := range states {
			p.Send(SessionChanged(st))
		}
		p.Send(sessionClosedMsg())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
