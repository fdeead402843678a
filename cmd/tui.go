package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibra/internal/shared"
	"github.com/desertthunder/vibra/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
//
// The session is initialized by the UI itself so guarded views show their
// placeholder while the persisted token is validated.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	start, ok := ui.ParseView(cmd.String("view"))
	if !ok {
		return fmt.Errorf("%w: unknown view %q", shared.ErrInvalidFlag, cmd.String("view"))
	}
	playlistID := cmd.String("playlist")
	if start == ui.PlaylistDetailView && playlistID == "" {
		return fmt.Errorf("%w: --playlist is required for the playlist view", shared.ErrMissingArgument)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/vibra-tui.log"
	}
	fileLogger, f, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	shared.SetLogLevel(fileLogger, r.config.Log.ParseLevel())
	r.SetLogger(fileLogger)

	return ui.Run(ctx, ui.Options{
		Session:    r.session,
		Client:     r.client,
		Logger:     r.logger,
		Start:      start,
		PlaylistID: playlistID,
	})
}
