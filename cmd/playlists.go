package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/vibra/internal/formatter"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/desertthunder/vibra/internal/tasks"
	"github.com/urfave/cli/v3"
)

// progress starts a printer for engine updates. Call the returned func after the
// operation to close the channel and wait for the printer to drain it.
func (r *Runner) progress() (chan tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveTracks, tasks.AddTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.ExportPlaylist, tasks.WriteManifest:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}

// PlaylistsList prints the signed-in user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	list, err := r.client.Playlists().List(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, list, func() {
		r.writePlainHeader("Your Playlists")
		if len(list.Playlists) == 0 {
			r.writePlain("You don't have any playlists yet.\n")
			return
		}
		for _, p := range list.Playlists {
			r.writePlain("%s  %s (%d tracks, %s)\n", p.ID, p.Name, len(p.TrackIDs), shared.VisibilityString(p.IsPublic))
		}
	})
}

// PlaylistsCreate creates a playlist. Playlists are public unless --private is given.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := stringArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	p, err := r.client.Playlists().Create(ctx, models.CreatePlaylistRequest{
		Name:        name,
		Description: cmd.String("description"),
		IsPublic:    !cmd.Bool("private"),
	})
	if err != nil {
		return err
	}
	r.logger.Info("playlist created", "id", p.ID, "name", p.Name)
	return r.emit(cmd, p, func() {
		r.writePlain("✓ Created playlist %s (%s)\n", p.Name, p.ID)
	})
}

// PlaylistsShow prints a playlist with its tracks in playlist order.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := stringArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	export, err := r.engine.Export(ctx, nil, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, export, func() {
		p := export.Playlist
		r.writePlainHeader(p.Name)
		if p.Description != "" {
			r.writePlain("%s\n", p.Description)
		}
		r.writePlain("%d songs • %d min • %s\n\n", len(export.Tracks), export.TotalDuration()/60, shared.VisibilityString(p.IsPublic))
		if len(export.Tracks) == 0 {
			r.writePlain("This playlist is empty. Add some tracks!\n")
			return
		}
		r.writeTracks(export.Tracks)
	})
}

// PlaylistsUpdate applies the given flags on top of the playlist's current fields.
//
// The update endpoint replaces name, description and visibility together.
func (r *Runner) PlaylistsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := stringArg(cmd, "id")
	if err != nil {
		return err
	}
	if cmd.Bool("public") && cmd.Bool("private") {
		return fmt.Errorf("%w: cannot specify both --public and --private", shared.ErrInvalidArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	detail, err := r.client.Playlists().Get(ctx, id)
	if err != nil {
		return err
	}
	req := models.UpdatePlaylistRequest{
		Name:        detail.Playlist.Name,
		Description: detail.Playlist.Description,
		IsPublic:    detail.Playlist.IsPublic,
	}
	if cmd.IsSet("name") {
		req.Name = strings.TrimSpace(cmd.String("name"))
	}
	if cmd.IsSet("description") {
		req.Description = cmd.String("description")
	}
	switch {
	case cmd.Bool("public"):
		req.IsPublic = true
	case cmd.Bool("private"):
		req.IsPublic = false
	}
	if req.Name == "" {
		return fmt.Errorf("%w: playlist name cannot be empty", shared.ErrInvalidInput)
	}

	if _, err := r.client.Playlists().Update(ctx, id, req); err != nil {
		return err
	}
	return r.writePlain("✓ Updated playlist %s\n", req.Name)
}

// PlaylistsDelete deletes a playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := stringArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	if _, err := r.client.Playlists().Delete(ctx, id); err != nil {
		return err
	}
	r.logger.Info("playlist deleted", "id", id)
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// PlaylistsAdd adds tracks by id, or resolves --query searches to tracks first.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	playlistID, rest := args[0], args[1:]
	queries := cmd.StringSlice("query")
	if len(rest) == 0 && len(queries) == 0 {
		return fmt.Errorf("%w: track ids or --query", shared.ErrMissingArgument)
	}

	ids := make([]int, 0, len(rest))
	for _, raw := range rest {
		id, err := services.ParseID(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	engine := r.engine
	if cmd.IsSet("threshold") {
		engine = tasks.NewPlaylistEngine(r.client.Playlists(), r.client.Search(), tasks.EngineOpts{
			Threshold: cmd.Float("threshold"),
			Logger:    r.logger,
		})
	}

	ch, wait := r.progress()
	total := &tasks.AddTracksResult{PlaylistID: playlistID}
	var err error
	if len(ids) > 0 {
		var res *tasks.AddTracksResult
		res, err = engine.AddTracks(ctx, ch, playlistID, ids)
		merge(total, res)
	}
	if err == nil && len(queries) > 0 {
		var res *tasks.AddTracksResult
		res, err = engine.AddByQuery(ctx, ch, playlistID, queries)
		merge(total, res)
	}
	wait()
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Added %d/%d tracks\n", total.SuccessCount, total.SuccessCount+total.FailedCount)
	for _, res := range total.Results {
		if res.Error == nil {
			continue
		}
		label := res.Query
		if label == "" {
			label = fmt.Sprintf("track %d", res.TrackID)
		}
		r.writePlain("  ✗ %s: %s\n", label, services.Message(res.Error))
	}
	return nil
}

func merge(into, from *tasks.AddTracksResult) {
	if from == nil {
		return
	}
	into.Results = append(into.Results, from.Results...)
	into.SuccessCount += from.SuccessCount
	into.FailedCount += from.FailedCount
}

// PlaylistsRemove removes a track from a playlist.
func (r *Runner) PlaylistsRemove(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("%w: playlist id and track id", shared.ErrMissingArgument)
	}
	trackID, err := services.ParseID(args[1])
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	if _, err := r.client.Playlists().RemoveTrack(ctx, args[0], trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed track %d from playlist %s\n", trackID, args[0])
}

// PlaylistsExport writes playlists to disk with the bulk exporter and logs each
// successful export to the local database.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if cmd.Bool("all") {
		list, err := r.client.Playlists().List(ctx)
		if err != nil {
			return err
		}
		for _, p := range list.Playlists {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: playlist ids or --all", shared.ErrMissingArgument)
	}

	r.logger.Info("exporting playlists", "count", len(ids), "format", format)

	ch, wait := r.progress()
	result, err := r.engine.BulkExport(ctx, ch, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		Cover:      cmd.Bool("cover"),
		HTTPClient: r.httpClient,
	})
	wait()
	if result != nil {
		r.recordExports(ctx, result, format)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.FailedExports > 0 {
		r.writePlain("\nFailed:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.PlaylistName, services.Message(res.Error))
			}
		}
	}
	return nil
}

func (r *Runner) recordExports(ctx context.Context, result *tasks.BulkExportResult, format formatter.Format) {
	if r.exports == nil {
		return
	}
	for _, res := range result.Results {
		if !res.Success {
			continue
		}
		dest := result.OutputDirectory
		if len(res.Files) > 0 {
			dest = filepath.Dir(res.Files[0])
		}
		rec := &models.ExportRecord{
			PlaylistID:  res.PlaylistID,
			Format:      string(format),
			Destination: dest,
			TrackCount:  res.TrackCount,
		}
		if err := r.exports.Create(ctx, rec); err != nil {
			r.logger.Warn("failed to record export", "playlist", res.PlaylistID, "error", err)
		}
	}
}

// PlaylistsClone copies a playlist, in order, into a new playlist.
func (r *Runner) PlaylistsClone(ctx context.Context, cmd *cli.Command) error {
	id, err := stringArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	ch, wait := r.progress()
	result, err := r.engine.Clone(ctx, ch, id, strings.TrimSpace(cmd.String("name")))
	wait()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Clone Complete!")
	r.writePlain("Source: %s (%d tracks)\n", result.Source.Playlist.Name, len(result.Source.Tracks))
	r.writePlain("Copy: %s (%s)\n", result.Dest.Name, result.Dest.ID)
	r.writePlain("Added: %d/%d\n", result.Added.SuccessCount, len(result.Source.Tracks))
	return nil
}

// PlaylistsHistory prints the local export log, newest first.
func (r *Runner) PlaylistsHistory(ctx context.Context, cmd *cli.Command) error {
	if r.exports == nil {
		return fmt.Errorf("%w: no local database configured", shared.ErrServiceUnavailable)
	}
	records, err := r.exports.List(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	return r.emit(cmd, records, func() {
		if len(records) == 0 {
			r.writePlain("No exports recorded\n")
			return
		}
		for _, rec := range records {
			r.writePlain("%s  %s  %-8s %3d tracks  %s\n",
				rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.PlaylistID, rec.Format, rec.TrackCount, rec.Destination)
		}
	})
}
