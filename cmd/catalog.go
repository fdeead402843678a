package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/urfave/cli/v3"
)

// TracksList prints a page of tracks, optionally filtered by genre or title.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	q := models.TrackQuery{
		Page:   cmd.Int("page"),
		Limit:  cmd.Int("limit"),
		Genre:  cmd.String("genre"),
		Search: cmd.String("search"),
	}
	r.logger.Debug("listing tracks", "page", q.Page, "genre", q.Genre, "search", q.Search)

	page, err := r.client.Tracks().List(ctx, q)
	if err != nil {
		return err
	}
	return r.emit(cmd, page, func() {
		r.writePlainHeader(fmt.Sprintf("Tracks (page %d)", page.Page))
		r.writeTracks(page.Tracks)
	})
}

// TracksGet prints one track.
func (r *Runner) TracksGet(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	track, err := r.client.Tracks().Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, track, func() {
		r.writePlain("%s\n", track.Title)
		r.writePlain("  Artist:   %s\n", orUnknown(track.ArtistName))
		r.writePlain("  Album:    %s\n", orUnknown(track.AlbumName))
		r.writePlain("  Genre:    %s\n", track.Genre)
		r.writePlain("  Duration: %s\n", shared.FormatDuration(track.Duration))
		if !track.ReleaseDate.IsZero() {
			r.writePlain("  Released: %s\n", track.ReleaseDate.Format("2006-01-02"))
		}
	})
}

// TracksSimilar prints tracks similar to the given one.
func (r *Runner) TracksSimilar(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	list, err := r.client.Tracks().Similar(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, list, func() {
		r.writePlainHeader(fmt.Sprintf("Similar to track %d", id))
		r.writeTracks(list.Tracks)
	})
}

// TracksPlay records a play for the signed-in user.
func (r *Runner) TracksPlay(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	if _, err := r.client.Tracks().RecordPlay(ctx, id); err != nil {
		return err
	}
	r.logger.Debug("play recorded", "track", id)
	return r.writePlain("✓ Play recorded for track %d\n", id)
}

// TracksOpen opens a track's file URL with the system browser.
func (r *Runner) TracksOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	track, err := r.client.Tracks().Get(ctx, id)
	if err != nil {
		return err
	}
	if track.FileURL == "" {
		return fmt.Errorf("%w: track %d has no file URL", shared.ErrInvalidInput, id)
	}
	r.writePlain("Opening %s\n", track.FileURL)
	return shared.OpenBrowser(track.FileURL)
}

// TracksAdd adds a track to the catalog.
func (r *Runner) TracksAdd(ctx context.Context, cmd *cli.Command) error {
	req := models.AddTrackRequest{
		Title:       strings.TrimSpace(cmd.String("title")),
		ArtistID:    cmd.Int("artist-id"),
		AlbumID:     cmd.Int("album-id"),
		Duration:    cmd.Int("duration"),
		Genre:       cmd.String("genre"),
		ReleaseDate: cmd.String("release-date"),
		FileURL:     cmd.String("file-url"),
		CoverURL:    cmd.String("cover-url"),
	}
	if req.Title == "" || req.Duration <= 0 {
		return fmt.Errorf("%w: title and a positive duration are required", shared.ErrInvalidInput)
	}

	res, err := r.client.Tracks().Add(ctx, req)
	if err != nil {
		return err
	}
	r.logger.Info("track added", "id", res.TrackID, "title", req.Title)
	return r.writePlain("✓ Track added with id %d\n", res.TrackID)
}

// ArtistsList prints a page of artists.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.Artists().List(ctx, models.Page{Page: cmd.Int("page"), Limit: cmd.Int("limit")})
	if err != nil {
		return err
	}
	return r.emit(cmd, page, func() {
		r.writePlainHeader(fmt.Sprintf("Artists (page %d)", page.Page))
		for _, a := range page.Artists {
			r.writePlain("[%d] %s\n", a.ID, a.Name)
		}
	})
}

// ArtistsGet prints an artist and their tracks.
func (r *Runner) ArtistsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	detail, err := r.client.Artists().Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, detail, func() {
		r.writePlainHeader(detail.Artist.Name)
		if detail.Artist.Bio != "" {
			r.writePlain("%s\n\n", detail.Artist.Bio)
		}
		r.writeTracks(detail.Tracks)
	})
}

// ArtistsStats prints aggregate statistics for an artist.
func (r *Runner) ArtistsStats(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	stats, err := r.client.Artists().Stats(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, stats, func() {
		r.writePlainHeader(stats.ArtistName)
		r.writePlain("Albums:  %d\n", stats.TotalAlbums)
		r.writePlain("Tracks:  %d\n", stats.TotalTracks)
		r.writePlain("Length:  %s\n", shared.FormatDuration(stats.TotalDurationSeconds))
		r.writePlain("Genres:  %s\n", stats.Genres)
		r.writePlain("Avg plays per track: %.1f\n", stats.AvgPlaysPerTrack)
	})
}

// AlbumsList prints a page of albums.
func (r *Runner) AlbumsList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.client.Albums().List(ctx, models.Page{Page: cmd.Int("page"), Limit: cmd.Int("limit")})
	if err != nil {
		return err
	}
	return r.emit(cmd, page, func() {
		r.writePlainHeader(fmt.Sprintf("Albums (page %d)", page.Page))
		for _, a := range page.Albums {
			r.writePlain("[%d] %s - %s\n", a.ID, orUnknown(a.ArtistName), a.Title)
		}
	})
}

// AlbumsStats prints an album's track count and length.
func (r *Runner) AlbumsStats(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	stats, err := r.client.Albums().Stats(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, stats, func() {
		r.writePlain("%s: %d tracks, %s\n", stats.Title, stats.TrackCount, shared.FormatDuration(stats.TotalDuration))
	})
}

// AlbumsDuration prints an album's formatted length.
func (r *Runner) AlbumsDuration(ctx context.Context, cmd *cli.Command) error {
	id, err := intArg(cmd, "id")
	if err != nil {
		return err
	}
	d, err := r.client.Albums().Duration(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, d, func() {
		r.writePlain("Album %d: %s\n", d.AlbumID, d.DurationFormatted)
	})
}

// RecsTrending prints the most played tracks.
func (r *Runner) RecsTrending(ctx context.Context, cmd *cli.Command) error {
	list, err := r.client.Recommendations().Trending(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, list, func() {
		r.writePlainHeader("Trending Now")
		r.writeTracks(list.Tracks)
	})
}

// RecsGenre prints popular tracks of a genre.
func (r *Runner) RecsGenre(ctx context.Context, cmd *cli.Command) error {
	genre, err := stringArg(cmd, "genre")
	if err != nil {
		return err
	}
	list, err := r.client.Recommendations().Genre(ctx, genre)
	if err != nil {
		return err
	}
	return r.emit(cmd, list, func() {
		r.writePlainHeader("Top " + genre)
		r.writeTracks(list.Tracks)
	})
}

// RecsPersonal prints recommendations for the signed-in user.
func (r *Runner) RecsPersonal(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	list, err := r.client.Recommendations().Personal(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, list, func() {
		r.writePlainHeader("Made For You")
		if list.Reason != "" {
			r.writePlain("%s\n\n", list.Reason)
		}
		if len(list.Tracks) == 0 {
			r.writePlain("Start listening to tracks to get personalized recommendations!\n")
			return
		}
		r.writeTracks(list.Tracks)
	})
}

// ProfileShow prints the signed-in user's profile.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	user, err := r.client.Profile().Get(ctx)
	if err != nil {
		return err
	}
	return r.emit(cmd, user, func() {
		r.writePlainHeader(user.Name())
		r.writePlain("Username: %s\n", user.Username)
		r.writePlain("Email:    %s\n", user.Email)
		r.writePlain("Theme:    %s\n", user.Preferences.Theme)
		if len(user.Preferences.PreferredGenres) > 0 {
			r.writePlain("Genres:   %s\n", strings.Join(user.Preferences.PreferredGenres, ", "))
		}
		r.writePlain("Plays:    %d\n", len(user.ListeningHistory))
	})
}

// ProfilePrefs merges the given flags into the current preferences and saves them.
func (r *Runner) ProfilePrefs(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	user, err := r.client.Profile().Get(ctx)
	if err != nil {
		return err
	}

	prefs := user.Preferences
	if cmd.IsSet("theme") {
		theme := strings.ToLower(cmd.String("theme"))
		if theme != "light" && theme != "dark" {
			return fmt.Errorf("%w: theme must be light or dark", shared.ErrInvalidFlag)
		}
		prefs.Theme = theme
	}
	if cmd.IsSet("language") {
		prefs.Language = cmd.String("language")
	}
	if cmd.IsSet("explicit") {
		prefs.ExplicitContent = cmd.Bool("explicit")
	}
	if cmd.IsSet("genre") {
		prefs.PreferredGenres = cmd.StringSlice("genre")
	}

	if _, err := r.client.Profile().UpdatePreferences(ctx, prefs); err != nil {
		return err
	}
	return r.writePlain("✓ Preferences updated\n")
}

// Search prints matching tracks, artists and albums.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := stringArg(cmd, "query")
	if err != nil {
		return err
	}
	res, err := r.client.Search().Search(ctx, query)
	if err != nil {
		return err
	}
	return r.emit(cmd, res, func() {
		r.writePlainHeader(fmt.Sprintf("Results for %q", query))
		r.writePlain("Tracks:\n")
		r.writeTracks(res.Tracks)
		if len(res.Artists) > 0 {
			r.writePlain("\nArtists:\n")
			for _, a := range res.Artists {
				r.writePlain("  [%d] %s\n", a.ID, a.Name)
			}
		}
		if len(res.Albums) > 0 {
			r.writePlain("\nAlbums:\n")
			for _, a := range res.Albums {
				r.writePlain("  [%d] %s\n", a.ID, a.Title)
			}
		}
	})
}
