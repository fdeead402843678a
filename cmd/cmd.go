// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/vibra/internal/tasks"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the default template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the local database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Vibra account session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password", Required: true, Sources: cli.EnvVars("VIBRA_PASSWORD")},
					&cli.StringFlag{Name: "username", Usage: "Unique username", Required: true},
					&cli.StringFlag{Name: "display-name", Usage: "Name shown in the UI"},
					&cli.StringSliceFlag{Name: "genre", Usage: "Favorite genre (repeatable)"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in and persist the token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password", Required: true, Sources: cli.EnvVars("VIBRA_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the persisted token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Restore the session and show who is signed in",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// tracksCommand handles catalog track operations
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Browse and manage tracks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracks, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "Tracks per page", Value: 20},
					&cli.StringFlag{Name: "genre", Usage: "Only tracks of this genre"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Title substring"},
					jsonFlag(),
				},
				Action: r.TracksList,
			},
			{
				Name:      "get",
				Usage:     "Show one track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TracksGet,
			},
			{
				Name:      "similar",
				Usage:     "List tracks similar to a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TracksSimilar,
			},
			{
				Name:      "play",
				Usage:     "Record a play in your listening history",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TracksPlay,
			},
			{
				Name:      "open",
				Usage:     "Open a track's audio file in the browser",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TracksOpen,
			},
			{
				Name:  "add",
				Usage: "Add a track to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.IntFlag{Name: "artist-id", Required: true},
					&cli.IntFlag{Name: "album-id", Required: true},
					&cli.IntFlag{Name: "duration", Usage: "Length in seconds", Required: true},
					&cli.StringFlag{Name: "genre", Required: true},
					&cli.StringFlag{Name: "release-date", Usage: "YYYY-MM-DD", Required: true},
					&cli.StringFlag{Name: "file-url", Required: true},
					&cli.StringFlag{Name: "cover-url"},
				},
				Action: r.TracksAdd,
			},
		},
	}
}

// artistsCommand handles artist lookups
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Browse artists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List artists",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					jsonFlag(),
				},
				Action: r.ArtistsList,
			},
			{
				Name:      "get",
				Usage:     "Show an artist and their tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ArtistsGet,
			},
			{
				Name:      "stats",
				Usage:     "Show aggregate statistics for an artist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ArtistsStats,
			},
		},
	}
}

// albumsCommand handles album lookups
func albumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "albums",
		Usage: "Browse albums",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List albums",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Value: 20},
					jsonFlag(),
				},
				Action: r.AlbumsList,
			},
			{
				Name:      "stats",
				Usage:     "Show track count and length of an album",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.AlbumsStats,
			},
			{
				Name:      "duration",
				Usage:     "Show the formatted length of an album",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.AlbumsDuration,
			},
		},
	}
}

// playlistsCommand handles playlist CRUD and the bulk operations built on it
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage your playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your playlists",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PlaylistsList,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
					&cli.BoolFlag{Name: "private", Usage: "Hide the playlist from other users"},
					jsonFlag(),
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist's tracks in order",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.PlaylistsShow,
			},
			{
				Name:      "update",
				Usage:     "Rename a playlist or change its description or visibility",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
					&cli.BoolFlag{Name: "public"},
					&cli.BoolFlag{Name: "private"},
				},
				Action: r.PlaylistsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistsDelete,
			},
			{
				Name:      "add",
				Usage:     "Add tracks by id, or by --query search",
				ArgsUsage: "<playlist-id> [track-id...]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "query", Aliases: []string{"q"}, Usage: "Track search (repeatable)"},
					&cli.FloatFlag{Name: "threshold", Usage: "Minimum title similarity for --query", Value: tasks.DefaultMatchThreshold},
				},
				Action: r.PlaylistsAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from a playlist",
				ArgsUsage: "<playlist-id> <track-id>",
				Action:    r.PlaylistsRemove,
			},
			{
				Name:      "export",
				Usage:     "Write playlists to disk",
				ArgsUsage: "[playlist-id...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist you own"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 5},
					&cli.BoolFlag{Name: "cover", Usage: "Download cover images (markdown only)"},
					jsonFlag(),
				},
				Action: r.PlaylistsExport,
			},
			{
				Name:      "clone",
				Usage:     "Copy a playlist into a new playlist you own",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Name of the copy (default: '<source> (copy)')"},
				},
				Action: r.PlaylistsClone,
			},
			{
				Name:      "history",
				Usage:     "Show local export history",
				ArgsUsage: "[playlist-id]",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.PlaylistsHistory,
			},
		},
	}
}

// recsCommand handles recommendation feeds
func recsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recs",
		Aliases: []string{"recommendations"},
		Usage:   "Recommendations",
		Commands: []*cli.Command{
			{
				Name:   "trending",
				Usage:  "Most played tracks",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RecsTrending,
			},
			{
				Name:      "genre",
				Usage:     "Popular tracks of a genre",
				Arguments: []cli.Argument{&cli.StringArg{Name: "genre"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.RecsGenre,
			},
			{
				Name:   "personal",
				Usage:  "Recommendations from your listening history",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RecsPersonal,
			},
		},
	}
}

// profileCommand handles the signed-in user's profile
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Your profile and preferences",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "prefs",
				Usage: "Update your preferences",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "theme", Usage: "light or dark"},
					&cli.StringFlag{Name: "language"},
					&cli.BoolFlag{Name: "explicit", Usage: "Allow explicit content"},
					&cli.StringSliceFlag{Name: "genre", Usage: "Preferred genre (repeatable)"},
				},
				Action: r.ProfilePrefs,
			},
		},
	}
}

// searchCommand searches tracks, artists and albums at once
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search tracks, artists and albums",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Search,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls, prints the raw response",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path relative to the base URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "compact", Usage: "Print JSON on one line"},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a path relative to the base URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:   "health",
				Usage:  "Check the API and its databases",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.APIHealth,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "view", Usage: "First view: home, login, register, playlists, playlist or recommendations", Value: "home"},
			&cli.StringFlag{Name: "playlist", Usage: "Playlist id for --view playlist"},
		},
		Action: r.TUI,
	}
}

// devCommand runs the in-memory development API
func devCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Development helpers",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve a seeded in-memory Vibra API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "Listen address (default: server.host:server.port)"},
					&cli.DurationFlag{Name: "token-ttl", Usage: "Lifetime of issued tokens"},
				},
				Action: r.DevServe,
			},
		},
	}
}
