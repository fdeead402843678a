package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/repositories"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/session"
	"github.com/desertthunder/vibra/internal/shared"
	"github.com/desertthunder/vibra/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	configured bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	ownsDB  bool
	store   session.Store
	client  *services.Client
	session *session.Session
	engine  *tasks.PlaylistEngine
	exports *repositories.ExportLogRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading ConfigPath when set.
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// DB backs the token store and the export log. Without it the token lives in memory
	// until the Before hook opens the configured database.
	DB    *sql.DB
	Store session.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		configured: opts.Config != nil,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		store:      opts.Store,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}

	if err := r.config.Resolve(); err != nil {
		r.logger.Warn("invalid environment config", "error", err)
	}
	r.wire()
	return r
}

// wire builds the store, client, session and engine from the current config and database.
func (r *Runner) wire() {
	if r.db != nil {
		r.exports = repositories.NewExportLogRepository(r.db)
		if _, ok := r.store.(*repositories.TokenRepository); !ok {
			r.store = repositories.NewTokenRepository(r.db, r.config.Session.StorageKey)
		}
	}
	if r.store == nil {
		r.store = session.NewMemoryStore()
	}

	r.client = services.NewClient(services.Options{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Tokens:     session.NewTokenSource(r.store),
		Logger:     shared.WithLogger(r.logger, "component", "client"),
		UserAgent:  r.config.API.UserAgent,
	})
	if r.session != nil {
		r.session.Teardown()
	}
	r.session = session.New(r.store, session.NewBackend(r.client), session.Options{
		ValidateOnStart: r.config.Session.ValidateOnStart,
		Logger:          shared.WithLogger(r.logger, "component", "session"),
	})
	r.engine = tasks.NewPlaylistEngine(r.client.Playlists(), r.client.Search(), tasks.EngineOpts{
		Logger: shared.WithLogger(r.logger, "component", "engine"),
	})
}

// Before loads the config file and .env, applies the log level and opens the database.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !r.configured {
		path := cmd.String("config")
		if path == "" {
			path = r.configPath
		}
		config, err := shared.LoadConfigOrDefault(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
	}
	if err := r.config.Resolve(".env"); err != nil {
		r.logger.Warn("ignoring unreadable .env", "error", err)
	}
	if url := cmd.String("api-url"); url != "" {
		r.config.API.BaseURL = strings.TrimRight(url, "/")
	}

	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	} else {
		shared.SetLogLevel(r.logger, r.config.Log.ParseLevel())
	}

	if r.db == nil && r.config.Database.Path != "" {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("token store unavailable, using memory", "path", r.config.Database.Path, "error", err)
		} else {
			r.db, r.ownsDB = db, true
		}
	}

	r.wire()
	return ctx, nil
}

// After releases the session and any database the runner opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	r.session.Teardown()
	if r.ownsDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SetLogger replaces the logger used by the runner and everything it wires.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.wire()
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "vibra",
		Usage:     "Browse tracks, manage playlists and get recommendations from a Vibra API",
		Version:   "0.1.0",
		Writer:    r.output,
		ErrWriter: r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Override the API base URL",
				Sources: cli.EnvVars(shared.EnvAPIURL),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, artistsCommand, albumsCommand, playlistsCommand,
		recsCommand, profileCommand, searchCommand, apiCommand, tuiCommand, devCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTracks prints one numbered line per track.
func (r *Runner) writeTracks(tracks []models.Track) {
	if len(tracks) == 0 {
		r.writePlain("No tracks found\n")
		return
	}
	for i, t := range tracks {
		r.writePlain("%3d. [%d] %s - %s (%s, %s)\n",
			i+1, t.ID, orUnknown(t.ArtistName), t.Title, t.Genre, shared.FormatDuration(t.Duration))
	}
}

// emit picks JSON or plain rendering based on the --json flag.
func (r *Runner) emit(cmd *cli.Command, data any, plain func()) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, true)
	}
	plain()
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

// intArg parses the named positional argument as a numeric id.
func intArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return services.ParseID(raw)
}

// stringArg returns the named positional argument or a missing-argument error.
func stringArg(cmd *cli.Command, name string) (string, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return raw, nil
}
