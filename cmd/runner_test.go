package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/repositories"
	"github.com/desertthunder/vibra/internal/shared"
	tu "github.com/desertthunder/vibra/internal/testing"
)

// cliFixture runs commands against a seeded dev API with an in-memory token store.
type cliFixture struct {
	t      *testing.T
	runner *Runner
	output *bytes.Buffer
	config *shared.Config
	tokens *repositories.TokenRepository
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	t.Setenv(shared.EnvAPIURL, "")
	_, baseURL := tu.NewDevAPI(t)

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.API.BaseURL = baseURL
	config.Log.Level = "error"

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		DB:     db,
	})
	return &cliFixture{
		t:      t,
		runner: runner,
		output: output,
		config: config,
		tokens: repositories.NewTokenRepository(db, config.Session.StorageKey),
	}
}

func (f *cliFixture) run(args ...string) (string, error) {
	f.t.Helper()
	f.output.Reset()
	err := f.runner.app().Run(context.Background(), append([]string{"vibra"}, args...))
	return f.output.String(), err
}

func (f *cliFixture) mustRun(args ...string) string {
	f.t.Helper()
	out, err := f.run(args...)
	if err != nil {
		f.t.Fatalf("vibra %s: expected no error, got %v\noutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

func (f *cliFixture) decode(out string, v any) {
	f.t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		f.t.Fatalf("failed to decode output: %v\noutput: %s", err, out)
	}
}

func (f *cliFixture) signUp() {
	f.t.Helper()
	f.mustRun("auth", "register", "--email", "a@b.com", "--password", "secret1", "--username", "ab", "--genre", "Jazz")
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client == nil || runner.session == nil || runner.engine == nil {
				t.Error("expected client, session and engine to be wired")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configured {
				t.Error("expected config to be loaded by the Before hook")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without database keeps the token in memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.store.(*repositories.TokenRepository); ok {
				t.Error("expected an in-memory store")
			}
			if runner.exports != nil {
				t.Error("expected no export log without a database")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()
		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}
	})
}

func TestAuthCommands(t *testing.T) {
	f := newCLIFixture(t)

	t.Run("status before signing in", func(t *testing.T) {
		out := f.mustRun("auth", "status")
		if !strings.Contains(out, "Not signed in") {
			t.Errorf("expected signed-out status, got %q", out)
		}
	})

	t.Run("register persists the token", func(t *testing.T) {
		out := f.mustRun("auth", "register", "--email", "a@b.com", "--password", "secret1", "--username", "ab", "--display-name", "A B")
		if !strings.Contains(out, "Signed in as A B") {
			t.Errorf("expected greeting, got %q", out)
		}

		token, err := f.tokens.Load(context.Background())
		if err != nil || token == "" {
			t.Fatalf("expected persisted token, got %q, %v", token, err)
		}
	})

	t.Run("status restores the persisted session", func(t *testing.T) {
		var status struct {
			Authenticated bool         `json:"authenticated"`
			User          *models.User `json:"user"`
		}
		f.decode(f.mustRun("auth", "status", "--json"), &status)

		if !status.Authenticated {
			t.Fatal("expected authenticated status")
		}
		if status.User == nil || status.User.Email != "a@b.com" {
			t.Errorf("expected user a@b.com, got %+v", status.User)
		}
	})

	t.Run("login with bad credentials", func(t *testing.T) {
		_, err := f.run("auth", "login", "--email", "a@b.com", "--password", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("logout twice", func(t *testing.T) {
		f.mustRun("auth", "logout")
		f.mustRun("auth", "logout")

		if _, err := f.tokens.Load(context.Background()); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("expected cleared token, got %v", err)
		}
	})

	t.Run("guarded commands need a session", func(t *testing.T) {
		_, err := f.run("playlists", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("login again", func(t *testing.T) {
		out := f.mustRun("auth", "login", "--email", "a@b.com", "--password", "secret1")
		if !strings.Contains(out, "Signed in") {
			t.Errorf("expected sign-in message, got %q", out)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	f := newCLIFixture(t)

	t.Run("tracks list filters by genre", func(t *testing.T) {
		var page models.TrackPage
		f.decode(f.mustRun("tracks", "list", "--genre", "Jazz", "--json"), &page)

		if len(page.Tracks) != 7 {
			t.Errorf("expected 7 jazz tracks, got %d", len(page.Tracks))
		}
		for _, tr := range page.Tracks {
			if tr.Genre != "Jazz" {
				t.Errorf("expected only Jazz, got %s", tr.Genre)
			}
		}
	})

	t.Run("tracks get", func(t *testing.T) {
		out := f.mustRun("tracks", "get", "1")
		if !strings.Contains(out, "So What") {
			t.Errorf("expected track title, got %q", out)
		}
		if !strings.Contains(out, "9:22") {
			t.Errorf("expected formatted duration, got %q", out)
		}
	})

	t.Run("tracks get with a bad id", func(t *testing.T) {
		if _, err := f.run("tracks", "get", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("tracks play needs a session", func(t *testing.T) {
		if _, err := f.run("tracks", "play", "1"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("search", func(t *testing.T) {
		var res models.SearchResults
		f.decode(f.mustRun("search", "--json", "daft"), &res)

		if len(res.Artists) != 1 || res.Artists[0].Name != "Daft Punk" {
			t.Errorf("expected Daft Punk, got %+v", res.Artists)
		}
	})

	t.Run("artists get", func(t *testing.T) {
		var detail models.ArtistDetail
		f.decode(f.mustRun("artists", "get", "--json", "3"), &detail)

		if detail.Artist.Name != "Daft Punk" {
			t.Errorf("expected Daft Punk, got %s", detail.Artist.Name)
		}
		if len(detail.Tracks) != 5 {
			t.Errorf("expected 5 tracks, got %d", len(detail.Tracks))
		}
	})

	t.Run("trending", func(t *testing.T) {
		out := f.mustRun("recs", "trending")
		if !strings.Contains(out, "Trending Now") {
			t.Errorf("expected trending header, got %q", out)
		}
	})

	t.Run("plays feed the profile", func(t *testing.T) {
		f.signUp()
		f.mustRun("tracks", "play", "11")

		var user models.User
		f.decode(f.mustRun("profile", "show", "--json"), &user)
		if len(user.ListeningHistory) != 1 || user.ListeningHistory[0].TrackID != 11 {
			t.Errorf("expected one play of track 11, got %+v", user.ListeningHistory)
		}
	})

	t.Run("preferences merge", func(t *testing.T) {
		f.mustRun("profile", "prefs", "--theme", "dark")

		var user models.User
		f.decode(f.mustRun("profile", "show", "--json"), &user)
		if user.Preferences.Theme != "dark" {
			t.Errorf("expected dark theme, got %s", user.Preferences.Theme)
		}
		if len(user.Preferences.PreferredGenres) != 1 || user.Preferences.PreferredGenres[0] != "Jazz" {
			t.Errorf("expected genres to be kept, got %v", user.Preferences.PreferredGenres)
		}
	})

	t.Run("preferences reject unknown theme", func(t *testing.T) {
		if _, err := f.run("profile", "prefs", "--theme", "neon"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.signUp()

	var created models.Playlist
	f.decode(f.mustRun("playlists", "create", "--description", "Highway songs", "--json", "Road Trip"), &created)
	if created.ID == "" || !created.IsPublic {
		t.Fatalf("expected a public playlist, got %+v", created)
	}

	show := func(t *testing.T) models.PlaylistExport {
		t.Helper()
		var export models.PlaylistExport
		f.decode(f.mustRun("playlists", "show", "--json", created.ID), &export)
		return export
	}
	ids := func(tracks []models.Track) []int {
		out := make([]int, len(tracks))
		for i, tr := range tracks {
			out[i] = tr.ID
		}
		return out
	}

	t.Run("add keeps insertion order", func(t *testing.T) {
		out := f.mustRun("playlists", "add", created.ID, "3", "1", "13")
		if !strings.Contains(out, "Added 3/3") {
			t.Errorf("expected 3 added, got %q", out)
		}

		got := ids(show(t).Tracks)
		if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 13 {
			t.Errorf("expected [3 1 13], got %v", got)
		}
	})

	t.Run("add by query", func(t *testing.T) {
		out := f.mustRun("playlists", "add", "--query", "Get Lucky", "--query", "zzzz nothing", created.ID)
		if !strings.Contains(out, "Added 1/2") {
			t.Errorf("expected one match, got %q", out)
		}
		if got := ids(show(t).Tracks); len(got) != 4 || got[3] != 11 {
			t.Errorf("expected Get Lucky appended, got %v", got)
		}
	})

	t.Run("remove", func(t *testing.T) {
		f.mustRun("playlists", "remove", created.ID, "3")

		got := ids(show(t).Tracks)
		if len(got) != 3 || got[0] != 1 {
			t.Errorf("expected [1 13 11], got %v", got)
		}
	})

	t.Run("update keeps unset fields", func(t *testing.T) {
		f.mustRun("playlists", "update", "--private", created.ID)

		p := show(t).Playlist
		if p.IsPublic {
			t.Error("expected playlist to be private")
		}
		if p.Name != "Road Trip" || p.Description != "Highway songs" {
			t.Errorf("expected name and description kept, got %q %q", p.Name, p.Description)
		}
	})

	t.Run("export records history", func(t *testing.T) {
		dir := t.TempDir()
		out := f.mustRun("playlists", "export", "--format", "csv", "--output", dir, created.ID)
		if !strings.Contains(out, "Exported: 1/1") {
			t.Errorf("expected one export, got %q", out)
		}
		tu.AssertDirExists(t, dir)
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		var records []*models.ExportRecord
		f.decode(f.mustRun("playlists", "history", "--json", created.ID), &records)
		if len(records) != 1 {
			t.Fatalf("expected one export record, got %d", len(records))
		}
		if records[0].Format != "csv" || records[0].TrackCount != 3 {
			t.Errorf("expected csv with 3 tracks, got %+v", records[0])
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		if _, err := f.run("playlists", "export", "--format", "xml", created.ID); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("clone", func(t *testing.T) {
		out := f.mustRun("playlists", "clone", "--name", "Road Trip II", created.ID)
		if !strings.Contains(out, "Added: 3/3") {
			t.Errorf("expected all tracks copied, got %q", out)
		}

		var list models.PlaylistList
		f.decode(f.mustRun("playlists", "list", "--json"), &list)
		if len(list.Playlists) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(list.Playlists))
		}
	})

	t.Run("delete", func(t *testing.T) {
		f.mustRun("playlists", "delete", created.ID)

		if _, err := f.run("playlists", "show", created.ID); err == nil {
			t.Error("expected deleted playlist to be gone")
		}
	})
}

func TestAPICommands(t *testing.T) {
	f := newCLIFixture(t)

	t.Run("get prints the response", func(t *testing.T) {
		out := f.mustRun("api", "get", "tracks/1")
		if !strings.Contains(out, `"So What"`) {
			t.Errorf("expected track JSON, got %q", out)
		}
	})

	t.Run("get fails on error statuses", func(t *testing.T) {
		if _, err := f.run("api", "get", "/tracks/9999"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		if _, err := f.run("api", "post", "--data", "{nope", "/auth/login"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("health", func(t *testing.T) {
		out := f.mustRun("api", "health")
		if !strings.Contains(out, "Status:") {
			t.Errorf("expected health status, got %q", out)
		}
	})
}

func TestSetupAndTUICommands(t *testing.T) {
	f := newCLIFixture(t)

	t.Run("setup config writes the template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		f.mustRun("--config", path, "setup", "config")

		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected written config to load, got %v", err)
		}
	})

	t.Run("setup database reports the schema version", func(t *testing.T) {
		out := f.mustRun("setup", "database")
		if !strings.Contains(out, "schema version") {
			t.Errorf("expected schema version, got %q", out)
		}
	})

	t.Run("setup rollback reverts the newest migration", func(t *testing.T) {
		out := f.mustRun("setup", "rollback")
		if !strings.Contains(out, "schema version 0") {
			t.Errorf("expected version 0, got %q", out)
		}

		out = f.mustRun("setup", "database")
		if !strings.Contains(out, "schema version 1") {
			t.Errorf("expected migrations re-applied, got %q", out)
		}
	})

	t.Run("tui rejects unknown views", func(t *testing.T) {
		if _, err := f.run("tui", "--view", "nowhere"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("tui needs a playlist id for the detail view", func(t *testing.T) {
		if _, err := f.run("tui", "--view", "playlist"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestMalformedDotenv(t *testing.T) {
	t.Setenv(shared.EnvAPIURL, "")
	_, baseURL := tu.NewDevAPI(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(shared.EnvAPIURL+"=\"http://broken.test\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	tu.MustChdir(t, dir)

	config := shared.DefaultConfig()
	config.API.BaseURL = baseURL
	config.Database.Path = ""
	logs := &bytes.Buffer{}
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(logs), Output: output})

	if err := runner.app().Run(context.Background(), []string{"vibra", "auth", "status"}); err != nil {
		t.Fatalf("expected status to run with a broken .env, got %v", err)
	}
	if !strings.Contains(logs.String(), "ignoring unreadable .env") {
		t.Errorf("expected a warning about .env, got %q", logs.String())
	}
	if !strings.Contains(output.String(), baseURL) {
		t.Errorf("expected configured base url kept, got %q", output.String())
	}
}
