package ui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/session"
	"github.com/desertthunder/vibra/internal/shared"
	tu "github.com/desertthunder/vibra/internal/testing"
)

type fixture struct {
	m      *Model
	sess   *session.Session
	client *services.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, baseURL := tu.NewDevAPI(t)
	store := session.NewMemoryStore()
	client := services.NewClient(services.Options{BaseURL: baseURL, Tokens: session.NewTokenSource(store)})
	sess := session.New(store, session.NewBackend(client), session.Options{ValidateOnStart: true})
	t.Cleanup(sess.Teardown)

	m := NewModel(context.Background(), Options{Session: sess, Client: client, Logger: shared.NewLogger(io.Discard)})
	t.Cleanup(m.Close)
	return &fixture{m: m, sess: sess, client: client}
}

// ready restores an empty session, optionally signing up a user with Jazz as a favorite genre.
func (f *fixture) ready(t *testing.T, signedIn bool) {
	t.Helper()
	if err := f.sess.Initialize(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !signedIn {
		return
	}
	_, err := f.sess.Register(context.Background(), models.RegisterRequest{
		Email: "a@b.com", Password: "secret1", Username: "ab", DisplayName: "A B", Genres: []string{"Jazz"},
	})
	if err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}
}

// run executes cmd and every command produced while applying its messages.
func (f *fixture) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for n := 0; len(queue) > 0 && n < 100; n++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := f.m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (f *fixture) press(keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := f.m.Update(k)
		f.run(cmd)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func trackIDs(items []models.Track) []int {
	ids := make([]int, len(items))
	for i, t := range items {
		ids[i] = t.ID
	}
	return ids
}

func itemsOf(m *Model, view ViewState) []models.Track {
	src := m.tracks
	switch view {
	case PlaylistDetailView:
		src = m.detailTracks
	case RecommendationsView:
		src = m.recs
	}
	var out []models.Track
	for _, it := range src.Items() {
		out = append(out, it.(trackItem).track)
	}
	return out
}

func TestGuards(t *testing.T) {
	t.Run("placeholder while loading then redirect", func(t *testing.T) {
		f := newFixture(t)
		f.run(f.m.navigate(PlaylistsView))

		if f.m.Current() != PlaylistsView {
			t.Fatalf("expected to stay on playlists while loading, got %v", f.m.Current())
		}
		if !strings.Contains(f.m.View(), "Loading...") {
			t.Errorf("expected placeholder, got %q", f.m.View())
		}

		f.run(f.m.initializeSession())
		if f.m.Current() != LoginView {
			t.Errorf("expected redirect to login, got %v", f.m.Current())
		}
	})

	t.Run("signed-in users skip login", func(t *testing.T) {
		f := newFixture(t)
		f.ready(t, true)

		f.run(f.m.navigate(LoginView))
		if f.m.Current() != HomeView {
			t.Errorf("expected redirect to home, got %v", f.m.Current())
		}
	})

	t.Run("home is public", func(t *testing.T) {
		f := newFixture(t)
		f.run(f.m.navigate(HomeView))
		if f.m.Current() != HomeView || len(f.m.tracks.Items()) == 0 {
			t.Errorf("expected tracks on home before the session loads, got %d", len(f.m.tracks.Items()))
		}
	})

	t.Run("init restores the session", func(t *testing.T) {
		f := newFixture(t)
		f.m.view = RecommendationsView
		f.run(f.m.Init())
		if f.m.Current() != LoginView {
			t.Errorf("expected anonymous user on login, got %v", f.m.Current())
		}
	})
}

func TestStaleCompletions(t *testing.T) {
	f := newFixture(t)
	f.ready(t, false)
	f.run(f.m.navigate(HomeView))

	page := &models.TrackPage{Tracks: []models.Track{{ID: 99, Title: "Newest"}}}

	t.Run("superseded request", func(t *testing.T) {
		old := f.m.scope.Begin("tracks")
		current := f.m.scope.Begin("tracks")

		f.m.Update(tracksFetchedMsg(current, page, nil))
		f.m.Update(tracksFetchedMsg(old, &models.TrackPage{Tracks: []models.Track{{ID: 1}, {ID: 2}}}, nil))

		got := trackIDs(itemsOf(f.m, HomeView))
		if len(got) != 1 || got[0] != 99 {
			t.Errorf("expected newest result to win, got %v", got)
		}
	})

	t.Run("view left before completion", func(t *testing.T) {
		ticket := f.m.scope.Begin("tracks")
		ctx := f.m.scope.Context()
		f.run(f.m.navigate(LoginView))

		if ctx.Err() == nil {
			t.Error("expected the old view's context to be cancelled")
		}
		f.m.Update(tracksFetchedMsg(ticket, &models.TrackPage{}, nil))
		if got := trackIDs(itemsOf(f.m, HomeView)); len(got) != 1 || got[0] != 99 {
			t.Errorf("expected unmounted view untouched, got %v", got)
		}
	})
}

func TestHomeView(t *testing.T) {
	f := newFixture(t)
	f.ready(t, false)
	f.run(f.m.navigate(HomeView))

	if n := len(f.m.tracks.Items()); n != 16 {
		t.Errorf("expected 16 seeded tracks, got %d", n)
	}
	if len(f.m.trending) == 0 || f.m.trending[0].ID != 11 {
		t.Errorf("expected most played track first in trending, got %v", trackIDs(f.m.trending))
	}

	t.Run("genre filter", func(t *testing.T) {
		f.m.genre = "Jazz"
		f.run(f.m.fetchTracks())
		tracks := itemsOf(f.m, HomeView)
		if len(tracks) != 7 {
			t.Errorf("expected 7 jazz tracks, got %d", len(tracks))
		}
		for _, tr := range tracks {
			if tr.Genre != "Jazz" {
				t.Errorf("expected only jazz, got %s", tr.Genre)
			}
		}
		if f.m.tracks.Title != "Jazz Tracks" {
			t.Errorf("expected jazz title, got %q", f.m.tracks.Title)
		}
		if strings.Contains(f.m.View(), "Trending Now") {
			t.Error("expected trending hidden while filtering")
		}

		f.press(runes("g"))
		if f.m.genre != "Classical" || len(f.m.tracks.Items()) != 0 {
			t.Errorf("expected empty classical page, got %q with %d", f.m.genre, len(f.m.tracks.Items()))
		}
		if !strings.Contains(f.m.View(), "No tracks found") {
			t.Error("expected empty state")
		}
		f.m.genre = ""
	})

	t.Run("search", func(t *testing.T) {
		f.press(runes("/"), runes("daft"), enter)
		if f.m.query != "daft" || f.m.searching {
			t.Errorf("expected submitted query, got %q searching=%v", f.m.query, f.m.searching)
		}
		if n := len(f.m.tracks.Items()); n != 5 {
			t.Errorf("expected 5 daft punk tracks, got %d", n)
		}
	})

	t.Run("anonymous add", func(t *testing.T) {
		f.press(runes("a"))
		if f.m.picking || f.m.status != "Please login to add tracks to playlists" {
			t.Errorf("expected login prompt, got %q", f.m.status)
		}
	})

	t.Run("next page disabled on short page", func(t *testing.T) {
		f.press(runes("]"))
		if f.m.page != 1 {
			t.Errorf("expected page 1, got %d", f.m.page)
		}
	})
}

func TestLoginView(t *testing.T) {
	f := newFixture(t)
	f.ready(t, false)
	if _, err := f.client.Auth().Register(context.Background(), models.RegisterRequest{
		Email: "a@b.com", Password: "secret1", Username: "ab",
	}); err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}
	f.run(f.m.navigate(LoginView))

	t.Run("missing fields", func(t *testing.T) {
		f.press(enter, enter)
		if f.m.login.err != "Email and password are required" {
			t.Errorf("unexpected error %q", f.m.login.err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		f.m.login.inputs[0].SetValue("a@b.com")
		f.m.login.inputs[1].SetValue("nope")
		f.press(enter)
		if f.m.Current() != LoginView || f.m.login.err != "Invalid email or password" {
			t.Errorf("expected inline error, got %v %q", f.m.Current(), f.m.login.err)
		}
		if f.sess.State().Authenticated() {
			t.Error("expected session unchanged")
		}
	})

	t.Run("accepted", func(t *testing.T) {
		f.m.login.inputs[1].SetValue("secret1")
		f.press(enter)
		if f.m.Current() != HomeView || !f.sess.State().Authenticated() {
			t.Errorf("expected signed in on home, got %v", f.m.Current())
		}
		if !strings.Contains(f.m.View(), "ab") {
			t.Error("expected user name in nav")
		}
	})

	t.Run("logout", func(t *testing.T) {
		f.press(runes("O"))
		if f.m.Current() != LoginView || f.sess.State().Authenticated() {
			t.Errorf("expected signed out on login, got %v", f.m.Current())
		}
	})
}

func TestRegisterView(t *testing.T) {
	f := newFixture(t)
	f.ready(t, false)
	f.run(f.m.navigate(RegisterView))

	for i, v := range []string{"new@b.com", "secret1", "newbie", "New Bie", "jazz, soul"} {
		f.m.register.inputs[i].SetValue(v)
	}
	f.m.register.setFocus(len(f.m.register.inputs) - 1)
	f.press(enter)

	st := f.sess.State()
	if f.m.Current() != HomeView || !st.Authenticated() {
		t.Fatalf("expected signed in on home, got %v", f.m.Current())
	}
	if st.User.DisplayName != "New Bie" {
		t.Errorf("expected display name, got %q", st.User.DisplayName)
	}

	t.Run("duplicate email", func(t *testing.T) {
		f.sess.Logout(context.Background())
		f.run(f.m.navigate(RegisterView))
		for i, v := range []string{"new@b.com", "secret1", "other"} {
			f.m.register.inputs[i].SetValue(v)
		}
		f.m.register.setFocus(len(f.m.register.inputs) - 1)
		f.press(enter)
		if f.m.Current() != RegisterView || f.m.register.err == "" {
			t.Errorf("expected inline error, got %v %q", f.m.Current(), f.m.register.err)
		}
	})
}

func TestPlaylistViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ready(t, true)
	f.run(f.m.navigate(PlaylistsView))

	if len(f.m.playlists.Items()) != 0 || !strings.Contains(f.m.View(), "You don't have any playlists yet.") {
		t.Fatalf("expected empty state, got %q", f.m.View())
	}

	t.Run("create", func(t *testing.T) {
		f.press(runes("c"), runes("Road Trip"), enter, enter, enter)
		if f.m.creating {
			t.Fatalf("expected form closed, got error %q", f.m.createForm.err)
		}
		items := f.m.playlists.Items()
		if len(items) != 1 || items[0].(playlistItem).playlist.Name != "Road Trip" {
			t.Errorf("expected new playlist, got %v", items)
		}
		if !items[0].(playlistItem).playlist.IsPublic {
			t.Error("expected public by default")
		}
	})

	id := f.m.playlists.Items()[0].(playlistItem).playlist.ID
	for _, track := range []int{3, 1, 13} {
		if _, err := f.client.Playlists().AddTrack(ctx, id, track); err != nil {
			t.Fatalf("expected add to succeed, got %v", err)
		}
	}

	t.Run("detail keeps playlist order", func(t *testing.T) {
		f.press(enter)
		if f.m.Current() != PlaylistDetailView {
			t.Fatalf("expected detail view, got %v", f.m.Current())
		}
		got := trackIDs(itemsOf(f.m, PlaylistDetailView))
		if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 13 {
			t.Errorf("expected [3 1 13], got %v", got)
		}
		if !strings.Contains(f.m.View(), "3 songs") {
			t.Errorf("expected song count, got %q", f.m.View())
		}
	})

	t.Run("remove track", func(t *testing.T) {
		f.press(runes("x"))
		got := trackIDs(itemsOf(f.m, PlaylistDetailView))
		if len(got) != 2 || got[0] != 1 {
			t.Errorf("expected [1 13], got %v", got)
		}
	})

	t.Run("delete needs confirmation", func(t *testing.T) {
		f.press(runes("D"), runes("n"))
		if f.m.Current() != PlaylistDetailView {
			t.Errorf("expected to stay on detail, got %v", f.m.Current())
		}

		f.press(runes("D"), runes("y"))
		if f.m.Current() != PlaylistsView || len(f.m.playlists.Items()) != 0 {
			t.Errorf("expected empty playlists view, got %v with %d", f.m.Current(), len(f.m.playlists.Items()))
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		f.run(f.m.openPlaylist("missing"))
		if !strings.Contains(f.m.View(), "Playlist not found") {
			t.Errorf("expected not found, got %q", f.m.View())
		}
		f.press(esc)
		if f.m.Current() != PlaylistsView {
			t.Errorf("expected back to playlists, got %v", f.m.Current())
		}
	})
}

// otherUser signs up a second account against the fixture's API and returns its client.
func (f *fixture) otherUser(t *testing.T) *services.Client {
	t.Helper()
	store := session.NewMemoryStore()
	client := services.NewClient(services.Options{BaseURL: f.client.BaseURL(), Tokens: session.NewTokenSource(store)})
	sess := session.New(store, session.NewBackend(client), session.Options{})
	t.Cleanup(sess.Teardown)
	sess.Initialize(context.Background())
	if _, err := sess.Register(context.Background(), models.RegisterRequest{Email: "c@d.com", Password: "secret1", Username: "cd"}); err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}
	return client
}

func playlistNames(m *Model) []string {
	var out []string
	for _, it := range m.playlists.Items() {
		out = append(out, it.(playlistItem).playlist.Name)
	}
	return out
}

func TestFailedWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ready(t, true)
	if _, err := f.client.Playlists().Create(ctx, models.CreatePlaylistRequest{Name: "Mine", IsPublic: true}); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	other := f.otherUser(t)
	theirs, err := other.Playlists().Create(ctx, models.CreatePlaylistRequest{Name: "Theirs", IsPublic: true})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	for _, track := range []int{3, 1} {
		if _, err := other.Playlists().AddTrack(ctx, theirs.ID, track); err != nil {
			t.Fatalf("expected add to succeed, got %v", err)
		}
	}

	f.run(f.m.navigate(PlaylistsView))
	before := playlistNames(f.m)
	if len(before) != 1 || before[0] != "Mine" {
		t.Fatalf("expected only own playlist, got %v", before)
	}

	f.run(f.m.openPlaylist(theirs.ID))
	detail := f.m.detail
	if detail == nil || detail.Playlist.ID != theirs.ID {
		t.Fatalf("expected public playlist to load, got %+v", detail)
	}

	t.Run("delete not owned", func(t *testing.T) {
		f.press(runes("D"), runes("y"))

		if !f.m.failed || !strings.HasPrefix(f.m.status, "Failed to delete playlist") {
			t.Errorf("expected delete failure flash, got %q", f.m.status)
		}
		if f.m.Current() != PlaylistDetailView || f.m.detail != detail {
			t.Errorf("expected detail kept, got %v %+v", f.m.Current(), f.m.detail)
		}
		if _, err := other.Playlists().Get(ctx, theirs.ID); err != nil {
			t.Errorf("expected playlist to still exist, got %v", err)
		}
	})

	t.Run("remove track not owned", func(t *testing.T) {
		f.press(runes("x"))

		if !f.m.failed || !strings.HasPrefix(f.m.status, "Failed to remove track") {
			t.Errorf("expected remove failure flash, got %q", f.m.status)
		}
		got := trackIDs(itemsOf(f.m, PlaylistDetailView))
		if len(got) != 2 || got[0] != 3 || got[1] != 1 {
			t.Errorf("expected [3 1] unchanged, got %v", got)
		}
		if f.m.detail != detail {
			t.Error("expected detail kept")
		}
	})

	t.Run("playlist list unchanged", func(t *testing.T) {
		f.press(esc)
		if f.m.Current() != PlaylistsView {
			t.Fatalf("expected playlists view, got %v", f.m.Current())
		}
		if got := playlistNames(f.m); len(got) != 1 || got[0] != "Mine" {
			t.Errorf("expected %v, got %v", before, got)
		}
	})

	t.Run("add to missing playlist", func(t *testing.T) {
		f.run(f.m.navigate(HomeView))
		f.press(runes("a"))
		if !f.m.picking {
			t.Fatal("expected picker open")
		}
		f.run(f.m.addToPlaylist("missing", itemsOf(f.m, HomeView)[0].ID))

		if f.m.picking || !f.m.failed || f.m.status != "Failed to add track to playlist" {
			t.Errorf("expected add failure flash, got %q", f.m.status)
		}
		if pl, err := f.client.Playlists().List(ctx); err != nil || len(pl.Playlists) != 1 || len(pl.Playlists[0].TrackIDs) != 0 {
			t.Errorf("expected own playlist untouched, got %+v, %v", pl, err)
		}
	})
}

func TestClosedPickerCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ready(t, true)
	if _, err := f.client.Playlists().Create(ctx, models.CreatePlaylistRequest{Name: "Mine"}); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	f.run(f.m.navigate(PlaylistsView))

	f.m.picking = true
	ticket := f.m.scope.Begin("picker")
	f.m.playlistsLoading = true
	f.press(esc)
	if f.m.picking {
		t.Fatal("expected picker closed")
	}

	late := &models.PlaylistList{Playlists: []models.Playlist{{ID: "x", Name: "Late"}}}
	f.m.Update(playlistsFetchedMsg(ticket, "picker", late, nil))

	if got := playlistNames(f.m); len(got) != 1 || got[0] != "Mine" {
		t.Errorf("expected playlists view untouched, got %v", got)
	}
	if !f.m.playlistsLoading {
		t.Error("expected loading flag untouched by picker completion")
	}
	if len(f.m.picker.Items()) != 0 {
		t.Errorf("expected closed picker to stay empty, got %d items", len(f.m.picker.Items()))
	}
}

func TestAddFromHome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ready(t, true)
	pl, err := f.client.Playlists().Create(ctx, models.CreatePlaylistRequest{Name: "Mix"})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	f.run(f.m.navigate(HomeView))
	first := itemsOf(f.m, HomeView)[0]

	f.press(runes("a"))
	if !f.m.picking || len(f.m.picker.Items()) != 1 {
		t.Fatalf("expected picker with one playlist, got %v %d", f.m.picking, len(f.m.picker.Items()))
	}
	f.press(enter)
	if f.m.picking || f.m.status != "Track added to playlist!" {
		t.Errorf("expected confirmation, got %q", f.m.status)
	}

	detail, err := f.client.Playlists().Get(ctx, pl.ID)
	if err != nil || len(detail.Playlist.TrackIDs) != 1 || detail.Playlist.TrackIDs[0] != first.ID {
		t.Errorf("expected track %d in playlist, got %+v, %v", first.ID, detail, err)
	}

	t.Run("play", func(t *testing.T) {
		f.press(enter)
		if f.m.status != "Playing: "+first.Title {
			t.Errorf("unexpected status %q", f.m.status)
		}
		user, err := f.client.Profile().Get(ctx)
		if err != nil || len(user.ListeningHistory) != 1 {
			t.Errorf("expected one play in history, got %+v, %v", user, err)
		}
	})
}

func TestRecommendationsView(t *testing.T) {
	f := newFixture(t)
	f.ready(t, true)
	f.press(runes("3"))

	if f.m.Current() != RecommendationsView {
		t.Fatalf("expected recommendations, got %v", f.m.Current())
	}
	tracks := itemsOf(f.m, RecommendationsView)
	if len(tracks) != 7 {
		t.Errorf("expected 7 jazz recommendations, got %d", len(tracks))
	}
	if f.m.recsReason == "" {
		t.Error("expected a reason")
	}
}

func TestHelpers(t *testing.T) {
	t.Run("parseGenres", func(t *testing.T) {
		got := parseGenres(" jazz, r&b ,, Polka")
		if strings.Join(got, "|") != "Jazz|R&B|Polka" {
			t.Errorf("unexpected genres %v", got)
		}
	})

	t.Run("nextGenre wraps", func(t *testing.T) {
		if nextGenre("") != "Pop" || nextGenre("Metal") != "" || nextGenre("Pop") != "Rock" {
			t.Error("unexpected genre cycle")
		}
	})

	t.Run("ParseView", func(t *testing.T) {
		if v, ok := ParseView("Playlists"); !ok || v != PlaylistsView {
			t.Errorf("expected playlists, got %v", v)
		}
		if _, ok := ParseView("settings"); ok {
			t.Error("expected unknown view")
		}
	})
}
