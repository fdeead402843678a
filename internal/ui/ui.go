package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibra/internal/guard"
	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/services"
	"github.com/desertthunder/vibra/internal/session"
	"github.com/desertthunder/vibra/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HomeView ViewState = iota
	LoginView
	RegisterView
	PlaylistsView
	PlaylistDetailView
	RecommendationsView
)

func (v ViewState) String() string {
	switch v {
	case HomeView:
		return "home"
	case LoginView:
		return "login"
	case RegisterView:
		return "register"
	case PlaylistsView:
		return "playlists"
	case PlaylistDetailView:
		return "playlist"
	case RecommendationsView:
		return "recommendations"
	default:
		return "unknown"
	}
}

// ParseView maps a view name to its [ViewState].
func ParseView(name string) (ViewState, bool) {
	for v := HomeView; v <= RecommendationsView; v++ {
		if strings.EqualFold(name, v.String()) {
			return v, true
		}
	}
	return HomeView, false
}

// guardFor returns the guard protecting v. Home is public.
func guardFor(v ViewState) (guard.Kind, bool) {
	switch v {
	case LoginView, RegisterView:
		return guard.RequireAnon, true
	case PlaylistsView, PlaylistDetailView, RecommendationsView:
		return guard.RequireAuth, true
	default:
		return 0, false
	}
}

func targetView(t guard.Target) ViewState {
	if t == guard.TargetLogin {
		return LoginView
	}
	return HomeView
}

// Genres offered by the home view filter.
var Genres = []string{"Pop", "Rock", "Hip Hop", "Jazz", "Classical", "Electronic", "Country", "R&B", "Indie", "Metal"}

const pageSize = 20

// Options configures a [Model].
type Options struct {
	Session *session.Session
	Client  *services.Client
	Logger  *log.Logger
	// Start is the first view shown. PlaylistID is required when Start is [PlaylistDetailView].
	Start      ViewState
	PlaylistID string
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	sess   *session.Session
	client *services.Client
	logger *log.Logger

	view    ViewState
	guard   *guard.Guard
	scope   *tasks.Scope
	started bool
	width   int
	height  int
	help    help.Model
	keys    keyMap
	status  string
	failed  bool

	tracks        list.Model
	tracksLoading bool
	trending      []models.Track
	page          int
	genre         string
	query         string
	search        textinput.Model
	searching     bool

	picking   bool
	pickTrack models.Track
	picker    list.Model

	playlists        list.Model
	playlistsLoading bool
	creating         bool
	createForm       form

	detailID      string
	detail        *models.PlaylistDetail
	detailTracks  list.Model
	detailLoading bool
	confirmDelete bool

	recs        list.Model
	recsReason  string
	recsLoading bool

	login    form
	register form
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	search := textinput.New()
	search.Placeholder = "Search for tracks, artists..."
	search.Cursor.SetMode(cursor.CursorStatic)

	m := &Model{
		ctx:          ctx,
		sess:         opts.Session,
		client:       opts.Client,
		logger:       logger,
		view:         opts.Start,
		detailID:     opts.PlaylistID,
		help:         help.New(),
		keys:         newKeyMap(),
		page:         1,
		search:       search,
		tracks:       newList("All Tracks", 80, 20),
		picker:       newList("Add to playlist", 80, 20),
		playlists:    newList("Your Playlists", 80, 20),
		detailTracks: newList("Tracks", 80, 20),
		recs:         newList("Your Personalized Mix", 80, 20),
		createForm: newForm(
			field{label: "Playlist Name", placeholder: "My Awesome Playlist"},
			field{label: "Description", placeholder: "Describe your playlist..."},
			field{label: "Public (y/n)", placeholder: "y"},
		),
		login: newForm(
			field{label: "Email", placeholder: "Enter your email"},
			field{label: "Password", placeholder: "Enter your password", secret: true},
		),
		register: newForm(
			field{label: "Email", placeholder: "Enter your email"},
			field{label: "Password", placeholder: "Create a password", secret: true},
			field{label: "Username", placeholder: "Choose a username"},
			field{label: "Display Name", placeholder: "How should we call you?"},
			field{label: "Favorite Genres", placeholder: strings.Join(Genres[:3], ", ")},
		),
	}
	if m.view == PlaylistDetailView && m.detailID == "" {
		m.view = PlaylistsView
	}
	return m
}

// Current returns the active view.
func (m *Model) Current() ViewState { return m.view }

// Init restores the session when it is still loading and mounts the first view.
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.sess.State().IsLoading {
		cmds = append(cmds, m.initializeSession())
	}
	cmds = append(cmds, m.navigate(m.view))
	return tea.Batch(cmds...)
}

// Close releases the active view's in-flight requests.
func (m *Model) Close() {
	if m.scope != nil {
		m.scope.Close()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.tracks, &m.picker, &m.playlists, &m.detailTracks, &m.recs} {
			l.SetSize(msg.Width-4, max(msg.Height-12, 5))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// navigate unmounts the current view and mounts v.
//
// Requests started by the previous view are cancelled and their completions dropped.
func (m *Model) navigate(v ViewState) tea.Cmd {
	if m.scope != nil {
		m.scope.Close()
	}
	m.scope = tasks.NewScope(m.ctx)
	m.view = v
	m.started = false
	m.status, m.failed = "", false
	m.picking, m.creating, m.confirmDelete, m.searching = false, false, false, false
	m.search.Blur()

	m.guard = nil
	if kind, ok := guardFor(v); ok {
		m.guard = guard.New(kind)
	}
	m.logger.Debug("navigate", "view", v)
	return m.resolve()
}

// resolve runs the view's guard and loads its data the first time it is allowed.
func (m *Model) resolve() tea.Cmd {
	if m.started || m.scope == nil {
		return nil
	}
	if m.guard != nil {
		d := m.guard.Check(m.sess.State())
		switch d.Status {
		case guard.Loading:
			return nil
		case guard.Redirected:
			m.logger.Debug("guard redirect", "view", m.view, "guard", m.guard.Kind(), "target", d.Target)
			return m.navigate(targetView(d.Target))
		}
	}
	m.started = true
	return m.load()
}

func (m *Model) load() tea.Cmd {
	switch m.view {
	case HomeView:
		return tea.Batch(m.fetchTracks(), m.fetchTrending())
	case LoginView:
		m.login.reset()
	case RegisterView:
		m.register.reset()
	case PlaylistsView:
		return m.fetchPlaylists("playlists")
	case PlaylistDetailView:
		return m.fetchPlaylist()
	case RecommendationsView:
		return m.fetchRecommendations()
	}
	return nil
}

func (m *Model) allowed() bool {
	return m.started
}

func (m *Model) authenticated() bool {
	return m.sess.State().Authenticated()
}

func (m *Model) flash(text string, failed bool) {
	m.status, m.failed = text, failed
}

func (m *Model) inputFocused() bool {
	if !m.allowed() {
		return false
	}
	switch m.view {
	case LoginView, RegisterView:
		return true
	case HomeView:
		return m.searching
	case PlaylistsView:
		return m.creating
	}
	return false
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputFocused() {
		return m.handleInputKeys(msg)
	}
	if m.picking {
		return m.handlePickerKeys(msg)
	}
	if m.confirmDelete {
		return m.handleConfirmKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.home):
		return m, m.navigate(HomeView)
	case key.Matches(msg, m.keys.playlists):
		return m, m.navigate(PlaylistsView)
	case key.Matches(msg, m.keys.forYou):
		return m, m.navigate(RecommendationsView)
	case key.Matches(msg, m.keys.login):
		return m, m.navigate(LoginView)
	case key.Matches(msg, m.keys.signUp):
		return m, m.navigate(RegisterView)
	case key.Matches(msg, m.keys.logout):
		if m.authenticated() {
			return m, m.logout()
		}
		return m, nil
	}

	if !m.allowed() {
		return m, nil
	}

	switch m.view {
	case HomeView:
		return m.handleHomeKeys(msg)
	case PlaylistsView:
		return m.handlePlaylistsKeys(msg)
	case PlaylistDetailView:
		return m.handleDetailKeys(msg)
	case RecommendationsView:
		return m.handleRecommendationsKeys(msg)
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case LoginView:
		return m.handleFormKeys(&m.login, msg, m.submitLogin)
	case RegisterView:
		return m.handleFormKeys(&m.register, msg, m.submitRegister)
	case PlaylistsView:
		if msg.String() == "esc" {
			m.creating = false
			return m, nil
		}
		return m.handleFormKeys(&m.createForm, msg, m.submitCreate)
	case HomeView:
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			m.query = strings.TrimSpace(m.search.Value())
			m.page = 1
			return m, m.fetchTracks()
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleFormKeys submits on enter from the last field and otherwise advances focus.
func (m *Model) handleFormKeys(f *form, msg tea.KeyMsg, submit func() tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, m.navigate(HomeView)
	case "enter":
		if f.busy {
			return m, nil
		}
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		return m, submit()
	}
	return m, f.update(msg)
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.SetValue(m.query)
		m.search.Focus()
		return m, nil
	case key.Matches(msg, m.keys.genre):
		m.genre = nextGenre(m.genre)
		m.page = 1
		return m, m.fetchTracks()
	case key.Matches(msg, m.keys.prevPage):
		if m.page > 1 {
			m.page--
			return m, m.fetchTracks()
		}
		return m, nil
	case key.Matches(msg, m.keys.nextPage):
		if len(m.tracks.Items()) == pageSize {
			m.page++
			return m, m.fetchTracks()
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchTracks(), m.fetchTrending())
	case key.Matches(msg, m.keys.enter):
		return m, m.play(selectedTrack(m.tracks))
	case key.Matches(msg, m.keys.add):
		return m, m.startPicking(selectedTrack(m.tracks))
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) handleRecommendationsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchRecommendations()
	case key.Matches(msg, m.keys.enter):
		return m, m.play(selectedTrack(m.recs))
	case key.Matches(msg, m.keys.add):
		return m, m.startPicking(selectedTrack(m.recs))
	}

	var cmd tea.Cmd
	m.recs, cmd = m.recs.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.create):
		m.creating = true
		m.createForm.reset()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylists("playlists")
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlists.SelectedItem().(playlistItem); ok {
			return m, m.openPlaylist(item.playlist.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlists, cmd = m.playlists.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, m.navigate(PlaylistsView)
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylist()
	case key.Matches(msg, m.keys.enter):
		return m, m.play(selectedTrack(m.detailTracks))
	case key.Matches(msg, m.keys.remove):
		if t := selectedTrack(m.detailTracks); t != nil && m.detail != nil {
			return m, m.removeTrack(t.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if m.detail != nil {
			m.confirmDelete = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailTracks, cmd = m.detailTracks.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirmDelete = false
		return m, m.deletePlaylist()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.confirmDelete = false
	}
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.picking = false
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.picker.SelectedItem().(playlistItem); ok {
			return m, m.addToPlaylist(item.playlist.ID, m.pickTrack.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.picking:
		m.picker, cmd = m.picker.Update(msg)
	case m.view == HomeView:
		m.tracks, cmd = m.tracks.Update(msg)
	case m.view == PlaylistsView:
		m.playlists, cmd = m.playlists.Update(msg)
	case m.view == PlaylistDetailView:
		m.detailTracks, cmd = m.detailTracks.Update(msg)
	case m.view == RecommendationsView:
		m.recs, cmd = m.recs.Update(msg)
	}
	return m, cmd
}

// handleMsg applies a completion. Completions whose ticket is no longer current are dropped.
func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		return m, m.resolve()
	case MsgSessionClosed:
		return m, tea.Quit
	}

	if !msg.ticket.Current() {
		m.logger.Debug("dropping stale completion", "kind", msg.kind, "ticket", msg.ticket.ID())
		return m, nil
	}

	switch msg.kind {
	case MsgTracksFetched:
		m.tracksLoading = false
		var tracks []models.Track
		if page, _ := msg.data.(*models.TrackPage); msg.err == nil && page != nil {
			tracks = page.Tracks
		} else if msg.err != nil {
			m.logger.Warn("failed to load tracks", "error", msg.err)
		}
		m.tracks.Title = m.tracksTitle()
		m.tracks.SetItems(trackItems(tracks))
		m.tracks.ResetSelected()

	case MsgTrendingFetched:
		m.trending = nil
		if l, _ := msg.data.(*models.TrackList); msg.err == nil && l != nil {
			m.trending = l.Tracks
		} else if msg.err != nil {
			m.logger.Warn("failed to load trending tracks", "error", msg.err)
		}

	case MsgPlaylistsFetched:
		var playlists []models.Playlist
		if l, _ := msg.data.(*models.PlaylistList); msg.err == nil && l != nil {
			playlists = l.Playlists
		} else if msg.err != nil {
			m.logger.Warn("failed to load playlists", "error", msg.err)
		}
		switch msg.stream {
		case "picker":
			if !m.picking {
				m.logger.Debug("dropping playlists for a closed picker")
				break
			}
			m.picker.SetItems(playlistItems(playlists))
			m.picker.ResetSelected()
		default:
			m.playlistsLoading = false
			m.playlists.SetItems(playlistItems(playlists))
		}

	case MsgPlaylistFetched:
		m.detailLoading = false
		m.detail = nil
		var tracks []models.Track
		if d, _ := msg.data.(*models.PlaylistDetail); msg.err == nil && d != nil {
			m.detail = d
			tracks = d.Ordered()
			m.detailTracks.Title = d.Playlist.Name
		} else if msg.err != nil {
			m.logger.Warn("failed to load playlist", "id", m.detailID, "error", msg.err)
		}
		m.detailTracks.SetItems(trackItems(tracks))

	case MsgRecommendationsFetched:
		m.recsLoading = false
		m.recsReason = ""
		var tracks []models.Track
		if l, _ := msg.data.(*models.TrackList); msg.err == nil && l != nil {
			tracks = l.Tracks
			m.recsReason = l.Reason
		} else if msg.err != nil {
			m.logger.Warn("failed to load recommendations", "error", msg.err)
		}
		m.recs.SetItems(trackItems(tracks))

	case MsgAuthCompleted:
		f := &m.login
		if m.view == RegisterView {
			f = &m.register
		}
		f.busy = false
		if msg.err != nil {
			f.err = authMessage(msg.err, m.view)
			return m, nil
		}
		return m, m.navigate(HomeView)

	case MsgMutationCompleted:
		kind, _ := msg.data.(mutation)
		return m, m.applyMutation(kind, msg.err)
	}
	return m, nil
}

func (m *Model) applyMutation(kind mutation, err error) tea.Cmd {
	if err != nil {
		m.logger.Warn("request failed", "op", kind, "error", err)
	}

	switch kind {
	case mutationPlay:
		return nil
	case mutationAddToPlaylist:
		m.picking = false
		if err != nil {
			m.flash("Failed to add track to playlist", true)
			return nil
		}
		m.flash("Track added to playlist!", false)
	case mutationRemoveFromPlaylist:
		if err != nil {
			m.flash("Failed to remove track: "+services.Message(err), true)
			return nil
		}
		return m.fetchPlaylist()
	case mutationCreatePlaylist:
		m.createForm.busy = false
		if err != nil {
			m.createForm.err = "Failed to create playlist: " + services.Message(err)
			return nil
		}
		m.creating = false
		m.createForm.reset()
		return m.fetchPlaylists("playlists")
	case mutationDeletePlaylist:
		if err != nil {
			m.flash("Failed to delete playlist: "+services.Message(err), true)
			return nil
		}
		return m.navigate(PlaylistsView)
	}
	return nil
}

func authMessage(err error, v ViewState) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	if v == RegisterView {
		return "Failed to register"
	}
	return "Failed to login"
}

func (m *Model) tracksTitle() string {
	switch {
	case m.query != "":
		return "Search Results"
	case m.genre != "":
		return m.genre + " Tracks"
	default:
		return "All Tracks"
	}
}

func nextGenre(current string) string {
	if current == "" {
		return Genres[0]
	}
	for i, g := range Genres {
		if g == current && i+1 < len(Genres) {
			return Genres[i+1]
		}
	}
	return ""
}

// parseGenres splits a comma separated list, using the canonical spelling of known genres.
func parseGenres(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, g := range Genres {
			if strings.EqualFold(g, part) {
				part = g
				break
			}
		}
		out = append(out, part)
	}
	return out
}

func selectedTrack(l list.Model) *models.Track {
	if item, ok := l.SelectedItem().(trackItem); ok {
		t := item.track
		return &t
	}
	return nil
}
