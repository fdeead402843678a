package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibra/internal/models"
)

// Each command captures the active scope's context and a fresh ticket when it is built,
// so the closure never touches the model off the event loop.

func (m *Model) initializeSession() tea.Cmd {
	sess, ctx, logger := m.sess, m.ctx, m.logger
	return func() tea.Msg {
		if err := sess.Initialize(ctx); err != nil {
			logger.Warn("failed to restore session", "error", err)
		}
		return SessionChanged(sess.State())
	}
}

func (m *Model) fetchTracks() tea.Cmd {
	m.tracksLoading = true
	t, ctx, client := m.scope.Begin("tracks"), m.scope.Context(), m.client
	q := models.TrackQuery{Page: m.page, Limit: pageSize, Genre: m.genre, Search: m.query}
	return func() tea.Msg {
		page, err := client.Tracks().List(ctx, q)
		return tracksFetchedMsg(t, page, err)
	}
}

func (m *Model) fetchTrending() tea.Cmd {
	t, ctx, client := m.scope.Begin("trending"), m.scope.Context(), m.client
	return func() tea.Msg {
		list, err := client.Recommendations().Trending(ctx)
		return trendingFetchedMsg(t, list, err)
	}
}

// fetchPlaylists loads the user's playlists into the stream named by stream.
func (m *Model) fetchPlaylists(stream string) tea.Cmd {
	if stream == "playlists" {
		m.playlistsLoading = true
	}
	t, ctx, client := m.scope.Begin(stream), m.scope.Context(), m.client
	return func() tea.Msg {
		list, err := client.Playlists().List(ctx)
		return playlistsFetchedMsg(t, stream, list, err)
	}
}

func (m *Model) fetchPlaylist() tea.Cmd {
	m.detailLoading = true
	t, ctx, client, id := m.scope.Begin("playlist"), m.scope.Context(), m.client, m.detailID
	return func() tea.Msg {
		detail, err := client.Playlists().Get(ctx, id)
		return playlistFetchedMsg(t, detail, err)
	}
}

func (m *Model) fetchRecommendations() tea.Cmd {
	m.recsLoading = true
	t, ctx, client := m.scope.Begin("recommendations"), m.scope.Context(), m.client
	return func() tea.Msg {
		list, err := client.Recommendations().Personal(ctx)
		return recommendationsFetchedMsg(t, list, err)
	}
}

func (m *Model) openPlaylist(id string) tea.Cmd {
	m.detailID = id
	m.detail = nil
	return m.navigate(PlaylistDetailView)
}

// play records a play for signed-in users. Anonymous listeners only see the status line.
func (m *Model) play(track *models.Track) tea.Cmd {
	if track == nil {
		return nil
	}
	m.flash("Playing: "+track.Title, false)
	if !m.authenticated() {
		return nil
	}

	t, ctx, client, id := m.scope.Begin("play"), m.scope.Context(), m.client, track.ID
	return func() tea.Msg {
		_, err := client.Tracks().RecordPlay(ctx, id)
		return mutationCompletedMsg(t, mutationPlay, err)
	}
}

func (m *Model) startPicking(track *models.Track) tea.Cmd {
	if track == nil {
		return nil
	}
	if !m.authenticated() {
		m.flash("Please login to add tracks to playlists", true)
		return nil
	}
	m.picking = true
	m.pickTrack = *track
	m.picker.Title = "Add '" + track.Title + "' to playlist"
	m.picker.SetItems(nil)
	return m.fetchPlaylists("picker")
}

func (m *Model) addToPlaylist(playlistID string, trackID int) tea.Cmd {
	t, ctx, client := m.scope.Begin("add"), m.scope.Context(), m.client
	return func() tea.Msg {
		_, err := client.Playlists().AddTrack(ctx, playlistID, trackID)
		return mutationCompletedMsg(t, mutationAddToPlaylist, err)
	}
}

func (m *Model) removeTrack(trackID int) tea.Cmd {
	t, ctx, client, id := m.scope.Begin("remove"), m.scope.Context(), m.client, m.detailID
	return func() tea.Msg {
		_, err := client.Playlists().RemoveTrack(ctx, id, trackID)
		return mutationCompletedMsg(t, mutationRemoveFromPlaylist, err)
	}
}

func (m *Model) deletePlaylist() tea.Cmd {
	t, ctx, client, id := m.scope.Begin("delete"), m.scope.Context(), m.client, m.detailID
	return func() tea.Msg {
		_, err := client.Playlists().Delete(ctx, id)
		return mutationCompletedMsg(t, mutationDeletePlaylist, err)
	}
}

func (m *Model) submitCreate() tea.Cmd {
	f := &m.createForm
	req := models.CreatePlaylistRequest{
		Name:        f.value(0),
		Description: f.value(1),
		IsPublic:    !strings.HasPrefix(strings.ToLower(f.value(2)), "n"),
	}
	if req.Name == "" {
		f.err = "Playlist name is required"
		return nil
	}
	f.busy, f.err = true, ""

	t, ctx, client := m.scope.Begin("create"), m.scope.Context(), m.client
	return func() tea.Msg {
		_, err := client.Playlists().Create(ctx, req)
		return mutationCompletedMsg(t, mutationCreatePlaylist, err)
	}
}

func (m *Model) submitLogin() tea.Cmd {
	f := &m.login
	email, password := f.value(0), f.inputs[1].Value()
	if email == "" || password == "" {
		f.err = "Email and password are required"
		return nil
	}
	f.busy, f.err = true, ""

	t, ctx, sess := m.scope.Begin("auth"), m.scope.Context(), m.sess
	return func() tea.Msg {
		user, err := sess.Login(ctx, email, password)
		return authCompletedMsg(t, user, err)
	}
}

func (m *Model) submitRegister() tea.Cmd {
	f := &m.register
	req := models.RegisterRequest{
		Email:       f.value(0),
		Password:    f.inputs[1].Value(),
		Username:    f.value(2),
		DisplayName: f.value(3),
		Genres:      parseGenres(f.value(4)),
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		f.err = "Email, password and username are required"
		return nil
	}
	f.busy, f.err = true, ""

	t, ctx, sess := m.scope.Begin("auth"), m.scope.Context(), m.sess
	return func() tea.Msg {
		user, err := sess.Register(ctx, req)
		return authCompletedMsg(t, user, err)
	}
}

// logout clears the session and shows the login view.
func (m *Model) logout() tea.Cmd {
	if err := m.sess.Logout(m.ctx); err != nil {
		m.logger.Warn("logout failed", "error", err)
	}
	return m.navigate(LoginView)
}
