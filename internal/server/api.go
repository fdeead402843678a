package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vibra/internal/models"
)

// APIPrefix is where the REST resources are mounted; /health sits at the root.
const APIPrefix = "/api/v1"

// Options configures the dev API.
type Options struct {
	Secret   []byte        // HS256 key, at least 32 bytes
	TokenTTL time.Duration // Defaults to [DefaultTokenTTL]
	Logger   *log.Logger
	Store    *Store // Defaults to a seeded store
	HashCost int    // bcrypt cost; zero keeps the store's default
}

// API is an in-memory implementation of the Vibra REST contract.
type API struct {
	store  *Store
	tokens *TokenIssuer
	logger *log.Logger
	router *BasicRouter
}

// New builds the API and registers its routes.
func New(opts Options) (*API, error) {
	tokens, err := NewTokenIssuer(opts.Secret, opts.TokenTTL)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Store == nil {
		opts.Store = NewStore()
		Seed(opts.Store)
	}
	if opts.HashCost > 0 {
		opts.Store.hashCost = opts.HashCost
	}

	a := &API{store: opts.Store, tokens: tokens, logger: opts.Logger, router: NewBasicRouter()}
	a.routes()
	return a, nil
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) { a.router.ServeHTTP(w, r) }

// Store exposes the backing data, mainly for tests.
func (a *API) Store() *Store { return a.store }

// Tokens exposes the token issuer, mainly for tests.
func (a *API) Tokens() *TokenIssuer { return a.tokens }

func (a *API) routes() {
	r := a.router
	r.Use(RequestID(), RequestLogger(a.logger), Recoverer(a.logger), CORS())

	r.HandleFunc(http.MethodOptions, "/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc(http.MethodGet, "/health", a.health)

	v1 := r.Group(APIPrefix)
	v1.HandleFunc(http.MethodPost, "/auth/register", a.register)
	v1.HandleFunc(http.MethodPost, "/auth/login", a.login)

	v1.HandleFunc(http.MethodGet, "/tracks", a.listTracks)
	v1.HandleFunc(http.MethodGet, "/tracks/{id}", a.getTrack)
	v1.HandleFunc(http.MethodGet, "/tracks/{id}/similar", a.similarTracks)
	v1.HandleFunc(http.MethodPost, "/tracks/add", a.addTrack)

	v1.HandleFunc(http.MethodGet, "/artists", a.listArtists)
	v1.HandleFunc(http.MethodGet, "/artists/{id}", a.getArtist)
	v1.HandleFunc(http.MethodGet, "/artists/{id}/stats", a.artistStats)

	v1.HandleFunc(http.MethodGet, "/albums", a.listAlbums)
	v1.HandleFunc(http.MethodGet, "/albums/{id}/stats", a.albumStats)
	v1.HandleFunc(http.MethodGet, "/albums/{id}/duration", a.albumDuration)

	v1.HandleFunc(http.MethodGet, "/search", a.search)
	v1.HandleFunc(http.MethodGet, "/recommendations/trending", a.trending)
	v1.HandleFunc(http.MethodGet, "/recommendations/genre/{genre}", a.genre)

	auth := v1.Group("", BearerAuth(a.tokens))
	auth.HandleFunc(http.MethodGet, "/profile", a.profile)
	auth.HandleFunc(http.MethodPut, "/profile/preferences", a.updatePreferences)
	auth.HandleFunc(http.MethodPost, "/playlists", a.createPlaylist)
	auth.HandleFunc(http.MethodGet, "/playlists", a.listPlaylists)
	auth.HandleFunc(http.MethodGet, "/playlists/{id}", a.getPlaylist)
	auth.HandleFunc(http.MethodPut, "/playlists/{id}", a.updatePlaylist)
	auth.HandleFunc(http.MethodDelete, "/playlists/{id}", a.deletePlaylist)
	auth.HandleFunc(http.MethodPost, "/playlists/{id}/tracks", a.addPlaylistTrack)
	auth.HandleFunc(http.MethodDelete, "/playlists/{id}/tracks/{trackId}", a.removePlaylistTrack)
	auth.HandleFunc(http.MethodPost, "/tracks/{id}/play", a.recordPlay)
	auth.HandleFunc(http.MethodGet, "/recommendations", a.personal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *API) fail(w http.ResponseWriter, err error) {
	var se *StatusError
	if errors.As(err, &se) {
		writeError(w, se.Status, se.Message)
		return
	}
	a.logger.Error("unexpected store error", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return statusErr(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name, what string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, statusErr(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return n
	}
	return def
}

func pageFrom(r *http.Request) models.Page {
	return models.Page{Page: queryInt(r, "page", 1), Limit: queryInt(r, "limit", 20)}
}

func (a *API) userID(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.UserID
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{Status: "ok", MySQL: true, MongoDB: true, Neo4j: true})
}

func (a *API) issue(w http.ResponseWriter, status int, u models.User) {
	token, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		a.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, status, models.AuthResponse{Token: token, User: u})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	u, err := a.store.Register(req)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.issue(w, http.StatusCreated, u)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	u, err := a.store.Authenticate(req.Email, req.Password)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.issue(w, http.StatusOK, u)
}

func (a *API) listTracks(w http.ResponseWriter, r *http.Request) {
	p := pageFrom(r)
	q := r.URL.Query()
	tracks, page, limit := a.store.Tracks(models.TrackQuery{
		Page:   p.Page,
		Limit:  p.Limit,
		Genre:  q.Get("genre"),
		Search: q.Get("search"),
	})
	writeJSON(w, http.StatusOK, models.TrackPage{Tracks: tracks, Page: page, Limit: limit})
}

func (a *API) getTrack(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "track")
	if err != nil {
		a.fail(w, err)
		return
	}
	t, err := a.store.Track(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) similarTracks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "track")
	if err != nil {
		a.fail(w, err)
		return
	}
	tracks, err := a.store.Similar(id, queryInt(r, "limit", 10))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TrackList{Tracks: tracks, Reason: "Tracks similar to what you're listening to"})
}

func (a *API) addTrack(w http.ResponseWriter, r *http.Request) {
	var req models.AddTrackRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	res, err := a.store.AddTrack(req)
	if err != nil {
		a.fail(w, err)
		return
	}
	status := http.StatusCreated
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (a *API) recordPlay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "track")
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.store.RecordPlay(a.userID(r), id); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Play recorded successfully"})
}

func (a *API) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, page, limit := a.store.Artists(pageFrom(r))
	writeJSON(w, http.StatusOK, models.ArtistPage{Artists: artists, Page: page, Limit: limit})
}

func (a *API) getArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "artist")
	if err != nil {
		a.fail(w, err)
		return
	}
	detail, err := a.store.Artist(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) artistStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "artist")
	if err != nil {
		a.fail(w, err)
		return
	}
	st, err := a.store.ArtistStats(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatsEnvelope[models.ArtistStats]{Success: true, Data: st})
}

func (a *API) listAlbums(w http.ResponseWriter, r *http.Request) {
	albums, page, limit := a.store.Albums(pageFrom(r))
	writeJSON(w, http.StatusOK, models.AlbumPage{Albums: albums, Page: page, Limit: limit})
}

func (a *API) albumStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "album")
	if err != nil {
		a.fail(w, err)
		return
	}
	st, err := a.store.AlbumStats(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.StatsEnvelope[models.AlbumStats]{Success: true, Data: st})
}

func (a *API) albumDuration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "album")
	if err != nil {
		a.fail(w, err)
		return
	}
	d, err := a.store.AlbumDuration(id)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	writeJSON(w, http.StatusOK, a.store.Search(q))
}

func (a *API) trending(w http.ResponseWriter, r *http.Request) {
	tracks := a.store.Trending(queryInt(r, "limit", 20))
	writeJSON(w, http.StatusOK, models.TrackList{Tracks: tracks, Reason: "Trending this week"})
}

func (a *API) genre(w http.ResponseWriter, r *http.Request) {
	g := r.PathValue("genre")
	tracks := a.store.GenreTracks(g, queryInt(r, "limit", 20))
	writeJSON(w, http.StatusOK, models.TrackList{Tracks: tracks, Reason: "Popular tracks in " + g})
}

func (a *API) personal(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.store.Personal(a.userID(r), queryInt(r, "limit", 20))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TrackList{Tracks: tracks, Reason: "Based on your listening history and preferences"})
}

func (a *API) profile(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.User(a.userID(r))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.store.UpdatePreferences(a.userID(r), prefs); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Preferences updated successfully"})
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	p, err := a.store.CreatePlaylist(a.userID(r), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PlaylistList{Playlists: a.store.Playlists(a.userID(r))})
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	detail, err := a.store.Playlist(a.userID(r), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.store.UpdatePlaylist(a.userID(r), r.PathValue("id"), req); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Playlist updated successfully"})
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeletePlaylist(a.userID(r), r.PathValue("id")); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Playlist deleted successfully"})
}

func (a *API) addPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	var req models.AddTrackToPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := a.store.AddToPlaylist(a.userID(r), r.PathValue("id"), req.TrackID); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Track added to playlist successfully"})
}

func (a *API) removePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "trackId", "track")
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.store.RemoveFromPlaylist(a.userID(r), r.PathValue("id"), trackID); err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ack{Message: "Track removed from playlist successfully"})
}
