package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

// AuthService wraps /auth.
type AuthService struct{ c *Client }

// Register creates an account. The server answers 201 with a token and the new user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return Call[models.AuthResponse](ctx, s.c, http.MethodPost, "/auth/register", nil, req)
}

// Login exchanges credentials for a token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return Call[models.AuthResponse](ctx, s.c, http.MethodPost, "/auth/login", nil, req)
}

// TracksService wraps /tracks.
type TracksService struct{ c *Client }

// List fetches one page of tracks, optionally filtered by genre or a search string.
func (s *TracksService) List(ctx context.Context, q models.TrackQuery) (*models.TrackPage, error) {
	query := pageQuery(q.Page, q.Limit)
	if q.Genre != "" {
		query.Set("genre", q.Genre)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	return Call[models.TrackPage](ctx, s.c, http.MethodGet, "/tracks", query, nil)
}

func (s *TracksService) Get(ctx context.Context, id int) (*models.Track, error) {
	return Call[models.Track](ctx, s.c, http.MethodGet, "/tracks/"+strconv.Itoa(id), nil, nil)
}

func (s *TracksService) Similar(ctx context.Context, id int) (*models.TrackList, error) {
	return Call[models.TrackList](ctx, s.c, http.MethodGet, fmt.Sprintf("/tracks/%d/similar", id), nil, nil)
}

// RecordPlay appends a play of id to the caller's listening history. Requires a token.
func (s *TracksService) RecordPlay(ctx context.Context, id int) (*models.Ack, error) {
	return Call[models.Ack](ctx, s.c, http.MethodPost, fmt.Sprintf("/tracks/%d/play", id), nil, nil)
}

// Add inserts a track through the server's validating procedure.
func (s *TracksService) Add(ctx context.Context, req models.AddTrackRequest) (*models.AddTrackResult, error) {
	return Call[models.AddTrackResult](ctx, s.c, http.MethodPost, "/tracks/add", nil, req)
}

// ArtistsService wraps /artists.
type ArtistsService struct{ c *Client }

func (s *ArtistsService) List(ctx context.Context, p models.Page) (*models.ArtistPage, error) {
	return Call[models.ArtistPage](ctx, s.c, http.MethodGet, "/artists", pageQuery(p.Page, p.Limit), nil)
}

// Get returns the artist with its tracks.
func (s *ArtistsService) Get(ctx context.Context, id int) (*models.ArtistDetail, error) {
	return Call[models.ArtistDetail](ctx, s.c, http.MethodGet, "/artists/"+strconv.Itoa(id), nil, nil)
}

func (s *ArtistsService) Stats(ctx context.Context, id int) (*models.ArtistStats, error) {
	env, err := Call[models.StatsEnvelope[models.ArtistStats]](ctx, s.c, http.MethodGet, fmt.Sprintf("/artists/%d/stats", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// AlbumsService wraps /albums.
type AlbumsService struct{ c *Client }

func (s *AlbumsService) List(ctx context.Context, p models.Page) (*models.AlbumPage, error) {
	return Call[models.AlbumPage](ctx, s.c, http.MethodGet, "/albums", pageQuery(p.Page, p.Limit), nil)
}

func (s *AlbumsService) Stats(ctx context.Context, id int) (*models.AlbumStats, error) {
	env, err := Call[models.StatsEnvelope[models.AlbumStats]](ctx, s.c, http.MethodGet, fmt.Sprintf("/albums/%d/stats", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (s *AlbumsService) Duration(ctx context.Context, id int) (*models.AlbumDuration, error) {
	return Call[models.AlbumDuration](ctx, s.c, http.MethodGet, fmt.Sprintf("/albums/%d/duration", id), nil, nil)
}

// PlaylistsService wraps /playlists. Every call requires a token; the server
// answers 404 for unknown ids and 403 for playlists owned by someone else.
type PlaylistsService struct{ c *Client }

func (s *PlaylistsService) Create(ctx context.Context, req models.CreatePlaylistRequest) (*models.Playlist, error) {
	return Call[models.Playlist](ctx, s.c, http.MethodPost, "/playlists", nil, req)
}

func (s *PlaylistsService) List(ctx context.Context) (*models.PlaylistList, error) {
	return Call[models.PlaylistList](ctx, s.c, http.MethodGet, "/playlists", nil, nil)
}

// Get returns the playlist and its tracks. Tracks arrive in server order; use
// [models.PlaylistDetail.Ordered] for display order.
func (s *PlaylistsService) Get(ctx context.Context, id string) (*models.PlaylistDetail, error) {
	return Call[models.PlaylistDetail](ctx, s.c, http.MethodGet, playlistPath(id), nil, nil)
}

func (s *PlaylistsService) Update(ctx context.Context, id string, req models.UpdatePlaylistRequest) (*models.Ack, error) {
	return Call[models.Ack](ctx, s.c, http.MethodPut, playlistPath(id), nil, req)
}

func (s *PlaylistsService) Delete(ctx context.Context, id string) (*models.Ack, error) {
	return Call[models.Ack](ctx, s.c, http.MethodDelete, playlistPath(id), nil, nil)
}

func (s *PlaylistsService) AddTrack(ctx context.Context, id string, trackID int) (*models.Ack, error) {
	body := models.AddTrackToPlaylistRequest{TrackID: trackID}
	return Call[models.Ack](ctx, s.c, http.MethodPost, playlistPath(id)+"/tracks", nil, body)
}

func (s *PlaylistsService) RemoveTrack(ctx context.Context, id string, trackID int) (*models.Ack, error) {
	return Call[models.Ack](ctx, s.c, http.MethodDelete, fmt.Sprintf("%s/tracks/%d", playlistPath(id), trackID), nil, nil)
}

// RecommendationsService wraps /recommendations.
type RecommendationsService struct{ c *Client }

func (s *RecommendationsService) Trending(ctx context.Context) (*models.TrackList, error) {
	return Call[models.TrackList](ctx, s.c, http.MethodGet, "/recommendations/trending", nil, nil)
}

func (s *RecommendationsService) Genre(ctx context.Context, genre string) (*models.TrackList, error) {
	return Call[models.TrackList](ctx, s.c, http.MethodGet, "/recommendations/genre/"+url.PathEscape(genre), nil, nil)
}

// Personal requires a token; the reason explains how the list was built.
func (s *RecommendationsService) Personal(ctx context.Context) (*models.TrackList, error) {
	return Call[models.TrackList](ctx, s.c, http.MethodGet, "/recommendations", nil, nil)
}

// ProfileService wraps /profile.
type ProfileService struct{ c *Client }

func (s *ProfileService) Get(ctx context.Context) (*models.User, error) {
	return Call[models.User](ctx, s.c, http.MethodGet, "/profile", nil, nil)
}

// UpdatePreferences replaces the caller's preferences wholesale.
func (s *ProfileService) UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.Ack, error) {
	return Call[models.Ack](ctx, s.c, http.MethodPut, "/profile/preferences", nil, prefs)
}

// SearchService wraps /search.
type SearchService struct{ c *Client }

// Search matches q against track titles, artist names and album titles.
func (s *SearchService) Search(ctx context.Context, q string) (*models.SearchResults, error) {
	return Call[models.SearchResults](ctx, s.c, http.MethodGet, "/search", url.Values{"q": {q}}, nil)
}

// Health checks the server's /health endpoint, which lives outside the versioned prefix.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var out models.Health
	if err := c.do(ctx, http.MethodGet, c.Origin()+"/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func playlistPath(id string) string {
	return "/playlists/" + url.PathEscape(id)
}

// ParseID converts a CLI or view argument into a numeric resource id.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}
