package models

// TrackQuery selects a page of GET /tracks. Zero values are omitted from the query string.
type TrackQuery struct {
	Page   int
	Limit  int
	Genre  string
	Search string
}

// Page selects a page of a paginated list endpoint.
type Page struct {
	Page  int
	Limit int
}

// TrackPage is the payload of GET /tracks.
type TrackPage struct {
	Tracks []Track `json:"tracks"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// TrackList is the payload of the similar-track and recommendation endpoints.
type TrackList struct {
	Tracks []Track `json:"tracks"`
	Reason string  `json:"reason,omitempty"`
}

// ArtistPage is the payload of GET /artists.
type ArtistPage struct {
	Artists []Artist `json:"artists"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}

// ArtistDetail is the payload of GET /artists/:id.
type ArtistDetail struct {
	Artist Artist  `json:"artist"`
	Tracks []Track `json:"tracks"`
}

// AlbumPage is the payload of GET /albums.
type AlbumPage struct {
	Albums []Album `json:"albums"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// StatsEnvelope wraps the stats endpoints' `{success, data}` shape.
type StatsEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// DurationDisplay splits a duration into whole minutes and remaining seconds.
type DurationDisplay struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// AlbumDuration is the payload of GET /albums/:id/duration.
type AlbumDuration struct {
	Success           bool            `json:"success"`
	AlbumID           int             `json:"album_id"`
	DurationSeconds   int             `json:"duration_seconds"`
	DurationMinutes   float64         `json:"duration_minutes"`
	DurationFormatted string          `json:"duration_formatted"`
	DurationDisplay   DurationDisplay `json:"duration_display"`
}

// PlaylistList is the payload of GET /playlists.
type PlaylistList struct {
	Playlists []Playlist `json:"playlists"`
}

// SearchResults is the payload of GET /search.
type SearchResults struct {
	Tracks  []Track  `json:"tracks"`
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
}

// Ack is the acknowledgement body returned by write endpoints.
type Ack struct {
	Message string `json:"message"`
	Success bool   `json:"success,omitempty"`
}

// AddTrackRequest is the body of POST /tracks/add.
type AddTrackRequest struct {
	Title       string `json:"title"`
	ArtistID    int    `json:"artist_id"`
	AlbumID     int    `json:"album_id"`
	Duration    int    `json:"duration"`
	Genre       string `json:"genre"`
	ReleaseDate string `json:"release_date"` // YYYY-MM-DD
	FileURL     string `json:"file_url"`
	CoverURL    string `json:"cover_url,omitempty"`
}

// AddTrackResult is the payload of POST /tracks/add.
type AddTrackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TrackID int    `json:"track_id"`
}

// Health is the payload of GET /health on the API origin.
type Health struct {
	Status  string `json:"status"`
	MySQL   bool   `json:"mysql"`
	MongoDB bool   `json:"mongodb"`
	Neo4j   bool   `json:"neo4j"`
}
