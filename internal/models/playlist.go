package models

import "time"

// Playlist is a user-owned, ordered collection of track ids.
type Playlist struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TrackIDs    []int     `json:"track_ids"`
	IsPublic    bool      `json:"is_public"`
	CoverURL    string    `json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreatePlaylistRequest is the body of POST /playlists.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// UpdatePlaylistRequest is the body of PUT /playlists/:id.
//
// The server replaces name, description and visibility together, so callers
// send the full set of fields.
type UpdatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// AddTrackToPlaylistRequest is the body of POST /playlists/:id/tracks.
type AddTrackToPlaylistRequest struct {
	TrackID int `json:"track_id"`
}

// PlaylistDetail is the payload of GET /playlists/:id.
type PlaylistDetail struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// Ordered returns the detail's tracks in playlist order. See [ReconcileTracks].
func (d *PlaylistDetail) Ordered() []Track {
	return ReconcileTracks(d.Playlist.TrackIDs, d.Tracks)
}

// PlaylistExport is a playlist together with its resolved, ordered tracks.
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []Track
}

// TotalDuration sums the duration of every track in seconds.
func (e *PlaylistExport) TotalDuration() int {
	total := 0
	for _, t := range e.Tracks {
		total += t.Duration
	}
	return total
}

// ReconcileTracks orders tracks by ids.
//
// Ids with no matching track are dropped. Repeated ids yield the track once per occurrence.
func ReconcileTracks(ids []int, tracks []Track) []Track {
	byID := make(map[int]Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	ordered := make([]Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered
}

// ExportRecord is a local log entry for a playlist written to disk by the CLI.
type ExportRecord struct {
	ID          string
	PlaylistID  string
	Format      string
	Destination string
	TrackCount  int
	CreatedAt   time.Time
}
