package models

import (
	"time"
)

// Track represents a song in the catalog.
type Track struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	ArtistID    int       `json:"artist_id"`
	ArtistName  string    `json:"artist_name,omitempty"`
	AlbumID     int       `json:"album_id"`
	AlbumName   string    `json:"album_name,omitempty"`
	Duration    int       `json:"duration"` // Duration in seconds
	Genre       string    `json:"genre"`
	ReleaseDate time.Time `json:"release_date"`
	FileURL     string    `json:"file_url"`
	CoverURL    string    `json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Artist represents a performer in the catalog.
type Artist struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Album represents a release in the catalog.
type Album struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	ArtistID    int       `json:"artist_id"`
	ArtistName  string    `json:"artist_name,omitempty"`
	ReleaseDate time.Time `json:"release_date"`
	CoverURL    string    `json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtistStats holds aggregate figures computed server-side for an artist.
type ArtistStats struct {
	ArtistID             int       `json:"artist_id"`
	ArtistName           string    `json:"artist_name"`
	TotalAlbums          int       `json:"total_albums"`
	TotalTracks          int       `json:"total_tracks"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	TotalDurationMinutes float64   `json:"total_duration_minutes"`
	UniqueGenres         int       `json:"unique_genres"`
	Genres               string    `json:"genres"`
	FirstRelease         time.Time `json:"first_release"`
	LatestRelease        time.Time `json:"latest_release"`
	AvgPlaysPerTrack     float64   `json:"avg_plays_per_track"`
}

// AlbumStats holds track count and running time for an album.
type AlbumStats struct {
	AlbumID         int     `json:"album_id"`
	Title           string  `json:"title"`
	TrackCount      int     `json:"track_count"`
	TotalDuration   int     `json:"total_duration_seconds"`
	DurationMinutes float64 `json:"duration_minutes"`
}
