package server

import (
	"fmt"
	"time"

	"github.com/desertthunder/vibra/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed fills s with a small fixed catalog. Track ids 1-16 are stable across runs.
func Seed(s *Store) {
	base := date(2024, time.January, 1)

	artists := []models.Artist{
		{ID: 1, Name: "Miles Davis", Bio: "Trumpeter and bandleader."},
		{ID: 2, Name: "Bill Evans", Bio: "Pianist."},
		{ID: 3, Name: "Daft Punk", Bio: "French electronic duo."},
		{ID: 4, Name: "Nina Simone", Bio: "Singer, songwriter and pianist."},
		{ID: 5, Name: "Radiohead", Bio: "English rock band."},
	}
	for i, a := range artists {
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		s.PutArtist(a)
	}

	albums := []models.Album{
		{ID: 1, Title: "Kind of Blue", ArtistID: 1, ReleaseDate: date(1959, time.August, 17)},
		{ID: 2, Title: "Sunday at the Village Vanguard", ArtistID: 2, ReleaseDate: date(1961, time.October, 1)},
		{ID: 3, Title: "Discovery", ArtistID: 3, ReleaseDate: date(2001, time.March, 12)},
		{ID: 4, Title: "Random Access Memories", ArtistID: 3, ReleaseDate: date(2013, time.May, 17)},
		{ID: 5, Title: "I Put a Spell on You", ArtistID: 4, ReleaseDate: date(1965, time.June, 1)},
		{ID: 6, Title: "In Rainbows", ArtistID: 5, ReleaseDate: date(2007, time.October, 10)},
	}
	for i, a := range albums {
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		s.PutAlbum(a)
	}

	tracks := []struct {
		title    string
		artist   int
		album    int
		duration int
		genre    string
	}{
		{"So What", 1, 1, 562, "Jazz"},
		{"Freddie Freeloader", 1, 1, 589, "Jazz"},
		{"Blue in Green", 1, 1, 337, "Jazz"},
		{"All Blues", 1, 1, 693, "Jazz"},
		{"Gloria's Step", 2, 2, 370, "Jazz"},
		{"My Man's Gone Now", 2, 2, 384, "Jazz"},
		{"Jade Visions", 2, 2, 263, "Jazz"},
		{"One More Time", 3, 3, 320, "Electronic"},
		{"Digital Love", 3, 3, 301, "Electronic"},
		{"Harder, Better, Faster, Stronger", 3, 3, 224, "Electronic"},
		{"Get Lucky", 3, 4, 369, "Electronic"},
		{"Instant Crush", 3, 4, 337, "Electronic"},
		{"Feeling Good", 4, 5, 178, "Soul"},
		{"I Put a Spell on You", 4, 5, 155, "Soul"},
		{"Reckoner", 5, 6, 290, "Rock"},
		{"Weird Fishes/Arpeggi", 5, 6, 318, "Rock"},
	}
	for i, t := range tracks {
		id := i + 1
		s.PutTrack(models.Track{
			ID:          id,
			Title:       t.title,
			ArtistID:    t.artist,
			AlbumID:     t.album,
			Duration:    t.duration,
			Genre:       t.genre,
			ReleaseDate: albums[t.album-1].ReleaseDate,
			FileURL:     fmt.Sprintf("https://cdn.vibra.local/tracks/%d.mp3", id),
			CreatedAt:   base.Add(time.Duration(id) * time.Minute),
		})
	}

	for id, n := range map[int]int{11: 42, 1: 30, 13: 25, 8: 18, 15: 12, 3: 9} {
		s.SetPlays(id, n)
	}
}
