package server

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

// StatusError carries the HTTP status a store failure maps to.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func statusErr(status int, msg string) *StatusError {
	return &StatusError{Status: status, Message: msg}
}

type account struct {
	user models.User
	hash []byte
}

// Store is the in-memory data behind the dev API. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	artists   map[int]models.Artist
	albums    map[int]models.Album
	tracks    map[int]models.Track
	plays     map[int]int
	accounts  map[string]*account
	emails    map[string]string
	playlists map[string]*models.Playlist

	nextTrackID int
	hashCost    int
	now         func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		artists:     map[int]models.Artist{},
		albums:      map[int]models.Album{},
		tracks:      map[int]models.Track{},
		plays:       map[int]int{},
		accounts:    map[string]*account{},
		emails:      map[string]string{},
		playlists:   map[string]*models.Playlist{},
		nextTrackID: 1,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// PutArtist inserts or replaces an artist.
func (s *Store) PutArtist(a models.Artist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists[a.ID] = a
}

// PutAlbum inserts or replaces an album; ArtistName is filled from the artist.
func (s *Store) PutAlbum(a models.Album) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ar, ok := s.artists[a.ArtistID]; ok {
		a.ArtistName = ar.Name
	}
	s.albums[a.ID] = a
}

// PutTrack inserts or replaces a track; artist and album names are filled in.
func (s *Store) PutTrack(t models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putTrackLocked(t)
}

func (s *Store) putTrackLocked(t models.Track) {
	if ar, ok := s.artists[t.ArtistID]; ok {
		t.ArtistName = ar.Name
	}
	if al, ok := s.albums[t.AlbumID]; ok {
		t.AlbumName = al.Title
	}
	s.tracks[t.ID] = t
	if t.ID >= s.nextTrackID {
		s.nextTrackID = t.ID + 1
	}
}

// SetPlays overrides the play count of a track.
func (s *Store) SetPlays(trackID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[trackID] = n
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	// Checked before multiplying so a huge page cannot overflow start.
	if page-1 > len(items)/limit {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

// newestFirst orders by CreatedAt descending with id as the tie-breaker, so pages are stable.
func newestFirst(a, b models.Track) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return b.ID - a.ID
}

func (s *Store) sortedTracks(keep func(models.Track) bool) []models.Track {
	out := make([]models.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out
}

// Tracks lists tracks newest first, filtered by exact genre (case-insensitive) and a
// title/artist substring search.
func (s *Store) Tracks(q models.TrackQuery) ([]models.Track, int, int) {
	page, limit := normalizePage(q.Page, q.Limit)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.sortedTracks(func(t models.Track) bool {
		if q.Genre != "" && !strings.EqualFold(t.Genre, q.Genre) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.ArtistName), search) {
			return false
		}
		return true
	})
	return paginate(all, page, limit), page, limit
}

// Track returns a single track.
func (s *Store) Track(id int) (models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[id]
	if !ok {
		return models.Track{}, statusErr(http.StatusNotFound, "Track not found")
	}
	return t, nil
}

// byPlays orders by play count descending, then newest first.
func (s *Store) byPlays(tracks []models.Track) {
	slices.SortStableFunc(tracks, func(a, b models.Track) int {
		if d := s.plays[b.ID] - s.plays[a.ID]; d != 0 {
			return d
		}
		return newestFirst(a, b)
	})
}

// Similar returns tracks sharing the genre or artist of id, most played first.
func (s *Store) Similar(id, limit int) ([]models.Track, error) {
	_, limit = normalizePage(1, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	seed, ok := s.tracks[id]
	if !ok {
		return nil, statusErr(http.StatusNotFound, "Track not found")
	}
	out := s.sortedTracks(func(t models.Track) bool {
		return t.ID != id && (strings.EqualFold(t.Genre, seed.Genre) || t.ArtistID == seed.ArtistID)
	})
	s.byPlays(out)
	return paginate(out, 1, limit), nil
}

// Trending returns the most played tracks, falling back to the newest.
func (s *Store) Trending(limit int) []models.Track {
	_, limit = normalizePage(1, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedTracks(nil)
	s.byPlays(out)
	return paginate(out, 1, limit)
}

// GenreTracks returns the most played tracks of genre.
func (s *Store) GenreTracks(genre string, limit int) []models.Track {
	_, limit = normalizePage(1, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedTracks(func(t models.Track) bool { return strings.EqualFold(t.Genre, genre) })
	s.byPlays(out)
	return paginate(out, 1, limit)
}

// Personal recommends tracks in the user's preferred genres they have not played yet,
// falling back to trending when nothing matches.
func (s *Store) Personal(userID string, limit int) ([]models.Track, error) {
	_, limit = normalizePage(1, limit)

	s.mu.RLock()
	acct, ok := s.accounts[userID]
	if !ok {
		s.mu.RUnlock()
		return nil, statusErr(http.StatusNotFound, "User not found")
	}
	genres := append(slices.Clone(acct.user.Preferences.PreferredGenres), acct.user.FavoriteGenres...)
	played := map[int]bool{}
	for _, h := range acct.user.ListeningHistory {
		played[h.TrackID] = true
	}
	out := s.sortedTracks(func(t models.Track) bool {
		if played[t.ID] {
			return false
		}
		return slices.ContainsFunc(genres, func(g string) bool { return strings.EqualFold(g, t.Genre) })
	})
	s.byPlays(out)
	s.mu.RUnlock()

	if len(out) == 0 {
		return s.Trending(limit), nil
	}
	return paginate(out, 1, limit), nil
}

// AddTrack validates and inserts a catalog track. Validation failures are returned as a
// result with TrackID 0, the way the production API reports them.
func (s *Store) AddTrack(req models.AddTrackRequest) (models.AddTrackResult, error) {
	if strings.TrimSpace(req.Title) == "" || req.FileURL == "" || req.Genre == "" {
		return models.AddTrackResult{}, statusErr(http.StatusBadRequest, "title, genre and file_url are required")
	}
	released, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		return models.AddTrackResult{}, statusErr(http.StatusBadRequest, "Invalid release date format. Use YYYY-MM-DD")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(msg string) (models.AddTrackResult, error) {
		return models.AddTrackResult{Success: false, Message: msg}, nil
	}
	if _, ok := s.artists[req.ArtistID]; !ok {
		return fail("Error: Artist does not exist")
	}
	album, ok := s.albums[req.AlbumID]
	if !ok {
		return fail("Error: Album does not exist")
	}
	if album.ArtistID != req.ArtistID {
		return fail("Error: Album does not belong to artist")
	}
	if req.Duration <= 0 {
		return fail("Error: Duration must be positive")
	}
	for _, t := range s.tracks {
		if t.AlbumID == req.AlbumID && strings.EqualFold(t.Title, req.Title) {
			return fail("Error: Track already exists on this album")
		}
	}

	t := models.Track{
		ID:          s.nextTrackID,
		Title:       req.Title,
		ArtistID:    req.ArtistID,
		AlbumID:     req.AlbumID,
		Duration:    req.Duration,
		Genre:       req.Genre,
		ReleaseDate: released,
		FileURL:     req.FileURL,
		CoverURL:    req.CoverURL,
		CreatedAt:   s.now(),
	}
	s.putTrackLocked(t)
	return models.AddTrackResult{Success: true, Message: "Success: Track added", TrackID: t.ID}, nil
}

// Artists lists artists by name.
func (s *Store) Artists(p models.Page) ([]models.Artist, int, int) {
	page, limit := normalizePage(p.Page, p.Limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Artist, 0, len(s.artists))
	for _, a := range s.artists {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Artist) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return paginate(out, page, limit), page, limit
}

// Artist returns an artist and their tracks, newest first.
func (s *Store) Artist(id int) (models.ArtistDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artists[id]
	if !ok {
		return models.ArtistDetail{}, statusErr(http.StatusNotFound, "Artist not found")
	}
	return models.ArtistDetail{
		Artist: a,
		Tracks: s.sortedTracks(func(t models.Track) bool { return t.ArtistID == id }),
	}, nil
}

// ArtistStats aggregates an artist's catalog.
func (s *Store) ArtistStats(id int) (models.ArtistStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artists[id]
	if !ok {
		return models.ArtistStats{}, statusErr(http.StatusNotFound, "Artist not found")
	}

	st := models.ArtistStats{ArtistID: id, ArtistName: a.Name}
	for _, al := range s.albums {
		if al.ArtistID == id {
			st.TotalAlbums++
		}
	}

	var genres []string
	plays := 0
	for _, t := range s.tracks {
		if t.ArtistID != id {
			continue
		}
		st.TotalTracks++
		st.TotalDurationSeconds += t.Duration
		plays += s.plays[t.ID]
		if !slices.Contains(genres, t.Genre) {
			genres = append(genres, t.Genre)
		}
		if st.FirstRelease.IsZero() || t.ReleaseDate.Before(st.FirstRelease) {
			st.FirstRelease = t.ReleaseDate
		}
		if t.ReleaseDate.After(st.LatestRelease) {
			st.LatestRelease = t.ReleaseDate
		}
	}
	slices.Sort(genres)
	st.UniqueGenres = len(genres)
	st.Genres = strings.Join(genres, ",")
	st.TotalDurationMinutes = float64(st.TotalDurationSeconds) / 60
	if st.TotalTracks > 0 {
		st.AvgPlaysPerTrack = float64(plays) / float64(st.TotalTracks)
	}
	return st, nil
}

// Albums lists albums newest release first.
func (s *Store) Albums(p models.Page) ([]models.Album, int, int) {
	page, limit := normalizePage(p.Page, p.Limit)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Album, 0, len(s.albums))
	for _, a := range s.albums {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Album) int {
		if c := b.ReleaseDate.Compare(a.ReleaseDate); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return paginate(out, page, limit), page, limit
}

// AlbumStats counts an album's tracks and running time.
func (s *Store) AlbumStats(id int) (models.AlbumStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	al, ok := s.albums[id]
	if !ok {
		return models.AlbumStats{}, statusErr(http.StatusNotFound, "Album not found")
	}

	st := models.AlbumStats{AlbumID: id, Title: al.Title}
	for _, t := range s.tracks {
		if t.AlbumID == id {
			st.TrackCount++
			st.TotalDuration += t.Duration
		}
	}
	st.DurationMinutes = float64(st.TotalDuration) / 60
	return st, nil
}

// AlbumDuration reports an album's running time in the production API's shape.
func (s *Store) AlbumDuration(id int) (models.AlbumDuration, error) {
	st, err := s.AlbumStats(id)
	if err != nil {
		return models.AlbumDuration{}, err
	}
	secs := st.TotalDuration
	return models.AlbumDuration{
		Success:           true,
		AlbumID:           id,
		DurationSeconds:   secs,
		DurationMinutes:   float64(secs) / 60,
		DurationFormatted: shared.FormatDuration(secs),
		DurationDisplay:   models.DurationDisplay{Minutes: secs / 60, Seconds: secs % 60},
	}, nil
}

// Search matches tracks, artists and albums by substring, at most 10 of each.
func (s *Store) Search(q string) models.SearchResults {
	needle := strings.ToLower(strings.TrimSpace(q))
	has := func(fields ...string) bool {
		return slices.ContainsFunc(fields, func(f string) bool { return strings.Contains(strings.ToLower(f), needle) })
	}

	tracks, _, _ := s.Tracks(models.TrackQuery{Search: needle, Limit: 10})

	s.mu.RLock()
	defer s.mu.RUnlock()
	res := models.SearchResults{Tracks: tracks, Artists: []models.Artist{}, Albums: []models.Album{}}
	for _, a := range s.artists {
		if has(a.Name) {
			res.Artists = append(res.Artists, a)
		}
	}
	for _, a := range s.albums {
		if has(a.Title, a.ArtistName) {
			res.Albums = append(res.Albums, a)
		}
	}
	slices.SortFunc(res.Artists, func(a, b models.Artist) int { return a.ID - b.ID })
	slices.SortFunc(res.Albums, func(a, b models.Album) int { return a.ID - b.ID })
	res.Artists = paginate(res.Artists, 1, 10)
	res.Albums = paginate(res.Albums, 1, 10)
	return res
}

// Register creates an account. Email must be unique and the password at least 6 characters.
func (s *Store) Register(req models.RegisterRequest) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case !strings.Contains(email, "@"):
		return models.User{}, statusErr(http.StatusBadRequest, "A valid email is required")
	case len(req.Password) < 6:
		return models.User{}, statusErr(http.StatusBadRequest, "Password must be at least 6 characters")
	case strings.TrimSpace(req.Username) == "":
		return models.User{}, statusErr(http.StatusBadRequest, "Username is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return models.User{}, statusErr(http.StatusInternalServerError, "Failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[email]; taken {
		return models.User{}, statusErr(http.StatusConflict, "User with this email already exists")
	}

	genres := req.Genres
	if genres == nil {
		genres = []string{}
	}
	now := s.now()
	u := models.User{
		ID:          shared.GenerateID(),
		Email:       email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Preferences: models.Preferences{
			Theme:           "dark",
			Language:        "en",
			ExplicitContent: true,
			PreferredGenres: genres,
		},
		ListeningHistory: []models.ListeningHistory{},
		FavoriteArtists:  []int{},
		FavoriteGenres:   genres,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.emails[email] = u.ID
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password fail identically.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	var acct *account
	if ok {
		acct = s.accounts[id]
	}
	s.mu.RUnlock()

	invalid := statusErr(http.StatusUnauthorized, "Invalid email or password")
	if acct == nil {
		return models.User{}, invalid
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return models.User{}, invalid
	}
	return acct.user, nil
}

// User returns the profile of userID.
func (s *Store) User(userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return models.User{}, statusErr(http.StatusNotFound, "User not found")
	}
	return acct.user, nil
}

// UpdatePreferences replaces the user's preferences.
func (s *Store) UpdatePreferences(userID string, prefs models.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[userID]
	if !ok {
		return statusErr(http.StatusNotFound, "User not found")
	}
	if prefs.PreferredGenres == nil {
		prefs.PreferredGenres = []string{}
	}
	acct.user.Preferences = prefs
	acct.user.UpdatedAt = s.now()
	return nil
}

// RecordPlay counts a play and appends it to the user's history.
func (s *Store) RecordPlay(userID string, trackID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[trackID]
	if !ok {
		return statusErr(http.StatusNotFound, "Track not found")
	}
	acct, ok := s.accounts[userID]
	if !ok {
		return statusErr(http.StatusNotFound, "User not found")
	}
	s.plays[trackID]++
	acct.user.ListeningHistory = append(acct.user.ListeningHistory, models.ListeningHistory{
		TrackID:   trackID,
		PlayedAt:  s.now(),
		Duration:  t.Duration,
		Completed: true,
	})
	return nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *Store) CreatePlaylist(userID string, req models.CreatePlaylistRequest) (models.Playlist, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Playlist{}, statusErr(http.StatusBadRequest, "Name is required")
	}

	now := s.now()
	p := &models.Playlist{
		ID:          shared.GenerateID(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		TrackIDs:    []int{},
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[p.ID] = p
	return clonePlaylist(p), nil
}

// Playlists returns the playlists owned by userID, newest first.
func (s *Store) Playlists(userID string) []models.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Playlist{}
	for _, p := range s.playlists {
		if p.UserID == userID {
			out = append(out, clonePlaylist(p))
		}
	}
	slices.SortFunc(out, func(a, b models.Playlist) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Playlist returns a playlist readable by userID (owner or public) with its known tracks.
func (s *Store) Playlist(userID, id string) (models.PlaylistDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.PlaylistDetail{}, statusErr(http.StatusNotFound, "Playlist not found")
	}
	if p.UserID != userID && !p.IsPublic {
		return models.PlaylistDetail{}, statusErr(http.StatusForbidden, "Access denied")
	}

	tracks := []models.Track{}
	for _, tid := range p.TrackIDs {
		if t, ok := s.tracks[tid]; ok && !slices.ContainsFunc(tracks, func(x models.Track) bool { return x.ID == tid }) {
			tracks = append(tracks, t)
		}
	}
	// Tracks come back in catalog order; clients reorder them by track_ids.
	slices.SortFunc(tracks, func(a, b models.Track) int { return a.ID - b.ID })
	return models.PlaylistDetail{Playlist: clonePlaylist(p), Tracks: tracks}, nil
}

// owned looks up a playlist for mutation by userID. Callers hold the write lock.
func (s *Store) owned(userID, id string) (*models.Playlist, error) {
	p, ok := s.playlists[id]
	if !ok {
		return nil, statusErr(http.StatusNotFound, "Playlist not found")
	}
	if p.UserID != userID {
		return nil, statusErr(http.StatusForbidden, "Access denied")
	}
	return p, nil
}

// UpdatePlaylist replaces name, description and visibility.
func (s *Store) UpdatePlaylist(userID, id string, req models.UpdatePlaylistRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return statusErr(http.StatusBadRequest, "Name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.owned(userID, id)
	if err != nil {
		return err
	}
	p.Name = req.Name
	p.Description = req.Description
	p.IsPublic = req.IsPublic
	p.UpdatedAt = s.now()
	return nil
}

// DeletePlaylist removes a playlist owned by userID.
func (s *Store) DeletePlaylist(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	delete(s.playlists, id)
	return nil
}

// AddToPlaylist appends trackID unless it is already present.
func (s *Store) AddToPlaylist(userID, id string, trackID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[trackID]; !ok {
		return statusErr(http.StatusNotFound, "Track not found")
	}
	p, err := s.owned(userID, id)
	if err != nil {
		return err
	}
	if !slices.Contains(p.TrackIDs, trackID) {
		p.TrackIDs = append(p.TrackIDs, trackID)
		p.UpdatedAt = s.now()
	}
	return nil
}

// RemoveFromPlaylist removes every occurrence of trackID.
func (s *Store) RemoveFromPlaylist(userID, id string, trackID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.owned(userID, id)
	if err != nil {
		return err
	}
	p.TrackIDs = slices.DeleteFunc(p.TrackIDs, func(t int) bool { return t == trackID })
	p.UpdatedAt = s.now()
	return nil
}

func clonePlaylist(p *models.Playlist) models.Playlist {
	c := *p
	c.TrackIDs = slices.Clone(p.TrackIDs)
	if c.TrackIDs == nil {
		c.TrackIDs = []int{}
	}
	return c
}
