package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

// Similarity thresholds for [PlaylistEngine.Resolve].
const (
	DefaultMatchThreshold = 0.85
	StrictMatchThreshold  = 0.95
)

// PlaylistAPI is the subset of the playlists resource the engine needs.
//
// Satisfied by *services.PlaylistsService.
type PlaylistAPI interface {
	Get(ctx context.Context, id string) (*models.PlaylistDetail, error)
	Create(ctx context.Context, req models.CreatePlaylistRequest) (*models.Playlist, error)
	AddTrack(ctx context.Context, id string, trackID int) (*models.Ack, error)
}

// TrackSearcher is satisfied by *services.SearchService.
type TrackSearcher interface {
	Search(ctx context.Context, q string) (*models.SearchResults, error)
}

// TrackResult is the outcome of adding one track.
type TrackResult struct {
	Query   string        // Search query, empty when added by id
	TrackID int           // Track that was added (0 when unresolved)
	Track   *models.Track // Matched track for query adds
	Score   float64       // Match similarity for query adds
	Error   error
}

// AddTracksResult summarizes a bulk add.
type AddTracksResult struct {
	PlaylistID   string
	Results      []TrackResult
	SuccessCount int
	FailedCount  int
}

// CloneResult is the outcome of [PlaylistEngine.Clone].
type CloneResult struct {
	Source *models.PlaylistExport
	Dest   *models.Playlist
	Added  *AddTracksResult
}

// EngineOpts configures a [PlaylistEngine].
type EngineOpts struct {
	RateLimit float64 // Write requests per second (default: 5)
	Threshold float64 // Minimum similarity for query matches (default: 0.85)
	Logger    *log.Logger
}

// PlaylistEngine runs multi-request playlist operations against the API.
//
// Writes are sequential and rate limited. A failed track is recorded and the
// operation moves on; nothing is retried.
type PlaylistEngine struct {
	playlists PlaylistAPI
	search    TrackSearcher
	limiter   *rate.Limiter
	threshold float64
	logger    *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. search may be nil when query adds are not used.
func NewPlaylistEngine(playlists PlaylistAPI, search TrackSearcher, opts EngineOpts) *PlaylistEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultMatchThreshold
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &PlaylistEngine{
		playlists: playlists,
		search:    search,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		threshold: opts.Threshold,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Export fetches a playlist and orders its tracks by the playlist's track ids.
func (e *PlaylistEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, id string) (*models.PlaylistExport, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlists client not initialized", shared.ErrServiceUnavailable)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchingPlaylistUpdate(1, 2, id))
	detail, err := e.playlists.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}

	export := &models.PlaylistExport{Playlist: detail.Playlist, Tracks: detail.Ordered()}
	e.sendProgress(progress, foundPlaylistUpdate(2, 2, export))
	return export, nil
}

// AddTracks adds trackIDs to a playlist in order.
func (e *PlaylistEngine) AddTracks(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, trackIDs []int) (*AddTracksResult, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlists client not initialized", shared.ErrServiceUnavailable)
	}

	result := &AddTracksResult{PlaylistID: playlistID, Results: make([]TrackResult, 0, len(trackIDs))}
	for i, id := range trackIDs {
		res, err := e.addOne(ctx, playlistID, TrackResult{TrackID: id})
		if err != nil {
			return result, err
		}
		result.record(res)
		e.sendProgress(progress, addTrackUpdate(i+1, len(trackIDs), id, res.Error))
	}
	return result, nil
}

// AddByQuery resolves each query with [PlaylistEngine.Resolve] and adds the matches.
//
// Unresolved queries are reported as failures with [shared.ErrTrackNotFound].
func (e *PlaylistEngine) AddByQuery(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, queries []string) (*AddTracksResult, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlists client not initialized", shared.ErrServiceUnavailable)
	}

	result := &AddTracksResult{PlaylistID: playlistID, Results: make([]TrackResult, 0, len(queries))}
	for i, q := range queries {
		track, score, err := e.Resolve(ctx, q)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		e.sendProgress(progress, resolveTrackUpdate(i+1, len(queries), q, track))
		if err != nil {
			result.record(TrackResult{Query: q, Error: err})
			continue
		}

		res, err := e.addOne(ctx, playlistID, TrackResult{Query: q, TrackID: track.ID, Track: track, Score: score})
		if err != nil {
			return result, err
		}
		result.record(res)
		e.sendProgress(progress, addTrackUpdate(i+1, len(queries), track.ID, res.Error))
	}
	return result, nil
}

// Resolve searches for query and returns the most similar track at or above the threshold.
func (e *PlaylistEngine) Resolve(ctx context.Context, query string) (*models.Track, float64, error) {
	if e.search == nil {
		return nil, 0, fmt.Errorf("%w: search client not initialized", shared.ErrServiceUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, fmt.Errorf("%w: empty query", shared.ErrInvalidArgument)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	results, err := e.search.Search(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("search %q: %w", query, err)
	}

	best, score := BestMatch(query, results.Tracks, e.threshold)
	if best == nil {
		return nil, 0, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query)
	}
	return best, score, nil
}

// BestMatch picks the candidate most similar to query using Jaro-Winkler over
// "artist title" and the bare title. Returns nil when nothing reaches threshold.
func BestMatch(query string, candidates []models.Track, threshold float64) (*models.Track, float64) {
	q := normalize(query)
	metric := metrics.NewJaroWinkler()

	var best *models.Track
	highest := 0.0
	for i := range candidates {
		cand := &candidates[i]
		score := max(
			strutil.Similarity(q, normalize(cand.ArtistName+" "+cand.Title), metric),
			strutil.Similarity(q, normalize(cand.Title), metric),
		)
		if score > highest && score >= threshold {
			highest = score
			best = cand
		}
	}
	return best, highest
}

// normalize lowercases s, drops bracketed suffixes and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	if idx := strings.IndexAny(s, "(["); idx > 0 {
		s = s[:idx]
	}
	return strings.Join(strings.Fields(s), " ")
}

// Clone copies a playlist's ordered tracks into a new playlist named name.
func (e *PlaylistEngine) Clone(ctx context.Context, progress chan<- ProgressUpdate, sourceID, name string) (*CloneResult, error) {
	source, err := e.Export(ctx, progress, sourceID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = source.Playlist.Name + " (copy)"
	}

	dest, err := e.playlists.Create(ctx, models.CreatePlaylistRequest{
		Name:        name,
		Description: source.Playlist.Description,
		IsPublic:    source.Playlist.IsPublic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	e.sendProgress(progress, createPlaylistUpdate(1, 1, dest))

	ids := make([]int, len(source.Tracks))
	for i, t := range source.Tracks {
		ids[i] = t.ID
	}

	added, err := e.AddTracks(ctx, progress, dest.ID, ids)
	result := &CloneResult{Source: source, Dest: dest, Added: added}
	if err != nil {
		return result, err
	}
	e.logger.Info("playlist cloned", "source", sourceID, "dest", dest.ID, "added", added.SuccessCount, "failed", added.FailedCount)
	return result, nil
}

// addOne waits for the limiter then adds res.TrackID. A returned error aborts the whole
// operation; per-track failures are stored in the result.
func (e *PlaylistEngine) addOne(ctx context.Context, playlistID string, res TrackResult) (TrackResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return res, err
	}
	if _, err := e.playlists.AddTrack(ctx, playlistID, res.TrackID); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		e.logger.Warn("failed to add track", "playlist", playlistID, "track", res.TrackID, "error", err)
		res.Error = err
	}
	return res, nil
}

func (r *AddTracksResult) record(res TrackResult) {
	r.Results = append(r.Results, res)
	if res.Error != nil {
		r.FailedCount++
	} else {
		r.SuccessCount++
	}
}
