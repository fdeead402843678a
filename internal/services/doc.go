// Package services is the HTTP layer between Vibra's views and the REST API.
//
// # Adapter
//
// [Client] is the single adapter. It resolves every path against one base URL
// (http://localhost:8080/api/v1 unless configured), encodes bodies as JSON and
// reads the bearer token from an [oauth2.TokenSource] on every request, so a login
// or logout elsewhere takes effect on the next call without rebuilding the client.
// Requests without a valid token are sent anonymously; the server decides.
//
// # Resource services
//
// Each endpoint family is a thin service reached from the client:
//
//	client.Auth()            POST /auth/register, /auth/login
//	client.Tracks()          /tracks, /tracks/:id, /tracks/:id/similar, /tracks/:id/play, /tracks/add
//	client.Artists()         /artists, /artists/:id, /artists/:id/stats
//	client.Albums()          /albums, /albums/:id/stats, /albums/:id/duration
//	client.Playlists()       /playlists, /playlists/:id, /playlists/:id/tracks[/:trackId]
//	client.Recommendations() /recommendations, /recommendations/trending, /recommendations/genre/:genre
//	client.Profile()         /profile, /profile/preferences
//	client.Search()          /search?q=
//
// Services do no validation, caching or retrying. Errors from the adapter pass
// through unchanged.
//
// # Errors
//
//   - [*RequestError] : non-2xx response, carrying the status and the server's message
//   - [*NetworkError] : no response at all; matches [shared.ErrServiceUnavailable]
//
// Use [errors.Is] with [ErrUnauthorized], [ErrForbidden] or [ErrNotFound] to branch on status.
package services
