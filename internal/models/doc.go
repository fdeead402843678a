// Package models defines the data transfer objects exchanged with the Vibra API.
//
// The package contains three categories of types:
//
// 1. Catalog snapshots: immutable copies of server resources
//   - [Track] : Song metadata with artist/album names denormalized
//   - [Artist] : Artist profile
//   - [Album] : Album metadata
//   - [Playlist] : User playlist whose [Playlist.TrackIDs] define display order
//
// 2. Account types owned by the session
//   - [User] : Identity and display attributes, replaced wholesale on login
//   - [Preferences] : Theme, language, explicit content and genres
//
// 3. Payload envelopes mirroring the server responses
//   - [TrackPage], [TrackList], [PlaylistDetail], [SearchResults], [Ack], ...
//
// Views never patch these values in place; they re-fetch. [ReconcileTracks] is the one
// derived computation, ordering a playlist's fetched tracks by its track id list.
package models
