// Package tasks coordinates asynchronous and multi-request work against the Vibra API.
//
// # Request sequencing
//
// Views issue fetches whose completions may arrive late or out of order. A [Scope] is
// created when a view is entered and closed when it is left; every fetch takes a [Ticket]
// from [Scope.Begin] and its result is applied only if [Ticket.Current] still holds.
// Closing the scope cancels [Scope.Context], so in-flight requests are abandoned and
// nothing is written to a view that is gone.
//
// # Playlist operations
//
// [PlaylistEngine] builds on the playlist and search resources:
//
//  1. [PlaylistEngine.Export] : playlist plus tracks reconciled into playlist order
//  2. [PlaylistEngine.AddTracks] : sequential, rate limited adds by track id
//  3. [PlaylistEngine.AddByQuery] : search, pick the closest match (Jaro-Winkler), add
//  4. [PlaylistEngine.Clone] : export a playlist and recreate it under a new name
//  5. [PlaylistEngine.BulkExport] : worker pool writing many playlists to disk with a manifest
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default,
// so a slow or absent reader never blocks the operation.
package tasks
