// Package repositories implements the client's local SQLite persistence.
//
// Key Implementations:
//   - [KeyValueRepository] : rows of the session_store table
//   - [TokenRepository] : the bearer token under a single key, used as the session store
//   - [ExportLogRepository] : history of playlists exported to disk
//
// Schemas come from the embedded migrations in the shared package.
package repositories
