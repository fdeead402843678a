// package repositories provides the sqlite persistence used by the client.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/vibra/internal/shared"
)

// KeyValueRepository reads and writes rows of the session_store table.
type KeyValueRepository struct {
	db *sql.DB
}

// NewKeyValueRepository creates a new [KeyValueRepository] with the given database connection
func NewKeyValueRepository(db *sql.DB) *KeyValueRepository {
	return &KeyValueRepository{db: db}
}

// Get returns the value stored under key, or [shared.ErrTokenNotFound] when absent.
func (r *KeyValueRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM session_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", shared.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", key, err)
	}
	return value, nil
}

// Set upserts value under key.
func (r *KeyValueRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KeyValueRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (r *KeyValueRepository) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, "SELECT updated_at FROM session_store WHERE key = ?", key).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, shared.ErrTokenNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query %s: %w", key, err)
	}
	return at, nil
}
