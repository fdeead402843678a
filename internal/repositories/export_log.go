package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/vibra/internal/models"
	"github.com/desertthunder/vibra/internal/shared"
)

// ExportLogRepository records playlist exports written to disk.
type ExportLogRepository struct {
	db *sql.DB
}

// NewExportLogRepository creates a new [ExportLogRepository] with the given database connection
func NewExportLogRepository(db *sql.DB) *ExportLogRepository {
	return &ExportLogRepository{db: db}
}

// Create inserts rec, assigning its ID and CreatedAt.
func (r *ExportLogRepository) Create(ctx context.Context, rec *models.ExportRecord) error {
	if rec.PlaylistID == "" || rec.Format == "" {
		return fmt.Errorf("%w: export record needs a playlist id and format", shared.ErrInvalidInput)
	}

	rec.ID = shared.GenerateID()
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO export_log (id, playlist_id, format, destination, track_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.PlaylistID, rec.Format, rec.Destination, rec.TrackCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}
	return nil
}

// List returns export records newest first, optionally restricted to one playlist.
func (r *ExportLogRepository) List(ctx context.Context, playlistID string) ([]*models.ExportRecord, error) {
	query := `
		SELECT id, playlist_id, format, destination, track_count, created_at
		FROM export_log
	`
	args := []any{}
	if playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export log: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		rec := &models.ExportRecord{}
		if err := rows.Scan(&rec.ID, &rec.PlaylistID, &rec.Format, &rec.Destination, &rec.TrackCount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}
