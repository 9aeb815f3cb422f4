package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/yunx/internal/models"
)

// DownloadRepository keeps the history of local copies written by the download command.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record upserts a download entry, stamping DownloadedAt when it is zero.
func (r *DownloadRepository) Record(ctx context.Context, d *models.Download) error {
	if d.SongID == "" {
		return fmt.Errorf("validation failed: song id is required")
	}
	if d.DownloadedAt.IsZero() {
		d.DownloadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO downloads (song_id, path, size, quality, source, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			quality = excluded.quality,
			source = excluded.source,
			downloaded_at = excluded.downloaded_at
	`

	if _, err := r.db.ExecContext(ctx, query, d.SongID, d.Path, d.Size, string(d.Quality), d.Source, d.DownloadedAt); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// Get retrieves the download entry for a song, or nil when there is none.
func (r *DownloadRepository) Get(ctx context.Context, songID string) (*models.Download, error) {
	query := `
		SELECT song_id, path, size, quality, source, downloaded_at
		FROM downloads
		WHERE song_id = ?
	`

	d, err := r.scan(r.db.QueryRowContext(ctx, query, songID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// List returns the most recent downloads first, up to limit entries (all when limit <= 0).
func (r *DownloadRepository) List(ctx context.Context, limit int) ([]*models.Download, error) {
	query := `
		SELECT song_id, path, size, quality, source, downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC, song_id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating downloads: %w", err)
	}
	return downloads, nil
}

// Delete removes a download entry.
func (r *DownloadRepository) Delete(ctx context.Context, songID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM downloads WHERE song_id = ?", songID)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("download not found: %s", songID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DownloadRepository) scan(row scanner) (*models.Download, error) {
	var d models.Download
	var quality string
	if err := row.Scan(&d.SongID, &d.Path, &d.Size, &quality, &d.Source, &d.DownloadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}
	d.Quality = models.Quality(quality)
	return &d, nil
}
