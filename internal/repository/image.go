package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"scorecard-tracker/internal/constants"
)

// ImageRepository persists processed-image content hashes so the duplicate
// guard can optionally span runs.
type ImageRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewImageRepository(sqlDB *sql.DB, logger zerolog.Logger) *ImageRepository {
	return &ImageRepository{db: sqlDB, logger: logger}
}

func (r *ImageRepository) SeenImage(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_images WHERE hash = ?`, hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check image hash: %w", err)
	}
	return true, nil
}

func (r *ImageRepository) MarkImage(ctx context.Context, hash, imageFile string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_images (hash, image_file) VALUES (?, ?)`,
		hash, imageFile,
	); err != nil {
		return fmt.Errorf("failed to record image hash: %w", err)
	}
	return nil
}
