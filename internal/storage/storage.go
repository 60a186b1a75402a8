// Package storage persists decode results through GORM. Replays are
// deduplicated by content checksum, so re-uploading the same file is a
// cheap no-op for the pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/temasictfic/bfme2replaybot/internal/model"
)

// ErrDuplicateReplay means a replay with the same checksum is already
// stored. Callers treat it as success with a notice, not a failure.
var ErrDuplicateReplay = errors.New("replay already stored")

// Repository reads and writes replay records.
type Repository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewRepository creates a repository over an already-connected DB.
func NewRepository(db *gorm.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// Save stores one decode result. Returns ErrDuplicateReplay when the
// checksum is already present.
func (r *Repository) Save(ctx context.Context, rec *model.ReplayRecord) error {
	existing, err := r.FindByChecksum(ctx, rec.Checksum)
	if err != nil {
		return err
	}
	if existing != nil {
		r.logger.Debug().Str("checksum", rec.Checksum).Uint("id", existing.ID).
			Msg("Replay already stored")
		return ErrDuplicateReplay
	}

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("error saving replay record: %w", err)
	}

	r.logger.Info().Uint("id", rec.ID).Str("map", rec.MapName).
		Int("players", len(rec.Players)).Msg("Replay stored")
	return nil
}

// FindByChecksum returns the stored replay with the given checksum, or
// nil when none exists.
func (r *Repository) FindByChecksum(ctx context.Context, checksum string) (*model.ReplayRecord, error) {
	var rec model.ReplayRecord
	err := r.db.WithContext(ctx).
		Preload("Players").
		Where("checksum = ?", checksum).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying replay by checksum: %w", err)
	}
	return &rec, nil
}

// Recent returns the newest stored replays, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]model.ReplayRecord, error) {
	var recs []model.ReplayRecord
	err := r.db.WithContext(ctx).
		Preload("Players").
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying recent replays: %w", err)
	}
	return recs, nil
}

// CountByMap returns how many stored replays exist per map name.
func (r *Repository) CountByMap(ctx context.Context) (map[string]int64, error) {
	type row struct {
		MapName string
		N       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ReplayRecord{}).
		Select("map_name, COUNT(*) AS n").
		Group("map_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error counting replays: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.MapName] = r.N
	}
	return counts, nil
}
