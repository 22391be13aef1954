package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
	"gorm.io/gorm"
)

// LineupRepository handles database operations for channel lineups
type LineupRepository struct {
	db *DB
}

// NewLineupRepository creates a new lineup repository
func NewLineupRepository(db *DB) *LineupRepository {
	return &LineupRepository{db: db}
}

// GetByChannelID retrieves a channel's lineup ordered by position with
// program metadata joined in
func (r *LineupRepository) GetByChannelID(ctx context.Context, channelID uuid.UUID) ([]models.LineupItem, error) {
	var items []models.LineupItem
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get lineup: %w", MapGormError(result.Error))
	}

	// Batch-load program rows for content items
	ids := make([]string, 0, len(items))
	for i := range items {
		if items[i].ProgramID != nil {
			ids = append(ids, items[i].ProgramID.String())
		}
	}
	if len(ids) > 0 {
		var programs []models.Program
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&programs).Error; err != nil {
			return nil, fmt.Errorf("failed to load lineup programs: %w", MapGormError(err))
		}
		byID := make(map[uuid.UUID]*models.Program, len(programs))
		for i := range programs {
			byID[programs[i].ID] = &programs[i]
		}
		for i := range items {
			if items[i].ProgramID != nil {
				items[i].Program = byID[*items[i].ProgramID]
			}
		}
	}

	return items, nil
}

// Replace atomically swaps a channel's lineup for a new one and rewrites the
// channel's loop origin and total duration in the same transaction. Readers
// see either the old lineup with the old duration or the new pair, never a
// mix, so concurrent playout resolution keeps its consistency invariant.
func (r *LineupRepository) Replace(ctx context.Context, channelID uuid.UUID, startTimeEpoch int64, items []models.LineupItem) error {
	total := models.LineupDurationMs(items)

	return r.db.WithTransaction(ctx, "lineup replace", func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID.String()).Delete(&models.LineupItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear lineup: %w", MapGormError(err))
		}

		for i := range items {
			items[i].ChannelID = channelID
			items[i].Position = i
			if items[i].ID == uuid.Nil {
				items[i].ID = uuid.New()
			}
			if items[i].CreatedAt.IsZero() {
				items[i].CreatedAt = time.Now().UTC()
			}
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, 200).Error; err != nil {
				return fmt.Errorf("failed to insert lineup: %w", MapGormError(err))
			}
		}

		result := tx.Model(&models.Channel{}).
			Where("id = ?", channelID.String()).
			Updates(map[string]interface{}{
				"start_time_epoch": startTimeEpoch,
				"duration_ms":      total,
				"updated_at":       time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update channel loop: %w", MapGormError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
