package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
	"gorm.io/gorm/clause"
)

// PlaybackRepository durably stores per-channel play state and last-played
// history so the in-memory cache survives process restarts. It implements
// playout.StateStore.
type PlaybackRepository struct {
	db *DB
}

// NewPlaybackRepository creates a new playback repository
func NewPlaybackRepository(db *DB) *PlaybackRepository {
	return &PlaybackRepository{db: db}
}

// LoadState returns the persisted play state for a channel, or nil when none
// has been recorded
func (r *PlaybackRepository) LoadState(ctx context.Context, channelID uuid.UUID) (*models.PlayState, error) {
	var state models.PlayState
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).First(&state)
	if result.Error != nil {
		if errors.Is(MapGormError(result.Error), ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load play state: %w", MapGormError(result.Error))
	}
	return &state, nil
}

// SaveState upserts the persisted play state for a channel
func (r *PlaybackRepository) SaveState(ctx context.Context, state *models.PlayState) error {
	state.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"item_json", "resolved_at", "updated_at"}),
		}).
		Create(state)
	if result.Error != nil {
		return fmt.Errorf("failed to save play state: %w", MapGormError(result.Error))
	}
	return nil
}

// DeleteState removes the persisted play state for a channel
func (r *PlaybackRepository) DeleteState(ctx context.Context, channelID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).Delete(&models.PlayState{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete play state: %w", MapGormError(result.Error))
	}
	return nil
}

// LoadLastPlayed returns the last-played timestamp for a history key.
// The second return value is false when the key has never been written.
func (r *PlaybackRepository) LoadLastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool, error) {
	var row models.PlayHistory
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND key_kind = ? AND key_id = ?", channelID.String(), kind, keyID.String()).
		First(&row)
	if result.Error != nil {
		if errors.Is(MapGormError(result.Error), ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to load play history: %w", MapGormError(result.Error))
	}
	return row.LastPlayedAt, true, nil
}

// SaveLastPlayed upserts a last-played timestamp. Last write wins; a lost
// update only perturbs cooldown fairness, never correctness.
func (r *PlaybackRepository) SaveLastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID, playedAtMs int64) error {
	row := models.PlayHistory{
		ChannelID:    channelID,
		KeyKind:      kind,
		KeyID:        keyID,
		LastPlayedAt: playedAtMs,
		UpdatedAt:    time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}, {Name: "key_kind"}, {Name: "key_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_played_at", "updated_at"}),
		}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to save play history: %w", MapGormError(result.Error))
	}
	return nil
}
