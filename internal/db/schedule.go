package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
	"gorm.io/gorm/clause"
)

// ScheduleRepository handles database operations for time-slot schedules
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetByChannelID retrieves the schedule configured for a channel
func (r *ScheduleRepository) GetByChannelID(ctx context.Context, channelID uuid.UUID) (*models.TimeSlotSchedule, error) {
	var sched models.TimeSlotSchedule
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).First(&sched)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &sched, nil
}

// Upsert creates or replaces a channel's schedule
func (r *ScheduleRepository) Upsert(ctx context.Context, sched *models.TimeSlotSchedule) error {
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
		sched.CreatedAt = time.Now().UTC()
	}
	sched.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"period", "slots", "pad_ms", "max_days", "lateness_ms",
				"flex_preference", "start_tomorrow", "updated_at",
			}),
		}).
		Create(sched)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert schedule: %w", MapGormError(result.Error))
	}
	return nil
}
