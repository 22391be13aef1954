package channel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
	"github.com/telecast-io/telecast/internal/schedule"
)

// PlaybackInvalidator drops a channel's cached resolved item. The playout
// state cache implements it; a resolved item computed against a replaced
// lineup must not keep serving after the swap.
type PlaybackInvalidator interface {
	ClearPlayback(ctx context.Context, channelID uuid.UUID) error
}

// LineupService manages channel lineups: reading them for playout and
// recompiling them from time-slot schedules. Compilation happens outside any
// lock; the finished lineup is swapped in atomically so playout resolution
// for the channel is never blocked by a recompile.
type LineupService struct {
	repos    *db.Repositories
	compiler *schedule.Compiler
	playback PlaybackInvalidator
}

// NewLineupService creates a new lineup service instance
func NewLineupService(repos *db.Repositories, compiler *schedule.Compiler, playback PlaybackInvalidator) *LineupService {
	return &LineupService{repos: repos, compiler: compiler, playback: playback}
}

// GetLineup retrieves a channel's lineup in playout order
func (s *LineupService) GetLineup(ctx context.Context, channelID uuid.UUID) ([]models.LineupItem, error) {
	if _, err := s.repos.Channels.GetByID(ctx, channelID); err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get lineup: %w", ErrChannelNotFound)
		}
		return nil, fmt.Errorf("failed to get lineup: %w", err)
	}
	return s.repos.Lineups.GetByChannelID(ctx, channelID)
}

// SetSchedule stores a channel's time-slot schedule without compiling it
func (s *LineupService) SetSchedule(ctx context.Context, sched *models.TimeSlotSchedule) error {
	if _, err := s.repos.Channels.GetByID(ctx, sched.ChannelID); err != nil {
		if db.IsNotFound(err) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("failed to set schedule: %w", err)
	}
	if err := s.repos.Schedules.Upsert(ctx, sched); err != nil {
		return fmt.Errorf("failed to set schedule: %w", err)
	}
	return nil
}

// ApplySchedule compiles the channel's stored schedule against the current
// program library and swaps the resulting lineup in, rewriting the channel's
// loop origin and duration in the same transaction.
func (s *LineupService) ApplySchedule(ctx context.Context, channelID uuid.UUID, nowMs int64) ([]models.LineupItem, error) {
	sched, err := s.repos.Schedules.GetByChannelID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNoSchedule
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	pools, err := s.buildPools(ctx, sched)
	if err != nil {
		return nil, err
	}

	startMs, items, err := s.compiler.Compile(sched, pools, nowMs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schedule: %w", err)
	}

	if err := s.repos.Lineups.Replace(ctx, channelID, startMs, items); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to swap in compiled lineup")
		return nil, fmt.Errorf("failed to apply schedule: %w", err)
	}

	if err := s.playback.ClearPlayback(ctx, channelID); err != nil {
		// The swap is already committed; the stale item ages out on its own
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to clear play state after lineup swap")
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Int("items", len(items)).
		Int64("start_ms", startMs).
		Int64("duration_ms", models.LineupDurationMs(items)).
		Msg("Compiled schedule applied to channel")

	return items, nil
}

// buildPools gathers the program pool behind every slot of the schedule
func (s *LineupService) buildPools(ctx context.Context, sched *models.TimeSlotSchedule) (schedule.Pools, error) {
	pools := make(schedule.Pools)
	for _, slot := range sched.Slots {
		key := slot.PoolKey()
		if key == "" {
			continue
		}
		if _, done := pools[key]; done {
			continue
		}

		var (
			programs []*models.Program
			err      error
		)
		switch slot.Kind {
		case models.SlotKindShow:
			programs, err = s.repos.Programs.ListByShow(ctx, slot.ShowName)
		case models.SlotKindMovie:
			programs, err = s.repos.Programs.ListMovies(ctx)
		case models.SlotKindFiller:
			if slot.FillerListID != nil {
				programs, err = s.repos.Programs.ListFillerPrograms(ctx, *slot.FillerListID)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build pool %q: %w", key, err)
		}
		pools[key] = programs
	}
	return pools, nil
}
