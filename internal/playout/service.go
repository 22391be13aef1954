package playout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/logger"
)

// Service answers "what should stream right now" for a channel: it consults
// the state cache first, and on a miss recomputes from the playout clock and
// resolver, recording the result for the next caller.
type Service struct {
	repos    *db.Repositories
	cache    *StateCache
	resolver *Resolver
	slackMs  int64
}

// NewService creates a playout service
func NewService(repos *db.Repositories, cache *StateCache, resolver *Resolver, slackMs int64) *Service {
	return &Service{
		repos:    repos,
		cache:    cache,
		resolver: resolver,
		slackMs:  slackMs,
	}
}

// ResolveNow resolves the channel's current playable item at nowMs.
// isFirst marks the first resolution for a joining viewer, which widens the
// filler search and randomizes filler start offsets.
func (s *Service) ResolveNow(ctx context.Context, channelID uuid.UUID, nowMs int64, isFirst bool) (*PlayableItem, error) {
	if cached, ok := s.cache.CurrentItem(ctx, channelID, nowMs); ok {
		logger.Log.Debug().
			Str("channel_id", channelID.String()).
			Str("kind", string(cached.Kind)).
			Int64("start_ms", cached.StartMs).
			Msg("Resolved lineup item from cache")
		return cached, nil
	}

	ch, err := s.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, channel.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	lineup, err := s.repos.Lineups.GetByChannelID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lineup: %w", err)
	}

	pos, err := ResolvePosition(ch, lineup, nowMs, s.slackMs)
	if err != nil {
		// A single bad resolution must never take the whole channel down;
		// the viewer gets a bounded offline screen while the error is logged
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Int64("duration_ms", ch.DurationMs).
			Int("lineup_items", len(lineup)).
			Msg("Lineup resolution failed, degrading to offline placeholder")
		item := s.resolver.offlinePlaceholder(0)
		return item, nil
	}

	collections, err := s.repos.Fillers.CollectionsForChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get filler collections: %w", err)
	}

	item := s.resolver.Resolve(pos, ch, collections, s.cache.HistoryView(ctx), isFirst, nowMs)

	if err := s.cache.RecordPlayback(ctx, channelID, nowMs, item); err != nil {
		// Playback still proceeds; only resume quality degrades
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to record playback state")
	}

	logger.Log.Info().
		Str("channel_id", channelID.String()).
		Str("kind", string(item.Kind)).
		Int("index", pos.Index).
		Int64("start_ms", item.StartMs).
		Int64("stream_duration_ms", item.StreamDurationMs).
		Msg("Resolved lineup item")

	return item, nil
}

// StopPlayback clears the channel's cached position, called when the last
// viewer disconnects and the session layer tears the stream down
func (s *Service) StopPlayback(ctx context.Context, channelID uuid.UUID) error {
	return s.cache.ClearPlayback(ctx, channelID)
}

// NowMs returns the current wall-clock time in engine units
func NowMs() int64 {
	return time.Now().UnixMilli()
}
