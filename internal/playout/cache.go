package playout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
)

// StateStore is the durable backing for the cache, implemented by
// db.PlaybackRepository. The cache works fine over any get/set store.
type StateStore interface {
	LoadState(ctx context.Context, channelID uuid.UUID) (*models.PlayState, error)
	SaveState(ctx context.Context, state *models.PlayState) error
	DeleteState(ctx context.Context, channelID uuid.UUID) error
	LoadLastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool, error)
	SaveLastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID, playedAtMs int64) error
}

type historyKey struct {
	kind models.HistoryKeyKind
	id   uuid.UUID
}

// channelState serializes all cache access for one channel. Different
// channels never contend on it.
type channelState struct {
	mu         sync.Mutex
	loaded     bool // durable state has been consulted at least once
	entry      *PlayableItem
	resolvedAt int64
	lastPlayed map[historyKey]int64
}

// StateCache keeps each channel's last resolved item and per-key last-played
// timestamps, writing through to a StateStore so both survive restarts.
// Reads reconcile the cached item against the current clock instead of
// trusting it blindly.
type StateCache struct {
	store   StateStore
	slackMs int64

	mu       sync.Mutex
	channels map[uuid.UUID]*channelState
}

// NewStateCache creates a cache over the given durable store
func NewStateCache(store StateStore, slackMs int64) *StateCache {
	return &StateCache{
		store:    store,
		slackMs:  slackMs,
		channels: make(map[uuid.UUID]*channelState),
	}
}

func (c *StateCache) channel(id uuid.UUID) *channelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs, ok := c.channels[id]
	if !ok {
		cs = &channelState{lastPlayed: make(map[historyKey]int64)}
		c.channels[id] = cs
	}
	return cs
}

// CurrentItem returns the channel's cached item reconciled to nowMs, or
// (nil, false) when nothing usable is cached and the caller must recompute
// from the playout clock.
//
// A read within slack of the recording, with comfortably more than slack
// still to stream, is treated as a transient reconnect: the item is returned
// with its original start bookkeeping untouched so no seconds are lost.
// Otherwise the item is advanced by the elapsed time; once the advanced
// stream duration drops below slack, or the advanced start overruns the
// item's duration beyond slack, the entry is stale.
func (c *StateCache) CurrentItem(ctx context.Context, channelID uuid.UUID, nowMs int64) (*PlayableItem, bool) {
	cs := c.channel(channelID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.entry == nil && !cs.loaded {
		cs.loaded = true
		c.hydrate(ctx, channelID, cs)
	}
	if cs.entry == nil {
		return nil, false
	}

	elapsed := nowMs - cs.resolvedAt
	if elapsed < 0 {
		// Clock moved backwards; treat as unusable
		return nil, false
	}

	if elapsed <= c.slackMs && elapsed+c.slackMs < cs.entry.StreamDurationMs {
		item := *cs.entry
		return &item, true
	}

	advanced := *cs.entry
	advanced.StartMs += elapsed
	advanced.StreamDurationMs -= elapsed
	if advanced.StreamDurationMs < c.slackMs || advanced.StartMs > advanced.DurationMs+c.slackMs {
		return nil, false
	}
	return &advanced, true
}

// hydrate pulls the durable entry after a restart. Failures only cost a
// cache miss.
func (c *StateCache) hydrate(ctx context.Context, channelID uuid.UUID, cs *channelState) {
	state, err := c.store.LoadState(ctx, channelID)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to load persisted play state")
		return
	}
	if state == nil {
		return
	}
	var item PlayableItem
	if err := json.Unmarshal([]byte(state.ItemJSON), &item); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Discarding undecodable persisted play state")
		return
	}
	cs.entry = &item
	cs.resolvedAt = state.ResolvedAt
}

// RecordPlayback stores the resolved item for the channel and stamps play
// history with the item's finish time (resolvedAt plus stream duration), so
// cooldown windows open only after the content finishes airing.
func (c *StateCache) RecordPlayback(ctx context.Context, channelID uuid.UUID, resolvedAtMs int64, item *PlayableItem) error {
	cs := c.channel(channelID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	stored := *item
	cs.entry = &stored
	cs.resolvedAt = resolvedAtMs
	cs.loaded = true

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode play state: %w", err)
	}
	if err := c.store.SaveState(ctx, &models.PlayState{
		ChannelID:  channelID,
		ItemJSON:   string(raw),
		ResolvedAt: resolvedAtMs,
	}); err != nil {
		return err
	}

	finishAt := resolvedAtMs + item.StreamDurationMs
	if item.ProgramID != uuid.Nil {
		if err := c.setLastPlayedLocked(ctx, channelID, cs, models.HistoryKeyProgram, item.ProgramID, finishAt); err != nil {
			return err
		}
	}
	if item.FillerListID != uuid.Nil {
		if err := c.setLastPlayedLocked(ctx, channelID, cs, models.HistoryKeyFillerList, item.FillerListID, finishAt); err != nil {
			return err
		}
	}
	return nil
}

// ClearPlayback drops the channel's cached and persisted play state.
// Play history is kept; cooldowns outlive sessions.
func (c *StateCache) ClearPlayback(ctx context.Context, channelID uuid.UUID) error {
	cs := c.channel(channelID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.entry = nil
	cs.resolvedAt = 0
	cs.loaded = true
	return c.store.DeleteState(ctx, channelID)
}

func (c *StateCache) setLastPlayedLocked(ctx context.Context, channelID uuid.UUID, cs *channelState, kind models.HistoryKeyKind, keyID uuid.UUID, atMs int64) error {
	cs.lastPlayed[historyKey{kind: kind, id: keyID}] = atMs
	return c.store.SaveLastPlayed(ctx, channelID, kind, keyID, atMs)
}

// LastPlayed returns the last-played timestamp for a history key, falling
// back to the durable store and memoizing the answer.
func (c *StateCache) LastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool) {
	cs := c.channel(channelID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	key := historyKey{kind: kind, id: keyID}
	if at, ok := cs.lastPlayed[key]; ok {
		return at, true
	}
	at, ok, err := c.store.LoadLastPlayed(ctx, channelID, kind, keyID)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("channel_id", channelID.String()).
			Str("key_id", keyID.String()).
			Msg("Failed to load play history")
		return 0, false
	}
	if ok {
		cs.lastPlayed[key] = at
	}
	return at, ok
}

// SetLastPlayed records a last-played timestamp directly. The transcoding
// layer calls this through the service when playback actually completes.
func (c *StateCache) SetLastPlayed(ctx context.Context, channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID, atMs int64) error {
	cs := c.channel(channelID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return c.setLastPlayedLocked(ctx, channelID, cs, kind, keyID, atMs)
}

// HistoryView adapts the cache to the picker's History interface with the
// request context baked in
func (c *StateCache) HistoryView(ctx context.Context) History {
	return historyView{ctx: ctx, cache: c}
}

type historyView struct {
	ctx   context.Context
	cache *StateCache
}

func (h historyView) LastPlayed(channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool) {
	return h.cache.LastPlayed(h.ctx, channelID, kind, keyID)
}
