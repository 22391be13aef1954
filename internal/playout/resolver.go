package playout

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
)

// ResolverOptions are the tuning knobs for lineup item resolution, all in
// milliseconds. Zero values fall back to the documented defaults.
type ResolverOptions struct {
	SlackMs             int64
	OfflineCapMs        int64 // longest offline placeholder ever emitted
	NewViewerGraceMs    int64 // widened filler search for a first resolution
	StartupSnapMs       int64 // offsets below this restart content from zero
	FillerStartMarginMs int64 // margin kept ahead of a randomized filler start
}

func (o ResolverOptions) withDefaults() ResolverOptions {
	if o.SlackMs <= 0 {
		o.SlackMs = 5000
	}
	if o.OfflineCapMs <= 0 {
		o.OfflineCapMs = 10 * 60 * 1000
	}
	if o.NewViewerGraceMs <= 0 {
		o.NewViewerGraceMs = 7 * 24 * 60 * 60 * 1000
	}
	if o.StartupSnapMs <= 0 {
		o.StartupSnapMs = 30 * 1000
	}
	if o.FillerStartMarginMs <= 0 {
		o.FillerStartMarginMs = 15 * 1000
	}
	return o
}

// Resolver turns a playout clock position into the final playable decision:
// real content, a filler clip, a padded offline screen, or an error
// placeholder. It is safe for concurrent use across channels and viewers.
type Resolver struct {
	picker *Picker
	opts   ResolverOptions

	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a resolver. rng randomizes first-viewer filler start
// offsets; inject a seeded source for deterministic tests.
func NewResolver(picker *Picker, opts ResolverOptions, rng *rand.Rand) *Resolver {
	return &Resolver{picker: picker, opts: opts.withDefaults(), rng: rng}
}

// Resolve decides what should stream right now for the given position.
// It always returns a playable item; unresolvable situations degrade to a
// bounded offline placeholder rather than failing the channel.
func (r *Resolver) Resolve(pos *Position, ch *models.Channel, collections []models.FillerCollection, history History, isFirst bool, nowMs int64) *PlayableItem {
	item := pos.Item
	switch item.Kind {
	case models.ItemKindError:
		return &PlayableItem{
			Kind:             models.ItemKindError,
			ErrorMessage:     item.ErrorMessage,
			DurationMs:       item.DurationMs,
			StreamDurationMs: item.DurationMs - pos.TimeElapsedMs,
		}

	case models.ItemKindRedirect:
		target := uuid.Nil
		if item.RedirectChannelID != nil {
			target = *item.RedirectChannelID
		}
		return &PlayableItem{
			Kind:              models.ItemKindRedirect,
			RedirectChannelID: target,
			DurationMs:        item.DurationMs,
			StreamDurationMs:  item.DurationMs - pos.TimeElapsedMs,
		}

	case models.ItemKindOffline:
		return r.resolveGap(pos, ch, collections, history, isFirst, nowMs)

	case models.ItemKindContent:
		return r.resolveContent(pos, ch)

	default:
		logger.Log.Error().
			Str("channel_id", ch.ID.String()).
			Str("kind", string(item.Kind)).
			Msg("Unknown lineup item kind, degrading to offline placeholder")
		return r.offlinePlaceholder(r.opts.OfflineCapMs)
	}
}

// resolveContent passes a real program through, applying the startup snap:
// a viewer joining within the snap threshold of the beginning restarts the
// item from zero, and the discarded offset is reported as BeginningOffset.
func (r *Resolver) resolveContent(pos *Position, ch *models.Channel) *PlayableItem {
	item := pos.Item
	if item.Program == nil {
		logger.Log.Error().
			Str("channel_id", ch.ID.String()).
			Int("index", pos.Index).
			Msg("Content lineup item has no program, degrading to offline placeholder")
		remaining := item.DurationMs - pos.TimeElapsedMs
		return r.offlinePlaceholder(remaining)
	}

	start := pos.TimeElapsedMs
	var beginningOffset int64
	if start < r.opts.StartupSnapMs {
		beginningOffset = start
		start = 0
	}

	return &PlayableItem{
		Kind:              models.ItemKindContent,
		ProgramID:         item.Program.ID,
		Title:             item.Program.Title,
		SourceRef:         item.Program.SourceRef,
		StartMs:           start,
		BeginningOffsetMs: beginningOffset,
		DurationMs:        item.DurationMs,
		StreamDurationMs:  item.DurationMs - start,
	}
}

// resolveGap fills an offline stretch: a weighted filler pick if one is
// eligible, else the channel's fallback clip shown mid-progress, else a
// bounded offline placeholder.
func (r *Resolver) resolveGap(pos *Position, ch *models.Channel, collections []models.FillerCollection, history History, isFirst bool, nowMs int64) *PlayableItem {
	remaining := pos.Item.DurationMs - pos.TimeElapsedMs
	if remaining <= 0 {
		remaining = r.opts.OfflineCapMs
	}

	maxDuration := remaining
	if isFirst {
		// A brand-new viewer tuning in mid-gap still deserves a filler even
		// when the gap remainder is tiny
		maxDuration += r.opts.NewViewerGraceMs
	}

	result := r.picker.Pick(ch, collections, history, maxDuration, nowMs)
	if result.Program != nil {
		return r.playFiller(result, remaining, isFirst)
	}

	if result.MinimumWaitMs > 0 && result.MinimumWaitMs < remaining {
		// Revisit the gap as soon as the nearest cooldown expires
		remaining = result.MinimumWaitMs
	}

	if ch.OfflineMode == models.OfflineModeClip && len(ch.Fallback) > 0 {
		return r.playFallback(&ch.Fallback[0], pos.TimeElapsedMs, remaining)
	}

	return r.offlinePlaceholder(remaining)
}

func (r *Resolver) playFiller(result PickResult, remaining int64, isFirst bool) *PlayableItem {
	clip := result.Program

	var start int64
	if isFirst {
		// Start the very first filler a viewer sees partway through, so
		// channels don't all appear to open on the top of a commercial
		margin := r.opts.FillerStartMarginMs + r.opts.SlackMs
		if span := clip.DurationMs - margin; span > 0 {
			r.mu.Lock()
			start = r.rng.Int63n(span)
			r.mu.Unlock()
		}
	}

	streamDuration := clip.DurationMs - start
	if !isFirst && streamDuration > remaining {
		streamDuration = remaining
	}

	return &PlayableItem{
		Kind:             models.ItemKindContent,
		ProgramID:        clip.ID,
		Title:            clip.Title,
		SourceRef:        clip.SourceRef,
		FillerListID:     result.FillerListID,
		StartMs:          start,
		DurationMs:       clip.DurationMs,
		StreamDurationMs: streamDuration,
	}
}

// playFallback loops the channel's fallback clip, offset so it appears to
// already be in progress rather than restarting for every viewer.
func (r *Resolver) playFallback(fallback *models.Program, gapElapsed, remaining int64) *PlayableItem {
	var start int64
	if fallback.DurationMs > 0 {
		start = gapElapsed % fallback.DurationMs
	}
	streamDuration := fallback.DurationMs - start
	if streamDuration > remaining {
		streamDuration = remaining
	}
	return &PlayableItem{
		Kind:             models.ItemKindContent,
		ProgramID:        fallback.ID,
		Title:            fallback.Title,
		SourceRef:        fallback.SourceRef,
		StartMs:          start,
		DurationMs:       fallback.DurationMs,
		StreamDurationMs: streamDuration,
	}
}

// offlinePlaceholder emits dead air capped at the configured maximum; the
// schedule may well have changed before a longer gap would have elapsed.
func (r *Resolver) offlinePlaceholder(gapMs int64) *PlayableItem {
	if gapMs > r.opts.OfflineCapMs || gapMs <= 0 {
		gapMs = r.opts.OfflineCapMs
	}
	return &PlayableItem{
		Kind:             models.ItemKindOffline,
		DurationMs:       gapMs,
		StreamDurationMs: gapMs,
	}
}
