package playout

import (
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
)

const (
	// neverPlayedMs stands in for clips with no play history, effectively
	// exempting them from cooldown
	neverPlayedMs = 7 * 24 * 60 * 60 * 1000

	// recencyCapMs caps how much recency can weigh a clip up
	recencyCapMs = 5 * 60 * 60 * 1000
)

// History exposes last-played lookups to the picker. Implemented by the
// playback-state cache, snapshotted per resolution.
type History interface {
	LastPlayed(channelID uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool)
}

// PickResult carries the picker's decision. Program is nil when nothing was
// eligible; MinimumWaitMs then reports the soonest a near-miss clip or list
// would become eligible (0 when none was observed), letting the resolver
// shrink the gap instead of looping with no candidate.
type PickResult struct {
	Program       *models.Program
	FillerListID  uuid.UUID
	MinimumWaitMs int64
}

// Picker selects filler clips by weighted random draw, gated by per-clip and
// per-list cooldowns. Selection is a running weighted reservoir: each
// eligible candidate flips a coin weighted by its share of the running
// total, and the last successful flip wins.
type Picker struct {
	defaultCooldownMs int64
	slackMs           int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a picker. rng drives all coin flips; inject a seeded
// source for deterministic tests. Production wraps a single locked generator.
func NewPicker(defaultCooldownMs, slackMs int64, rng *rand.Rand) *Picker {
	return &Picker{
		defaultCooldownMs: defaultCooldownMs,
		slackMs:           slackMs,
		rng:               rng,
	}
}

// Pick selects one filler clip fitting within maxDurationMs from the
// channel's filler collections, iterated in their configured order.
//
// Clips still inside their cooldown are skipped; when such a clip would
// become eligible within maxDurationMs its wait is folded into
// MinimumWaitMs. A list whose own cooldown has not elapsed is skipped
// entirely, its wait recorded the same way. The minimum wait is tracked
// globally across all lists.
func (p *Picker) Pick(ch *models.Channel, collections []models.FillerCollection, history History, maxDurationMs, nowMs int64) PickResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	cooldownMs := ch.EffectiveFillerCooldownMs(p.defaultCooldownMs)

	var (
		pick       *models.Program
		pickListID uuid.UUID
		minWait    int64 = math.MaxInt64
		listTotal  int64
	)

	for i := range collections {
		coll := &collections[i]
		if coll.List == nil || len(coll.List.Programs) == 0 {
			continue
		}
		weight := coll.Weight
		if weight < 1 {
			weight = 1
		}
		listTotal += weight

		// List-level cooldown gates the whole list
		if coll.CooldownSeconds > 0 {
			if last, ok := history.LastPlayed(ch.ID, models.HistoryKeyFillerList, coll.FillerListID); ok {
				listCooldownMs := coll.CooldownSeconds * 1000
				since := nowMs - last
				if since < listCooldownMs-p.slackMs {
					if wait := listCooldownMs - since; wait < minWait {
						minWait = wait
					}
					continue
				}
			}
		}

		// One weighted flip per list decides whether its clips may win
		considerList := p.flip(weight, listTotal)

		var clipTotal int64
		for j := range coll.List.Programs {
			clip := &coll.List.Programs[j]
			if clip.DurationMs > maxDurationMs+p.slackMs {
				continue
			}

			since := int64(neverPlayedMs)
			if last, ok := history.LastPlayed(ch.ID, models.HistoryKeyProgram, clip.ID); ok {
				since = nowMs - last
			}
			if since < cooldownMs-p.slackMs {
				// Near-miss: eligible again within the window we're filling
				if wait := cooldownMs - since; wait <= maxDurationMs && wait < minWait {
					minWait = wait
				}
				continue
			}

			if !considerList {
				continue
			}

			w := normRecency(since) + normDuration(clip.DurationMs)
			clipTotal += w
			if p.flip(w, clipTotal) {
				pick = clip
				pickListID = coll.FillerListID
			}
		}
	}

	if minWait == math.MaxInt64 {
		minWait = 0
	}
	return PickResult{Program: pick, FillerListID: pickListID, MinimumWaitMs: minWait}
}

// flip is a weighted coin: true with probability weight/total
func (p *Picker) flip(weight, total int64) bool {
	if total <= 0 {
		return false
	}
	if weight >= total {
		return true
	}
	return p.rng.Int63n(total) < weight
}

// normDuration compresses a clip duration into a small integer weight so
// raw millisecond magnitudes do not dominate the draw. Durations of three
// minutes and up are squashed logarithmically.
func normDuration(ms int64) int64 {
	minutes := float64(ms) / 60000.0
	if minutes >= 3.0 {
		minutes = 3.0 + math.Log(minutes)
	}
	b := int64(math.Ceil(minutes))
	if b < 1 {
		b = 1
	}
	return b
}

// normRecency buckets time-since-play into ten-minute steps, squared so
// long-unplayed clips pull ahead, capped at five hours
func normRecency(ms int64) int64 {
	if ms > recencyCapMs {
		ms = recencyCapMs
	}
	seconds := float64(ms) / 1000.0
	b := int64(math.Ceil(seconds / 600.0))
	if b < 1 {
		b = 1
	}
	return b * b
}
