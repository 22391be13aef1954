package schedule

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
)

const dayMs = 24 * 60 * 60 * 1000

// ErrNoSlots is returned when a schedule defines no time slots
var ErrNoSlots = errors.New("schedule has no time slots")

// Pools maps a slot's pool key to its eligible programs, in pool order.
// The caller assembles this from the persistence layer before compiling.
type Pools map[string][]*models.Program

// Compiler turns a recurring time-slot schedule into a concrete, finite
// lineup covering a bounded future horizon. Compilation runs offline
// relative to playback; callers swap the result in atomically.
type Compiler struct {
	slackMs int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCompiler creates a schedule compiler. rng seeds shuffled iterators; it
// is only touched under the compiler's lock.
func NewCompiler(slackMs int64, rng *rand.Rand) *Compiler {
	return &Compiler{slackMs: slackMs, rng: rng}
}

// childRNG derives a generator for a single Compile call. The seed source is
// the only state compilations share, so concurrent compiles never contend on
// a live generator.
func (c *Compiler) childRNG() *rand.Rand {
	c.mu.Lock()
	seed := c.rng.Int63()
	c.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}

type paddedProgram struct {
	program *models.Program
	padMs   int64
}

func (p paddedProgram) totalMs() int64 {
	return p.program.DurationMs + p.padMs
}

// Compile materializes the schedule into lineup items from the start of the
// current period out to (MaxDays+1) days past the resolved start. It always
// terminates, never emits a non-positive item duration, and never extends
// past the horizon. Slots whose pool is empty become flex for that
// occurrence; slots running more than LatenessMs late are abandoned to flex
// so drift cannot compound.
//
// The returned start time is the absolute instant the first item begins;
// callers store it as the channel's new loop origin.
func (c *Compiler) Compile(sched *models.TimeSlotSchedule, pools Pools, nowMs int64) (int64, []models.LineupItem, error) {
	if len(sched.Slots) == 0 {
		return 0, nil, ErrNoSlots
	}

	period := sched.PeriodMs()
	slots := make([]models.TimeSlot, len(sched.Slots))
	copy(slots, sched.Slots)
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartOffsetMs < slots[j].StartOffsetMs
	})

	padMs := sched.PadMs
	if padMs < 1 {
		padMs = 1
	}
	maxDays := sched.MaxDays
	if maxDays < 0 {
		maxDays = 0
	}

	periodStart := (nowMs / period) * period
	t0 := periodStart + slots[0].StartOffsetMs
	if sched.StartTomorrow {
		t0 += dayMs
	}
	horizon := t0 + int64(maxDays+1)*dayMs
	pools = usablePools(pools)
	rng := c.childRNG()

	// Slots referencing the same pool with the same ordering share one
	// iterator, so back-to-back slots of a show don't replay an episode
	iterators := make(map[string]Iterator)
	iteratorFor := func(slot models.TimeSlot) Iterator {
		key := slot.IteratorKey()
		it, ok := iterators[key]
		if !ok {
			it = NewIterator(pools[slot.PoolKey()], slot.Order, slot.ChunkSize, rng)
			iterators[key] = it
		}
		return it
	}

	var items []models.LineupItem
	appendFlex := func(durationMs int64) {
		if durationMs > 0 {
			items = append(items, models.LineupItem{
				Kind:       models.ItemKindOffline,
				DurationMs: durationMs,
			})
		}
	}

	cursor := t0
	for cursor < horizon {
		slot, slotStartAbs, windowEndAbs := locateSlot(slots, period, periodStart, cursor)
		if windowEndAbs > horizon {
			windowEndAbs = horizon
		}
		remaining := windowEndAbs - cursor
		lateMs := cursor - slotStartAbs

		switch {
		case slot.Kind == models.SlotKindFlex:
			appendFlex(remaining)
			cursor = windowEndAbs
			continue

		case slot.Kind == models.SlotKindRedirect:
			if slot.RedirectChannelID == nil {
				appendFlex(remaining)
			} else {
				items = append(items, models.LineupItem{
					Kind:              models.ItemKindRedirect,
					DurationMs:        remaining,
					RedirectChannelID: slot.RedirectChannelID,
				})
			}
			cursor = windowEndAbs
			continue
		}

		if len(pools[slot.PoolKey()]) == 0 {
			logger.Log.Warn().
				Str("pool", slot.PoolKey()).
				Int64("slot_offset_ms", slot.StartOffsetMs).
				Msg("Time slot has no eligible programs, scheduling flex")
			appendFlex(remaining)
			cursor = windowEndAbs
			continue
		}

		if lateMs > sched.LatenessMs+c.slackMs {
			// Too far behind the nominal start; give this occurrence up
			// rather than let drift compound into the next slot
			appendFlex(remaining)
			cursor = windowEndAbs
			continue
		}

		it := iteratorFor(slot)
		first := it.Current()
		if first == nil {
			appendFlex(remaining)
			cursor = windowEndAbs
			continue
		}

		firstPadded := padProgram(first, padMs)
		if firstPadded.totalMs() > remaining {
			// Doesn't fit: push it anyway and overrun slightly, unless that
			// would carry the lineup past the horizon
			if cursor+first.DurationMs >= horizon {
				appendFlex(horizon - cursor)
				cursor = horizon
				continue
			}
			items = append(items, contentItem(first))
			it.Next()
			cursor += first.DurationMs
			continue
		}

		pending := []paddedProgram{firstPadded}
		used := firstPadded.totalMs()
		it.Next()
		for {
			next := it.Current()
			if next == nil {
				break
			}
			nextPadded := padProgram(next, padMs)
			if used+nextPadded.totalMs() > remaining {
				break
			}
			pending = append(pending, nextPadded)
			used += nextPadded.totalMs()
			it.Next()
		}

		leftover := remaining - used
		if sched.FlexPreference == models.FlexDistribute && padMs > 1 {
			leftover = distribute(pending, leftover, padMs)
		}

		for _, pp := range pending {
			items = append(items, contentItem(pp.program))
			if pp.padMs > 0 {
				appendFlex(pp.padMs)
			}
		}
		appendFlex(leftover)
		cursor = windowEndAbs
	}

	return t0, items, nil
}

// usablePools drops programs whose duration cannot advance the fill cursor.
// A non-positive-duration pull would repeat forever inside a slot window, so
// such programs are treated as if the library never offered them; a pool left
// empty falls through to the existing flex handling.
func usablePools(pools Pools) Pools {
	usable := make(Pools, len(pools))
	for key, programs := range pools {
		kept := make([]*models.Program, 0, len(programs))
		for _, p := range programs {
			if p != nil && p.DurationMs > 0 {
				kept = append(kept, p)
			}
		}
		if dropped := len(programs) - len(kept); dropped > 0 {
			logger.Log.Warn().
				Str("pool", key).
				Int("dropped", dropped).
				Msg("Ignoring programs without a positive duration")
		}
		usable[key] = kept
	}
	return usable
}

// locateSlot finds the slot whose window contains the cursor, checking the
// previous-cycle wraparound for cursors landing before the first slot's
// offset. Returns the slot, its absolute nominal start, and the absolute end
// of its window.
func locateSlot(slots []models.TimeSlot, period, periodStart, cursor int64) (models.TimeSlot, int64, int64) {
	rel := (cursor - periodStart) % period

	if rel < slots[0].StartOffsetMs {
		// Inside the tail of the last slot of the previous cycle
		last := slots[len(slots)-1]
		start := cursor - (rel + period - last.StartOffsetMs)
		end := cursor + (slots[0].StartOffsetMs - rel)
		return last, start, end
	}

	// Last slot whose offset is <= rel
	i := sort.Search(len(slots), func(i int) bool {
		return slots[i].StartOffsetMs > rel
	}) - 1

	start := cursor - (rel - slots[i].StartOffsetMs)
	var end int64
	if i == len(slots)-1 {
		end = cursor + (period - rel) + slots[0].StartOffsetMs
	} else {
		end = cursor + (slots[i+1].StartOffsetMs - rel)
	}
	return slots[i], start, end
}

// padProgram rounds a program up to the pad granularity, carrying the
// difference as trailing pad
func padProgram(p *models.Program, padMs int64) paddedProgram {
	total := p.DurationMs
	if padMs > 1 {
		if rem := total % padMs; rem != 0 {
			total += padMs - rem
		}
	}
	return paddedProgram{program: p, padMs: total - p.DurationMs}
}

// distribute spreads leftover window time across the slot's items as
// quantized pad chunks, least-padded items first. Returns whatever remainder
// was too small to quantize.
func distribute(pending []paddedProgram, leftover, padMs int64) int64 {
	if len(pending) == 0 {
		return leftover
	}
	for leftover >= padMs {
		min := 0
		for i := 1; i < len(pending); i++ {
			if pending[i].padMs < pending[min].padMs {
				min = i
			}
		}
		pending[min].padMs += padMs
		leftover -= padMs
	}
	return leftover
}

func contentItem(p *models.Program) models.LineupItem {
	id := p.ID
	return models.LineupItem{
		Kind:       models.ItemKindContent,
		DurationMs: p.DurationMs,
		ProgramID:  &id,
		Program:    p,
	}
}
