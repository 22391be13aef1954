package playout

import (
	"sort"

	"github.com/telecast-io/telecast/internal/models"
)

// ResolvePosition maps a wall-clock timestamp onto a position within a
// channel's looping lineup. This is a pure function with no I/O.
//
// Before the channel's start epoch (or when the channel's loop duration is
// non-positive) it returns a synthetic offline position with index -1.
// After the epoch it wraps the elapsed time modulo the loop duration and
// walks the lineup to the containing item. When the walk exhausts the lineup
// the channel's cached duration has diverged from the item sum and
// ErrLineupDrift is returned.
func ResolvePosition(ch *models.Channel, lineup []models.LineupItem, atMs, slackMs int64) (*Position, error) {
	if atMs < ch.StartTimeEpoch {
		return beforeStart(ch.StartTimeEpoch - atMs), nil
	}
	if ch.DurationMs <= 0 {
		// A loop with no length never starts
		return beforeStart(0), nil
	}
	if len(lineup) == 0 {
		return nil, ErrEmptyLineup
	}

	elapsed := (atMs - ch.StartTimeEpoch) % ch.DurationMs

	var accumulated int64
	for i := range lineup {
		d := lineup[i].DurationMs
		if elapsed < accumulated+d {
			return snapForward(lineup, i, elapsed-accumulated, slackMs), nil
		}
		accumulated += d
	}

	return nil, ErrLineupDrift
}

// snapForward applies the slack rule: when only a sliver of a long item
// remains, report the next item (wrapping) at offset zero instead of
// spinning up a pipeline for the last couple of seconds.
func snapForward(lineup []models.LineupItem, idx int, timeElapsed, slackMs int64) *Position {
	d := lineup[idx].DurationMs
	if d > 2*slackMs && timeElapsed >= d-slackMs {
		next := (idx + 1) % len(lineup)
		return &Position{Index: next, Item: lineup[next], TimeElapsedMs: 0}
	}
	return &Position{Index: idx, Item: lineup[idx], TimeElapsedMs: timeElapsed}
}

func beforeStart(gapMs int64) *Position {
	return &Position{
		Index: -1,
		Item: models.LineupItem{
			Kind:       models.ItemKindOffline,
			DurationMs: gapMs,
		},
		TimeElapsedMs: 0,
	}
}

// LineupIndex precomputes cumulative offsets over a lineup so positions can
// be resolved by binary search instead of a linear walk. For every input it
// returns exactly the result ResolvePosition would.
type LineupIndex struct {
	items   []models.LineupItem
	offsets []int64 // offsets[i] is the loop offset at which item i begins
	totalMs int64
}

// NewLineupIndex builds the cumulative-offset index for a lineup
func NewLineupIndex(lineup []models.LineupItem) *LineupIndex {
	offsets := make([]int64, len(lineup))
	var total int64
	for i := range lineup {
		offsets[i] = total
		total += lineup[i].DurationMs
	}
	return &LineupIndex{items: lineup, offsets: offsets, totalMs: total}
}

// ResolvePosition resolves a timestamp against the indexed lineup
func (ix *LineupIndex) ResolvePosition(ch *models.Channel, atMs, slackMs int64) (*Position, error) {
	if atMs < ch.StartTimeEpoch {
		return beforeStart(ch.StartTimeEpoch - atMs), nil
	}
	if ch.DurationMs <= 0 {
		return beforeStart(0), nil
	}
	if len(ix.items) == 0 {
		return nil, ErrEmptyLineup
	}

	elapsed := (atMs - ch.StartTimeEpoch) % ch.DurationMs
	if elapsed >= ix.totalMs {
		return nil, ErrLineupDrift
	}

	// First item starting strictly after elapsed, minus one
	i := sort.Search(len(ix.offsets), func(i int) bool {
		return ix.offsets[i] > elapsed
	}) - 1

	return snapForward(ix.items, i, elapsed-ix.offsets[i], slackMs), nil
}
