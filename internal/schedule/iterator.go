// Package schedule compiles declarative recurring time-slot schedules into
// the concrete lineups the playout engine loops over.
package schedule

import (
	"math/rand"

	"github.com/telecast-io/telecast/internal/models"
)

// Iterator is a stateful cursor over a pool of candidate programs for one
// scheduling slot. Implementations own their slice; no state is shared
// between iterators. Current returns nil for an empty pool.
type Iterator interface {
	Current() *models.Program
	Next()
	Reset()
}

// NewIterator builds an iterator for the given pool and ordering mode.
// rng drives shuffling; inject a seeded source for deterministic tests.
func NewIterator(pool []*models.Program, order models.OrderMode, chunkSize int, rng *rand.Rand) Iterator {
	owned := make([]*models.Program, len(pool))
	copy(owned, pool)

	switch order {
	case models.OrderModeShuffle:
		it := &shuffleIterator{items: owned, rng: rng}
		it.Reset()
		return it
	case models.OrderModeChunkShuffle:
		if chunkSize <= 1 {
			it := &shuffleIterator{items: owned, rng: rng}
			it.Reset()
			return it
		}
		it := &chunkShuffleIterator{items: owned, chunkSize: chunkSize, rng: rng}
		it.Reset()
		return it
	default:
		return &orderedIterator{items: owned}
	}
}

// orderedIterator walks the pool in its given order, wrapping at the end
type orderedIterator struct {
	items []*models.Program
	pos   int
}

func (it *orderedIterator) Current() *models.Program {
	if len(it.items) == 0 {
		return nil
	}
	return it.items[it.pos]
}

func (it *orderedIterator) Next() {
	if len(it.items) == 0 {
		return
	}
	it.pos = (it.pos + 1) % len(it.items)
}

func (it *orderedIterator) Reset() {
	it.pos = 0
}

// shuffleIterator reshuffles the whole pool on every complete pass
type shuffleIterator struct {
	items []*models.Program
	pos   int
	rng   *rand.Rand
}

func (it *shuffleIterator) Current() *models.Program {
	if len(it.items) == 0 {
		return nil
	}
	return it.items[it.pos]
}

func (it *shuffleIterator) Next() {
	if len(it.items) == 0 {
		return
	}
	it.pos++
	if it.pos >= len(it.items) {
		it.Reset()
	}
}

func (it *shuffleIterator) Reset() {
	it.pos = 0
	it.rng.Shuffle(len(it.items), func(i, j int) {
		it.items[i], it.items[j] = it.items[j], it.items[i]
	})
}

// chunkShuffleIterator shuffles the order of fixed-size chunks while keeping
// the programs inside each chunk in pool order, so multi-part stories stay
// together across a shuffled season
type chunkShuffleIterator struct {
	items     []*models.Program
	order     []int // permutation of chunk indexes
	chunkSize int
	chunk     int // index into order
	offset    int // position inside the current chunk
	rng       *rand.Rand
}

func (it *chunkShuffleIterator) chunkCount() int {
	return (len(it.items) + it.chunkSize - 1) / it.chunkSize
}

func (it *chunkShuffleIterator) chunkLen(chunkIdx int) int {
	start := chunkIdx * it.chunkSize
	n := len(it.items) - start
	if n > it.chunkSize {
		n = it.chunkSize
	}
	return n
}

func (it *chunkShuffleIterator) Current() *models.Program {
	if len(it.items) == 0 {
		return nil
	}
	chunkIdx := it.order[it.chunk]
	return it.items[chunkIdx*it.chunkSize+it.offset]
}

func (it *chunkShuffleIterator) Next() {
	if len(it.items) == 0 {
		return
	}
	it.offset++
	if it.offset < it.chunkLen(it.order[it.chunk]) {
		return
	}
	it.offset = 0
	it.chunk++
	if it.chunk >= len(it.order) {
		it.Reset()
	}
}

func (it *chunkShuffleIterator) Reset() {
	n := it.chunkCount()
	it.order = make([]int, n)
	for i := range it.order {
		it.order[i] = i
	}
	it.rng.Shuffle(n, func(i, j int) {
		it.order[i], it.order[j] = it.order[j], it.order[i]
	})
	it.chunk = 0
	it.offset = 0
}
