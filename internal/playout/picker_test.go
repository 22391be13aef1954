package playout

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecast-io/telecast/internal/models"
)

const (
	testCooldownMs = 30 * 60 * 1000
	minuteMs       = 60 * 1000
)

type fakeHistory map[historyKey]int64

func (h fakeHistory) LastPlayed(_ uuid.UUID, kind models.HistoryKeyKind, keyID uuid.UUID) (int64, bool) {
	at, ok := h[historyKey{kind: kind, id: keyID}]
	return at, ok
}

func (h fakeHistory) setProgram(id uuid.UUID, atMs int64) {
	h[historyKey{kind: models.HistoryKeyProgram, id: id}] = atMs
}

func (h fakeHistory) setList(id uuid.UUID, atMs int64) {
	h[historyKey{kind: models.HistoryKeyFillerList, id: id}] = atMs
}

func fillerClip(title string, durationMs int64) models.Program {
	return models.Program{
		ID:         uuid.New(),
		Title:      title,
		SourceRef:  "filler/" + title,
		DurationMs: durationMs,
		IsFiller:   true,
	}
}

func fillerCollection(channelID uuid.UUID, weight int64, clips ...models.Program) models.FillerCollection {
	listID := uuid.New()
	return models.FillerCollection{
		ID:           uuid.New(),
		ChannelID:    channelID,
		FillerListID: listID,
		Weight:       weight,
		List: &models.FillerList{
			ID:       listID,
			Name:     "list",
			Programs: clips,
		},
	}
}

func testPicker(seed int64) *Picker {
	return NewPicker(testCooldownMs, testSlackMs, rand.New(rand.NewSource(seed)))
}

func TestPick_SingleEligibleClipAlwaysWins(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	p := testPicker(1)

	result := p.Pick(ch, []models.FillerCollection{coll}, fakeHistory{}, 5*minuteMs, 1000000)

	require.NotNil(t, result.Program)
	assert.Equal(t, "bumper", result.Program.Title)
	assert.Equal(t, coll.FillerListID, result.FillerListID)
	assert.Equal(t, int64(0), result.MinimumWaitMs)
}

func TestPick_ClipOnCooldownSkippedWithWait(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	p := testPicker(1)

	now := int64(100 * minuteMs)
	history := fakeHistory{}
	// Finished airing 25 minutes ago, 5 minutes of cooldown left
	history.setProgram(coll.List.Programs[0].ID, now-25*minuteMs)

	result := p.Pick(ch, []models.FillerCollection{coll}, history, 10*minuteMs, now)

	assert.Nil(t, result.Program)
	assert.Equal(t, int64(5*minuteMs), result.MinimumWaitMs)
}

func TestPick_CooldownExpiredClipEligibleAgain(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	p := testPicker(1)

	now := int64(100 * minuteMs)
	history := fakeHistory{}
	history.setProgram(coll.List.Programs[0].ID, now-31*minuteMs)

	result := p.Pick(ch, []models.FillerCollection{coll}, history, 10*minuteMs, now)

	require.NotNil(t, result.Program)
	assert.Equal(t, "bumper", result.Program.Title)
}

func TestPick_ChannelCooldownOverride(t *testing.T) {
	ch := &models.Channel{ID: uuid.New(), FillerRepeatCooldownMs: 10 * minuteMs}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	p := testPicker(1)

	now := int64(100 * minuteMs)
	history := fakeHistory{}
	// 15 minutes ago: inside the 30m default but outside the channel's 10m
	history.setProgram(coll.List.Programs[0].ID, now-15*minuteMs)

	result := p.Pick(ch, []models.FillerCollection{coll}, history, 10*minuteMs, now)

	require.NotNil(t, result.Program)
}

func TestPick_ClipLongerThanWindowSkipped(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1,
		fillerClip("long", 20*minuteMs),
		fillerClip("short", 30000),
	)
	p := testPicker(1)

	result := p.Pick(ch, []models.FillerCollection{coll}, fakeHistory{}, 5*minuteMs, 1000000)

	require.NotNil(t, result.Program)
	assert.Equal(t, "short", result.Program.Title)
	assert.Equal(t, int64(0), result.MinimumWaitMs)
}

func TestPick_ClipWithinSlackOfWindowStillFits(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 5*minuteMs+3000))
	p := testPicker(1)

	result := p.Pick(ch, []models.FillerCollection{coll}, fakeHistory{}, 5*minuteMs, 1000000)

	require.NotNil(t, result.Program)
}

func TestPick_ListCooldownGatesWholeList(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	coll.CooldownSeconds = 600
	p := testPicker(1)

	now := int64(100 * minuteMs)
	history := fakeHistory{}
	// The list aired 5 minutes ago; its clips are untouched
	history.setList(coll.FillerListID, now-5*minuteMs)

	result := p.Pick(ch, []models.FillerCollection{coll}, history, 10*minuteMs, now)

	assert.Nil(t, result.Program)
	assert.Equal(t, int64(5*minuteMs), result.MinimumWaitMs)
}

func TestPick_MinimumWaitIsGlobalAcrossLists(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	collA := fillerCollection(ch.ID, 1, fillerClip("a", 30000))
	collB := fillerCollection(ch.ID, 1, fillerClip("b", 30000))
	p := testPicker(1)

	now := int64(200 * minuteMs)
	history := fakeHistory{}
	history.setProgram(collA.List.Programs[0].ID, now-22*minuteMs) // 8m left
	history.setProgram(collB.List.Programs[0].ID, now-27*minuteMs) // 3m left

	result := p.Pick(ch, []models.FillerCollection{collA, collB}, history, 10*minuteMs, now)

	assert.Nil(t, result.Program)
	assert.Equal(t, int64(3*minuteMs), result.MinimumWaitMs)
}

func TestPick_WaitBeyondWindowNotReported(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	coll := fillerCollection(ch.ID, 1, fillerClip("bumper", 30000))
	p := testPicker(1)

	now := int64(100 * minuteMs)
	history := fakeHistory{}
	// 25 minutes of cooldown left, far past a 2-minute window
	history.setProgram(coll.List.Programs[0].ID, now-5*minuteMs)

	result := p.Pick(ch, []models.FillerCollection{coll}, history, 2*minuteMs, now)

	assert.Nil(t, result.Program)
	assert.Equal(t, int64(0), result.MinimumWaitMs)
}

func TestPick_EmptyCollections(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	p := testPicker(1)

	result := p.Pick(ch, nil, fakeHistory{}, 5*minuteMs, 1000000)

	assert.Nil(t, result.Program)
	assert.Equal(t, int64(0), result.MinimumWaitMs)
}

func TestPick_SeededDrawIsDeterministic(t *testing.T) {
	ch := &models.Channel{ID: uuid.New()}
	clips := []models.Program{
		fillerClip("one", 30000),
		fillerClip("two", 45000),
		fillerClip("three", 60000),
		fillerClip("four", 90000),
	}
	coll := fillerCollection(ch.ID, 1, clips...)

	first := testPicker(42).Pick(ch, []models.FillerCollection{coll}, fakeHistory{}, 5*minuteMs, 1000000)
	second := testPicker(42).Pick(ch, []models.FillerCollection{coll}, fakeHistory{}, 5*minuteMs, 1000000)

	require.NotNil(t, first.Program)
	require.NotNil(t, second.Program)
	assert.Equal(t, first.Program.ID, second.Program.ID)
}

func TestNormDuration_Buckets(t *testing.T) {
	assert.Equal(t, int64(1), normDuration(0))
	assert.Equal(t, int64(1), normDuration(30000))
	assert.Equal(t, int64(2), normDuration(90000))
	// Long durations are squashed logarithmically, not linearly
	assert.Less(t, normDuration(60*minuteMs), int64(10))
}

func TestNormRecency_CappedAndSquared(t *testing.T) {
	assert.Equal(t, int64(1), normRecency(0))
	// 20 minutes is two 10-minute buckets, squared
	assert.Equal(t, int64(4), normRecency(20*minuteMs))
	// Beyond the 5-hour cap recency stops growing
	assert.Equal(t, normRecency(5*60*minuteMs), normRecency(24*60*minuteMs))
}
