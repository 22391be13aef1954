package playout

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/models"
)

// setupService creates a playout service over a migrated test database
func setupService(t *testing.T) (*Service, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	rng := rand.New(rand.NewSource(1))
	picker := NewPicker(testCooldownMs, testSlackMs, rng)
	resolver := NewResolver(picker, ResolverOptions{SlackMs: testSlackMs}, rng)
	cache := NewStateCache(repos.Playback, testSlackMs)
	service := NewService(repos, cache, resolver, testSlackMs)

	cleanup := func() {
		_ = database.Close()
	}

	return service, repos, cleanup
}

func TestResolveNow_ChannelNotFound(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	_, err := service.ResolveNow(context.Background(), uuid.New(), 1000000, false)
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
}

func TestResolveNow_ContentMidItem(t *testing.T) {
	service, repos, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	program := models.NewProgram("Feature", "lib/feature", 30*minuteMs)
	require.NoError(t, repos.Programs.Create(ctx, program))

	startMs := int64(1700000000000)
	items := []models.LineupItem{*models.NewContentItem(ch.ID, 0, program)}
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, startMs, items))

	// Ten minutes into the only item
	item, err := service.ResolveNow(ctx, ch.ID, startMs+10*minuteMs, false)
	require.NoError(t, err)

	assert.Equal(t, models.ItemKindContent, item.Kind)
	assert.Equal(t, program.ID, item.ProgramID)
	assert.Equal(t, int64(10*minuteMs), item.StartMs)
	assert.Equal(t, int64(20*minuteMs), item.StreamDurationMs)

	// Playback state was persisted alongside the response
	state, err := repos.Playback.LoadState(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, state)
}

func TestResolveNow_SecondCallHitsCache(t *testing.T) {
	service, repos, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	program := models.NewProgram("Feature", "lib/feature", 30*minuteMs)
	require.NoError(t, repos.Programs.Create(ctx, program))

	startMs := int64(1700000000000)
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, startMs,
		[]models.LineupItem{*models.NewContentItem(ch.ID, 0, program)}))

	first, err := service.ResolveNow(ctx, ch.ID, startMs+10*minuteMs, false)
	require.NoError(t, err)

	// A reconnect moments later resumes the same decision unchanged
	second, err := service.ResolveNow(ctx, ch.ID, startMs+10*minuteMs+3000, false)
	require.NoError(t, err)

	assert.Equal(t, first.ProgramID, second.ProgramID)
	assert.Equal(t, first.StartMs, second.StartMs)
	assert.Equal(t, first.StreamDurationMs, second.StreamDurationMs)
}

func TestResolveNow_FillerFillsGap(t *testing.T) {
	service, repos, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	startMs := int64(1700000000000)
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, startMs,
		[]models.LineupItem{*models.NewOfflineItem(ch.ID, 0, 10*minuteMs)}))

	clip := models.NewProgram("Bumper", "filler/bumper", 30000)
	clip.IsFiller = true
	list := models.NewFillerList("bumpers")
	list.Programs = []models.Program{*clip}
	require.NoError(t, repos.Fillers.CreateList(ctx, list))
	require.NoError(t, repos.Fillers.Associate(ctx, models.NewFillerCollection(ch.ID, list.ID, 1)))

	item, err := service.ResolveNow(ctx, ch.ID, startMs+minuteMs, false)
	require.NoError(t, err)

	assert.Equal(t, models.ItemKindContent, item.Kind)
	assert.Equal(t, clip.ID, item.ProgramID)
	assert.Equal(t, list.ID, item.FillerListID)
	assert.Equal(t, int64(30000), item.StreamDurationMs)
}

func TestResolveNow_FreshChannelShowsBoundedOffline(t *testing.T) {
	service, repos, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	// No lineup yet: the channel degrades to a capped offline screen
	item, err := service.ResolveNow(ctx, ch.ID, 1700000000000, false)
	require.NoError(t, err)

	assert.Equal(t, models.ItemKindOffline, item.Kind)
	assert.Equal(t, int64(10*minuteMs), item.DurationMs)
}

func TestStopPlayback_ClearsState(t *testing.T) {
	service, repos, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	program := models.NewProgram("Feature", "lib/feature", 30*minuteMs)
	require.NoError(t, repos.Programs.Create(ctx, program))

	startMs := int64(1700000000000)
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, startMs,
		[]models.LineupItem{*models.NewContentItem(ch.ID, 0, program)}))

	_, err := service.ResolveNow(ctx, ch.ID, startMs+10*minuteMs, false)
	require.NoError(t, err)

	require.NoError(t, service.StopPlayback(ctx, ch.ID))

	state, err := repos.Playback.LoadState(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, state)
}
