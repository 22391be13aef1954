package channel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecast-io/telecast/internal/db"
)

// setupTestService creates a service with a migrated test database
func setupTestService(t *testing.T) (*Service, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	service := NewService(repos)

	cleanup := func() {
		_ = database.Close()
	}

	return service, repos, cleanup
}

func TestCreateChannel_Success(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ch, err := service.Create(context.Background(), 4, "Retro Toons", 1700000000000)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ch.ID)
	assert.Equal(t, 4, ch.Number)
	assert.Equal(t, "Retro Toons", ch.Name)
	assert.Equal(t, int64(1700000000000), ch.StartTimeEpoch)
	assert.Equal(t, int64(0), ch.DurationMs)
}

func TestCreateChannel_DuplicateNumber(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Create(context.Background(), 4, "Retro Toons", 0)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), 4, "Other Name", 0)
	assert.ErrorIs(t, err, ErrDuplicateChannelNumber)
}

func TestCreateChannel_DuplicateName(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.Create(context.Background(), 4, "Retro Toons", 0)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), 5, "retro toons", 0)
	assert.ErrorIs(t, err, ErrDuplicateChannelName)
}

func TestGetByID_NotFound(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestListChannels_OrderedByNumber(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Create(ctx, 9, "Nine", 0)
	require.NoError(t, err)
	_, err = service.Create(ctx, 2, "Two", 0)
	require.NoError(t, err)

	channels, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, 2, channels[0].Number)
	assert.Equal(t, 9, channels[1].Number)
}

func TestUpdateChannel_Success(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	ch, err := service.Create(ctx, 4, "Retro Toons", 0)
	require.NoError(t, err)

	ch.Name = "Saturday Morning"
	ch.FillerRepeatCooldownMs = 600000
	require.NoError(t, err)
	require.NoError(t, service.Update(ctx, ch))

	loaded, err := service.GetByID(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Saturday Morning", loaded.Name)
	assert.Equal(t, int64(600000), loaded.FillerRepeatCooldownMs)
}

func TestUpdateChannel_NumberCollision(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, err := service.Create(ctx, 4, "Four", 0)
	require.NoError(t, err)
	ch, err := service.Create(ctx, 5, "Five", 0)
	require.NoError(t, err)

	ch.Number = 4
	err = service.Update(ctx, ch)
	assert.ErrorIs(t, err, ErrDuplicateChannelNumber)
}

func TestDeleteChannel(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	ch, err := service.Create(ctx, 4, "Retro Toons", 0)
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, ch.ID))

	_, err = service.GetByID(ctx, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	err = service.Delete(ctx, ch.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}
