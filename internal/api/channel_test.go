package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/models"
	"github.com/telecast-io/telecast/internal/playout"
	"github.com/telecast-io/telecast/internal/schedule"
)

// setupTestDB creates a migrated test database
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	cleanup := func() {
		_ = database.Close()
	}
	return database, repos, cleanup
}

// setupChannelTestRouter creates a test router with channel routes
func setupChannelTestRouter(repos *db.Repositories) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")

	channelService := channel.NewService(repos)
	compiler := schedule.NewCompiler(5000, rand.New(rand.NewSource(1)))
	cache := playout.NewStateCache(repos.Playback, 5000)
	lineupService := channel.NewLineupService(repos, compiler, cache)
	SetupChannelRoutes(apiGroup, channelService, lineupService)

	return router
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateChannelEndpoint(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	start := int64(1700000000000)
	w := postJSON(router, "/api/channels", CreateChannelRequest{
		Number:         4,
		Name:           "Retro Toons",
		StartTimeEpoch: &start,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp ChannelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Number)
	assert.Equal(t, "Retro Toons", resp.Name)
	assert.Equal(t, start, resp.StartTimeEpoch)
}

func TestCreateChannelEndpoint_DuplicateNumber(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	start := int64(0)
	w := postJSON(router, "/api/channels", CreateChannelRequest{Number: 4, Name: "One", StartTimeEpoch: &start})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "/api/channels", CreateChannelRequest{Number: 4, Name: "Two", StartTimeEpoch: &start})
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate_number", resp.Error)
}

func TestCreateChannelEndpoint_MissingFields(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	w := postJSON(router, "/api/channels", map[string]interface{}{"name": "No Number"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChannelEndpoint_InvalidID(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	req := httptest.NewRequest(http.MethodGet, "/api/channels/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetChannelEndpoint_NotFound(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	req := httptest.NewRequest(http.MethodGet, "/api/channels/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyScheduleEndpoint(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	show := "cartoons"
	for i := 0; i < 3; i++ {
		season, episode := 1, i+1
		p := models.NewProgram("cartoons", "cartoons/ep"+uuid.NewString(), 30*60*1000)
		p.ShowName = &show
		p.Season = &season
		p.Episode = &episode
		require.NoError(t, repos.Programs.Create(ctx, p))
	}

	w := postJSON(router, "/api/channels/"+ch.ID.String()+"/schedule", ScheduleRequest{
		Period: models.PeriodDay,
		Slots: []models.TimeSlot{{
			Kind:     models.SlotKindShow,
			ShowName: "cartoons",
			Order:    models.OrderModeOrdered,
		}},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp LineupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 48)
	assert.Equal(t, int64(24*60*60*1000), resp.TotalDuration)

	// The compiled lineup is readable through the lineup endpoint
	req := httptest.NewRequest(http.MethodGet, "/api/channels/"+ch.ID.String()+"/lineup", nil)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var lineup LineupResponse
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &lineup))
	assert.Len(t, lineup.Items, 48)
}

func TestApplyScheduleEndpoint_ChannelNotFound(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupChannelTestRouter(repos)

	w := postJSON(router, "/api/channels/"+uuid.NewString()+"/schedule", ScheduleRequest{
		Period: models.PeriodDay,
		Slots:  []models.TimeSlot{{Kind: models.SlotKindFlex}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
