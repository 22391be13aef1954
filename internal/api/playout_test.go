package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/models"
	"github.com/telecast-io/telecast/internal/playout"
)

// setupPlayoutTestRouter creates a test router with playout routes
func setupPlayoutTestRouter(repos *db.Repositories) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")

	rng := rand.New(rand.NewSource(1))
	picker := playout.NewPicker(30*60*1000, 5000, rng)
	resolver := playout.NewResolver(picker, playout.ResolverOptions{SlackMs: 5000}, rng)
	cache := playout.NewStateCache(repos.Playback, 5000)
	SetupPlayoutRoutes(apiGroup, playout.NewService(repos, cache, resolver, 5000))

	return router
}

func TestGetNowEndpoint(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupPlayoutTestRouter(repos)

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	program := models.NewProgram("Feature", "lib/feature", 30*60*1000)
	require.NoError(t, repos.Programs.Create(ctx, program))

	// Loop started ten minutes ago
	startMs := playout.NowMs() - 10*60*1000
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, startMs,
		[]models.LineupItem{*models.NewContentItem(ch.ID, 0, program)}))

	req := httptest.NewRequest(http.MethodGet, "/api/channels/"+ch.ID.String()+"/now", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var item playout.PlayableItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, models.ItemKindContent, item.Kind)
	assert.Equal(t, program.ID, item.ProgramID)
	assert.InDelta(t, 10*60*1000, item.StartMs, 5000)
}

func TestGetNowEndpoint_NotFound(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupPlayoutTestRouter(repos)

	req := httptest.NewRequest(http.MethodGet, "/api/channels/"+uuid.NewString()+"/now", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopPlaybackEndpoint(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()
	router := setupPlayoutTestRouter(repos)

	ctx := context.Background()
	ch := models.NewChannel(4, "Retro Toons", 0)
	require.NoError(t, repos.Channels.Create(ctx, ch))

	program := models.NewProgram("Feature", "lib/feature", 30*60*1000)
	require.NoError(t, repos.Programs.Create(ctx, program))
	require.NoError(t, repos.Lineups.Replace(ctx, ch.ID, playout.NowMs()-60000,
		[]models.LineupItem{*models.NewContentItem(ch.ID, 0, program)}))

	req := httptest.NewRequest(http.MethodGet, "/api/channels/"+ch.ID.String()+"/now", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/channels/"+ch.ID.String()+"/now", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	state, err := repos.Playback.LoadState(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, state)
}
