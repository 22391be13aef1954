package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	database, _, cleanup := setupTestDB(t)
	defer cleanup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupHealthRoutes(router.Group("/api"), database)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "healthy", resp.Database)
	assert.NotEmpty(t, resp.Uptime)
	assert.Contains(t, resp.Details, "database_ping")
}

func TestHealthCheckDegraded(t *testing.T) {
	database, _, cleanup := setupTestDB(t)
	cleanup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupHealthRoutes(router.Group("/api"), database)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Database)
}
