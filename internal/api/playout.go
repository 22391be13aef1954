package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/playout"
)

// PlayoutHandler handles playout resolution requests
type PlayoutHandler struct {
	playoutService *playout.Service
}

// NewPlayoutHandler creates a new playout handler instance
func NewPlayoutHandler(playoutService *playout.Service) *PlayoutHandler {
	return &PlayoutHandler{playoutService: playoutService}
}

// GetNow handles GET /api/channels/:id/now. The `first` query parameter
// marks the request as a fresh tune-in, which enables the startup grace
// window and random filler entry points.
func (h *PlayoutHandler) GetNow(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	isFirst := c.Query("first") == "true" || c.Query("first") == "1"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.playoutService.ResolveNow(ctx, id, playout.NowMs(), isFirst)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Bool("first", isFirst).
			Msg("Failed to resolve current item")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "resolve_failed",
			Message: "Failed to resolve what is playing",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// StopPlayback handles DELETE /api/channels/:id/now, clearing the channel's
// cached playback state. Play history survives so cooldowns keep working.
func (h *PlayoutHandler) StopPlayback(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.playoutService.StopPlayback(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to stop playback")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stop_failed",
			Message: "Failed to stop playback",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Playback stopped",
	})
}

// SetupPlayoutRoutes registers playout resolution routes
func SetupPlayoutRoutes(apiGroup *gin.RouterGroup, playoutService *playout.Service) {
	handler := NewPlayoutHandler(playoutService)

	apiGroup.GET("/channels/:id/now", handler.GetNow)
	apiGroup.DELETE("/channels/:id/now", handler.StopPlayback)
}
