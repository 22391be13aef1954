package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/channel"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
	"github.com/telecast-io/telecast/internal/playout"
)

// Request/Response DTOs

// ErrorResponse represents an error in API responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DeleteResponse represents a successful deletion
type DeleteResponse struct {
	Message string `json:"message"`
}

// CreateChannelRequest represents a request to create a new channel
type CreateChannelRequest struct {
	Number         int     `json:"number" binding:"required,gte=1"`
	Name           string  `json:"name" binding:"required"`
	StartTimeEpoch *int64  `json:"start_time_epoch" binding:"required"`
	Icon           *string `json:"icon,omitempty"`
}

// UpdateChannelRequest represents a partial channel metadata update
type UpdateChannelRequest struct {
	Number                 *int                `json:"number,omitempty"`
	Name                   *string             `json:"name,omitempty"`
	Icon                   *string             `json:"icon,omitempty"`
	OfflineMode            *models.OfflineMode `json:"offline_mode,omitempty"`
	OfflinePicture         *string             `json:"offline_picture,omitempty"`
	FillerRepeatCooldownMs *int64              `json:"filler_repeat_cooldown_ms,omitempty"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID             string             `json:"id"`
	Number         int                `json:"number"`
	Name           string             `json:"name"`
	Icon           *string            `json:"icon,omitempty"`
	StartTimeEpoch int64              `json:"start_time_epoch"`
	DurationMs     int64              `json:"duration_ms"`
	OfflineMode    models.OfflineMode `json:"offline_mode"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ChannelListResponse represents a list of channels
type ChannelListResponse struct {
	Channels []*ChannelResponse `json:"channels"`
}

// LineupResponse represents a channel's compiled lineup
type LineupResponse struct {
	Items         []models.LineupItem `json:"items"`
	TotalDuration int64               `json:"total_duration_ms"`
}

// ScheduleRequest represents a request to store and compile a time-slot schedule
type ScheduleRequest struct {
	Period         models.SchedulePeriod `json:"period" binding:"required"`
	Slots          []models.TimeSlot     `json:"slots" binding:"required,min=1"`
	PadMs          int64                 `json:"pad_ms"`
	MaxDays        int                   `json:"max_days"`
	LatenessMs     int64                 `json:"lateness_ms"`
	FlexPreference models.FlexPreference `json:"flex_preference"`
	StartTomorrow  bool                  `json:"start_tomorrow"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	channelService *channel.Service
	lineupService  *channel.LineupService
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(channelService *channel.Service, lineupService *channel.LineupService) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		lineupService:  lineupService,
	}
}

// toChannelResponse converts a channel model to API response format
func toChannelResponse(ch *models.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:             ch.ID.String(),
		Number:         ch.Number,
		Name:           ch.Name,
		Icon:           ch.Icon,
		StartTimeEpoch: ch.StartTimeEpoch,
		DurationMs:     ch.DurationMs,
		OfflineMode:    ch.OfflineMode,
		CreatedAt:      ch.CreatedAt,
		UpdatedAt:      ch.UpdatedAt,
	}
}

// CreateChannel handles POST /api/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	newChannel, err := h.channelService.Create(ctx, req.Number, req.Name, *req.StartTimeEpoch)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Int("number", req.Number).
			Str("name", req.Name).
			Msg("Failed to create channel")

		if errors.Is(err, channel.ErrDuplicateChannelNumber) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_number",
				Message: "A channel with this number already exists",
			})
			return
		}

		if errors.Is(err, channel.ErrDuplicateChannelName) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create channel",
		})
		return
	}

	if req.Icon != nil {
		newChannel.Icon = req.Icon
		if err := h.channelService.Update(ctx, newChannel); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("channel_id", newChannel.ID.String()).
				Msg("Failed to set icon on new channel")
		}
	}

	logger.Log.Info().
		Str("channel_id", newChannel.ID.String()).
		Int("number", newChannel.Number).
		Str("name", newChannel.Name).
		Msg("Channel created successfully")

	c.JSON(http.StatusCreated, toChannelResponse(newChannel))
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channels, err := h.channelService.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel list",
		})
		return
	}

	responses := make([]*ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = toChannelResponse(ch)
	}

	c.JSON(http.StatusOK, ChannelListResponse{
		Channels: responses,
	})
}

// GetChannel handles GET /api/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
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
			Msg("Failed to get channel by ID")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel",
		})
		return
	}

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// UpdateChannel handles PUT /api/channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.channelService.GetByID(ctx, id)
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
			Msg("Failed to get channel for update")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve channel",
		})
		return
	}

	// Apply partial updates. StartTimeEpoch and DurationMs are owned by
	// lineup writes and cannot be edited here.
	if req.Number != nil {
		ch.Number = *req.Number
	}
	if req.Name != nil {
		ch.Name = *req.Name
	}
	if req.Icon != nil {
		ch.Icon = req.Icon
	}
	if req.OfflineMode != nil {
		ch.OfflineMode = *req.OfflineMode
	}
	if req.OfflinePicture != nil {
		ch.OfflinePicture = req.OfflinePicture
	}
	if req.FillerRepeatCooldownMs != nil {
		ch.FillerRepeatCooldownMs = *req.FillerRepeatCooldownMs
	}

	if err := h.channelService.Update(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to update channel")

		if errors.Is(err, channel.ErrDuplicateChannelNumber) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_number",
				Message: "A channel with this number already exists",
			})
			return
		}

		if errors.Is(err, channel.ErrDuplicateChannelName) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A channel with this name already exists",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update channel",
		})
		return
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel updated successfully")

	c.JSON(http.StatusOK, toChannelResponse(ch))
}

// DeleteChannel handles DELETE /api/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.channelService.Delete(ctx, id); err != nil {
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
			Msg("Failed to delete channel")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete channel",
		})
		return
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel deleted successfully")

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Channel deleted successfully",
	})
}

// GetLineup handles GET /api/channels/:id/lineup
func (h *ChannelHandler) GetLineup(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.lineupService.GetLineup(ctx, id)
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
			Msg("Failed to get lineup")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve lineup",
		})
		return
	}

	c.JSON(http.StatusOK, LineupResponse{
		Items:         items,
		TotalDuration: models.LineupDurationMs(items),
	})
}

// ApplySchedule handles POST /api/channels/:id/schedule. The schedule is
// stored, compiled against the current library, and the resulting lineup
// swapped in atomically.
func (h *ChannelHandler) ApplySchedule(c *gin.Context) {
	id, ok := parseChannelID(c)
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	sched := &models.TimeSlotSchedule{
		ID:             uuid.New(),
		ChannelID:      id,
		Period:         req.Period,
		Slots:          req.Slots,
		PadMs:          req.PadMs,
		MaxDays:        req.MaxDays,
		LatenessMs:     req.LatenessMs,
		FlexPreference: req.FlexPreference,
		StartTomorrow:  req.StartTomorrow,
	}

	if err := h.lineupService.SetSchedule(ctx, sched); err != nil {
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
			Msg("Failed to store schedule")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "schedule_failed",
			Message: "Failed to store schedule",
		})
		return
	}

	items, err := h.lineupService.ApplySchedule(ctx, id, playout.NowMs())
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to compile schedule")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "compile_failed",
			Message: "Failed to compile schedule into a lineup",
		})
		return
	}

	c.JSON(http.StatusOK, LineupResponse{
		Items:         items,
		TotalDuration: models.LineupDurationMs(items),
	})
}

// parseChannelID validates the :id path parameter, writing a 400 on failure
func parseChannelID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid channel ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// SetupChannelRoutes registers channel-related routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, channelService *channel.Service, lineupService *channel.LineupService) {
	handler := NewChannelHandler(channelService, lineupService)

	apiGroup.POST("/channels", handler.CreateChannel)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:id", handler.GetChannel)
	apiGroup.PUT("/channels/:id", handler.UpdateChannel)
	apiGroup.DELETE("/channels/:id", handler.DeleteChannel)

	apiGroup.GET("/channels/:id/lineup", handler.GetLineup)
	apiGroup.POST("/channels/:id/schedule", handler.ApplySchedule)
}
