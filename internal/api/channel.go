package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/airwavetv/airwave/internal/logger"
	"github.com/airwavetv/airwave/internal/schedule"
	"github.com/gin-gonic/gin"
)

// Playback states reported by the now-playing endpoint
const (
	playbackStatePlaying = "playing"
	playbackStateIdle    = "idle"
)

// ChannelSummary represents a channel in list responses
type ChannelSummary struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	EntryCount           int       `json:"entry_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// ChannelListResponse represents the channel listing together with the
// library-wide duration total
type ChannelListResponse struct {
	Channels             []*ChannelSummary `json:"channels"`
	TotalDurationSeconds float64           `json:"total_duration_seconds"`
}

// ChannelDetailResponse represents one channel with its full catalog
type ChannelDetailResponse struct {
	Name                 string          `json:"name"`
	TotalDurationSeconds float64         `json:"total_duration_seconds"`
	Entries              []catalog.Entry `json:"entries"`
}

// NowPlayingResponse represents the resolved playback position of a channel.
// An idle state means the channel has no content to schedule; it is not an
// error.
type NowPlayingResponse struct {
	Channel  string             `json:"channel"`
	State    string             `json:"state"`
	Position *schedule.Position `json:"position,omitempty"`
}

// ChannelHandler handles channel-related API requests
type ChannelHandler struct {
	scheduleService *schedule.Service
	index           *catalog.Index
}

// NewChannelHandler creates a new channel handler instance
func NewChannelHandler(scheduleService *schedule.Service, index *catalog.Index) *ChannelHandler {
	return &ChannelHandler{
		scheduleService: scheduleService,
		index:           index,
	}
}

// ListChannels handles GET /api/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.scheduleService.Channels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list channels",
		})
		return
	}

	response := ChannelListResponse{Channels: make([]*ChannelSummary, 0, len(channels))}
	for _, ch := range channels {
		entries := h.index.EntriesFor(ch.Name)
		total := h.index.TotalDuration(ch.Name)
		response.TotalDurationSeconds += total
		response.Channels = append(response.Channels, &ChannelSummary{
			ID:                   ch.ID.String(),
			Name:                 ch.Name,
			Description:          ch.Description,
			TotalDurationSeconds: total,
			EntryCount:           len(entries),
			CreatedAt:            ch.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetChannel handles GET /api/channels/:name
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	name := c.Param("name")

	entries, total, err := h.scheduleService.ChannelCatalog(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, schedule.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "channel_not_found",
				Message: "Channel does not exist: " + name,
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("channel", name).
			Msg("Failed to load channel catalog")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load channel catalog",
		})
		return
	}

	c.JSON(http.StatusOK, ChannelDetailResponse{
		Name:                 name,
		TotalDurationSeconds: total,
		Entries:              entries,
	})
}

// NowPlaying handles GET /api/channels/:name/now
func (h *ChannelHandler) NowPlaying(c *gin.Context) {
	name := c.Param("name")

	pos, err := h.scheduleService.NowPlaying(c.Request.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrChannelNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "channel_not_found",
				Message: "Channel does not exist: " + name,
			})
		case errors.Is(err, schedule.ErrNoContent):
			// No content is an idle state, not a failure
			c.JSON(http.StatusOK, NowPlayingResponse{
				Channel: name,
				State:   playbackStateIdle,
			})
		default:
			logger.Log.Error().
				Err(err).
				Str("channel", name).
				Msg("Failed to resolve channel position")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to resolve channel position",
			})
		}
		return
	}

	c.JSON(http.StatusOK, NowPlayingResponse{
		Channel:  name,
		State:    playbackStatePlaying,
		Position: pos,
	})
}

// SetupChannelRoutes registers channel routes
func SetupChannelRoutes(apiGroup *gin.RouterGroup, scheduleService *schedule.Service, index *catalog.Index) {
	handler := NewChannelHandler(scheduleService, index)
	apiGroup.GET("/channels", handler.ListChannels)
	apiGroup.GET("/channels/:name", handler.GetChannel)
	apiGroup.GET("/channels/:name/now", handler.NowPlaying)
}
