package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecast-server/internal/core"
	"github.com/vovakirdan/wirecast-server/internal/store"
)

const maxHistory = 200

// StreamHandlers provides HTTP handlers for stream endpoints.
type StreamHandlers struct {
	store    store.StreamStore
	registry *core.Registry
	log      *zerolog.Logger
}

// NewStreamHandlers creates a new stream handlers instance.
func NewStreamHandlers(st store.StreamStore, registry *core.Registry, logger *zerolog.Logger) *StreamHandlers {
	return &StreamHandlers{store: st, registry: registry, log: logger}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateStreamRequest represents the create stream request body.
type CreateStreamRequest struct {
	Title string `json:"title" binding:"max=200"`
}

// StreamResponse represents a stream in API responses.
type StreamResponse struct {
	ID              string  `json:"id"`
	UserID          int64   `json:"user_id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	StartedAt       *string `json:"started_at,omitempty"`
	EndedAt         *string `json:"ended_at,omitempty"`
	DurationSeconds int64   `json:"duration_seconds"`
	ViewersCount    int     `json:"viewers_count"`
	PeakViewers     int     `json:"peak_viewers"`
	TotalViews      int64   `json:"total_views"`
	TotalTips       int64   `json:"total_tips"`
	Likes           int64   `json:"likes"`
	CreatedAt       string  `json:"created_at"`
}

// ViewersResponse is the instantaneous in-memory viewer count.
type ViewersResponse struct {
	StreamID     string `json:"stream_id"`
	ViewersCount int    `json:"viewers_count"`
}

// MessageResponse represents a chat message in API responses.
type MessageResponse struct {
	ID          int64  `json:"id"`
	UserID      *int64 `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
	Kind        string `json:"kind"`
	CreatedAt   string `json:"created_at"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func streamResponse(s *store.Stream) StreamResponse {
	return StreamResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		Title:           s.Title,
		Status:          string(s.Status),
		StartedAt:       formatTime(s.StartedAt),
		EndedAt:         formatTime(s.EndedAt),
		DurationSeconds: s.DurationSeconds,
		ViewersCount:    s.ViewersCount,
		PeakViewers:     s.PeakViewers,
		TotalViews:      s.TotalViews,
		TotalTips:       s.TotalTips,
		Likes:           s.Likes,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateStream registers an idle stream owned by the caller.
// POST /api/streams
func (h *StreamHandlers) CreateStream(c *gin.Context) {
	identity := identityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create stream request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	st := &store.Stream{ID: uuid.NewString(), UserID: identity.UserID, Title: req.Title}
	if err := h.store.CreateStream(c.Request.Context(), st); err != nil {
		h.log.Error().Err(err).Int64("user_id", identity.UserID).Msg("failed to create stream")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("stream_id", st.ID).Int64("user_id", identity.UserID).Msg("stream created")
	c.JSON(http.StatusCreated, streamResponse(st))
}

// GetStream returns the durable stream record.
// GET /api/streams/:id
func (h *StreamHandlers) GetStream(c *gin.Context) {
	st, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, streamResponse(st))
}

// Viewers returns the live count from the in-memory registry.
// GET /api/streams/:id/viewers
func (h *StreamHandlers) Viewers(c *gin.Context) {
	st, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ViewersResponse{StreamID: st.ID, ViewersCount: h.registry.CountOf(st.ID)})
}

// Messages returns recent chat history, oldest first.
// GET /api/streams/:id/messages?limit=50
func (h *StreamHandlers) Messages(c *gin.Context) {
	streamID := c.Param("id")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistory)
	}

	if _, ok := h.lookup(c); !ok {
		return
	}
	msgs, err := h.store.ListChatMessages(c.Request.Context(), streamID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("stream_id", streamID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, MessageResponse{
			ID:          m.ID,
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Content:     m.Content,
			Kind:        string(m.Kind),
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *StreamHandlers) lookup(c *gin.Context) (*store.Stream, bool) {
	streamID := c.Param("id")
	st, err := h.store.GetStream(c.Request.Context(), streamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "stream not found"})
			return nil, false
		}
		h.log.Error().Err(err).Str("stream_id", streamID).Msg("failed to load stream")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return st, true
}
