package core

import (
	"context"
	"errors"

	"github.com/vovakirdan/wirecast-server/internal/store"
)

// handleStartStream moves an idle stream live. Only the owner may start it.
func (h *Hub) handleStartStream(ctx context.Context, c *Client, streamID string) {
	if c.Identity == nil {
		h.sendError(c, coreError(ErrCodeUnauthorized, "authentication required to start a stream"))
		return
	}

	st, err := h.store.GetStream(ctx, streamID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.storageFailed("get_stream", streamID, err)
		}
		h.sendError(c, coreError(ErrCodeStreamNotFound, "stream unavailable"))
		return
	}
	if st.UserID != c.Identity.UserID {
		h.sendError(c, coreError(ErrCodeUnauthorized, "only the stream owner can start it"))
		return
	}

	switch st.Status {
	case store.StreamStatusEnded:
		h.sendError(c, coreError(ErrCodeStreamEnded, "stream has ended"))
		return
	case store.StreamStatusLive:
		// Broadcaster reconnected: re-attach without announcing again.
		if err := h.registry.MarkBroadcaster(streamID, c); err != nil {
			return
		}
		h.send(c, &Event{Kind: EventStreamStarted, Room: streamID})
		return
	}

	now := h.now().UTC()
	live := store.StreamStatusLive
	if err := h.store.UpdateStreamCounters(ctx, streamID, store.StreamUpdate{
		Status:    &live,
		StartedAt: &now,
	}); err != nil {
		h.storageFailed("start_stream", streamID, err)
		h.sendError(c, coreError(ErrCodeStartFailed, "stream could not be started"))
		return
	}

	if err := h.registry.MarkBroadcaster(streamID, c); err != nil {
		return
	}
	h.send(c, &Event{Kind: EventStreamStarted, Room: streamID})
	h.BroadcastAll(&Event{
		Kind:  EventNewLiveStream,
		Room:  streamID,
		User:  c.Identity.Public(),
		Title: st.Title,
	})

	h.log.Info().Str("stream_id", streamID).Int64("user_id", c.Identity.UserID).Msg("stream started")
}

// handleEndStream ends a live stream. Calls from anyone but the owner are ignored.
func (h *Hub) handleEndStream(ctx context.Context, c *Client, streamID string) {
	if c.Identity == nil {
		return
	}

	st, err := h.store.GetStream(ctx, streamID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.storageFailed("get_stream", streamID, err)
		}
		return
	}
	if st.UserID != c.Identity.UserID || st.Status != store.StreamStatusLive {
		return
	}

	now := h.now().UTC()
	var duration int64
	if st.StartedAt != nil {
		duration = int64(now.Sub(*st.StartedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
	}

	ended := store.StreamStatusEnded
	zero := 0
	if err := h.store.UpdateStreamCounters(ctx, streamID, store.StreamUpdate{
		Status:          &ended,
		EndedAt:         &now,
		DurationSeconds: &duration,
		ViewersCount:    &zero,
	}); err != nil {
		h.storageFailed("end_stream", streamID, err)
	}

	h.broadcastRoom(streamID, &Event{Kind: EventStreamEnded, Room: streamID, Duration: duration}, "")
	h.registry.Evict(streamID)

	if h.presence != nil {
		if err := h.presence.PublishCount(ctx, streamID, 0); err != nil {
			h.log.Warn().Err(err).Str("stream_id", streamID).Msg("presence publish failed")
		}
	}

	h.log.Info().Str("stream_id", streamID).Int64("duration", duration).Msg("stream ended")
}
