package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirecast-server/internal/store"
)

const (
	anonymousName = "anonymous"
	someoneName   = "someone"
)

// handle runs on the room worker for cmd.Room.
func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinStream:
		h.handleJoin(ctx, c, cmd.Room)
	case CommandLeaveStream:
		h.handleLeave(ctx, c, cmd.Room, false)
	case commandDisconnect:
		h.handleLeave(ctx, c, cmd.Room, true)
	case CommandChatMessage:
		h.handleChat(ctx, c, cmd)
	case CommandLike:
		h.handleLike(ctx, c, cmd.Room)
	case CommandSendTip:
		h.handleTip(ctx, c, cmd)
	case CommandStartStream:
		h.handleStartStream(ctx, c, cmd.Room)
	case CommandEndStream:
		h.handleEndStream(ctx, c, cmd.Room)
	default:
		h.log.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unhandled command")
	}
}

// liveStream loads the stream and reports whether it can be watched.
func (h *Hub) liveStream(ctx context.Context, streamID string) (*store.Stream, bool) {
	st, err := h.store.GetStream(ctx, streamID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.storageFailed("get_stream", streamID, err)
		}
		return nil, false
	}
	return st, st.Status == store.StreamStatusLive
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, streamID string) {
	if _, live := h.liveStream(ctx, streamID); !live {
		h.sendError(c, coreError(ErrCodeStreamNotFound, "stream unavailable"))
		return
	}

	count, added, err := h.registry.Join(streamID, c)
	if err != nil {
		// Connection went away while the join was queued.
		return
	}

	update := store.StreamUpdate{ViewersCount: &count, PeakViewers: &count}
	if added {
		update.TotalViewsDelta = 1
	}
	h.mirrorCount(ctx, streamID, count, update)

	h.broadcastRoom(streamID, &Event{Kind: EventViewerUpdate, Room: streamID, ViewersCount: count}, "")
	h.send(c, &Event{Kind: EventJoinedStream, Room: streamID, ViewersCount: count})

	h.log.Debug().Str("client_id", c.ID).Str("stream_id", streamID).Int("viewers", count).Msg("joined stream")
}

func (h *Hub) handleLeave(ctx context.Context, c *Client, streamID string, disconnect bool) {
	count, removed := h.registry.Leave(streamID, c.ID)
	if disconnect {
		h.registry.RemoveBroadcaster(streamID, c.ID)
	}
	if !removed {
		return
	}

	h.mirrorCount(ctx, streamID, count, store.StreamUpdate{ViewersCount: &count})
	h.broadcastRoom(streamID, &Event{Kind: EventViewerUpdate, Room: streamID, ViewersCount: count}, "")

	h.log.Debug().Str("client_id", c.ID).Str("stream_id", streamID).Int("viewers", count).Bool("disconnect", disconnect).Msg("left stream")
}

// mirrorCount persists the live count snapshot. Failures are logged only.
func (h *Hub) mirrorCount(ctx context.Context, streamID string, count int, update store.StreamUpdate) {
	if err := h.store.UpdateStreamCounters(ctx, streamID, update); err != nil {
		h.storageFailed("update_counters", streamID, err)
	}
	if h.presence != nil {
		if err := h.presence.PublishCount(ctx, streamID, count); err != nil {
			h.log.Warn().Err(err).Str("stream_id", streamID).Msg("presence publish failed")
		}
	}
}

func (h *Hub) handleChat(ctx context.Context, c *Client, cmd *Command) {
	content := strings.TrimSpace(cmd.Text)
	if content == "" {
		return
	}

	var userID *int64
	if c.Identity != nil {
		id := c.Identity.UserID
		userID = &id
	}
	msg := &store.ChatMessage{
		StreamID:    cmd.Room,
		UserID:      userID,
		DisplayName: c.DisplayName(anonymousName),
		Content:     content,
		Kind:        store.MessageKindText,
		CreatedAt:   h.now().UTC(),
	}
	h.persistAndBroadcastChat(ctx, msg, h.chatUser(c))
}

func (h *Hub) chatUser(c *Client) *PublicUser {
	if pub := c.Identity.Public(); pub != nil {
		return pub
	}
	return &PublicUser{Username: c.DisplayName(anonymousName)}
}

func (h *Hub) persistAndBroadcastChat(ctx context.Context, msg *store.ChatMessage, user *PublicUser) {
	if err := h.store.CreateChatMessage(ctx, msg); err != nil {
		h.storageFailed("create_chat_message", msg.StreamID, err)
	}
	h.broadcastRoom(msg.StreamID, &Event{
		Kind:    EventChatMessage,
		Room:    msg.StreamID,
		User:    user,
		Message: messageFromStore(msg),
	}, "")
}

func (h *Hub) handleLike(ctx context.Context, c *Client, streamID string) {
	// A client-supplied name is not an identity; anonymous likers stay "someone".
	name := someoneName
	if c.Identity != nil && c.Identity.Username != "" {
		name = c.Identity.Username
	}

	if err := h.store.UpdateStreamCounters(ctx, streamID, store.StreamUpdate{LikesDelta: 1}); err != nil {
		h.storageFailed("like", streamID, err)
	}
	h.broadcastRoom(streamID, &Event{
		Kind:     EventLikeReceived,
		Room:     streamID,
		User:     c.Identity.Public(),
		UserName: name,
	}, "")
}

func (h *Hub) handleTip(ctx context.Context, c *Client, cmd *Command) {
	if c.Identity == nil {
		h.sendError(c, coreError(ErrCodeUnauthorized, "authentication required to send tips"))
		return
	}
	if cmd.Amount <= 0 {
		h.sendError(c, coreError(ErrCodeValidation, "tip amount must be positive"))
		return
	}
	if _, live := h.liveStream(ctx, cmd.Room); !live {
		h.sendError(c, coreError(ErrCodeStreamNotFound, "tips are only accepted while the stream is live"))
		return
	}

	message := strings.TrimSpace(cmd.Text)
	tip := &store.Tip{
		StreamID:  cmd.Room,
		UserID:    c.Identity.UserID,
		Amount:    cmd.Amount,
		Message:   message,
		IsPublic:  !cmd.Private,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateTip(ctx, tip); err != nil {
		h.storageFailed("create_tip", cmd.Room, err)
		h.sendError(c, coreError(ErrCodeTipFailed, "tip could not be processed"))
		return
	}

	user := c.Identity.Public()
	name := c.Identity.Username
	if !tip.IsPublic {
		user = &PublicUser{Username: someoneName}
		name = someoneName
	}

	h.broadcastRoom(cmd.Room, &Event{
		Kind:   EventTipReceived,
		Room:   cmd.Room,
		User:   user,
		Amount: tip.Amount,
		Text:   message,
	}, "")

	content := fmt.Sprintf("tipped %d", tip.Amount)
	if message != "" {
		content += ": " + message
	}
	var chatUserID *int64
	if tip.IsPublic {
		id := tip.UserID
		chatUserID = &id
	}
	h.persistAndBroadcastChat(ctx, &store.ChatMessage{
		StreamID:    cmd.Room,
		UserID:      chatUserID,
		DisplayName: name,
		Content:     content,
		Kind:        store.MessageKindTip,
		CreatedAt:   tip.CreatedAt,
	}, user)
}
