package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// ProtocolVersion is advertised on /health.
	ProtocolVersion = 1

	InboundTypeJoinStream   = "join_stream"
	InboundTypeLeaveStream  = "leave_stream"
	InboundTypeChatMessage  = "chat_message"
	InboundTypeLike         = "like"
	InboundTypeSendTip      = "send_tip"
	InboundTypeStartStream  = "start_stream"
	InboundTypeEndStream    = "end_stream"
	InboundTypeWebRTCOffer  = "webrtc_offer"
	InboundTypeWebRTCAnswer = "webrtc_answer"
	InboundTypeWebRTCICE    = "webrtc_ice_candidate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventJoinedStream  = "joined_stream"
	EventViewerUpdate  = "viewer_update"
	EventChatMessage   = "chat_message"
	EventLikeReceived  = "like_received"
	EventTipReceived   = "tip_received"
	EventNewLiveStream = "new_live_stream"
	EventStreamStarted = "stream_started"
	EventStreamEnded   = "stream_ended"
	EventWebRTCOffer   = "webrtc_offer"
	EventWebRTCAnswer  = "webrtc_answer"
	EventWebRTCICE     = "webrtc_ice_candidate"
)

// StreamData addresses a stream. Used by join, leave, like, start and end.
type StreamData struct {
	StreamID string `json:"stream_id"`
}

// ChatData is a chat message from the client.
type ChatData struct {
	StreamID string `json:"stream_id"`
	Content  string `json:"content"`
}

// TipData pays the broadcaster. Amount is in minor currency units.
type TipData struct {
	StreamID string `json:"stream_id"`
	Amount   int64  `json:"amount"`
	Message  string `json:"message,omitempty"`
	Private  bool   `json:"private,omitempty"`
}

// SignalData carries an opaque WebRTC payload.
type SignalData struct {
	StreamID string          `json:"stream_id"`
	Payload  json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is the public projection of an identity.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// EventJoined acknowledges a join to the joiner.
type EventJoined struct {
	StreamID     string `json:"stream_id"`
	ViewersCount int    `json:"viewers_count"`
}

// EventViewers carries the room's live viewer count.
type EventViewers struct {
	StreamID     string `json:"stream_id"`
	ViewersCount int    `json:"viewers_count"`
}

// EventChat is a stored chat message.
type EventChat struct {
	ID          int64  `json:"id,omitempty"`
	StreamID    string `json:"stream_id"`
	UserID      *int64 `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	Content     string `json:"content"`
	Kind        string `json:"kind"`
	TS          int64  `json:"ts"`
	User        *User  `json:"user,omitempty"`
}

// EventLike announces a like.
type EventLike struct {
	StreamID string `json:"stream_id"`
	User     *User  `json:"user,omitempty"`
	Name     string `json:"name"`
}

// EventTip announces a tip.
type EventTip struct {
	StreamID string `json:"stream_id"`
	User     *User  `json:"user,omitempty"`
	Amount   int64  `json:"amount"`
	Message  string `json:"message,omitempty"`
}

// EventNewLive is sent to everyone when a stream goes live.
type EventNewLive struct {
	StreamID string `json:"stream_id"`
	User     *User  `json:"user,omitempty"`
	Title    string `json:"title"`
}

// EventStarted acknowledges start_stream.
type EventStarted struct {
	StreamID string `json:"stream_id"`
}

// EventEnded closes a broadcast. Duration is in seconds.
type EventEnded struct {
	StreamID string `json:"stream_id"`
	Duration int64  `json:"duration"`
}

// EventSignal relays an opaque WebRTC payload.
type EventSignal struct {
	StreamID string          `json:"stream_id"`
	Payload  json.RawMessage `json:"payload"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
