package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoinedStream acknowledges a successful join to the joiner only.
	EventJoinedStream EventKind = iota
	// EventViewerUpdate carries the room's current viewer count.
	EventViewerUpdate
	// EventChatMessage delivers a stored chat message.
	EventChatMessage
	// EventLikeReceived announces a like.
	EventLikeReceived
	// EventTipReceived announces a tip.
	EventTipReceived
	// EventNewLiveStream is sent to every connection when a stream goes live.
	EventNewLiveStream
	// EventStreamStarted acknowledges start_stream to the broadcaster.
	EventStreamStarted
	// EventStreamEnded tells the room the broadcast is over.
	EventStreamEnded
	// EventWebRTCOffer relays an opaque offer.
	EventWebRTCOffer
	// EventWebRTCAnswer relays an opaque answer.
	EventWebRTCAnswer
	// EventWebRTCICECandidate relays an opaque ICE candidate.
	EventWebRTCICECandidate
	// EventError notifies a single client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind         EventKind
	Room         string
	ViewersCount int
	User         *PublicUser // nil for anonymous actors
	UserName     string      // display label when User is nil
	Message      Message     // EventChatMessage
	Amount       int64       // EventTipReceived
	Text         string      // tip message
	Title        string      // EventNewLiveStream
	Duration     int64       // EventStreamEnded, seconds
	Signal       json.RawMessage
	Error        *CoreError
}
