package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinStream subscribes the client to a live stream's room.
	CommandJoinStream CommandKind = iota
	// CommandLeaveStream unsubscribes the client from a room.
	CommandLeaveStream
	// CommandChatMessage posts a chat message to a room.
	CommandChatMessage
	// CommandLike increments a stream's like counter.
	CommandLike
	// CommandSendTip pays the broadcaster.
	CommandSendTip
	// CommandStartStream moves a stream from idle to live.
	CommandStartStream
	// CommandEndStream moves a stream from live to ended.
	CommandEndStream
	// CommandWebRTCOffer relays an SDP offer to the room.
	CommandWebRTCOffer
	// CommandWebRTCAnswer relays an SDP answer to the broadcaster.
	CommandWebRTCAnswer
	// CommandWebRTCICECandidate relays an ICE candidate to the room.
	CommandWebRTCICECandidate

	// commandDisconnect is issued by the hub when a connection goes away.
	commandDisconnect
)

var commandNames = map[CommandKind]string{
	CommandJoinStream:         "join_stream",
	CommandLeaveStream:        "leave_stream",
	CommandChatMessage:        "chat_message",
	CommandLike:               "like",
	CommandSendTip:            "send_tip",
	CommandStartStream:        "start_stream",
	CommandEndStream:          "end_stream",
	CommandWebRTCOffer:        "webrtc_offer",
	CommandWebRTCAnswer:       "webrtc_answer",
	CommandWebRTCICECandidate: "webrtc_ice_candidate",
	commandDisconnect:         "disconnect",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string // stream id
	Text    string // chat content or tip message
	Amount  int64  // tip amount in minor units
	Private bool   // hide tipper identity from the room
	Signal  json.RawMessage
}

func (c *Command) isSignal() bool {
	switch c.Kind {
	case CommandWebRTCOffer, CommandWebRTCAnswer, CommandWebRTCICECandidate:
		return true
	}
	return false
}
