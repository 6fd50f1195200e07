package http

import (
	"encoding/json"

	"github.com/vovakirdan/wirecast-server/internal/core"
	"github.com/vovakirdan/wirecast-server/internal/proto"
)

var streamCommands = map[string]core.CommandKind{
	proto.InboundTypeJoinStream:  core.CommandJoinStream,
	proto.InboundTypeLeaveStream: core.CommandLeaveStream,
	proto.InboundTypeLike:        core.CommandLike,
	proto.InboundTypeStartStream: core.CommandStartStream,
	proto.InboundTypeEndStream:   core.CommandEndStream,
}

var signalCommands = map[string]core.CommandKind{
	proto.InboundTypeWebRTCOffer:  core.CommandWebRTCOffer,
	proto.InboundTypeWebRTCAnswer: core.CommandWebRTCAnswer,
	proto.InboundTypeWebRTCICE:    core.CommandWebRTCICECandidate,
}

func missingStream() *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Message: "stream_id is required"}
}

// inboundToCommand decodes a client frame. A non-nil *proto.Error is a
// recoverable client mistake; a non-nil error means the frame was not JSON.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	if kind, ok := streamCommands[inbound.Type]; ok {
		var data proto.StreamData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.StreamID == "" {
			return nil, missingStream(), nil
		}
		return &core.Command{Kind: kind, Room: data.StreamID}, nil, nil
	}

	if kind, ok := signalCommands[inbound.Type]; ok {
		var data proto.SignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.StreamID == "" {
			return nil, missingStream(), nil
		}
		if len(data.Payload) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "payload is required"}, nil
		}
		return &core.Command{Kind: kind, Room: data.StreamID, Signal: data.Payload}, nil, nil
	}

	switch inbound.Type {
	case proto.InboundTypeChatMessage:
		var data proto.ChatData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.StreamID == "" {
			return nil, missingStream(), nil
		}
		return &core.Command{Kind: core.CommandChatMessage, Room: data.StreamID, Text: data.Content}, nil, nil
	case proto.InboundTypeSendTip:
		var data proto.TipData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Message: "invalid tip payload"}, nil
		}
		if data.StreamID == "" {
			return nil, missingStream(), nil
		}
		return &core.Command{
			Kind:    core.CommandSendTip,
			Room:    data.StreamID,
			Amount:  data.Amount,
			Text:    data.Message,
			Private: data.Private,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Message: "unknown message type"}, nil
	}
}

func publicUser(u *core.PublicUser) *proto.User {
	if u == nil {
		return nil
	}
	return &proto.User{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func event(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventJoinedStream:
		return event(proto.EventJoinedStream, proto.EventJoined{StreamID: ev.Room, ViewersCount: ev.ViewersCount})
	case core.EventViewerUpdate:
		return event(proto.EventViewerUpdate, proto.EventViewers{StreamID: ev.Room, ViewersCount: ev.ViewersCount})
	case core.EventChatMessage:
		msg := ev.Message
		return event(proto.EventChatMessage, proto.EventChat{
			ID:          msg.ID,
			StreamID:    msg.Room,
			UserID:      msg.UserID,
			DisplayName: msg.From,
			Content:     msg.Text,
			Kind:        string(msg.Kind),
			TS:          msg.CreatedAt.Unix(),
			User:        publicUser(ev.User),
		})
	case core.EventLikeReceived:
		return event(proto.EventLikeReceived, proto.EventLike{StreamID: ev.Room, User: publicUser(ev.User), Name: ev.UserName})
	case core.EventTipReceived:
		return event(proto.EventTipReceived, proto.EventTip{
			StreamID: ev.Room,
			User:     publicUser(ev.User),
			Amount:   ev.Amount,
			Message:  ev.Text,
		})
	case core.EventNewLiveStream:
		return event(proto.EventNewLiveStream, proto.EventNewLive{StreamID: ev.Room, User: publicUser(ev.User), Title: ev.Title})
	case core.EventStreamStarted:
		return event(proto.EventStreamStarted, proto.EventStarted{StreamID: ev.Room})
	case core.EventStreamEnded:
		return event(proto.EventStreamEnded, proto.EventEnded{StreamID: ev.Room, Duration: ev.Duration})
	case core.EventWebRTCOffer:
		return event(proto.EventWebRTCOffer, proto.EventSignal{StreamID: ev.Room, Payload: ev.Signal})
	case core.EventWebRTCAnswer:
		return event(proto.EventWebRTCAnswer, proto.EventSignal{StreamID: ev.Room, Payload: ev.Signal})
	case core.EventWebRTCICECandidate:
		return event(proto.EventWebRTCICE, proto.EventSignal{StreamID: ev.Room, Payload: ev.Signal})
	case core.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Message: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Message: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
