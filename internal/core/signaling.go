package core

// Relay forwards a WebRTC signaling payload without looking inside it.
// Offers and ICE candidates reach every other connection in the room;
// answers reach only the broadcaster sub-room. Membership of the sender
// is not checked: a sender outside the room simply has nobody to reach.
func (h *Hub) Relay(c *Client, cmd *Command) {
	if cmd.Room == "" {
		return
	}

	var (
		kind    EventKind
		targets []*Client
	)
	switch cmd.Kind {
	case CommandWebRTCOffer:
		kind, targets = EventWebRTCOffer, h.registry.Members(cmd.Room)
	case CommandWebRTCICECandidate:
		kind, targets = EventWebRTCICECandidate, h.registry.Members(cmd.Room)
	case CommandWebRTCAnswer:
		kind, targets = EventWebRTCAnswer, h.registry.Broadcasters(cmd.Room)
	default:
		return
	}

	h.fanout(targets, &Event{Kind: kind, Room: cmd.Room, Signal: cmd.Signal}, c.ID)
}
