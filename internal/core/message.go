package core

import (
	"time"

	"github.com/vovakirdan/wirecast-server/internal/store"
)

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	UserID    *int64
	From      string
	Text      string
	Kind      store.MessageKind
	CreatedAt time.Time
}

func messageFromStore(m *store.ChatMessage) Message {
	return Message{
		ID:        m.ID,
		Room:      m.StreamID,
		UserID:    m.UserID,
		From:      m.DisplayName,
		Text:      m.Content,
		Kind:      m.Kind,
		CreatedAt: m.CreatedAt,
	}
}
