package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// StreamStatus is a stream's lifecycle state.
type StreamStatus string

const (
	StreamStatusIdle  StreamStatus = "idle"
	StreamStatusLive  StreamStatus = "live"
	StreamStatusEnded StreamStatus = "ended"
)

// Stream is the durable record of a broadcast.
type Stream struct {
	ID              string
	UserID          int64
	Title           string
	Status          StreamStatus
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds int64
	ViewersCount    int  // snapshot of the in-memory live count
	PeakViewers     int  // high-water mark
	TotalViews      int64
	TotalTips       int64
	Likes           int64
	CreatedAt       time.Time
}

// StreamUpdate describes counter and lifecycle changes for a stream.
// Nil pointers and zero deltas leave the column untouched.
type StreamUpdate struct {
	Status          *StreamStatus
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds *int64
	ViewersCount    *int
	// PeakViewers raises peak_viewers to max(current, value).
	PeakViewers     *int
	TotalViewsDelta int64
	LikesDelta      int64
}

// Empty reports whether the update changes nothing.
func (u StreamUpdate) Empty() bool {
	return u.Status == nil && u.StartedAt == nil && u.EndedAt == nil &&
		u.DurationSeconds == nil && u.ViewersCount == nil && u.PeakViewers == nil &&
		u.TotalViewsDelta == 0 && u.LikesDelta == 0
}

// MessageKind classifies chat messages.
type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindTip    MessageKind = "tip"
	MessageKindSystem MessageKind = "system"
)

// ChatMessage is an append-only chat record.
type ChatMessage struct {
	ID          int64
	StreamID    string
	UserID      *int64 // nil for anonymous authors
	DisplayName string
	Content     string
	Kind        MessageKind
	CreatedAt   time.Time
}

// Tip is an append-only record of a viewer paying a broadcaster.
type Tip struct {
	ID        int64
	StreamID  string
	UserID    int64
	Amount    int64 // minor currency units, always positive
	Message   string
	IsPublic  bool
	CreatedAt time.Time
}

// StreamStore is the durable collaborator used by the live hub.
type StreamStore interface {
	// CreateStream inserts a new stream in idle state.
	CreateStream(ctx context.Context, stream *Stream) error

	// GetStream retrieves a stream by ID. Returns ErrNotFound when missing.
	GetStream(ctx context.Context, id string) (*Stream, error)

	// UpdateStreamCounters applies lifecycle and counter changes atomically.
	UpdateStreamCounters(ctx context.Context, id string, update StreamUpdate) error

	// CreateChatMessage persists a chat message and fills in ID and CreatedAt.
	CreateChatMessage(ctx context.Context, msg *ChatMessage) error

	// ListChatMessages returns the most recent messages of a stream, oldest first.
	ListChatMessages(ctx context.Context, streamID string, limit int) ([]*ChatMessage, error)

	// CreateTip records a tip and increments the stream's total_tips in one transaction.
	CreateTip(ctx context.Context, tip *Tip) error
}

// Store aggregates all storage interfaces.
type Store interface {
	StreamStore

	// Close closes the underlying database connection.
	Close() error
}
