package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirecast-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== Streams ====

// CreateStream inserts a new stream. Status defaults to idle.
func (s *SQLiteStore) CreateStream(ctx context.Context, stream *store.Stream) error {
	if stream.Status == "" {
		stream.Status = store.StreamStatusIdle
	}
	if stream.CreatedAt.IsZero() {
		stream.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO streams (id, user_id, title, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, stream.ID, stream.UserID, stream.Title, string(stream.Status), stream.CreatedAt); err != nil {
		return fmt.Errorf("insert stream: %w", err)
	}
	return nil
}

// GetStream retrieves a stream by ID.
func (s *SQLiteStore) GetStream(ctx context.Context, id string) (*store.Stream, error) {
	query := `
		SELECT id, user_id, title, status, started_at, ended_at, duration_seconds,
		       viewers_count, peak_viewers, total_views, total_tips, likes, created_at
		FROM streams
		WHERE id = ?
	`
	var (
		st        store.Stream
		status    string
		startedAt sql.NullTime
		endedAt   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&st.ID,
		&st.UserID,
		&st.Title,
		&status,
		&startedAt,
		&endedAt,
		&st.DurationSeconds,
		&st.ViewersCount,
		&st.PeakViewers,
		&st.TotalViews,
		&st.TotalTips,
		&st.Likes,
		&st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stream %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query stream: %w", err)
	}

	st.Status = store.StreamStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		st.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		st.EndedAt = &t
	}
	return &st, nil
}

// UpdateStreamCounters applies every set field of update in a single statement.
func (s *SQLiteStore) UpdateStreamCounters(ctx context.Context, id string, update store.StreamUpdate) error {
	if update.Empty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, update.StartedAt.UTC())
	}
	if update.EndedAt != nil {
		sets = append(sets, "ended_at = ?")
		args = append(args, update.EndedAt.UTC())
	}
	if update.DurationSeconds != nil {
		sets = append(sets, "duration_seconds = ?")
		args = append(args, *update.DurationSeconds)
	}
	if update.ViewersCount != nil {
		sets = append(sets, "viewers_count = ?")
		args = append(args, *update.ViewersCount)
	}
	if update.PeakViewers != nil {
		sets = append(sets, "peak_viewers = MAX(peak_viewers, ?)")
		args = append(args, *update.PeakViewers)
	}
	if update.TotalViewsDelta != 0 {
		sets = append(sets, "total_views = total_views + ?")
		args = append(args, update.TotalViewsDelta)
	}
	if update.LikesDelta != 0 {
		sets = append(sets, "likes = likes + ?")
		args = append(args, update.LikesDelta)
	}

	query := "UPDATE streams SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ==== Chat ====

// CreateChatMessage persists a chat message.
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, msg *store.ChatMessage) error {
	if msg.Kind == "" {
		msg.Kind = store.MessageKindText
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO chat_messages (stream_id, user_id, display_name, content, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	var userID sql.NullInt64
	if msg.UserID != nil {
		userID = sql.NullInt64{Int64: *msg.UserID, Valid: true}
	}
	result, err := s.db.ExecContext(ctx, query, msg.StreamID, userID, msg.DisplayName, msg.Content, string(msg.Kind), msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// ListChatMessages returns up to limit recent messages, oldest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, streamID string, limit int) ([]*store.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, stream_id, user_id, display_name, content, kind, created_at
		FROM chat_messages
		WHERE stream_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, streamID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		var (
			msg    store.ChatMessage
			userID sql.NullInt64
			kind   string
		)
		if err := rows.Scan(&msg.ID, &msg.StreamID, &userID, &msg.DisplayName, &msg.Content, &kind, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if userID.Valid {
			uid := userID.Int64
			msg.UserID = &uid
		}
		msg.Kind = store.MessageKind(kind)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	// Reverse to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ==== Tips ====

// CreateTip inserts the tip and bumps the stream's total in one transaction.
func (s *SQLiteStore) CreateTip(ctx context.Context, tip *store.Tip) error {
	if tip.Amount <= 0 {
		return fmt.Errorf("tip amount must be positive, got %d", tip.Amount)
	}
	if tip.CreatedAt.IsZero() {
		tip.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE streams SET total_tips = total_tips + ? WHERE id = ?
	`, tip.Amount, tip.StreamID)
	if err != nil {
		return fmt.Errorf("update stream tips: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %s: %w", tip.StreamID, store.ErrNotFound)
	}

	result, err = tx.ExecContext(ctx, `
		INSERT INTO tips (stream_id, user_id, amount, message, is_public, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tip.StreamID, tip.UserID, tip.Amount, tip.Message, tip.IsPublic, tip.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tip: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tip: %w", err)
	}
	tip.ID = id
	return nil
}

// CountTips returns the number of tip rows for a stream.
func (s *SQLiteStore) CountTips(ctx context.Context, streamID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tips WHERE stream_id = ?`, streamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tips: %w", err)
	}
	return n, nil
}

// Ensure SQLiteStore implements store.Store.
var _ store.Store = (*SQLiteStore)(nil)
