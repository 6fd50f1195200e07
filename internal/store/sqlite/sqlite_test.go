package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirecast-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStream(t *testing.T, s *SQLiteStore, id string, owner int64) {
	t.Helper()
	if err := s.CreateStream(context.Background(), &store.Stream{ID: id, UserID: owner, Title: "test"}); err != nil {
		t.Fatalf("create stream: %v", err)
	}
}

func TestGetStreamNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetStream(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStreamCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStream(t, s, "s1", 7)

	live := store.StreamStatusLive
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	viewers := 3
	peak := 3
	if err := s.UpdateStreamCounters(ctx, "s1", store.StreamUpdate{
		Status:          &live,
		StartedAt:       &started,
		ViewersCount:    &viewers,
		PeakViewers:     &peak,
		TotalViewsDelta: 3,
		LikesDelta:      2,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A lower peak must not lower the high-water mark.
	lower := 1
	if err := s.UpdateStreamCounters(ctx, "s1", store.StreamUpdate{ViewersCount: &lower, PeakViewers: &lower}); err != nil {
		t.Fatalf("update: %v", err)
	}

	st, err := s.GetStream(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Status != store.StreamStatusLive {
		t.Fatalf("expected live, got %s", st.Status)
	}
	if st.StartedAt == nil || !st.StartedAt.Equal(started) {
		t.Fatalf("unexpected started_at: %v", st.StartedAt)
	}
	if st.ViewersCount != 1 || st.PeakViewers != 3 || st.TotalViews != 3 || st.Likes != 2 {
		t.Fatalf("unexpected counters: %+v", st)
	}
}

func TestUpdateUnknownStream(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateStreamCounters(context.Background(), "ghost", store.StreamUpdate{LikesDelta: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTipIncrementsTotal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStream(t, s, "s1", 7)

	for _, amount := range []int64{5, 12} {
		tip := &store.Tip{StreamID: "s1", UserID: 9, Amount: amount, IsPublic: true}
		if err := s.CreateTip(ctx, tip); err != nil {
			t.Fatalf("create tip: %v", err)
		}
		if tip.ID == 0 {
			t.Fatalf("expected tip id to be set")
		}
	}

	st, err := s.GetStream(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.TotalTips != 17 {
		t.Fatalf("expected total tips 17, got %d", st.TotalTips)
	}
	n, err := s.CountTips(ctx, "s1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 tips, got %d (%v)", n, err)
	}
}

func TestCreateTipRollsBackForUnknownStream(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.CreateTip(ctx, &store.Tip{StreamID: "ghost", UserID: 1, Amount: 3})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	n, err := s.CountTips(ctx, "ghost")
	if err != nil || n != 0 {
		t.Fatalf("expected no tips, got %d (%v)", n, err)
	}
}

func TestChatMessagesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStream(t, s, "s1", 7)

	uid := int64(4)
	msgs := []*store.ChatMessage{
		{StreamID: "s1", UserID: &uid, DisplayName: "dora", Content: "first"},
		{StreamID: "s1", DisplayName: "anonymous", Content: "second"},
		{StreamID: "s1", UserID: &uid, DisplayName: "dora", Content: "tipped 5", Kind: store.MessageKindTip},
	}
	for _, m := range msgs {
		if err := s.CreateChatMessage(ctx, m); err != nil {
			t.Fatalf("create chat: %v", err)
		}
	}

	got, err := s.ListChatMessages(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0].Content != "first" || got[0].Kind != store.MessageKindText || got[0].UserID == nil {
		t.Fatalf("unexpected first message: %+v", got[0])
	}
	if got[1].UserID != nil {
		t.Fatalf("anonymous message must have no user id: %+v", got[1])
	}
	if got[2].Kind != store.MessageKindTip {
		t.Fatalf("expected tip kind, got %s", got[2].Kind)
	}
}
