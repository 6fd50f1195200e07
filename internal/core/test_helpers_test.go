package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirecast-server/internal/store"
	"github.com/vovakirdan/wirecast-server/internal/store/sqlite"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent fails if an event of kind arrives within a short window.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// drain discards everything currently queued for a client.
func drain(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedStream(t *testing.T, st store.StreamStore, id string, owner int64, status store.StreamStatus) {
	t.Helper()

	ctx := context.Background()
	if err := st.CreateStream(ctx, &store.Stream{ID: id, UserID: owner, Title: "title " + id}); err != nil {
		t.Fatalf("create stream: %v", err)
	}
	if status != store.StreamStatusIdle {
		started := time.Now().UTC()
		if err := st.UpdateStreamCounters(ctx, id, store.StreamUpdate{Status: &status, StartedAt: &started}); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
}

func startHub(t *testing.T, st store.StreamStore, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(NewRegistry(), st, opts...)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func viewer(id string) *Client {
	return NewClient(id, "", nil, 64)
}

func member(id string, userID int64, name string) *Client {
	return NewClient(id, "", &Identity{UserID: userID, Username: name, Active: true}, 64)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

var errStoreDown = errors.New("store down")

// failingStore wraps a store and fails writes on demand.
type failingStore struct {
	store.StreamStore

	mu         sync.Mutex
	failWrites bool
}

func (f *failingStore) setFailWrites(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

func (f *failingStore) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWrites
}

func (f *failingStore) UpdateStreamCounters(ctx context.Context, id string, u store.StreamUpdate) error {
	if f.failing() {
		return errStoreDown
	}
	return f.StreamStore.UpdateStreamCounters(ctx, id, u)
}

func (f *failingStore) CreateChatMessage(ctx context.Context, m *store.ChatMessage) error {
	if f.failing() {
		return errStoreDown
	}
	return f.StreamStore.CreateChatMessage(ctx, m)
}

func (f *failingStore) CreateTip(ctx context.Context, tip *store.Tip) error {
	if f.failing() {
		return errStoreDown
	}
	return f.StreamStore.CreateTip(ctx, tip)
}

// recordingPresence captures mirrored counts.
type recordingPresence struct {
	mu     sync.Mutex
	counts map[string][]int
}

func (p *recordingPresence) PublishCount(_ context.Context, streamID string, count int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = make(map[string][]int)
	}
	p.counts[streamID] = append(p.counts[streamID], count)
	return nil
}

func (p *recordingPresence) last(streamID string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.counts[streamID]
	if len(c) == 0 {
		return 0, false
	}
	return c[len(c)-1], true
}
