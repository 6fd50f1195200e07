package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	applog "github.com/vovakirdan/wirecast-server/internal/log"
	"github.com/vovakirdan/wirecast-server/internal/metrics"
	"github.com/vovakirdan/wirecast-server/internal/store"
)

const defaultRoomIdleTimeout = time.Minute

// Presence mirrors live viewer counts to an external store for readers
// outside this process. Implementations must not block for long.
type Presence interface {
	PublishCount(ctx context.Context, streamID string, count int) error
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithPresence mirrors viewer counts through p.
func WithPresence(p Presence) Option {
	return func(h *Hub) { h.presence = p }
}

// WithClock overrides time.Now, used for stream durations.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// WithRoomIdleTimeout sets how long an idle room worker lingers before exiting.
func WithRoomIdleTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.idleTimeout = d
		}
	}
}

// Hub routes client commands to per-room workers and fans out events.
// Every mutation of a room runs on that room's worker, so all members see
// room events in the same order. Unrelated rooms never wait on each other.
type Hub struct {
	registry    *Registry
	store       store.StreamStore
	presence    Presence
	metrics     *metrics.Metrics
	log         *zerolog.Logger
	now         func() time.Time
	idleTimeout time.Duration

	mu      sync.Mutex
	ctx     context.Context // cancelled when Run returns; workers exit on it
	cancel  context.CancelFunc
	workers map[string]*roomWorker
	wg      sync.WaitGroup

	clientsMu sync.RWMutex
	clients   map[string]*Client
}

// NewHub creates a hub backed by the given registry and store.
func NewHub(registry *Registry, st store.StreamStore, opts ...Option) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:    registry,
		store:       st,
		log:         applog.Nop(),
		now:         time.Now,
		idleTimeout: defaultRoomIdleTimeout,
		ctx:         ctx,
		cancel:      cancel,
		workers:     make(map[string]*roomWorker),
		clients:     make(map[string]*Client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry exposes the hub's room registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run blocks until ctx is cancelled, then stops every room worker, including
// ones started before Run, and waits for them to exit. A stopped hub drops
// further commands.
func (h *Hub) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-h.ctx.Done():
	}

	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()

	h.wg.Wait()
	h.log.Info().Msg("hub stopped")
}

// RegisterClient makes c reachable by global announcements.
func (h *Hub) RegisterClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c.ID] = c
	h.clientsMu.Unlock()
	h.metrics.ConnectionOpened()
	h.log.Debug().Str("client_id", c.ID).Bool("authenticated", c.Authenticated()).Msg("client registered")
}

// UnregisterClient treats the disconnect as an immediate leave from every
// room and broadcaster sub-room the client belongs to.
func (h *Hub) UnregisterClient(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.clientsMu.Unlock()
	if ok {
		h.metrics.ConnectionClosed()
	}

	for _, streamID := range h.registry.Close(c) {
		h.enqueue(c, &Command{Kind: commandDisconnect, Room: streamID})
	}
	h.log.Debug().Str("client_id", c.ID).Int64("dropped_events", c.Dropped()).Msg("client unregistered")
}

// Dispatch routes a client command. Signaling is relayed immediately from
// the caller's goroutine; everything else is queued on the room's worker.
func (h *Hub) Dispatch(c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	h.metrics.Inbound(cmd.Kind.String())
	if cmd.isSignal() {
		h.Relay(c, cmd)
		return
	}
	if cmd.Room == "" {
		h.sendError(c, coreError(ErrCodeBadRequest, "stream_id is required"))
		return
	}
	h.enqueue(c, cmd)
}

// BroadcastAll delivers ev to every connected client.
func (h *Hub) BroadcastAll(ev *Event) {
	h.clientsMu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.clientsMu.RUnlock()

	h.fanout(targets, ev, "")
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// broadcastRoom delivers ev to the stream's viewers and broadcasters.
func (h *Hub) broadcastRoom(streamID string, ev *Event, exclude string) {
	h.fanout(h.registry.Members(streamID), ev, exclude)
}

func (h *Hub) fanout(targets []*Client, ev *Event, exclude string) {
	for _, c := range targets {
		if c.ID == exclude {
			continue
		}
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	if !c.Send(ev) {
		h.metrics.EventDropped()
		h.log.Debug().Str("client_id", c.ID).Msg("client buffer full, dropped oldest event")
	}
}

func (h *Hub) sendError(c *Client, err *CoreError) {
	h.send(c, &Event{Kind: EventError, Error: err})
}

// storageFailed logs a store error. Storage failures never interrupt live delivery.
func (h *Hub) storageFailed(op, streamID string, err error) {
	h.metrics.StorageFailure(op)
	h.log.Error().Err(err).Str("op", op).Str("stream_id", streamID).Msg("storage call failed")
}
