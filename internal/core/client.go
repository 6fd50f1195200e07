package core

import "sync/atomic"

const defaultClientBuffer = 64

// Client is a viewer or broadcaster connection as seen by the core layer.
type Client struct {
	ID       string
	Name     string    // client-supplied display name, may be empty
	Identity *Identity // nil when anonymous
	Events   chan *Event

	// closed is guarded by the registry's connection shard lock.
	closed  bool
	dropped atomic.Int64
}

// NewClient constructs a client with a bounded outbound buffer.
func NewClient(id, name string, identity *Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Name:     name,
		Identity: identity,
		Events:   make(chan *Event, buffer),
	}
}

// DisplayName picks the authenticated name, then the client-supplied one.
func (c *Client) DisplayName(fallback string) string {
	if c.Identity != nil && c.Identity.Username != "" {
		return c.Identity.Username
	}
	if c.Name != "" {
		return c.Name
	}
	return fallback
}

// Authenticated reports whether the connection carries an identity.
func (c *Client) Authenticated() bool {
	return c.Identity != nil
}

// Dropped returns how many events were discarded for this client.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

// Send queues ev without blocking. When the buffer is full the oldest queued
// event is discarded to make room. Returns false if ev could not be queued or
// an older event was dropped.
func (c *Client) Send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
	}

	select {
	case <-c.Events:
		c.dropped.Add(1)
	default:
	}

	select {
	case c.Events <- ev:
	default:
		c.dropped.Add(1)
	}
	return false
}
