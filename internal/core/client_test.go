package core

import "testing"

func TestClientSendDropsOldest(t *testing.T) {
	c := NewClient("c", "", nil, 2)

	c.Send(&Event{Kind: EventViewerUpdate, ViewersCount: 1})
	c.Send(&Event{Kind: EventViewerUpdate, ViewersCount: 2})
	if ok := c.Send(&Event{Kind: EventViewerUpdate, ViewersCount: 3}); ok {
		t.Fatalf("send into a full buffer must report the drop")
	}

	first := <-c.Events
	second := <-c.Events
	if first.ViewersCount != 2 || second.ViewersCount != 3 {
		t.Fatalf("expected newest events to survive, got %d and %d", first.ViewersCount, second.ViewersCount)
	}
	if c.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", c.Dropped())
	}
}

func TestClientDisplayName(t *testing.T) {
	if got := NewClient("a", "", nil, 1).DisplayName("anonymous"); got != "anonymous" {
		t.Fatalf("got %q", got)
	}
	if got := NewClient("a", "guest42", nil, 1).DisplayName("anonymous"); got != "guest42" {
		t.Fatalf("got %q", got)
	}
	id := &Identity{UserID: 1, Username: "alice"}
	if got := NewClient("a", "guest42", id, 1).DisplayName("anonymous"); got != "alice" {
		t.Fatalf("got %q", got)
	}
}
