package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vovakirdan/wirecast-server/internal/config"
)

func TestStreamKey(t *testing.T) {
	if got := streamKey("abc"); got != "presence:stream:abc" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestEncodeUpdate(t *testing.T) {
	data, err := encodeUpdate(Update{StreamID: "s1", ViewersCount: 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["stream_id"] != "s1" || decoded["viewers_count"] != float64(3) {
		t.Fatalf("unexpected payload %s", data)
	}
	if _, ok := decoded["origin_instance_id"]; ok {
		t.Fatalf("empty instance id should be omitted: %s", data)
	}
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{Addr: "127.0.0.1:1"}, "test")
	if err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestPublishCountMirrorsAndAnnounces(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(config.RedisConfig{Addr: mr.Addr()}, "node-a")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := r.client.Subscribe(ctx, defaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := r.PublishCount(ctx, "s1", 3); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := mr.HGet(streamKey("s1"), "viewers_count"); got != "3" {
		t.Fatalf("expected viewers_count 3, got %q", got)
	}
	if got := mr.HGet(streamKey("s1"), "updated_at"); got != "1700000000" {
		t.Fatalf("unexpected updated_at %q", got)
	}
	if ok, _ := mr.IsMember(liveStreamsKey, "s1"); !ok {
		t.Fatalf("stream with viewers should be in the live set")
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var update Update
	if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if update != (Update{StreamID: "s1", ViewersCount: 3, OriginInstanceID: "node-a"}) {
		t.Fatalf("unexpected update %+v", update)
	}

	if err := r.PublishCount(ctx, "s1", 0); err != nil {
		t.Fatalf("publish zero: %v", err)
	}
	if got := mr.HGet(streamKey("s1"), "viewers_count"); got != "0" {
		t.Fatalf("expected viewers_count 0, got %q", got)
	}
	if ok, _ := mr.IsMember(liveStreamsKey, "s1"); ok {
		t.Fatalf("empty stream should leave the live set")
	}
	if _, err := sub.ReceiveMessage(ctx); err != nil {
		t.Fatalf("expected a second update: %v", err)
	}
}
