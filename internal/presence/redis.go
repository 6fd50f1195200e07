package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/wirecast-server/internal/config"
)

const (
	defaultChannel = "presence:stream_updates"
	liveStreamsKey = "presence:live_streams"
	publishTimeout = 500 * time.Millisecond
)

// Redis key patterns:
// presence:stream:{stream_id}   HASH        - viewers_count, updated_at
// presence:live_streams         SET<id>     - streams with at least one viewer

func streamKey(streamID string) string {
	return fmt.Sprintf("presence:stream:%s", streamID)
}

// Update is published on the channel whenever a stream's live count changes.
type Update struct {
	StreamID         string `json:"stream_id"`
	ViewersCount     int    `json:"viewers_count"`
	OriginInstanceID string `json:"origin_instance_id,omitempty"`
}

// Redis mirrors live viewer counts into Redis for readers outside the process.
type Redis struct {
	client     *redis.Client
	channel    string
	instanceID string
	now        func() time.Time
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg config.RedisConfig, instanceID string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	channel := cfg.Channel
	if channel == "" {
		channel = defaultChannel
	}

	return &Redis{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		now:        time.Now,
	}, nil
}

// PublishCount stores the count and announces it on the update channel.
func (r *Redis) PublishCount(ctx context.Context, streamID string, count int) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	data, err := encodeUpdate(Update{StreamID: streamID, ViewersCount: count, OriginInstanceID: r.instanceID})
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, streamKey(streamID), map[string]interface{}{
		"viewers_count": strconv.Itoa(count),
		"updated_at":    strconv.FormatInt(r.now().Unix(), 10),
	})
	if count > 0 {
		pipe.SAdd(ctx, liveStreamsKey, streamID)
	} else {
		pipe.SRem(ctx, liveStreamsKey, streamID)
	}
	pipe.Publish(ctx, r.channel, data)
	_, err = pipe.Exec(ctx)
	return err
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeUpdate(u Update) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
