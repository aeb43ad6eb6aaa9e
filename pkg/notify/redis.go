package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridpool/gridpool/pkg/types"
)

// DefaultStream is the Redis stream notifications are appended to
// when no stream name is configured.
const DefaultStream = "gridpool:notifications"

// RedisNotifier appends notifications to a Redis stream for an
// external delivery service to consume. Retries and acknowledgement
// belong to that consumer, not to the engine.
type RedisNotifier struct {
	client *redis.Client
	stream string
}

// NewRedisNotifier creates a Redis-backed notifier.
func NewRedisNotifier(addr string, db int, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		stream: stream,
	}
}

// Notify appends the notification to the stream.
func (n *RedisNotifier) Notify(ctx context.Context, ev *types.NotificationEvent) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"type":      ev.Type,
			"state":     string(ev.State),
			"date":      ev.Date.Format(time.DateOnly),
			"message":   ev.Message,
			"recipient": ev.RecipientNetID,
		},
	}
	return n.client.XAdd(ctx, args).Err()
}

// Close releases the underlying Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
