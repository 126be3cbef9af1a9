package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher adapts a go-redis client to the Publisher interface.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps client as a Publisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends payload on channel, best-effort from the caller's view —
// the error is returned so DispatchNotification can log and swallow it.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}
