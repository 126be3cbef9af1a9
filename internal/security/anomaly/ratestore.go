package anomaly

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateStore is the counter-store contract from spec.md §6: GET, atomic
// INCR returning the new value, and EXPIRE.
type RateStore interface {
	Get(ctx context.Context, key string) (int, error)
	Incr(ctx context.Context, key string) (int, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisRateStore implements RateStore against a go-redis client.
type RedisRateStore struct {
	client *redis.Client
}

// NewRedisRateStore builds a RateStore backed by the given Redis client.
func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{client: client}
}

// Get returns the current counter value, 0 if the key is absent.
func (s *RedisRateStore) Get(ctx context.Context, key string) (int, error) {
	n, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Incr atomically increments the counter and returns its new value.
func (s *RedisRateStore) Incr(ctx context.Context, key string) (int, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Expire sets a TTL on the key.
func (s *RedisRateStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}
