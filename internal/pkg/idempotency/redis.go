package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker is a Ledger backed by Redis SETNX, safe across instances.
type RedisTracker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a RedisTracker storing keys under "idempotency:".
func NewRedis(client redis.UniversalClient) *RedisTracker {
	return &RedisTracker{
		client: client,
		prefix: "idempotency:",
	}
}

// Claim sets the key only when absent.
func (s *RedisTracker) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}

	return s.client.SetNX(ctx, s.prefix+key, "claimed", normalizeTTL(ttl)).Result()
}
