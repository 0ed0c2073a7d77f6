package authinfra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const usedTokenKeyPrefix = "auth:refresh:used:"

// RedisTokenStore tracks redeemed refresh tokens in Redis. SETNX gives the
// atomic first-writer-wins the rotation needs; the key expires with the
// token itself, so the set never grows past the live token window.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a new Redis-backed refresh token store.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// MarkUsed records the token id for ttl and reports whether this call was
// the first to do so.
func (s *RedisTokenStore) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.SetNX(ctx, usedTokenKeyPrefix+jti, 1, ttl).Result()
}
