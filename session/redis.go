package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures reported by the Redis client.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisBackend is a Redis-backed [Backend]. Keys are written under prefix and,
// when ttl is positive, expire after ttl so abandoned browser sessions are reclaimed.
//
//	Performance: 1 Redis command per call.
type RedisBackend struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a [RedisBackend]. An empty prefix stores keys verbatim.
func NewRedisBackend(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (b *RedisBackend) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.redis.Get(ctx, b.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	ttl := b.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := b.redis.Set(ctx, b.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.redis.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
