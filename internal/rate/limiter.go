package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds limiter tuning.
type Config struct {
	MaxAttempts      int
	Cooldown         time.Duration
	EnableIPThrottle bool
	Prefix           string
}

// DefaultConfig allows five failures per identifier and IP per five minutes.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      5,
		Cooldown:         5 * time.Minute,
		EnableIPThrottle: true,
		Prefix:           "dashauth:stub",
	}
}

// Limiter counts failed logins in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: client, config: cfg}
}

// Check reports [ErrRateLimited] once the identifier or IP has used up its
// failure budget for the current window.
func (l *Limiter) Check(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Fail records one failed attempt. The window starts at the first failure.
func (l *Limiter) Fail(ctx context.Context, identifier, ip string) error {
	for _, key := range l.keys(identifier, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the identifier's counter after a successful login. The IP
// counter is left to expire.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, l.identifierKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the identifier's failures in the current window.
func (l *Limiter) Attempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.identifierKey(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func (l *Limiter) keys(identifier, ip string) []string {
	keys := []string{l.identifierKey(identifier)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.config.Prefix+":login:ip:"+ip)
	}
	return keys
}

func (l *Limiter) identifierKey(identifier string) string {
	return l.config.Prefix + ":login:id:" + strings.ToLower(strings.TrimSpace(identifier))
}
