// Package redis is a fixed-window store shared by every instance that points
// at the same Redis. The check and increment run in one Lua script so
// concurrent callers cannot push a window past its ceiling.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"avd/internal/ratelimit/models"
)

// KEYS[1] window key; ARGV[1] window in ms; ARGV[2] limit.
// Returns {allowed, count, ttl_ms}.
var allowScript = redis.NewScript(`
local limit = tonumber(ARGV[2])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local ttl = redis.call("PTTL", KEYS[1])
if current >= limit and ttl > 0 then
  return {0, current, ttl}
end
if ttl <= 0 then
  current = 0
  redis.call("DEL", KEYS[1])
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
ttl = redis.call("PTTL", KEYS[1])
return {1, current, ttl}
`)

type Store struct {
	client redis.Scripter
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(client redis.Scripter, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (models.Decision, error) {
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	res, err := allowScript.Run(ctx, s.client, []string{key}, windowMillis, limit).Int64Slice()
	if err != nil {
		return models.Decision{}, fmt.Errorf("run rate limit script: %w", err)
	}
	if len(res) != 3 {
		return models.Decision{}, fmt.Errorf("unexpected rate limit script response: %v", res)
	}
	allowed, count, ttlMillis := res[0] == 1, int(res[1]), res[2]

	now := s.now()
	resetAt := now
	if ttlMillis > 0 {
		resetAt = now.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	if !allowed {
		return models.Reject(limit, resetAt, now), nil
	}
	return models.Allow(limit, limit-count, resetAt), nil
}
