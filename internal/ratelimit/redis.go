package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript runs the whole fixed-window decision server-side so concurrent
// hits from several API instances cannot overshoot the limit.
// KEYS[1] = window key
// ARGV[1] = limit
// ARGV[2] = window in milliseconds
//
// Returns {allowed (0|1), count, pttl}.
var hitScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local current = redis.call('GET', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if (not current) or ttl < 0 then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, 1, window}
end
current = tonumber(current)
if current >= limit then
  return {0, current, ttl}
end
current = redis.call('INCR', KEYS[1])
return {1, current, ttl}
`)

const redisKeyPrefix = "rl:"

// RedisStore shares windows between every instance pointed at the same Redis.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	vals, err := hitScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("run hit script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("unexpected hit script reply: %v", vals)
	}

	allowed, count, ttl := vals[0] == 1, int(vals[1]), time.Duration(vals[2])*time.Millisecond
	res := Result{Allowed: allowed, Limit: limit, ResetAt: now.Add(ttl)}
	if allowed {
		res.Remaining = max(0, limit-count)
	}
	return res, nil
}

// Ping satisfies health.Pinger.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient builds a client from a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
