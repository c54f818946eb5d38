package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window clock on the
// first hit only. It returns the count and the remaining TTL in milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis is a Limiter shared by every process pointing at the same Redis.
type Redis struct {
	client redis.Scripter
	prefix string
}

func NewRedis(client redis.Scripter, prefix string) *Redis {
	if prefix == "" {
		prefix = "captzio:ratelimit:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	res, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Result{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	resetAt := time.Now().Add(ttl)
	if count > limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: limit - count, ResetAt: resetAt}, nil
}

var _ Limiter = (*Redis)(nil)
