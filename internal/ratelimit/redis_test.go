package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedis(client, "test:")
}

func TestRedisFixedWindow(t *testing.T) {
	mr, lim := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := lim.Allow(ctx, "caption:u1", 10, time.Hour)
		require.NoError(t, err)
		require.True(t, res.Allowed, "call %d", i+1)
	}
	res, err := lim.Allow(ctx, "caption:u1", 10, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ResetAt, 5*time.Second)

	mr.FastForward(time.Hour + time.Second)

	res, err = lim.Allow(ctx, "caption:u1", 10, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 9, res.Remaining)
}

func TestRedisPrefixesKeys(t *testing.T) {
	mr, lim := newTestRedis(t)

	_, err := lim.Allow(context.Background(), "caption:u2", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:caption:u2"))
}
