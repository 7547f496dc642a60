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

func newLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLimiter(rdb, "share", limit, time.Minute), mr
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newLimiter(t, 3)
	at := time.Date(2026, 5, 1, 10, 0, 5, 0, time.UTC)
	l.now = func() time.Time { return at }

	for i := 0; i < 3; i++ {
		d, err := l.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 1, 0, 0, time.UTC), d.ResetAt.UTC())
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newLimiter(t, 1)

	d, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = l.Allow(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestNextWindowResets(t *testing.T) {
	l, _ := newLimiter(t, 1)
	at := time.Date(2026, 5, 1, 10, 0, 59, 0, time.UTC)
	l.now = func() time.Time { return at }

	d, _ := l.Allow(context.Background(), "a")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(context.Background(), "a")
	assert.False(t, d.Allowed)

	at = at.Add(2 * time.Second)
	d, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestWindowKeyExpires(t *testing.T) {
	l, mr := newLimiter(t, 5)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return at }

	_, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestRedisDown(t *testing.T) {
	l, mr := newLimiter(t, 5)
	mr.Close()

	_, err := l.Allow(context.Background(), "a")
	assert.Error(t, err)
}
