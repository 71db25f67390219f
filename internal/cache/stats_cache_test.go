package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relive/relive/internal/model"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisStatsCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStatsCache(client, ttl), server
}

func TestRedisStatsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t, time.Minute)

	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := &model.Stats{
		TotalMemories: 3,
		TotalTags:     2,
		MediaByKind:   map[string]int{"image": 1, "video": 0, "audio": 0},
		Moods:         map[string]int{"happy": 2},
		CurrentStreak: 1,
	}
	require.NoError(t, c.Set(ctx, "u1", stats))
	assert.True(t, server.Exists("relive:stats:u1"))
	assert.Equal(t, time.Minute, server.TTL("relive:stats:u1"))

	got, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stats, got)

	_, ok, err = c.Get(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "u1"))
	_, ok, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatsCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t, 0)

	require.NoError(t, c.Set(ctx, "u1", &model.Stats{TotalMemories: 1}))
	assert.Equal(t, 5*time.Minute, server.TTL("relive:stats:u1"))

	server.FastForward(6 * time.Minute)
	_, ok, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatsCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t, time.Minute)

	require.NoError(t, server.Set("relive:stats:u1", "not json"))
	_, ok, err := c.Get(ctx, "u1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStatsCacheUnavailable(t *testing.T) {
	ctx := context.Background()
	c, server := newTestRedisCache(t, time.Minute)
	server.Close()

	_, ok, err := c.Get(ctx, "u1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "u1", &model.Stats{}))
}
