package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/relive/relive/internal/model"
)

// StatsCache stores computed per-user stats between writes.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*model.Stats, bool, error)
	Set(ctx context.Context, userID string, stats *model.Stats) error
	Delete(ctx context.Context, userID string) error
}

type RedisStatsCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redisv9.Client, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStatsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisStatsCache) Get(ctx context.Context, userID string) (*model.Stats, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get stats failed: %w", err)
	}

	var stats model.Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached stats failed: %w", err)
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, userID string, stats *model.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats failed: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete stats failed: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) key(userID string) string {
	return fmt.Sprintf("relive:stats:%s", userID)
}

// NopStatsCache never hits; used when Redis is not configured.
type NopStatsCache struct{}

func (NopStatsCache) Get(context.Context, string) (*model.Stats, bool, error) { return nil, false, nil }
func (NopStatsCache) Set(context.Context, string, *model.Stats) error         { return nil }
func (NopStatsCache) Delete(context.Context, string) error                    { return nil }
