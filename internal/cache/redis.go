package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "checkin:stats:"

// Connect parses url and pings the server. An empty url returns nil, nil.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStats caches per-event aggregates as JSON with a fixed TTL. Each event
// carries a version counter; Invalidate bumps it so a value computed before
// the bump lands under a key no reader looks at.
type RedisStats struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStats(client *redis.Client, ttl time.Duration) *RedisStats {
	return &RedisStats{client: client, ttl: ttl}
}

// Get decodes the cached value into dst. The returned version must be passed
// to Set when refilling after a miss.
func (c *RedisStats) Get(ctx context.Context, eventID uint, dst any) (int64, bool, error) {
	version, err := c.client.Get(ctx, versionKey(eventID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, false, fmt.Errorf("get stats version: %w", err)
	}

	raw, err := c.client.Get(ctx, statsKey(eventID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return version, false, nil
	}
	if err != nil {
		return version, false, fmt.Errorf("get cached stats: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return version, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return version, true, nil
}

func (c *RedisStats) Set(ctx context.Context, eventID uint, version int64, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return c.client.Set(ctx, statsKey(eventID, version), raw, c.ttl).Err()
}

func (c *RedisStats) Invalidate(ctx context.Context, eventID uint) error {
	return c.client.Incr(ctx, versionKey(eventID)).Err()
}

func statsKey(eventID uint, version int64) string {
	return fmt.Sprintf("%s%d:%d", statsKeyPrefix, eventID, version)
}

func versionKey(eventID uint) string {
	return fmt.Sprintf("%s%d:version", statsKeyPrefix, eventID)
}
