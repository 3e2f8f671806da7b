// Package cache holds the resource-count cache shared by the query service and
// the reclassification run.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vet1stop-platform/models"
)

// CountsKey is the Redis key holding the cached category counts
const CountsKey = "vet1stop:resource_counts"

// CountsCache caches per-category resource counts
type CountsCache interface {
	// Get reports a miss with ok=false and a nil error
	Get(ctx context.Context) (counts map[models.Category]int64, ok bool, err error)
	Set(ctx context.Context, counts map[models.Category]int64) error
	Invalidate(ctx context.Context) error
}

// RedisCountsCache stores counts as a JSON document with a TTL
type RedisCountsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCountsCache(rdb *redis.Client, ttl time.Duration) *RedisCountsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCountsCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCountsCache) Get(ctx context.Context) (map[models.Category]int64, bool, error) {
	raw, err := c.rdb.Get(ctx, CountsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", CountsKey, err)
	}

	counts := make(map[models.Category]int64)
	if err := json.Unmarshal(raw, &counts); err != nil {
		// corrupt entry; treat as a miss so it gets rewritten
		return nil, false, nil
	}
	return counts, true, nil
}

func (c *RedisCountsCache) Set(ctx context.Context, counts map[models.Category]int64) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	if err := c.rdb.Set(ctx, CountsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", CountsKey, err)
	}
	return nil
}

func (c *RedisCountsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, CountsKey).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", CountsKey, err)
	}
	return nil
}
