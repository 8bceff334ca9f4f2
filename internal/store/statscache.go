package store

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// StatsCache keeps computed per-student attendance views in Redis for a
// short TTL so dashboard refreshes do not reaggregate both tables every
// time. All operations are best-effort; a cold or down cache only costs a
// recompute.
type StatsCache struct {
	redis *Redis
	ttl   time.Duration
}

// NewStatsCache wraps a Redis connection.
func NewStatsCache(r *Redis, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{redis: r, ttl: ttl}
}

// Get loads a cached value into dest, reporting a hit.
func (c *StatsCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return false
	}
	raw, err := c.redis.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("stats cache decode failed for %s: %v", key, err)
		return false
	}
	return true
}

// Set stores a value under key for the cache TTL.
func (c *StatsCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("stats cache write failed for %s: %v", key, err)
	}
}

// AnalyticsKey namespaces cached student dashboards.
func AnalyticsKey(studentID string) string {
	return "classattend:analytics:" + studentID
}
