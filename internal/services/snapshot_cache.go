package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/analytics"
)

// snapshotCacheKey is the single cache slot; the snapshot is independent
// of the requested time range, only its derivations vary.
const snapshotCacheKey = "hookbucket:webhook:snapshot"

// SnapshotCache caches the classified snapshot in Redis. A nil
// SnapshotCache or nil client disables caching; Get and Set degrade to
// cache misses so callers need no guards.
type SnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache creates a snapshot cache with the given TTL.
func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl == 0 {
		ttl = 1 * time.Minute
	}
	return &SnapshotCache{redis: redisClient, ttl: ttl, logger: logger}
}

// Get retrieves the cached snapshot, or nil on a miss.
func (c *SnapshotCache) Get(ctx context.Context) (*analytics.Snapshot, error) {
	if c == nil || c.redis == nil {
		return nil, nil
	}

	data, err := c.redis.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		c.logger.Warn("failed to get snapshot from cache", zap.Error(err))
		return nil, nil
	}

	var snap analytics.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("failed to unmarshal cached snapshot", zap.Error(err))
		return nil, nil
	}
	return &snap, nil
}

// Set stores the snapshot.
func (c *SnapshotCache) Set(ctx context.Context, snap *analytics.Snapshot) error {
	if c == nil || c.redis == nil {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, snapshotCacheKey, data, c.ttl).Err(); err != nil {
		return err
	}
	c.logger.Debug("cached snapshot", zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate drops the cached snapshot, used after ingest when fresh
// reads matter more than the TTL.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, snapshotCacheKey).Err()
}
