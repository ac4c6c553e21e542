package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/analytics"
	"github.com/hookbucket/service-analytics/internal/metrics"
)

// SnapshotService produces the classified snapshot over everything in
// storage, with an optional cache in front.
type SnapshotService struct {
	collector *Collector
	cache     *SnapshotCache
	logger    *zap.Logger
}

// NewSnapshotService creates the snapshot service. cache may be nil.
func NewSnapshotService(collector *Collector, cache *SnapshotCache, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{collector: collector, cache: cache, logger: logger}
}

// Snapshot returns the current classified view of stored events. The
// cached copy is served unless forceRefresh is set or the cache is cold.
func (s *SnapshotService) Snapshot(ctx context.Context, forceRefresh bool) (*analytics.Snapshot, error) {
	if !forceRefresh {
		if cached, _ := s.cache.Get(ctx); cached != nil {
			s.logger.Debug("serving snapshot from cache")
			return cached, nil
		}
	}

	start := time.Now()
	events, rejected, err := s.collector.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	snap := analytics.BuildSnapshot(events, rejected)
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())

	if rejected > 0 {
		s.logger.Warn("snapshot built with rejected blobs", zap.Int("rejected", rejected))
	}

	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("failed to cache snapshot", zap.Error(err))
	}
	return snap, nil
}
