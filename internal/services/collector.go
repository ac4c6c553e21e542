package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hookbucket/service-analytics/internal/domain/shopify"
	"github.com/hookbucket/service-analytics/internal/metrics"
	"github.com/hookbucket/service-analytics/internal/storage"
)

// MaxEventBlobs caps how many stored blobs one metrics request reads.
const MaxEventBlobs = 100

// defaultFetchTimeout bounds the whole list-and-fetch fan-out.
const defaultFetchTimeout = 30 * time.Second

// Collector is the read side of storage: it lists all stored event blobs
// and fetches their bodies in parallel.
type Collector struct {
	store        storage.ObjectStore
	maxKeys      int
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewCollector creates a collector over store.
func NewCollector(store storage.ObjectStore, logger *zap.Logger) *Collector {
	return &Collector{
		store:        store,
		maxKeys:      MaxEventBlobs,
		fetchTimeout: defaultFetchTimeout,
		logger:       logger,
	}
}

// FetchAll lists up to the blob cap and fetches every body concurrently,
// preserving listing order in the result. A listing failure or timeout
// fails the whole operation; a single blob that cannot be fetched or
// decoded is dropped and counted in rejected instead of aborting the
// batch.
func (c *Collector) FetchAll(ctx context.Context) (evs []*shopify.RawEvent, rejected int, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	objects, err := c.store.List(ctx, c.maxKeys)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("list").Inc()
		return nil, 0, fmt.Errorf("failed to list stored events: %w", err)
	}

	results := make([]*shopify.RawEvent, len(objects))
	var rejectedCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i, obj := range objects {
		i, obj := i, obj
		g.Go(func() error {
			body, err := c.store.Get(ctx, obj.Key)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				rejectedCount.Add(1)
				metrics.RejectedBlobs.Inc()
				c.logger.Warn("failed to fetch event blob, excluding from aggregation",
					zap.Error(err), zap.String("key", obj.Key))
				return nil
			}
			var ev shopify.RawEvent
			if err := json.Unmarshal(body, &ev); err != nil {
				rejectedCount.Add(1)
				metrics.RejectedBlobs.Inc()
				c.logger.Warn("failed to decode event blob, excluding from aggregation",
					zap.Error(err), zap.String("key", obj.Key))
				return nil
			}
			results[i] = &ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.StorageErrors.WithLabelValues("get").Inc()
		return nil, 0, fmt.Errorf("failed to fetch stored events: %w", err)
	}

	evs = make([]*shopify.RawEvent, 0, len(results))
	for _, ev := range results {
		if ev != nil {
			evs = append(evs, ev)
		}
	}
	return evs, int(rejectedCount.Load()), nil
}
