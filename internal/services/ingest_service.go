// Package services orchestrates the webhook pipeline over the storage,
// cache and messaging collaborators.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/domain/shopify"
	"github.com/hookbucket/service-analytics/internal/events"
	"github.com/hookbucket/service-analytics/internal/metrics"
	"github.com/hookbucket/service-analytics/internal/storage"
)

// IngestOutcome is the result of admitting one webhook delivery.
type IngestOutcome struct {
	Duplicate bool
	DedupKey  string
	BlobKey   string
}

// IngestService is the write side of the pipeline: dedup gate plus blob
// writer.
type IngestService struct {
	gate      *shopify.Gate
	store     storage.ObjectStore
	publisher *events.Publisher
	logger    *zap.Logger

	// now is injected for tests.
	now func() time.Time
}

// NewIngestService creates the ingest service. publisher may be nil.
func NewIngestService(store storage.ObjectStore, publisher *events.Publisher, logger *zap.Logger) *IngestService {
	return &IngestService{
		gate:      shopify.NewGate(),
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SeedGate rebuilds the dedup set from blob keys already in storage so
// duplicate suppression survives restarts. Keys that do not follow the
// webhook naming scheme are skipped.
func (s *IngestService) SeedGate(ctx context.Context, maxKeys int) error {
	objects, err := s.store.List(ctx, maxKeys)
	if err != nil {
		return fmt.Errorf("failed to list stored events: %w", err)
	}
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if key, ok := shopify.DedupKeyFromBlobKey(obj.Key); ok {
			keys = append(keys, key)
		}
	}
	s.gate.Seed(keys)
	s.logger.Info("seeded dedup gate from storage", zap.Int("keys", len(keys)))
	return nil
}

// Ingest admits one delivery: decode enough of the body to derive the
// dedup key, check the gate, and persist the payload as received. A
// failed write releases the gate entry so a redelivery can still land.
func (s *IngestService) Ingest(ctx context.Context, body []byte) (IngestOutcome, error) {
	var ev shopify.RawEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		metrics.WebhookMalformed.Inc()
		return IngestOutcome{}, fmt.Errorf("%w: %v", shopify.ErrMalformedPayload, err)
	}

	dedupKey := shopify.DedupKey(&ev)
	if !s.gate.Admit(dedupKey) {
		metrics.WebhookDuplicates.Inc()
		s.publisher.EventDuplicate(dedupKey)
		s.logger.Debug("duplicate delivery absorbed", zap.String("dedup_key", dedupKey))
		return IngestOutcome{Duplicate: true, DedupKey: dedupKey}, nil
	}

	blobKey := shopify.BlobKey(s.now(), dedupKey)
	if err := s.store.Put(ctx, blobKey, body); err != nil {
		s.gate.Release(dedupKey)
		metrics.StorageErrors.WithLabelValues("put").Inc()
		s.logger.Error("failed to store webhook event",
			zap.Error(err),
			zap.String("dedup_key", dedupKey),
			zap.String("blob_key", blobKey),
		)
		return IngestOutcome{}, fmt.Errorf("failed to store event %s: %w", dedupKey, err)
	}

	metrics.WebhookEventsReceived.Inc()
	s.publisher.EventReceived(dedupKey, blobKey)
	s.logger.Info("webhook event stored",
		zap.String("dedup_key", dedupKey),
		zap.String("blob_key", blobKey),
	)
	return IngestOutcome{DedupKey: dedupKey, BlobKey: blobKey}, nil
}
