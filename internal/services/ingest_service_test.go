package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/analytics"
	"github.com/hookbucket/service-analytics/internal/domain/shopify"
	"github.com/hookbucket/service-analytics/internal/storage"
)

func newTestIngest(store storage.ObjectStore) *IngestService {
	return NewIngestService(store, nil, zap.NewNop())
}

func TestIngestStoresEvent(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestIngest(store)

	outcome, err := s.Ingest(context.Background(), []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if outcome.Duplicate {
		t.Fatal("first delivery flagged as duplicate")
	}
	if outcome.DedupKey != "42" {
		t.Errorf("dedup key = %q, want 42", outcome.DedupKey)
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs, want 1", store.Len())
	}

	body, err := store.Get(context.Background(), outcome.BlobKey)
	if err != nil {
		t.Fatalf("get stored blob: %v", err)
	}
	// The payload is persisted as received, not re-serialized.
	if string(body) != `{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}` {
		t.Errorf("stored body differs from delivery: %s", body)
	}
}

func TestIngestAbsorbsRedelivery(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestIngest(store)
	body := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)

	if _, err := s.Ingest(context.Background(), body); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	outcome, err := s.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("redelivery not flagged as duplicate")
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs after redelivery, want 1", store.Len())
	}
}

func TestIngestDistinguishesUpdateFromCreation(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestIngest(store)

	creation := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)
	update := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T14:00:00Z"}`)

	if _, err := s.Ingest(context.Background(), creation); err != nil {
		t.Fatalf("creation: %v", err)
	}
	outcome, err := s.Ingest(context.Background(), update)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if outcome.Duplicate {
		t.Fatal("update wrongly absorbed as duplicate of its creation")
	}
	if store.Len() != 2 {
		t.Errorf("stored %d blobs, want 2", store.Len())
	}
}

func TestIngestConcurrentDuplicatesPersistOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestIngest(store)
	body := []byte(`{"id":"same","created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)

	const workers = 32
	var accepted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			outcome, err := s.Ingest(context.Background(), body)
			if err == nil && !outcome.Duplicate {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if accepted.Load() != 1 {
		t.Errorf("accepted %d deliveries, want exactly 1", accepted.Load())
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs, want exactly 1", store.Len())
	}
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	s := newTestIngest(storage.NewMemoryStore())
	_, err := s.Ingest(context.Background(), []byte(`{not json`))
	if !errors.Is(err, shopify.ErrMalformedPayload) {
		t.Fatalf("err = %v, want ErrMalformedPayload", err)
	}
}

// failPutStore rejects every put.
type failPutStore struct {
	*storage.MemoryStore
}

func (s *failPutStore) Put(context.Context, string, []byte) error {
	return errors.New("bucket unavailable")
}

func TestIngestReleasesGateOnStorageFailure(t *testing.T) {
	broken := &failPutStore{storage.NewMemoryStore()}
	s := newTestIngest(broken)
	body := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)

	if _, err := s.Ingest(context.Background(), body); err == nil {
		t.Fatal("expected storage error")
	}

	// Redelivery after the failure must get another chance to persist.
	healthy := newTestIngest(broken.MemoryStore)
	healthy.gate = s.gate
	outcome, err := healthy.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("redelivery after failure: %v", err)
	}
	if outcome.Duplicate {
		t.Fatal("failed write left the dedup gate poisoned")
	}
}

func TestSeedGateFromStorage(t *testing.T) {
	store := storage.NewMemoryStore()
	first := newTestIngest(store)
	body := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)
	if _, err := first.Ingest(context.Background(), body); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// A fresh process over the same bucket must still absorb the
	// redelivery.
	restarted := newTestIngest(store)
	if err := restarted.SeedGate(context.Background(), MaxEventBlobs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	outcome, err := restarted.Ingest(context.Background(), body)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("restart lost dedup history despite durable blob keys")
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs, want 1", store.Len())
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ingest := newTestIngest(store)

	now := time.Now().UTC()
	at := now.Format(time.RFC3339)

	deliveries := []string{
		fmt.Sprintf(`{"id":"O1","order_status_url":"https://shop/orders/O1","financial_status":"paid","cart_token":"C1","created_at":%q,"updated_at":%q,"total_price":"80.00"}`, at, at),
		fmt.Sprintf(`{"id":"C1","token":"C1","created_at":%q,"updated_at":%q,"line_items":[{"id":1,"title":"Mug","quantity":1,"line_price":"15.00"}]}`, at, at),
		fmt.Sprintf(`{"id":"C2","token":"C2","created_at":%q,"updated_at":%q,"line_items":[{"id":2,"title":"Hat","quantity":1,"line_price":"25.00"}]}`, at, at),
	}
	for _, d := range deliveries {
		if _, err := ingest.Ingest(ctx, []byte(d)); err != nil {
			t.Fatalf("ingest %s: %v", d, err)
		}
	}

	collector := NewCollector(store, zap.NewNop())
	events, rejected, err := collector.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	snap := analytics.BuildSnapshot(events, rejected)

	orders := analytics.OrderMetricsFrom(snap, 1, now)
	if orders.TotalOrders != 1 {
		t.Errorf("total orders = %d, want 1", orders.TotalOrders)
	}
	if orders.TotalValue != 80.00 {
		t.Errorf("order value = %v, want 80.00", orders.TotalValue)
	}

	carts := analytics.CartMetricsFrom(snap, 1, now)
	if carts.TotalCarts != 1 {
		t.Errorf("total carts = %d, want 1 (C1 converted to order)", carts.TotalCarts)
	}
	if len(carts.TimeSeriesData.Counts) != 1 || carts.TimeSeriesData.Counts[0] != 1 {
		t.Errorf("cart series = %v, want [1] for C2's bucket", carts.TimeSeriesData.Counts)
	}

	values := analytics.CartValueMetricsFrom(snap, 1, now)
	if values.TotalValue != 25.00 {
		t.Errorf("cart value = %v, want 25.00 (only C2 active)", values.TotalValue)
	}
}
