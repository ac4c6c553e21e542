package shopify

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// blobKeyPrefix and blobKeySuffix frame stored blob keys:
// webhook-<arrival-epoch-ms>-<dedupKey>.json
const (
	blobKeyPrefix = "webhook-"
	blobKeySuffix = ".json"
)

// DedupKey derives the redelivery identity of an event: the bare id for a
// creation (created_at == updated_at), id-updated_at for an update so it
// stays distinguishable from its creation.
func DedupKey(ev *RawEvent) string {
	if ev.CreatedAt != ev.UpdatedAt {
		return fmt.Sprintf("%s-%s", ev.ID, ev.UpdatedAt)
	}
	return ev.ID.String()
}

// BlobKey builds the storage key for an accepted event arriving at t.
func BlobKey(t time.Time, dedupKey string) string {
	return fmt.Sprintf("%s%d-%s%s", blobKeyPrefix, t.UnixMilli(), dedupKey, blobKeySuffix)
}

// DedupKeyFromBlobKey recovers the dedup key embedded in a blob key.
// Returns false for keys that do not follow the webhook naming scheme.
func DedupKeyFromBlobKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, blobKeyPrefix)
	if !ok {
		return "", false
	}
	rest, ok = strings.CutSuffix(rest, blobKeySuffix)
	if !ok {
		return "", false
	}
	// Skip the arrival-millis segment; the dedup key itself may contain
	// dashes, so only the first one delimits.
	_, dedupKey, ok := strings.Cut(rest, "-")
	if !ok || dedupKey == "" {
		return "", false
	}
	return dedupKey, true
}

// Gate is the process-wide dedup membership set. Admission is an atomic
// check-and-insert so concurrent redeliveries of the same event yield
// exactly one admit.
type Gate struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{seen: make(map[string]struct{})}
}

// Admit records key and returns true iff it was not already recorded.
func (g *Gate) Admit(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.seen[key]; dup {
		return false
	}
	g.seen[key] = struct{}{}
	return true
}

// Release forgets key so a later redelivery can be admitted again. Called
// when the blob write behind an admit fails, keeping "admitted" equivalent
// to "persisted".
func (g *Gate) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
}

// Seed records keys without reporting duplicates, used to rebuild the set
// from durable blob keys at startup.
func (g *Gate) Seed(keys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		g.seen[k] = struct{}{}
	}
}

// Len returns the number of recorded keys.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
