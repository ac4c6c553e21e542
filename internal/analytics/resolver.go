package analytics

import "github.com/hookbucket/service-analytics/internal/domain/shopify"

// ResolveLatest reduces multiple observations of each cart to its most
// recent state by UpdatedAt. On an exact timestamp tie the later event in
// input order wins; the collector preserves listing order, so resolution
// is deterministic for a fixed set of blobs.
func ResolveLatest(events []shopify.CartEvent) map[string]shopify.CartEvent {
	latest := make(map[string]shopify.CartEvent, len(events))
	for _, ev := range events {
		current, ok := latest[ev.Token]
		if !ok || !ev.UpdatedAt.Before(current.UpdatedAt) {
			latest[ev.Token] = ev
		}
	}
	return latest
}
