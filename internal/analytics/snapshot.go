// Package analytics turns stored webhook events into the metrics the
// dashboard consumes. It is the single source of truth for
// classification, latest-state resolution and time-bucketed aggregation;
// presentation layers derive everything from here.
package analytics

import (
	"time"

	"github.com/hookbucket/service-analytics/internal/domain/shopify"
)

// EventTypeCount is a per-kind event tally.
type EventTypeCount struct {
	Type  shopify.EventKind `json:"type"`
	Count int               `json:"count"`
}

// TimeSeriesPoint is one raw observation in the snapshot's event stream.
type TimeSeriesPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      shopify.EventKind `json:"type"`
	Value     float64           `json:"value"`
}

// Totals sums value and item counts across all active cart events.
type Totals struct {
	Value float64 `json:"value"`
	Items int     `json:"items"`
}

// SnapshotMetrics is the rollup block of a snapshot.
type SnapshotMetrics struct {
	TotalEvents    int               `json:"totalEvents"`
	EventTypes     []EventTypeCount  `json:"eventTypes"`
	TimeSeriesData []TimeSeriesPoint `json:"timeSeriesData"`
	Totals         Totals            `json:"totals"`
}

// PaidOrdersRollup summarizes the paid orders seen in storage.
type PaidOrdersRollup struct {
	Count      int                 `json:"count"`
	CartTokens []string            `json:"cartTokens"`
	Orders     []shopify.PaidOrder `json:"orders"`
	TotalValue float64             `json:"totalValue"`
}

// Snapshot is the full classified view over stored events. Carts whose
// token converted to a paid order are excluded from Raw and EventsByType
// so they never double-count as both cart and order.
type Snapshot struct {
	Raw          []shopify.CartEvent                       `json:"raw"`
	Metrics      SnapshotMetrics                           `json:"metrics"`
	EventsByType map[shopify.EventKind][]shopify.CartEvent `json:"eventsByType"`
	PaidOrders   PaidOrdersRollup                          `json:"paidOrders"`
	Rejected     int                                       `json:"rejected"`
}

// BuildSnapshot classifies raw events and assembles the snapshot
// document. rejected carries the count of blobs the collector could not
// fetch or decode.
func BuildSnapshot(events []*shopify.RawEvent, rejected int) *Snapshot {
	paidTokens := make(map[string]bool)
	rollup := PaidOrdersRollup{
		CartTokens: []string{},
		Orders:     []shopify.PaidOrder{},
	}
	var carts []shopify.CartEvent

	classified := make([]shopify.Classification, 0, len(events))
	for _, ev := range events {
		c := shopify.Classify(ev)
		classified = append(classified, c)
		if c.Order != nil {
			rollup.Orders = append(rollup.Orders, *c.Order)
			rollup.TotalValue += c.Order.TotalValue
			if !paidTokens[c.Order.CartToken] {
				paidTokens[c.Order.CartToken] = true
				rollup.CartTokens = append(rollup.CartTokens, c.Order.CartToken)
			}
		}
	}
	rollup.Count = len(rollup.Orders)

	// Second pass so cart events arriving before their order still get
	// excluded once the token converts.
	for _, c := range classified {
		if c.Cart == nil || paidTokens[c.Cart.Token] {
			continue
		}
		carts = append(carts, *c.Cart)
	}

	byType := make(map[shopify.EventKind][]shopify.CartEvent)
	points := make([]TimeSeriesPoint, 0, len(carts))
	var totals Totals
	for _, cart := range carts {
		byType[cart.Kind] = append(byType[cart.Kind], cart)
		points = append(points, TimeSeriesPoint{
			Timestamp: cart.Timestamp,
			Type:      cart.Kind,
			Value:     cart.TotalValue,
		})
		totals.Value += cart.TotalValue
		totals.Items += cart.TotalItems
	}

	eventTypes := make([]EventTypeCount, 0, len(byType))
	for _, kind := range []shopify.EventKind{shopify.KindCartCreation, shopify.KindCartUpdate} {
		if evs, ok := byType[kind]; ok {
			eventTypes = append(eventTypes, EventTypeCount{Type: kind, Count: len(evs)})
		}
	}

	if carts == nil {
		carts = []shopify.CartEvent{}
	}
	return &Snapshot{
		Raw: carts,
		Metrics: SnapshotMetrics{
			TotalEvents:    len(carts),
			EventTypes:     eventTypes,
			TimeSeriesData: points,
			Totals:         totals,
		},
		EventsByType: byType,
		PaidOrders:   rollup,
		Rejected:     rejected,
	}
}
