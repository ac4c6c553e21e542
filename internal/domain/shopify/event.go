// Package shopify provides domain types for Shopify webhook event
// ingestion and classification.
package shopify

import (
	"encoding/json"
	"strconv"
	"time"
)

// EventID accepts both numeric and string identifiers. Shopify sends
// numeric ids for orders and string tokens for carts; some payloads quote
// the id.
type EventID string

// UnmarshalJSON implements json.Unmarshaler.
func (e *EventID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*e = EventID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*e = EventID(s)
	return nil
}

// String returns the identifier as a string.
func (e EventID) String() string { return string(e) }

// LineItem is a single line of an order or cart payload.
type LineItem struct {
	ID        EventID `json:"id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     string  `json:"price"`
	LinePrice string  `json:"line_price"`
}

// RawEvent is a webhook payload as received. Only the fields the pipeline
// reads are declared; everything else passes through untouched in the
// stored blob.
type RawEvent struct {
	ID              EventID    `json:"id"`
	Token           string     `json:"token"`
	CartToken       string     `json:"cart_token"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	Timestamp       string     `json:"timestamp"`
	FinancialStatus string     `json:"financial_status"`
	OrderStatusURL  string     `json:"order_status_url"`
	TotalPrice      string     `json:"total_price"`
	LineItems       []LineItem `json:"line_items"`
}

// CartIdentity returns the cart token, falling back to the event id when
// the payload carries no token.
func (e *RawEvent) CartIdentity() string {
	if e.Token != "" {
		return e.Token
	}
	return e.ID.String()
}

// EventKind distinguishes cart lifecycle events.
type EventKind string

// Cart lifecycle kinds.
const (
	KindCartCreation EventKind = "cart_creation"
	KindCartUpdate   EventKind = "cart_update"
)

// CartItem is a normalized line item carried on classified events.
type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaidOrder is an order-shaped event that completed payment.
type PaidOrder struct {
	ID              string     `json:"id"`
	CartToken       string     `json:"cart_token"`
	FinancialStatus string     `json:"financial_status"`
	CreatedAt       time.Time  `json:"created_at"`
	TotalValue      float64    `json:"total_value"`
	Items           []LineItem `json:"items"`
}

// CartEvent is a cart lifecycle observation (creation or update).
type CartEvent struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	Timestamp  time.Time  `json:"timestamp"`
	TotalItems int        `json:"totalItems"`
	TotalValue float64    `json:"totalValue"`
	Kind       EventKind  `json:"eventType"`
	Items      []CartItem `json:"items"`

	// UpdatedAt is the payload's updated_at falling back to created_at
	// then timestamp. It orders latest-state resolution and buckets cart
	// value, while Timestamp buckets cart counts. Serialized so cached
	// snapshots resolve the same way as fresh ones.
	UpdatedAt time.Time `json:"updatedAt"`
}

// parsePrice converts upstream price strings, treating absent or
// unparsable values as zero the way the webhook producer does.
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseTime parses the first non-empty RFC3339 timestamp. A zero time
// means no candidate parsed; such events never land in a bucket.
func parseTime(candidates ...string) time.Time {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, c); err == nil {
			return t
		}
	}
	return time.Time{}
}
