package shopify

import (
	"testing"
	"time"
)

func TestClassifyPaidOrder(t *testing.T) {
	ev := &RawEvent{
		ID:              "820982911946154508",
		CartToken:       "c1-token",
		CreatedAt:       "2024-05-15T10:00:00Z",
		UpdatedAt:       "2024-05-15T10:00:00Z",
		FinancialStatus: "paid",
		OrderStatusURL:  "https://shop.myshopify.com/orders/abc",
		TotalPrice:      "199.90",
		LineItems: []LineItem{
			{ID: "1", Title: "Widget", Quantity: 2, LinePrice: "199.90"},
		},
	}

	c := Classify(ev)
	if c.Order == nil {
		t.Fatalf("expected paid order, got %+v", c)
	}
	if c.Cart != nil {
		t.Fatal("paid order must not also classify as cart event")
	}
	if c.Order.CartToken != "c1-token" {
		t.Errorf("cart token = %q, want c1-token", c.Order.CartToken)
	}
	if c.Order.TotalValue != 199.90 {
		t.Errorf("total value = %v, want 199.90", c.Order.TotalValue)
	}
	want := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	if !c.Order.CreatedAt.Equal(want) {
		t.Errorf("created at = %v, want %v", c.Order.CreatedAt, want)
	}
}

func TestClassifyDropsNonQualifyingOrders(t *testing.T) {
	cases := []struct {
		name string
		ev   RawEvent
	}{
		{
			name: "order not paid",
			ev: RawEvent{
				ID:              "1",
				OrderStatusURL:  "https://shop/orders/1",
				FinancialStatus: "pending",
				CartToken:       "t1",
			},
		},
		{
			name: "paid order without cart token",
			ev: RawEvent{
				ID:              "2",
				OrderStatusURL:  "https://shop/orders/2",
				FinancialStatus: "paid",
			},
		},
		{
			name: "order without financial status",
			ev: RawEvent{
				ID:             "3",
				OrderStatusURL: "https://shop/orders/3",
				CartToken:      "t3",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(&tc.ev)
			if !c.Dropped() {
				t.Errorf("Classify(%+v) = %+v, want dropped", tc.ev, c)
			}
		})
	}
}

func TestClassifyCartKind(t *testing.T) {
	cases := []struct {
		name      string
		createdAt string
		updatedAt string
		want      EventKind
	}{
		{"creation when timestamps equal", "2024-05-15T10:00:00Z", "2024-05-15T10:00:00Z", KindCartCreation},
		{"update when timestamps differ", "2024-05-15T10:00:00Z", "2024-05-15T14:00:00Z", KindCartUpdate},
		{"creation when both absent", "", "", KindCartCreation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &RawEvent{
				ID:        "cart-1",
				Token:     "tok-1",
				CreatedAt: tc.createdAt,
				UpdatedAt: tc.updatedAt,
				Timestamp: "2024-05-15T10:00:00Z",
			}
			c := Classify(ev)
			if c.Cart == nil {
				t.Fatalf("expected cart event, got %+v", c)
			}
			if c.Cart.Kind != tc.want {
				t.Errorf("kind = %q, want %q", c.Cart.Kind, tc.want)
			}
		})
	}
}

func TestClassifyCartValueAndItems(t *testing.T) {
	ev := &RawEvent{
		ID:        "cart-2",
		CreatedAt: "2024-05-15T10:00:00Z",
		UpdatedAt: "2024-05-15T10:00:00Z",
		LineItems: []LineItem{
			{ID: "10", Title: "Mug", Quantity: 1, LinePrice: "12.50"},
			{ID: "11", Title: "Shirt", Quantity: 2, LinePrice: "40.00"},
			{ID: "12", Title: "Sticker", Quantity: 1, LinePrice: "not-a-price"},
		},
	}

	c := Classify(ev)
	if c.Cart == nil {
		t.Fatalf("expected cart event, got %+v", c)
	}
	if c.Cart.Token != "cart-2" {
		t.Errorf("token = %q, want fallback to id cart-2", c.Cart.Token)
	}
	if c.Cart.TotalItems != 3 {
		t.Errorf("total items = %d, want 3", c.Cart.TotalItems)
	}
	if c.Cart.TotalValue != 52.50 {
		t.Errorf("total value = %v, want 52.50 (unparsable prices count as 0)", c.Cart.TotalValue)
	}
	if len(c.Cart.Items) != 3 || c.Cart.Items[1].Price != 40.00 {
		t.Errorf("items not normalized: %+v", c.Cart.Items)
	}
}

func TestClassifyCartTimestampFallback(t *testing.T) {
	ev := &RawEvent{
		ID:        "cart-3",
		Token:     "tok-3",
		Timestamp: "2024-05-15T09:30:00Z",
	}
	c := Classify(ev)
	if c.Cart == nil {
		t.Fatalf("expected cart event, got %+v", c)
	}
	want := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)
	if !c.Cart.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want fallback %v", c.Cart.Timestamp, want)
	}
	if !c.Cart.UpdatedAt.Equal(want) {
		t.Errorf("updated at = %v, want fallback %v", c.Cart.UpdatedAt, want)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	ev := &RawEvent{
		ID:        "cart-4",
		Token:     "tok-4",
		CreatedAt: "2024-05-15T10:00:00Z",
		UpdatedAt: "2024-05-15T12:00:00Z",
	}
	first := Classify(ev)
	for i := 0; i < 10; i++ {
		again := Classify(ev)
		if again.Cart == nil || again.Cart.Kind != first.Cart.Kind || again.Cart.Token != first.Cart.Token {
			t.Fatalf("classification changed between runs: %+v vs %+v", first, again)
		}
	}
}
