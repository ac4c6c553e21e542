package shopify

// Classification is the outcome of partitioning a raw event. At most one
// of Order and Cart is set; both nil means the event matched neither rule
// and is dropped.
type Classification struct {
	Order *PaidOrder
	Cart  *CartEvent
}

// Dropped reports whether the event matched neither partition rule.
func (c Classification) Dropped() bool { return c.Order == nil && c.Cart == nil }

// Classify partitions a raw event into a paid order, a cart lifecycle
// event, or nothing. Pure and deterministic: the presence of
// order_status_url marks an event order-shaped; order-shaped events only
// qualify when paid and carrying a cart token, everything else
// order-shaped is dropped.
func Classify(ev *RawEvent) Classification {
	if ev.OrderStatusURL != "" {
		if ev.FinancialStatus != "paid" || ev.CartToken == "" {
			return Classification{}
		}
		return Classification{Order: &PaidOrder{
			ID:              ev.ID.String(),
			CartToken:       ev.CartToken,
			FinancialStatus: ev.FinancialStatus,
			CreatedAt:       parseTime(ev.CreatedAt),
			TotalValue:      parsePrice(ev.TotalPrice),
			Items:           ev.LineItems,
		}}
	}

	kind := KindCartUpdate
	if ev.CreatedAt == ev.UpdatedAt {
		kind = KindCartCreation
	}

	items := make([]CartItem, 0, len(ev.LineItems))
	total := 0.0
	for _, li := range ev.LineItems {
		price := parsePrice(li.LinePrice)
		total += price
		items = append(items, CartItem{
			ID:       li.ID.String(),
			Title:    li.Title,
			Price:    price,
			Quantity: li.Quantity,
		})
	}

	return Classification{Cart: &CartEvent{
		ID:         ev.ID.String(),
		Token:      ev.CartIdentity(),
		Timestamp:  parseTime(ev.CreatedAt, ev.Timestamp),
		TotalItems: len(ev.LineItems),
		TotalValue: total,
		Kind:       kind,
		Items:      items,
		UpdatedAt:  parseTime(ev.UpdatedAt, ev.CreatedAt, ev.Timestamp),
	}}
}
