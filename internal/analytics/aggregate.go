package analytics

import (
	"time"

	"github.com/hookbucket/service-analytics/internal/domain/shopify"
)

// dateLayout is the bucket key format. One layout everywhere keeps bucket
// keys stable within a deployment regardless of host locale.
const dateLayout = "2006-01-02"

// TimeSeries is a date-indexed series. Counts and Values are parallel to
// Dates; a metric shape omits the slice it does not use.
type TimeSeries struct {
	Dates  []string  `json:"dates"`
	Counts []int     `json:"counts,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// OrderMetrics is the paid-order rollup over a trailing window.
type OrderMetrics struct {
	TotalOrders      int        `json:"totalOrders"`
	TotalValue       float64    `json:"totalValue"`
	PercentageChange float64    `json:"percentageChange"`
	TimeSeriesData   TimeSeries `json:"timeSeriesData"`
}

// CartMetrics counts active-cart creations over a trailing window.
type CartMetrics struct {
	TotalCarts       int        `json:"totalCarts"`
	PercentageChange float64    `json:"percentageChange"`
	TimeSeriesData   TimeSeries `json:"timeSeriesData"`
}

// CartValueMetrics sums the current value of active carts over a trailing
// window.
type CartValueMetrics struct {
	TotalValue       float64    `json:"totalValue"`
	PercentageChange float64    `json:"percentageChange"`
	TimeSeriesData   TimeSeries `json:"timeSeriesData"`
}

// DateRange builds the trailing window [now-(days-1) .. now] of local
// calendar dates. days < 1 yields an empty series.
func DateRange(now time.Time, days int) []string {
	if days < 1 {
		return []string{}
	}
	dates := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(dateLayout))
	}
	return dates
}

// PercentageChange compares the last two buckets of a series: 0 when both
// are zero, 100 when only the current bucket is positive, otherwise the
// relative change in percent.
func PercentageChange(values []float64) float64 {
	var current, previous float64
	if len(values) >= 1 {
		current = values[len(values)-1]
	}
	if len(values) >= 2 {
		previous = values[len(values)-2]
	}
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// bucketKey formats t as a bucket date in now's location. The zero time
// never matches a requested date, so unparsable timestamps fall out of
// the series without special-casing.
func bucketKey(t time.Time, now time.Time) string {
	return t.In(now.Location()).Format(dateLayout)
}

func countsToFloats(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}

// OrderMetricsFrom derives order metrics from a snapshot for a trailing
// window of days ending at now.
func OrderMetricsFrom(snap *Snapshot, days int, now time.Time) OrderMetrics {
	type bucket struct {
		count int
		value float64
	}
	grouped := make(map[string]bucket)
	for _, order := range snap.PaidOrders.Orders {
		key := bucketKey(order.CreatedAt, now)
		b := grouped[key]
		b.count++
		b.value += order.TotalValue
		grouped[key] = b
	}

	dates := DateRange(now, days)
	counts := make([]int, len(dates))
	values := make([]float64, len(dates))
	for i, d := range dates {
		counts[i] = grouped[d].count
		values[i] = grouped[d].value
	}

	return OrderMetrics{
		TotalOrders:      len(snap.PaidOrders.Orders),
		TotalValue:       snap.PaidOrders.TotalValue,
		PercentageChange: PercentageChange(countsToFloats(counts)),
		TimeSeriesData:   TimeSeries{Dates: dates, Counts: counts, Values: values},
	}
}

// CartMetricsFrom derives active-cart counts from a snapshot. Every
// qualifying creation event counts; carts are deliberately not collapsed
// through latest-state resolution here, unlike cart value.
func CartMetricsFrom(snap *Snapshot, days int, now time.Time) CartMetrics {
	creations := snap.EventsByType[shopify.KindCartCreation]
	grouped := make(map[string]int)
	for _, ev := range creations {
		grouped[bucketKey(ev.Timestamp, now)]++
	}

	dates := DateRange(now, days)
	counts := make([]int, len(dates))
	for i, d := range dates {
		counts[i] = grouped[d]
	}

	return CartMetrics{
		TotalCarts:       len(creations),
		PercentageChange: PercentageChange(countsToFloats(counts)),
		TimeSeriesData:   TimeSeries{Dates: dates, Counts: counts},
	}
}

// CartValueMetricsFrom derives current cart value from a snapshot: each
// active cart contributes whatever it most recently held, bucketed by the
// date of that last observation.
func CartValueMetricsFrom(snap *Snapshot, days int, now time.Time) CartValueMetrics {
	latest := ResolveLatest(snap.Raw)

	var total float64
	grouped := make(map[string]float64)
	for _, state := range latest {
		total += state.TotalValue
		grouped[bucketKey(state.UpdatedAt, now)] += state.TotalValue
	}

	dates := DateRange(now, days)
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = grouped[d]
	}

	return CartValueMetrics{
		TotalValue:       total,
		PercentageChange: PercentageChange(values),
		TimeSeriesData:   TimeSeries{Dates: dates, Values: values},
	}
}
