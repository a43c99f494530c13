package analytics

import (
	"context"
	"fmt"
)

// Growth is the percentage change from previous to current. A zero previous
// value yields 100 when current is positive and 0 otherwise.
func Growth(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

type GrowthMetrics struct {
	Revenue           float64 `json:"revenue"`
	Orders            float64 `json:"orders"`
	AverageOrderValue float64 `json:"average_order_value"`
	UnitsSold         float64 `json:"units_sold"`
	Customers         float64 `json:"customers"`
}

// Compare computes growth between two snapshots built with the same options.
func Compare(current, previous Snapshot) GrowthMetrics {
	c, p := current.Totals, previous.Totals
	return GrowthMetrics{
		Revenue:           Growth(int64(c.Revenue), int64(p.Revenue)),
		Orders:            Growth(int64(c.OrderCount), int64(p.OrderCount)),
		AverageOrderValue: Growth(int64(c.AverageOrderValue), int64(p.AverageOrderValue)),
		UnitsSold:         Growth(int64(c.UnitsSold), int64(p.UnitsSold)),
		Customers:         Growth(int64(c.NewCustomers), int64(p.NewCustomers)),
	}
}

type Report struct {
	Current  Snapshot      `json:"current"`
	Previous Snapshot      `json:"previous"`
	Growth   GrowthMetrics `json:"growth"`
}

// BuildReport aggregates in over two disjoint bounded windows and compares them.
func BuildReport(ctx context.Context, in Input, current, previous Window, opts Options) (Report, error) {
	if !current.Bounded() || !previous.Bounded() {
		return Report{}, fmt.Errorf("%w: report windows must be bounded", ErrAggregationInput)
	}
	if current.Overlaps(previous) {
		return Report{}, fmt.Errorf("%w: current and previous windows overlap", ErrAggregationInput)
	}

	cur, err := Aggregate(ctx, in, current, opts)
	if err != nil {
		return Report{}, err
	}
	prev, err := Aggregate(ctx, in, previous, opts)
	if err != nil {
		return Report{}, err
	}

	return Report{Current: cur, Previous: prev, Growth: Compare(cur, prev)}, nil
}
