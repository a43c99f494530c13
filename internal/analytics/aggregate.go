// Package analytics rolls a full snapshot of orders, products and users up into
// reporting views. Every pass recomputes from the complete input; nothing is
// carried between passes.
package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	Uncategorized = "uncategorized"

	dateLayout = "2006-01-02"

	// orders processed between context checks
	checkEvery = 256
)

type Input struct {
	Orders   []domain.Order
	Products []domain.Product
	Users    []domain.User
}

type Options struct {
	// MaxDays keeps only the most recent N daily buckets. 0 keeps all.
	MaxDays int
	// TopCategories keeps only the K highest-revenue categories. 0 keeps all.
	TopCategories int
	// ExcludeCancelled drops cancelled orders from every rollup.
	ExcludeCancelled bool
}

type DailyRevenue struct {
	Date       string       `json:"date"`
	Revenue    domain.Money `json:"revenue"`
	OrderCount int          `json:"order_count"`
}

type CategoryRollup struct {
	Category   string       `json:"category"`
	Revenue    domain.Money `json:"revenue"`
	OrderCount int          `json:"order_count"`
	UnitsSold  int          `json:"units_sold"`
}

type Totals struct {
	Revenue           domain.Money               `json:"revenue"`
	OrderCount        int                        `json:"order_count"`
	AverageOrderValue domain.Money               `json:"average_order_value"`
	UnitsSold         int                        `json:"units_sold"`
	NewCustomers      int                        `json:"new_customers"`
	Products          int                        `json:"products"`
	OrdersByStatus    map[domain.OrderStatus]int `json:"orders_by_status"`
}

type Snapshot struct {
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	Daily      []DailyRevenue   `json:"daily"`
	Categories []CategoryRollup `json:"categories"`
	Totals     Totals           `json:"totals"`
}

// Aggregate computes the snapshot of in restricted to w.
func Aggregate(ctx context.Context, in Input, w Window, opts Options) (Snapshot, error) {
	if err := w.Validate(); err != nil {
		return Snapshot{}, err
	}
	if opts.MaxDays < 0 || opts.TopCategories < 0 {
		return Snapshot{}, fmt.Errorf("%w: negative truncation option", ErrAggregationInput)
	}

	loc := w.location()
	productCategory := make(map[string]string, len(in.Products))
	for _, p := range in.Products {
		productCategory[p.ID] = p.Category
	}

	days := map[string]*DailyRevenue{}
	categories := map[string]*CategoryRollup{}
	totals := Totals{
		Products:       len(in.Products),
		OrdersByStatus: map[domain.OrderStatus]int{},
	}

	for i, o := range in.Orders {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Snapshot{}, err
			}
		}
		if !w.Contains(o.CreatedAt) {
			continue
		}
		if opts.ExcludeCancelled && o.Status == domain.OrderStatusCancelled {
			continue
		}

		date := o.CreatedAt.In(loc).Format(dateLayout)
		d, ok := days[date]
		if !ok {
			d = &DailyRevenue{Date: date}
			days[date] = d
		}
		d.Revenue += o.Pricing.Total
		d.OrderCount++

		totals.Revenue += o.Pricing.Total
		totals.OrderCount++
		totals.OrdersByStatus[o.Status]++

		touched := map[string]bool{}
		for _, item := range o.Items {
			name := categoryOf(item, productCategory)
			c, ok := categories[name]
			if !ok {
				c = &CategoryRollup{Category: name}
				categories[name] = c
			}
			c.Revenue += item.LineTotal()
			c.UnitsSold += item.Quantity
			if !touched[name] {
				touched[name] = true
				c.OrderCount++
			}
			totals.UnitsSold += item.Quantity
		}
	}

	for _, u := range in.Users {
		if w.Contains(u.CreatedAt) {
			totals.NewCustomers++
		}
	}
	totals.AverageOrderValue = average(totals.Revenue, totals.OrderCount)

	daily := make([]DailyRevenue, 0, len(days))
	for _, d := range days {
		daily = append(daily, *d)
	}
	slices.SortFunc(daily, func(a, b DailyRevenue) int { return cmp.Compare(a.Date, b.Date) })
	if opts.MaxDays > 0 && len(daily) > opts.MaxDays {
		daily = daily[len(daily)-opts.MaxDays:]
	}

	rollups := make([]CategoryRollup, 0, len(categories))
	for _, c := range categories {
		rollups = append(rollups, *c)
	}
	slices.SortFunc(rollups, func(a, b CategoryRollup) int {
		if a.Revenue != b.Revenue {
			return cmp.Compare(b.Revenue, a.Revenue)
		}
		return cmp.Compare(a.Category, b.Category)
	})
	if opts.TopCategories > 0 && len(rollups) > opts.TopCategories {
		rollups = rollups[:opts.TopCategories]
	}

	return Snapshot{
		Start:      w.Start,
		End:        w.End,
		Daily:      daily,
		Categories: rollups,
		Totals:     totals,
	}, nil
}

func categoryOf(item domain.CartLine, productCategory map[string]string) string {
	if item.Category != "" {
		return item.Category
	}
	if c := productCategory[item.Key.ProductID]; c != "" {
		return c
	}
	return Uncategorized
}

func average(total domain.Money, n int) domain.Money {
	if n == 0 {
		return 0
	}
	return domain.Money(total.Decimal().Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}
