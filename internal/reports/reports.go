// Package reports derives read-only aggregation views from an order
// collection. Every function is pure: no I/O, no clocks except where the
// caller passes one in, deterministic output for identical input.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

const (
	// DefaultTopN bounds the customer and product leaderboards.
	DefaultTopN = 5

	productNameLimit = 20
)

// MonthBucket is one calendar month of non-cancelled revenue.
type MonthBucket struct {
	Month             string          `json:"month"`
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// StatusBucket is one slice of the status distribution. Cancelled orders are
// always bucketed as "Cancelled" regardless of their underlying status name.
type StatusBucket struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// CustomerSummary aggregates a buyer's non-cancelled orders.
type CustomerSummary struct {
	BuyerID    int64           `json:"buyer_id"`
	Name       string          `json:"name"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"order_count"`
}

// ProductSummary aggregates line items under a display name.
type ProductSummary struct {
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// OverviewSummary is the dashboard's headline metric block.
type OverviewSummary struct {
	TotalOrders       int             `json:"total_orders"`
	CancelledOrders   int             `json:"cancelled_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	UniqueCustomers   int             `json:"unique_customers"`
}

// CategorySummary aggregates revenue and quantity per product category.
type CategorySummary struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// RevenueByMonth groups non-cancelled orders into YYYY-MM buckets of their
// order date, chronologically ascending. Orders whose date cannot be parsed
// are left out rather than polluting a garbage bucket.
func RevenueByMonth(orders []apex.Order) []MonthBucket {
	byMonth := make(map[string]*MonthBucket)
	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		date, ok := parseDate(order.OrderDate)
		if !ok {
			continue
		}
		month := date.Format("2006-01")
		bucket, exists := byMonth[month]
		if !exists {
			bucket = &MonthBucket{Month: month, Revenue: decimal.Zero}
			byMonth[month] = bucket
		}
		bucket.Revenue = bucket.Revenue.Add(parseMoney(order.Total))
		bucket.OrderCount++
	}

	buckets := make([]MonthBucket, 0, len(byMonth))
	for _, bucket := range byMonth {
		if bucket.OrderCount > 0 {
			bucket.AverageOrderValue = bucket.Revenue.DivRound(decimal.NewFromInt(int64(bucket.OrderCount)), 2)
		}
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets
}

// StatusDistribution counts every order into its status bucket, cancellation
// overriding the status label. Proportions are relative to the full
// collection, buckets sorted by count descending then label ascending.
func StatusDistribution(orders []apex.Order) []StatusBucket {
	if len(orders) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, order := range orders {
		counts[statusLabel(order)]++
	}

	total := len(orders)
	buckets := make([]StatusBucket, 0, len(counts))
	for status, count := range counts {
		buckets = append(buckets, StatusBucket{
			Status:     status,
			Count:      count,
			Proportion: float64(count) / float64(total),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Status < buckets[j].Status
	})
	return buckets
}

// TopCustomers ranks buyers of non-cancelled orders by revenue descending and
// truncates to the top n. Ties keep first-seen input order.
func TopCustomers(orders []apex.Order, n int) []CustomerSummary {
	if n <= 0 {
		n = DefaultTopN
	}

	byBuyer := make(map[int64]*CustomerSummary)
	var seen []int64
	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		summary, exists := byBuyer[order.BuyerID]
		if !exists {
			summary = &CustomerSummary{BuyerID: order.BuyerID, Name: order.Buyer.Name, Revenue: decimal.Zero}
			byBuyer[order.BuyerID] = summary
			seen = append(seen, order.BuyerID)
		}
		summary.Revenue = summary.Revenue.Add(parseMoney(order.Total))
		summary.OrderCount++
	}

	summaries := make([]CustomerSummary, 0, len(seen))
	for _, id := range seen {
		summaries = append(summaries, *byBuyer[id])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Revenue.GreaterThan(summaries[j].Revenue)
	})
	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

// TopProducts ranks line items of non-cancelled orders by revenue descending,
// grouped under a display name capped at twenty runes. Revenue is unit price
// times quantity per line.
func TopProducts(orders []apex.Order, n int) []ProductSummary {
	if n <= 0 {
		n = DefaultTopN
	}

	byName := make(map[string]*ProductSummary)
	var seen []string
	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		for _, item := range order.Items {
			name := truncateName(item.ProductName)
			summary, exists := byName[name]
			if !exists {
				summary = &ProductSummary{Name: name, Revenue: decimal.Zero}
				byName[name] = summary
				seen = append(seen, name)
			}
			summary.Revenue = summary.Revenue.Add(lineRevenue(item))
			summary.Quantity += item.OrderQuantity
		}
	}

	summaries := make([]ProductSummary, 0, len(seen))
	for _, name := range seen {
		summaries = append(summaries, *byName[name])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Revenue.GreaterThan(summaries[j].Revenue)
	})
	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

// Overview computes the headline metric block. Revenue and the average order
// value exclude cancelled orders; the customer count spans the whole
// collection since identity is not a sum.
func Overview(orders []apex.Order) OverviewSummary {
	summary := OverviewSummary{TotalOrders: len(orders), TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero}

	buyers := make(map[int64]struct{})
	active := 0
	for _, order := range orders {
		buyers[order.BuyerID] = struct{}{}
		if order.Cancelled {
			summary.CancelledOrders++
			continue
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(parseMoney(order.Total))
		active++
	}
	if active > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.DivRound(decimal.NewFromInt(int64(active)), 2)
	}
	summary.UniqueCustomers = len(buyers)
	return summary
}

// CategoryPerformance aggregates non-cancelled line items per product
// category, revenue descending. Items without a category land in
// "Uncategorized".
func CategoryPerformance(orders []apex.Order) []CategorySummary {
	byCategory := make(map[string]*CategorySummary)
	var seen []string
	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		for _, item := range order.Items {
			category := item.ProductCategory.Name
			if category == "" {
				category = "Uncategorized"
			}
			summary, exists := byCategory[category]
			if !exists {
				summary = &CategorySummary{Category: category, Revenue: decimal.Zero}
				byCategory[category] = summary
				seen = append(seen, category)
			}
			summary.Revenue = summary.Revenue.Add(lineRevenue(item))
			summary.Quantity += item.OrderQuantity
		}
	}

	summaries := make([]CategorySummary, 0, len(seen))
	for _, category := range seen {
		summaries = append(summaries, *byCategory[category])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Revenue.GreaterThan(summaries[j].Revenue)
	})
	return summaries
}

func statusLabel(order apex.Order) string {
	if order.Cancelled {
		return "Cancelled"
	}
	if order.OrderStatus.Name == "" {
		return "Unknown"
	}
	return order.OrderStatus.Name
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= productNameLimit {
		return name
	}
	return string(runes[:productNameLimit]) + "..."
}

func lineRevenue(item apex.OrderItem) decimal.Decimal {
	return parseMoney(item.OrderPrice).Mul(decimal.NewFromInt(int64(item.OrderQuantity)))
}

func parseMoney(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
