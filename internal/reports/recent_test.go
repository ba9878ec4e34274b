package reports

import (
	"testing"
	"time"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

func updatedOrder(id int64, status string, createdAt, updatedAt time.Time, withItems bool) apex.Order {
	o := apex.Order{
		ID:          id,
		OrderStatus: apex.OrderStatus{Name: status},
		CreatedAt:   createdAt.Format(time.RFC3339),
		UpdatedAt:   updatedAt.Format(time.RFC3339),
	}
	if withItems {
		o.Items = []apex.OrderItem{{ID: id, OrderID: id, ProductID: 1, OrderQuantity: 1}}
	}
	return o
}

func TestRecentlyUpdatedWindowAndOrdering(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	orders := []apex.Order{
		updatedOrder(1, "Submitted", now.Add(-48*time.Hour), now.Add(-24*time.Hour), false),
		updatedOrder(2, "Submitted", now.Add(-10*24*time.Hour), now.Add(-8*24*time.Hour), false),
		updatedOrder(3, "Submitted", now.Add(-3*time.Hour), now.Add(-time.Hour), false),
		{ID: 4, UpdatedAt: "garbage"},
	}

	recent := RecentlyUpdated(orders, now, DefaultRecentWindow, DefaultRecentLimit)
	if len(recent) != 2 {
		t.Fatalf("expected only in-window orders, got %d", len(recent))
	}
	if recent[0].ID != 3 || recent[1].ID != 1 {
		t.Fatalf("expected newest first, got %d then %d", recent[0].ID, recent[1].ID)
	}
}

func TestRecentlyUpdatedLimit(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var orders []apex.Order
	for i := 1; i <= 15; i++ {
		orders = append(orders, updatedOrder(int64(i), "Submitted", now.Add(-48*time.Hour), now.Add(-time.Duration(i)*time.Hour), false))
	}

	recent := RecentlyUpdated(orders, now, DefaultRecentWindow, DefaultRecentLimit)
	if len(recent) != DefaultRecentLimit {
		t.Fatalf("expected limit of %d, got %d", DefaultRecentLimit, len(recent))
	}
}

func TestClassifyUpdateHeuristic(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		order  apex.Order
		expect UpdateKind
	}{
		{
			name:   "progress status well after creation",
			order:  updatedOrder(1, "Processing", now.Add(-2*time.Hour), now.Add(-time.Hour), false),
			expect: UpdateStatus,
		},
		{
			name:   "shipped keyword matches case-insensitively",
			order:  updatedOrder(2, "SHIPPED", now.Add(-2*time.Hour), now.Add(-time.Hour), false),
			expect: UpdateStatus,
		},
		{
			name:   "items present with neutral status",
			order:  updatedOrder(3, "Submitted", now.Add(-2*time.Hour), now.Add(-time.Hour), true),
			expect: UpdateItems,
		},
		{
			name:   "updated right at creation",
			order:  updatedOrder(4, "Processing", now.Add(-time.Hour), now.Add(-time.Hour).Add(30*time.Second), true),
			expect: UpdateGeneral,
		},
		{
			name:   "neutral status without items",
			order:  updatedOrder(5, "Submitted", now.Add(-2*time.Hour), now.Add(-time.Hour), false),
			expect: UpdateGeneral,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recent := RecentlyUpdated([]apex.Order{tc.order}, now, DefaultRecentWindow, DefaultRecentLimit)
			if len(recent) != 1 {
				t.Fatalf("expected the order in window, got %d results", len(recent))
			}
			if recent[0].UpdateKind != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, recent[0].UpdateKind)
			}
		})
	}
}

func TestHumanizeSince(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		expect  string
	}{
		{5 * time.Minute, "5m ago"},
		{59 * time.Minute, "59m ago"},
		{90 * time.Minute, "1h ago"},
		{23 * time.Hour, "23h ago"},
		{25 * time.Hour, "1d ago"},
		{8 * 24 * time.Hour, "8d ago"},
		{-time.Minute, "0m ago"},
	}

	for _, tc := range cases {
		t.Run(tc.elapsed.String(), func(t *testing.T) {
			if got := humanizeSince(tc.elapsed); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}
