package reports

import (
	"reflect"
	"testing"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

func order(id, buyerID int64, buyerName, total, orderDate string, cancelled bool) apex.Order {
	return apex.Order{
		ID:        id,
		Total:     total,
		OrderDate: orderDate,
		Cancelled: cancelled,
		BuyerID:   buyerID,
		Buyer:     apex.Buyer{ID: buyerID, Name: buyerName},
	}
}

func item(productID int64, name, category, price string, quantity int) apex.OrderItem {
	return apex.OrderItem{
		ProductID:       productID,
		ProductName:     name,
		OrderPrice:      price,
		OrderQuantity:   quantity,
		ProductCategory: apex.ProductCategory{Name: category},
	}
}

func TestRevenueByMonth(t *testing.T) {
	orders := []apex.Order{
		order(1, 1, "A", "100.00", "2024-02-05", false),
		order(2, 1, "A", "50.00", "2024-01-10", false),
		order(3, 2, "B", "25.00", "2024-01-20", false),
		order(4, 2, "B", "999.00", "2024-01-25", true),
		order(5, 2, "B", "10.00", "not-a-date", false),
	}

	buckets := RevenueByMonth(orders)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(buckets))
	}
	if buckets[0].Month != "2024-01" || buckets[1].Month != "2024-02" {
		t.Fatalf("expected chronological order, got %s then %s", buckets[0].Month, buckets[1].Month)
	}
	if got := buckets[0].Revenue.StringFixed(2); got != "75.00" {
		t.Fatalf("expected cancelled order excluded from January, got %s", got)
	}
	if buckets[0].OrderCount != 2 {
		t.Fatalf("expected 2 January orders, got %d", buckets[0].OrderCount)
	}
	if got := buckets[0].AverageOrderValue.StringFixed(2); got != "37.50" {
		t.Fatalf("unexpected average order value %s", got)
	}
}

func TestStatusDistributionCancelledOverridesStatus(t *testing.T) {
	withStatus := func(o apex.Order, status string) apex.Order {
		o.OrderStatus = apex.OrderStatus{Name: status}
		return o
	}
	orders := []apex.Order{
		withStatus(order(1, 1, "A", "10.00", "2024-01-01", false), "Shipped"),
		withStatus(order(2, 1, "A", "10.00", "2024-01-01", false), "Shipped"),
		withStatus(order(3, 1, "A", "10.00", "2024-01-01", true), "Shipped"),
		withStatus(order(4, 1, "A", "10.00", "2024-01-01", false), "Submitted"),
	}

	buckets := StatusDistribution(orders)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Status != "Shipped" || buckets[0].Count != 2 {
		t.Fatalf("unexpected leading bucket %+v", buckets[0])
	}
	found := false
	for _, bucket := range buckets {
		if bucket.Status == "Cancelled" {
			found = true
			if bucket.Count != 1 || bucket.Proportion != 0.25 {
				t.Fatalf("unexpected cancelled bucket %+v", bucket)
			}
		}
	}
	if !found {
		t.Fatal("cancelled order must land in its own bucket regardless of status name")
	}

	if buckets := StatusDistribution(nil); buckets != nil {
		t.Fatalf("empty collection must yield no buckets, got %v", buckets)
	}
}

func TestTopCustomersExcludesCancelled(t *testing.T) {
	orders := []apex.Order{
		order(1, 7, "Acme", "100.00", "2024-01-05", false),
		order(2, 7, "Acme", "50.00", "2024-01-10", true),
	}

	top := TopCustomers(orders, 5)
	if len(top) != 1 {
		t.Fatalf("expected one customer, got %d", len(top))
	}
	if top[0].BuyerID != 7 || top[0].OrderCount != 1 {
		t.Fatalf("cancelled order must not count, got %+v", top[0])
	}
	if got := top[0].Revenue.StringFixed(2); got != "100.00" {
		t.Fatalf("cancelled order must not contribute revenue, got %s", got)
	}
}

func TestTopCustomersRankingAndTruncation(t *testing.T) {
	orders := []apex.Order{
		order(1, 1, "Low", "10.00", "2024-01-01", false),
		order(2, 2, "High", "300.00", "2024-01-01", false),
		order(3, 3, "Mid", "100.00", "2024-01-01", false),
		order(4, 3, "Mid", "100.00", "2024-01-01", false),
	}

	top := TopCustomers(orders, 2)
	if len(top) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(top))
	}
	if top[0].BuyerID != 2 || top[1].BuyerID != 3 {
		t.Fatalf("unexpected ranking %+v", top)
	}
	if top[1].OrderCount != 2 {
		t.Fatalf("expected order count 2 for buyer 3, got %d", top[1].OrderCount)
	}
}

func TestTopProductsTruncatesLongNames(t *testing.T) {
	o := order(1, 1, "A", "0", "2024-01-01", false)
	o.Items = []apex.OrderItem{
		item(1, "Extraordinarily Long Product Name", "Flower", "5.00", 2),
		item(2, "Short", "Flower", "1.00", 1),
	}

	top := TopProducts([]apex.Order{o}, 5)
	if len(top) != 2 {
		t.Fatalf("expected 2 products, got %d", len(top))
	}
	if top[0].Name != "Extraordinarily Long..." {
		t.Fatalf("expected truncated display name, got %q", top[0].Name)
	}
	if got := top[0].Revenue.StringFixed(2); got != "10.00" {
		t.Fatalf("expected unit price times quantity, got %s", got)
	}
	if top[0].Quantity != 2 {
		t.Fatalf("unexpected quantity %d", top[0].Quantity)
	}
}

func TestTopProductsExcludesCancelled(t *testing.T) {
	active := order(1, 1, "A", "0", "2024-01-01", false)
	active.Items = []apex.OrderItem{item(1, "Widget", "Flower", "5.00", 1)}
	cancelled := order(2, 1, "A", "0", "2024-01-01", true)
	cancelled.Items = []apex.OrderItem{item(1, "Widget", "Flower", "5.00", 100)}

	top := TopProducts([]apex.Order{active, cancelled}, 5)
	if len(top) != 1 || top[0].Quantity != 1 {
		t.Fatalf("cancelled line items must not contribute, got %+v", top)
	}
}

func TestOverview(t *testing.T) {
	orders := []apex.Order{
		order(1, 1, "A", "100.00", "2024-01-01", false),
		order(2, 2, "B", "50.00", "2024-01-01", false),
		order(3, 2, "B", "999.00", "2024-01-01", true),
	}

	overview := Overview(orders)
	if overview.TotalOrders != 3 || overview.CancelledOrders != 1 {
		t.Fatalf("unexpected counts %+v", overview)
	}
	if got := overview.TotalRevenue.StringFixed(2); got != "150.00" {
		t.Fatalf("expected cancelled revenue excluded, got %s", got)
	}
	if got := overview.AverageOrderValue.StringFixed(2); got != "75.00" {
		t.Fatalf("unexpected average order value %s", got)
	}
	if overview.UniqueCustomers != 2 {
		t.Fatalf("expected 2 unique customers, got %d", overview.UniqueCustomers)
	}
}

func TestCategoryPerformance(t *testing.T) {
	first := order(1, 1, "A", "0", "2024-01-01", false)
	first.Items = []apex.OrderItem{
		item(1, "Widget", "Flower", "10.00", 2),
		item(2, "Gadget", "", "3.00", 1),
	}
	second := order(2, 1, "A", "0", "2024-01-01", false)
	second.Items = []apex.OrderItem{item(3, "Gizmo", "Edibles", "50.00", 1)}

	categories := CategoryPerformance([]apex.Order{first, second})
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}
	if categories[0].Category != "Edibles" {
		t.Fatalf("expected revenue-descending order, got %+v", categories)
	}
	if categories[1].Category != "Flower" || categories[1].Quantity != 2 {
		t.Fatalf("unexpected category row %+v", categories[1])
	}
	if categories[2].Category != "Uncategorized" {
		t.Fatalf("expected missing category renamed, got %q", categories[2].Category)
	}
}

func TestAggregationsArePure(t *testing.T) {
	o := order(1, 1, "A", "100.00", "2024-01-05", false)
	o.OrderStatus = apex.OrderStatus{Name: "Shipped"}
	o.Items = []apex.OrderItem{item(1, "Widget", "Flower", "5.00", 2)}
	orders := []apex.Order{o, order(2, 2, "B", "50.00", "2024-02-01", false)}

	if !reflect.DeepEqual(RevenueByMonth(orders), RevenueByMonth(orders)) {
		t.Fatal("RevenueByMonth must be deterministic")
	}
	if !reflect.DeepEqual(StatusDistribution(orders), StatusDistribution(orders)) {
		t.Fatal("StatusDistribution must be deterministic")
	}
	if !reflect.DeepEqual(TopCustomers(orders, 5), TopCustomers(orders, 5)) {
		t.Fatal("TopCustomers must be deterministic")
	}
	if !reflect.DeepEqual(TopProducts(orders, 5), TopProducts(orders, 5)) {
		t.Fatal("TopProducts must be deterministic")
	}
	if !reflect.DeepEqual(ProductAllocation(orders, SortByProduct), ProductAllocation(orders, SortByProduct)) {
		t.Fatal("ProductAllocation must be deterministic")
	}
}
