package reports

import (
	"testing"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

func shippedOrder(id int64, invoice, store, city, state, date string, items ...apex.OrderItem) apex.Order {
	return apex.Order{
		ID:            id,
		InvoiceNumber: invoice,
		OrderDate:     date,
		ShipName:      store,
		ShipLineOne:   "1 Main St",
		ShipCity:      city,
		ShipState:     state,
		ShipZip:       "90210",
		Items:         items,
	}
}

func TestProductAllocationCrossTab(t *testing.T) {
	orders := []apex.Order{
		shippedOrder(1, "INV-1", "Store B", "Oakland", "CA", "2024-01-10",
			item(1, "Widget", "Flower", "10.00", 2)),
		shippedOrder(2, "INV-2", "Store A", "Fresno", "CA", "2024-01-15",
			item(1, "Widget", "Flower", "10.00", 3),
			item(2, "Gadget", "Edibles", "4.00", 1)),
		shippedOrder(3, "INV-3", "Store A", "Fresno", "CA", "2024-01-05",
			item(1, "Widget", "Flower", "10.00", 1)),
	}

	rows := ProductAllocation(orders, SortByProduct)
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}

	gadget, widget := rows[0], rows[1]
	if gadget.ProductName != "Gadget" || widget.ProductName != "Widget" {
		t.Fatalf("expected name-ascending order, got %q then %q", rows[0].ProductName, rows[1].ProductName)
	}
	if widget.Quantity != 6 {
		t.Fatalf("expected total quantity 6, got %d", widget.Quantity)
	}
	if got := widget.Value.StringFixed(2); got != "60.00" {
		t.Fatalf("expected value 60.00, got %s", got)
	}
	if widget.StoreCount != 2 || widget.InvoiceCount != 3 {
		t.Fatalf("unexpected distinct counts %+v", widget)
	}

	// Per-store rows: store ascending, then date descending within a store.
	stores := widget.Stores
	if len(stores) != 3 {
		t.Fatalf("expected 3 shipment rows, got %d", len(stores))
	}
	if stores[0].StoreName != "Store A" || stores[0].OrderDate != "2024-01-15" {
		t.Fatalf("unexpected first row %+v", stores[0])
	}
	if stores[1].StoreName != "Store A" || stores[1].OrderDate != "2024-01-05" {
		t.Fatalf("unexpected second row %+v", stores[1])
	}
	if stores[2].StoreName != "Store B" {
		t.Fatalf("unexpected third row %+v", stores[2])
	}
}

func TestProductAllocationSortKeys(t *testing.T) {
	orders := []apex.Order{
		shippedOrder(1, "INV-1", "Store A", "Fresno", "CA", "2024-01-01",
			item(1, "Alpha", "Flower", "1.00", 10)),
		shippedOrder(2, "INV-2", "Store B", "Oakland", "CA", "2024-01-02",
			item(2, "Beta", "Flower", "100.00", 1)),
		shippedOrder(3, "INV-3", "Store C", "Chico", "CA", "2024-01-03",
			item(1, "Alpha", "Flower", "1.00", 1)),
	}

	if rows := ProductAllocation(orders, SortByValue); rows[0].ProductName != "Beta" {
		t.Fatalf("value sort: expected Beta first, got %q", rows[0].ProductName)
	}
	if rows := ProductAllocation(orders, SortByQuantity); rows[0].ProductName != "Alpha" {
		t.Fatalf("quantity sort: expected Alpha first, got %q", rows[0].ProductName)
	}
	if rows := ProductAllocation(orders, SortByStores); rows[0].ProductName != "Alpha" {
		t.Fatalf("stores sort: expected Alpha first, got %q", rows[0].ProductName)
	}
}

func TestProductAllocationSkipsCancelled(t *testing.T) {
	cancelled := shippedOrder(1, "INV-1", "Store A", "Fresno", "CA", "2024-01-01",
		item(1, "Widget", "Flower", "10.00", 5))
	cancelled.Cancelled = true

	if rows := ProductAllocation([]apex.Order{cancelled}, SortByProduct); len(rows) != 0 {
		t.Fatalf("cancelled orders must not allocate, got %+v", rows)
	}
}

func TestStoreAllocationCrossTab(t *testing.T) {
	orders := []apex.Order{
		shippedOrder(1, "INV-1", "Store A", "Fresno", "CA", "2024-01-01",
			item(1, "Widget", "Flower", "10.00", 2)),
		shippedOrder(2, "INV-2", "Store A", "Fresno", "CA", "2024-01-02",
			item(1, "Widget", "Flower", "10.00", 1),
			item(2, "Gadget", "Edibles", "4.00", 3)),
		shippedOrder(3, "INV-3", "Store A", "Reno", "NV", "2024-01-03",
			item(1, "Widget", "Flower", "10.00", 1)),
	}

	rows := StoreAllocation(orders)
	if len(rows) != 2 {
		t.Fatalf("same-named stores in different locations must stay distinct, got %d rows", len(rows))
	}

	fresno := rows[0]
	if fresno.InvoiceCount != 2 || fresno.ProductCount != 2 {
		t.Fatalf("unexpected store row %+v", fresno)
	}
	if fresno.Quantity != 6 {
		t.Fatalf("expected quantity 6, got %d", fresno.Quantity)
	}
	if got := fresno.Value.StringFixed(2); got != "42.00" {
		t.Fatalf("expected value 42.00, got %s", got)
	}
	if len(fresno.Products) != 2 || fresno.Products[0].Quantity != 3 {
		t.Fatalf("expected widget lines merged per store, got %+v", fresno.Products)
	}
}

func TestValidAllocationSort(t *testing.T) {
	for _, valid := range []AllocationSort{SortByProduct, SortByValue, SortByQuantity, SortByStores} {
		if !ValidAllocationSort(valid) {
			t.Fatalf("expected %q to be valid", valid)
		}
	}
	if ValidAllocationSort("revenue") {
		t.Fatal("unknown sort key must be rejected")
	}
}
