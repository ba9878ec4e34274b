package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/apexhq/shipdash-backend/internal/apex"
)

// AllocationSort selects the product allocation sort key.
type AllocationSort string

const (
	SortByProduct  AllocationSort = "product"
	SortByValue    AllocationSort = "value"
	SortByQuantity AllocationSort = "quantity"
	SortByStores   AllocationSort = "stores"
)

// ValidAllocationSort reports whether s names a known sort key.
func ValidAllocationSort(s AllocationSort) bool {
	switch s {
	case SortByProduct, SortByValue, SortByQuantity, SortByStores:
		return true
	}
	return false
}

// StoreRow is one product shipment to one destination store.
type StoreRow struct {
	StoreName     string          `json:"store_name"`
	StoreAddress  string          `json:"store_address"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       int64           `json:"order_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     string          `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	OrderDate     string          `json:"order_date"`
}

// ProductAllocationRow cross-tabulates one product across destination stores.
type ProductAllocationRow struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Brand        string          `json:"brand"`
	Category     string          `json:"category"`
	Quantity     int             `json:"quantity"`
	Value        decimal.Decimal `json:"value"`
	StoreCount   int             `json:"store_count"`
	InvoiceCount int             `json:"invoice_count"`
	Stores       []StoreRow      `json:"stores"`
}

// StoreProduct is one product line inside a store-centric allocation.
type StoreProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

// StoreAllocationRow cross-tabulates one destination store across products.
type StoreAllocationRow struct {
	StoreName    string          `json:"store_name"`
	StoreAddress string          `json:"store_address"`
	InvoiceCount int             `json:"invoice_count"`
	ProductCount int             `json:"product_count"`
	Quantity     int             `json:"quantity"`
	Value        decimal.Decimal `json:"value"`
	Products     []StoreProduct  `json:"products"`
}

// ProductAllocation builds the product-centric cross-tab over non-cancelled
// orders. Per-store rows are sorted store name ascending then order date
// descending; the row order follows sortBy, ties keeping first-seen input
// order.
func ProductAllocation(orders []apex.Order, sortBy AllocationSort) []ProductAllocationRow {
	byProduct := make(map[int64]*ProductAllocationRow)
	var seen []int64

	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		address := shipAddress(order)
		for _, item := range order.Items {
			row, exists := byProduct[item.ProductID]
			if !exists {
				row = &ProductAllocationRow{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					ProductSKU:  item.ProductSKU,
					Brand:       item.Brand.Name,
					Category:    item.ProductCategory.Name,
					Value:       decimal.Zero,
				}
				byProduct[item.ProductID] = row
				seen = append(seen, item.ProductID)
			}
			lineTotal := lineRevenue(item)
			row.Stores = append(row.Stores, StoreRow{
				StoreName:     order.ShipName,
				StoreAddress:  address,
				InvoiceNumber: order.InvoiceNumber,
				OrderID:       order.ID,
				Quantity:      item.OrderQuantity,
				UnitPrice:     item.OrderPrice,
				TotalPrice:    lineTotal,
				OrderDate:     order.OrderDate,
			})
			row.Quantity += item.OrderQuantity
			row.Value = row.Value.Add(lineTotal)
		}
	}

	rows := make([]ProductAllocationRow, 0, len(seen))
	for _, id := range seen {
		row := byProduct[id]

		stores := make(map[string]struct{})
		invoices := make(map[string]struct{})
		for _, allocation := range row.Stores {
			stores[allocation.StoreName] = struct{}{}
			invoices[allocation.InvoiceNumber] = struct{}{}
		}
		row.StoreCount = len(stores)
		row.InvoiceCount = len(invoices)

		sort.SliceStable(row.Stores, func(i, j int) bool {
			if row.Stores[i].StoreName != row.Stores[j].StoreName {
				return row.Stores[i].StoreName < row.Stores[j].StoreName
			}
			return row.Stores[i].OrderDate > row.Stores[j].OrderDate
		})
		rows = append(rows, *row)
	}

	sortProductRows(rows, sortBy)
	return rows
}

// StoreAllocation builds the store-centric cross-tab over non-cancelled
// orders, sorted by store name ascending. Stores are keyed by name plus
// city/state so same-named outlets in different locations stay distinct.
func StoreAllocation(orders []apex.Order) []StoreAllocationRow {
	byStore := make(map[string]*StoreAllocationRow)
	var seen []string

	for _, order := range orders {
		if order.Cancelled {
			continue
		}
		key := order.ShipName + "|" + order.ShipCity + ", " + order.ShipState
		row, exists := byStore[key]
		if !exists {
			row = &StoreAllocationRow{
				StoreName:    order.ShipName,
				StoreAddress: shipAddress(order),
				Value:        decimal.Zero,
			}
			byStore[key] = row
			seen = append(seen, key)
		}
		row.InvoiceCount++

		for _, item := range order.Items {
			lineTotal := lineRevenue(item)
			product := findStoreProduct(row, item.ProductID)
			if product == nil {
				row.Products = append(row.Products, StoreProduct{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					ProductSKU:  item.ProductSKU,
					Brand:       item.Brand.Name,
					Category:    item.ProductCategory.Name,
					Value:       decimal.Zero,
				})
				product = &row.Products[len(row.Products)-1]
			}
			product.Quantity += item.OrderQuantity
			product.Value = product.Value.Add(lineTotal)

			row.Quantity += item.OrderQuantity
			row.Value = row.Value.Add(lineTotal)
		}
		row.ProductCount = len(row.Products)
	}

	rows := make([]StoreAllocationRow, 0, len(seen))
	for _, key := range seen {
		rows = append(rows, *byStore[key])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StoreName < rows[j].StoreName
	})
	return rows
}

func sortProductRows(rows []ProductAllocationRow, sortBy AllocationSort) {
	switch sortBy {
	case SortByValue:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value.GreaterThan(rows[j].Value) })
	case SortByQuantity:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Quantity > rows[j].Quantity })
	case SortByStores:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].StoreCount > rows[j].StoreCount })
	default:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].ProductName < rows[j].ProductName })
	}
}

func findStoreProduct(row *StoreAllocationRow, productID int64) *StoreProduct {
	for i := range row.Products {
		if row.Products[i].ProductID == productID {
			return &row.Products[i]
		}
	}
	return nil
}

func shipAddress(order apex.Order) string {
	var b strings.Builder
	b.WriteString(order.ShipLineOne)
	if order.ShipLineTwo != nil && *order.ShipLineTwo != "" {
		b.WriteString(", ")
		b.WriteString(*order.ShipLineTwo)
	}
	b.WriteString(", ")
	b.WriteString(order.ShipCity)
	b.WriteString(", ")
	b.WriteString(order.ShipState)
	b.WriteString(" ")
	b.WriteString(order.ShipZip)
	return b.String()
}
