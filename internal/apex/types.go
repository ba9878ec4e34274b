package apex

// Wire types for the upstream shipping-order source. Monetary fields stay as
// decimal strings end to end; they are only parsed where an aggregate needs
// arithmetic.

// ListResponse is the paginated envelope returned by GET /shipping-orders.
type ListResponse struct {
	Orders []Order `json:"orders"`
	Links  Links   `json:"links"`
	Meta   Meta    `json:"meta"`
}

type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type Meta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	To          int `json:"to"`
	Total       int `json:"total"`
}

// Order is a shipping/sales transaction header. The upstream id is the stable
// identity; the invoice number is human-readable and only unique per id.
type Order struct {
	ID                 int64       `json:"id"`
	UUID               string      `json:"uuid"`
	InvoiceNumber      string      `json:"invoice_number"`
	Subtotal           string      `json:"subtotal"`
	Total              string      `json:"total"`
	ExciseTax          string      `json:"excise_tax"`
	AdditionalDiscount string      `json:"additional_discount"`
	DeliveryCost       string      `json:"delivery_cost"`
	OrderDate          string      `json:"order_date"`
	Cancelled          bool        `json:"cancelled"`
	OrderStatusID      int64       `json:"order_status_id"`
	OrderStatus        OrderStatus `json:"order_status"`
	BuyerID            int64       `json:"buyer_id"`
	Buyer              Buyer       `json:"buyer"`
	ShipName           string      `json:"ship_name"`
	ShipLineOne        string      `json:"ship_line_one"`
	ShipLineTwo        *string     `json:"ship_line_two"`
	ShipCity           string      `json:"ship_city"`
	ShipState          string      `json:"ship_state"`
	ShipZip            string      `json:"ship_zip"`
	ShipCountry        string      `json:"ship_country"`
	ShipFromName       string      `json:"ship_from_name"`
	ShipFromLineOne    string      `json:"ship_from_line_one"`
	ShipFromLineTwo    *string     `json:"ship_from_line_two"`
	ShipFromCity       string      `json:"ship_from_city"`
	ShipFromState      string      `json:"ship_from_state"`
	ShipFromZip        string      `json:"ship_from_zip"`
	ShipFromCountry    string      `json:"ship_from_country"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
	Items              []OrderItem `json:"items"`
}

// HasItems reports whether detail-level data has been loaded for this order.
func (o Order) HasItems() bool {
	return len(o.Items) > 0
}

type Buyer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OrderStatus struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// OrderItem is a line item owned exclusively by its order.
type OrderItem struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"order_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductSKU      string          `json:"product_sku"`
	OrderPrice      string          `json:"order_price"`
	OrderQuantity   int             `json:"order_quantity"`
	ProductCategory ProductCategory `json:"product_category"`
	Brand           Brand           `json:"brand"`
	Images          []ItemImage     `json:"images,omitempty"`
}

type ProductCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ItemImage struct {
	ID        int64  `json:"id"`
	SortOrder int    `json:"sort_order"`
	Link      string `json:"link"`
}
