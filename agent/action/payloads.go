package action

import (
	"time"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/inventory"
)

// ProductView is the renderer-facing projection of a product.
type ProductView struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Category       string  `json:"category,omitempty"`
	Supplier       string  `json:"supplier,omitempty"`
	CurrentStock   int64   `json:"current_stock"`
	MinimumStock   int64   `json:"minimum_stock"`
	StockStatus    string  `json:"stock_status"`
	WholesalePrice float64 `json:"wholesale_price"`
	RetailPrice    float64 `json:"retail_price,omitempty"`
}

func toProductView(p inventory.Product) ProductView {
	v := ProductView{
		SKU:            p.SKU,
		Name:           p.Name,
		CurrentStock:   p.CurrentStock,
		MinimumStock:   p.MinimumStock,
		StockStatus:    string(p.StockStatus()),
		WholesalePrice: p.WholesalePrice,
		RetailPrice:    p.RetailPrice,
	}
	if p.Category != nil {
		v.Category = p.Category.Name
	}
	if p.Supplier != nil {
		v.Supplier = p.Supplier.Name
	}
	return v
}

func toProductViews(products []inventory.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	return views
}

func viewNames(views []ProductView) []string {
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Name)
	}
	return names
}

// ProductStock answers "how much X do we have".
type ProductStock struct {
	Products []ProductView `json:"products"`
}

func (p ProductStock) EntityNames() []string { return viewNames(p.Products) }

// ProductList is a capped catalog listing.
type ProductList struct {
	Products []ProductView `json:"products"`
	Scope    string        `json:"scope,omitempty"`
	Term     string        `json:"term,omitempty"`
}

func (p ProductList) EntityNames() []string { return viewNames(p.Products) }

// InventoryOverview summarizes the whole inventory.
type InventoryOverview struct {
	TotalProducts   int           `json:"total_products"`
	ActiveProducts  int           `json:"active_products"`
	TotalUnits      int64         `json:"total_units"`
	InventoryValue  float64       `json:"inventory_value"`
	LowStockCount   int           `json:"low_stock_count"`
	OutOfStockCount int           `json:"out_of_stock_count"`
	Samples         []ProductView `json:"samples,omitempty"`
}

// StockChangeInfo confirms a stock mutation.
type StockChangeInfo struct {
	Product       ProductView `json:"product"`
	MovementType  string      `json:"movement_type"`
	Quantity      int64       `json:"quantity"`
	PreviousStock int64       `json:"previous_stock"`
	NewStock      int64       `json:"new_stock"`
	Reference     string      `json:"reference,omitempty"`
	Unchanged     bool        `json:"unchanged,omitempty"`
	Warning       string      `json:"warning,omitempty"`
}

func (s StockChangeInfo) EntityNames() []string { return []string{s.Product.Name} }

// AnalyticsReport carries business totals for the analytics intent.
type AnalyticsReport struct {
	TotalProducts   int                       `json:"total_products"`
	ActiveProducts  int                       `json:"active_products"`
	TotalUnits      int64                     `json:"total_units"`
	InventoryValue  float64                   `json:"inventory_value"`
	LowStockCount   int                       `json:"low_stock_count"`
	OutOfStockCount int                       `json:"out_of_stock_count"`
	TopCategories   []inventory.CategoryValue `json:"top_categories,omitempty"`
	RecentMovements int                       `json:"recent_movements"`
	WindowDays      int                       `json:"window_days"`
}

// SupplierView is the renderer-facing projection of a supplier.
type SupplierView struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	PaymentTerms string `json:"payment_terms,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// SupplierReport lists suppliers, optionally scoped to one product.
type SupplierReport struct {
	Suppliers []SupplierView `json:"suppliers"`
	Product   string         `json:"product,omitempty"`
}

func (s SupplierReport) EntityNames() []string {
	if s.Product == "" {
		return nil
	}
	return []string{s.Product}
}

// PriceView pairs the three price points with derived wholesale margin.
type PriceView struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	CostPrice      float64 `json:"cost_price"`
	WholesalePrice float64 `json:"wholesale_price"`
	RetailPrice    float64 `json:"retail_price,omitempty"`
	CurrentStock   int64   `json:"current_stock"`
	Margin         float64 `json:"margin"`
	MarginPercent  float64 `json:"margin_percent,omitempty"`
}

// PriceReport answers price queries.
type PriceReport struct {
	Products []PriceView `json:"products"`
}

func (p PriceReport) EntityNames() []string {
	names := make([]string, 0, len(p.Products))
	for _, v := range p.Products {
		names = append(names, v.Name)
	}
	return names
}

// LowStockReport pairs the low-stock list with the out-of-stock list.
type LowStockReport struct {
	LowStock   []ProductView `json:"low_stock"`
	OutOfStock []ProductView `json:"out_of_stock"`
}

// MovementView is one ledger row for display.
type MovementView struct {
	Product    string    `json:"product,omitempty"`
	Type       string    `json:"movement_type"`
	Quantity   int64     `json:"quantity"`
	StockAfter int64     `json:"stock_after"`
	Reference  string    `json:"reference,omitempty"`
	At         time.Time `json:"at"`
}

// ProductHistory is the per-product slice of the ledger.
type ProductHistory struct {
	Product     ProductView    `json:"product"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
	Movements   []MovementView `json:"movements,omitempty"`
}

// MovementHistory answers history queries for one product or store-wide.
type MovementHistory struct {
	Products   []ProductHistory `json:"products,omitempty"`
	StoreWide  []MovementView   `json:"store_wide,omitempty"`
	WindowDays int              `json:"window_days"`
}

func (m MovementHistory) EntityNames() []string {
	names := make([]string, 0, len(m.Products))
	for _, h := range m.Products {
		names = append(names, h.Product.Name)
	}
	return names
}

// Capability is one thing the agent can do, with example phrasings.
type Capability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// CapabilitiesReport answers "what can you do".
type CapabilitiesReport struct {
	Capabilities []Capability `json:"capabilities"`
}

var (
	_ contractx.EntityCarrier = ProductStock{}
	_ contractx.EntityCarrier = ProductList{}
	_ contractx.EntityCarrier = StockChangeInfo{}
	_ contractx.EntityCarrier = SupplierReport{}
	_ contractx.EntityCarrier = PriceReport{}
	_ contractx.EntityCarrier = MovementHistory{}
)
