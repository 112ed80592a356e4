package inventory

import (
	"time"

	"github.com/uptrace/bun"
)

type StockStatus string

const (
	StatusOutOfStock  StockStatus = "OUT_OF_STOCK"
	StatusLowStock    StockStatus = "LOW_STOCK"
	StatusOverstocked StockStatus = "OVERSTOCKED"
	StatusInStock     StockStatus = "IN_STOCK"
)

// MovementType tags one ledger entry. Stock mutations emit the first four;
// RETURN and TRANSFER exist for externally imported ledgers.
type MovementType string

const (
	MovementInbound    MovementType = "INBOUND"
	MovementOutbound   MovementType = "OUTBOUND"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementDamaged    MovementType = "DAMAGED"
	MovementReturn     MovementType = "RETURN"
	MovementTransfer   MovementType = "TRANSFER"
)

var ValidMovementTypes = map[MovementType]bool{
	MovementInbound:    true,
	MovementOutbound:   true,
	MovementAdjustment: true,
	MovementDamaged:    true,
	MovementReturn:     true,
	MovementTransfer:   true,
}

// Decreases reports whether the movement type reduces stock, which is the
// case that needs the non-negativity check.
func (t MovementType) Decreases() bool {
	return t == MovementOutbound || t == MovementDamaged
}

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull,unique" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	ParentID    *int64    `bun:"parent_id" json:"parent_id,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Supplier struct {
	bun.BaseModel `bun:"table:suppliers,alias:s"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name,notnull,unique" json:"name"`
	ContactEmail string    `bun:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string    `bun:"contact_phone" json:"contact_phone,omitempty"`
	PaymentTerms string    `bun:"payment_terms" json:"payment_terms,omitempty"`
	IsActive     bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Product is master data. CurrentStock changes only through ApplyMovement;
// nothing else writes it.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	SKU            string    `bun:"sku,notnull,unique" json:"sku"`
	Name           string    `bun:"name,notnull" json:"name"`
	Description    string    `bun:"description" json:"description,omitempty"`
	CategoryID     int64     `bun:"category_id,notnull" json:"category_id"`
	SupplierID     int64     `bun:"supplier_id,notnull" json:"supplier_id"`
	CostPrice      float64   `bun:"cost_price,notnull" json:"cost_price"`
	WholesalePrice float64   `bun:"wholesale_price,notnull" json:"wholesale_price"`
	RetailPrice    float64   `bun:"retail_price" json:"retail_price"`
	CurrentStock   int64     `bun:"current_stock,notnull,default:0" json:"current_stock"`
	MinimumStock   int64     `bun:"minimum_stock,notnull,default:10" json:"minimum_stock"`
	MaximumStock   int64     `bun:"maximum_stock,notnull,default:1000" json:"maximum_stock"`
	IsActive       bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Supplier *Supplier `bun:"rel:belongs-to,join:supplier_id=id" json:"supplier,omitempty"`
}

// StockStatus derives the display status from stock versus thresholds.
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.CurrentStock <= 0:
		return StatusOutOfStock
	case p.CurrentStock <= p.MinimumStock:
		return StatusLowStock
	case p.MaximumStock > 0 && p.CurrentStock >= p.MaximumStock:
		return StatusOverstocked
	default:
		return StatusInStock
	}
}

// Deficit is how far stock sits below the reorder threshold.
func (p *Product) Deficit() int64 {
	d := p.MinimumStock - p.CurrentStock
	if d < 0 {
		return 0
	}
	return d
}

// Movement is one append-only ledger row. Rows are never updated or deleted.
type Movement struct {
	bun.BaseModel `bun:"table:inventory_movements,alias:m"`

	ID          int64        `bun:"id,pk,autoincrement" json:"id"`
	ProductID   int64        `bun:"product_id,notnull" json:"product_id"`
	Type        MovementType `bun:"movement_type,notnull" json:"movement_type"`
	Quantity    int64        `bun:"quantity,notnull" json:"quantity"`
	StockBefore int64        `bun:"stock_before,notnull" json:"stock_before"`
	StockAfter  int64        `bun:"stock_after,notnull" json:"stock_after"`
	Reference   string       `bun:"reference" json:"reference,omitempty"`
	Note        string       `bun:"note" json:"note,omitempty"`
	CreatedAt   time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Product *Product `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
}
