package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateSKU      = errors.New("sku already exists")
	ErrInvalidMovement   = errors.New("invalid movement request")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("transaction conflict")
)

// InsufficientStockError carries the numbers the executor needs for a
// friendly negative result. errors.Is(err, ErrInsufficientStock) matches.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// MovementRequest describes one stock mutation. Delta is the signed change;
// SetTo, when non-nil, adjusts to an absolute level and the delta is derived
// inside the transaction against the locked row.
type MovementRequest struct {
	ProductID int64
	Type      MovementType
	Delta     int64
	SetTo     *int64
	Reference string
	Note      string
}

func (r MovementRequest) validate() error {
	if r.ProductID <= 0 {
		return fmt.Errorf("%w: product id is required", ErrInvalidMovement)
	}
	if !ValidMovementTypes[r.Type] {
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovement, r.Type)
	}
	if r.SetTo == nil && r.Delta == 0 {
		return fmt.Errorf("%w: zero delta", ErrInvalidMovement)
	}
	if r.SetTo != nil && *r.SetTo < 0 {
		return fmt.Errorf("%w: negative target level", ErrInvalidMovement)
	}
	return nil
}

// StockChange reports an accepted (or no-op) mutation.
type StockChange struct {
	Product   Product
	Movement  Movement
	Before    int64
	After     int64
	Unchanged bool
}

// Overview summarizes the whole inventory for listing queries.
type Overview struct {
	TotalProducts   int       `json:"total_products"`
	ActiveProducts  int       `json:"active_products"`
	TotalUnits      int64     `json:"total_units"`
	InventoryValue  float64   `json:"inventory_value"`
	LowStockCount   int       `json:"low_stock_count"`
	OutOfStockCount int       `json:"out_of_stock_count"`
	Samples         []Product `json:"samples,omitempty"`
}

// CategoryValue is one row of the stock-weighted value aggregate
// (units priced at wholesale).
type CategoryValue struct {
	Category string  `bun:"category" json:"category"`
	Products int     `bun:"products" json:"products"`
	Units    int64   `bun:"units" json:"units"`
	Value    float64 `bun:"value" json:"value"`
}

// PriceUpdate patches one or more price fields; nil fields are untouched.
type PriceUpdate struct {
	CostPrice      *float64
	WholesalePrice *float64
	RetailPrice    *float64
}

// Store is the transactional boundary the action layer depends on. Read
// methods return detached copies; ApplyMovement is the only write path for
// stock and ledger rows.
type Store interface {
	// FindProduct resolves a free-text reference through three tiers in
	// priority order: case-insensitive partial name match, exact SKU match,
	// partial description match. The first non-empty tier wins.
	FindProduct(ctx context.Context, ref string) ([]Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]Product, error)
	ListProducts(ctx context.Context, limit int) ([]Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]Product, error)
	ListLowStock(ctx context.Context, limit int) ([]Product, error)
	ListOutOfStock(ctx context.Context, limit int) ([]Product, error)

	Overview(ctx context.Context, sampleLimit int) (*Overview, error)
	CategoryValues(ctx context.Context, top int) ([]CategoryValue, error)
	CountMovements(ctx context.Context, since time.Time) (int, error)
	RecentMovements(ctx context.Context, since time.Time, limit int) ([]Movement, error)
	ProductMovements(ctx context.Context, productID int64, since time.Time, movementType MovementType, limit int) ([]Movement, error)

	FindSuppliers(ctx context.Context, name string, limit int) ([]Supplier, error)
	ListCategories(ctx context.Context) ([]Category, error)

	ApplyMovement(ctx context.Context, req MovementRequest) (*StockChange, error)

	CreateCategory(ctx context.Context, c *Category) error
	CreateSupplier(ctx context.Context, s *Supplier) error
	CreateProduct(ctx context.Context, p *Product) error
	UpdatePrices(ctx context.Context, productID int64, update PriceUpdate) (*Product, error)
}

// Config selects and tunes the store implementation.
type Config struct {
	Driver     string        `envconfig:"DRIVER" split_words:"true" default:"memory"`
	DSN        string        `envconfig:"DSN" split_words:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	MaxRetries int           `envconfig:"MAX_RETRIES" split_words:"true" default:"3"`
}
