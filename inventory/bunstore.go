package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore backs the Store interface with Postgres. Stock mutations run in a
// transaction that locks the product row, so concurrent movements against
// the same product serialize instead of double-spending stock.
type BunStore struct {
	db         *bun.DB
	timeout    time.Duration
	maxRetries int
	now        func() time.Time
}

// OpenPostgres dials Postgres through pgdriver and wraps the pool in bun.
func OpenPostgres(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewBunStore(db *bun.DB, cfg Config) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &BunStore{
		db:         db,
		timeout:    cfg.Timeout,
		maxRetries: retries,
		now:        time.Now,
	}, nil
}

var _ Store = (*BunStore)(nil)

// EnsureSchema creates the tables and indexes this store reads and writes.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	models := []any{
		(*Category)(nil),
		(*Supplier)(nil),
		(*Product)(nil),
		(*Movement)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		name    string
		columns []string
	}{
		{name: "movements_product_id_idx", columns: []string{"product_id"}},
		{name: "movements_created_at_idx", columns: []string{"created_at"}},
	}
	for _, idx := range indexes {
		q := s.db.NewCreateIndex().Model((*Movement)(nil)).Index(idx.name).IfNotExists()
		for _, col := range idx.columns {
			q = q.Column(col)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *BunStore) FindProduct(ctx context.Context, ref string) ([]Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrProductNotFound)
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pattern := "%" + ref + "%"
	tiers := []func(*bun.SelectQuery) *bun.SelectQuery{
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where("p.name ILIKE ?", pattern) },
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where("upper(p.sku) = upper(?)", ref) },
		func(q *bun.SelectQuery) *bun.SelectQuery { return q.Where("p.description ILIKE ?", pattern) },
	}
	for _, tier := range tiers {
		var products []Product
		q := tier(s.productQuery(&products)).Limit(findLimit)
		if err := q.Scan(ctx); err != nil {
			return nil, fmt.Errorf("find product: %w", err)
		}
		if len(products) > 0 {
			return products, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrProductNotFound, ref)
}

func (s *BunStore) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var products []Product
	q := s.productQuery(&products)
	term = strings.TrimSpace(term)
	if term != "" {
		pattern := "%" + term + "%"
		q = q.Where("p.name ILIKE ? OR p.sku ILIKE ? OR p.description ILIKE ?", pattern, pattern, pattern)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (s *BunStore) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var products []Product
	q := s.productQuery(&products).Where("p.is_active")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *BunStore) ListByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var products []Product
	q := s.productQuery(&products).
		Join("JOIN categories AS c ON c.id = p.category_id").
		Where("c.name ILIKE ?", "%"+strings.TrimSpace(category)+"%")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list by category: %w", err)
	}
	return products, nil
}

func (s *BunStore) ListLowStock(ctx context.Context, limit int) ([]Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var products []Product
	q := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		Where("p.current_stock > 0").
		Where("p.current_stock <= p.minimum_stock").
		OrderExpr("p.current_stock ASC, p.name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

func (s *BunStore) ListOutOfStock(ctx context.Context, limit int) ([]Product, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var products []Product
	q := s.productQuery(&products).
		Where("p.is_active").
		Where("p.current_stock <= 0")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list out of stock: %w", err)
	}
	return products, nil
}

func (s *BunStore) Overview(ctx context.Context, sampleLimit int) (*Overview, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ov := new(Overview)
	total, err := s.db.NewSelect().Model((*Product)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	ov.TotalProducts = total

	err = s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(sum(p.current_stock), 0)").
		ColumnExpr("coalesce(sum(p.current_stock * p.wholesale_price), 0)").
		ColumnExpr("count(*) FILTER (WHERE p.current_stock > 0 AND p.current_stock <= p.minimum_stock)").
		ColumnExpr("count(*) FILTER (WHERE p.current_stock <= 0)").
		Where("p.is_active").
		Scan(ctx, &ov.ActiveProducts, &ov.TotalUnits, &ov.InventoryValue, &ov.LowStockCount, &ov.OutOfStockCount)
	if err != nil {
		return nil, fmt.Errorf("aggregate inventory: %w", err)
	}

	if sampleLimit > 0 {
		samples, err := s.ListProducts(ctx, sampleLimit)
		if err != nil {
			return nil, err
		}
		ov.Samples = samples
	}
	return ov, nil
}

func (s *BunStore) CategoryValues(ctx context.Context, top int) ([]CategoryValue, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var values []CategoryValue
	q := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("c.name AS category").
		ColumnExpr("count(*) AS products").
		ColumnExpr("coalesce(sum(p.current_stock), 0) AS units").
		ColumnExpr("coalesce(sum(p.current_stock * p.wholesale_price), 0) AS value").
		Join("JOIN categories AS c ON c.id = p.category_id").
		Where("p.is_active").
		GroupExpr("c.name").
		OrderExpr("value DESC")
	if top > 0 {
		q = q.Limit(top)
	}
	if err := q.Scan(ctx, &values); err != nil {
		return nil, fmt.Errorf("category values: %w", err)
	}
	return values, nil
}

func (s *BunStore) CountMovements(ctx context.Context, since time.Time) (int, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	count, err := s.db.NewSelect().
		Model((*Movement)(nil)).
		Where("m.created_at >= ?", since).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return count, nil
}

func (s *BunStore) RecentMovements(ctx context.Context, since time.Time, limit int) ([]Movement, error) {
	return s.ProductMovements(ctx, 0, since, "", limit)
}

func (s *BunStore) ProductMovements(ctx context.Context, productID int64, since time.Time, movementType MovementType, limit int) ([]Movement, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var movements []Movement
	q := s.db.NewSelect().
		Model(&movements).
		Relation("Product").
		Where("m.created_at >= ?", since).
		OrderExpr("m.created_at DESC, m.id DESC")
	if productID > 0 {
		q = q.Where("m.product_id = ?", productID)
	}
	if movementType != "" {
		q = q.Where("m.movement_type = ?", movementType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

func (s *BunStore) FindSuppliers(ctx context.Context, name string, limit int) ([]Supplier, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var suppliers []Supplier
	q := s.db.NewSelect().Model(&suppliers).OrderExpr("s.name ASC")
	name = strings.TrimSpace(name)
	if name != "" {
		q = q.Where("s.name ILIKE ?", "%"+name+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("find suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *BunStore) ListCategories(ctx context.Context) ([]Category, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var categories []Category
	err := s.db.NewSelect().Model(&categories).OrderExpr("c.name ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *BunStore) ApplyMovement(ctx context.Context, req MovementRequest) (*StockChange, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var change *StockChange
	err := s.withRetry(ctx, func(ctx context.Context) error {
		change = nil
		return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
			product := new(Product)
			err := tx.NewSelect().
				Model(product).
				Where("p.id = ?", req.ProductID).
				For("UPDATE").
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: id=%d", ErrProductNotFound, req.ProductID)
				}
				return fmt.Errorf("lock product row: %w", err)
			}

			before := product.CurrentStock
			delta := req.Delta
			if req.SetTo != nil {
				delta = *req.SetTo - before
			}
			if delta == 0 && req.SetTo != nil {
				change = &StockChange{Product: *product, Before: before, After: before, Unchanged: true}
				return nil
			}

			after := before + delta
			if after < 0 {
				return &InsufficientStockError{Available: before, Requested: -delta}
			}

			now := s.now().UTC()
			product.CurrentStock = after
			product.UpdatedAt = now
			_, err = tx.NewUpdate().
				Model(product).
				Column("current_stock", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update stock: %w", err)
			}

			movement := &Movement{
				ProductID:   req.ProductID,
				Type:        req.Type,
				Quantity:    delta,
				StockBefore: before,
				StockAfter:  after,
				Reference:   req.Reference,
				Note:        req.Note,
				CreatedAt:   now,
			}
			if _, err := tx.NewInsert().Model(movement).Exec(ctx); err != nil {
				return fmt.Errorf("record movement: %w", err)
			}

			change = &StockChange{Product: *product, Movement: *movement, Before: before, After: after}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (s *BunStore) CreateCategory(ctx context.Context, c *Category) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.db.NewInsert().Model(c).Exec(ctx); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *BunStore) CreateSupplier(ctx context.Context, sup *Supplier) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.db.NewInsert().Model(sup).Exec(ctx); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

func (s *BunStore) CreateProduct(ctx context.Context, p *Product) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.db.NewInsert().Model(p).Exec(ctx); err != nil {
		if sqlState(err) == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, p.SKU)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *BunStore) UpdatePrices(ctx context.Context, productID int64, update PriceUpdate) (*Product, error) {
	var out *Product
	err := s.withRetry(ctx, func(ctx context.Context) error {
		out = nil
		return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
			product := new(Product)
			err := tx.NewSelect().
				Model(product).
				Where("p.id = ?", productID).
				For("UPDATE").
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
				}
				return fmt.Errorf("lock product row: %w", err)
			}

			columns := make([]string, 0, 4)
			if update.CostPrice != nil {
				product.CostPrice = *update.CostPrice
				columns = append(columns, "cost_price")
			}
			if update.WholesalePrice != nil {
				product.WholesalePrice = *update.WholesalePrice
				columns = append(columns, "wholesale_price")
			}
			if update.RetailPrice != nil {
				product.RetailPrice = *update.RetailPrice
				columns = append(columns, "retail_price")
			}
			if len(columns) == 0 {
				out = product
				return nil
			}

			product.UpdatedAt = s.now().UTC()
			columns = append(columns, "updated_at")
			_, err = tx.NewUpdate().Model(product).Column(columns...).WherePK().Exec(ctx)
			if err != nil {
				return fmt.Errorf("update prices: %w", err)
			}
			out = product
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BunStore) productQuery(dest *[]Product) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		Relation("Category").
		Relation("Supplier").
		OrderExpr("p.name ASC, p.id ASC")
}

func (s *BunStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// withRetry reruns op when Postgres aborts it with a serialization or
// deadlock error, up to maxRetries extra attempts.
func (s *BunStore) withRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		opCtx, cancel := s.opCtx(ctx)
		err := op(opCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !retryableState(sqlState(err)) {
			return err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: retries exhausted: %v", ErrConflict, lastErr)
}

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

func retryableState(code string) bool {
	return code == "40001" || code == "40P01"
}
