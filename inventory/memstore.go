package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by tests and the out-of-the-box
// CLI. A single mutex spans every check-then-write, so mutations are atomic
// by construction.
type MemoryStore struct {
	mu sync.RWMutex

	products   map[int64]Product
	suppliers  map[int64]Supplier
	categories map[int64]Category
	movements  []Movement

	nextProductID  int64
	nextSupplierID int64
	nextCategoryID int64
	nextMovementID int64

	now func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		products:   make(map[int64]Product),
		suppliers:  make(map[int64]Supplier),
		categories: make(map[int64]Category),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) FindProduct(ctx context.Context, ref string) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrProductNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(ref)

	byName := s.matchLocked(func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), lowered)
	})
	if len(byName) > 0 {
		return capProducts(byName, findLimit), nil
	}

	bySKU := s.matchLocked(func(p Product) bool {
		return strings.EqualFold(p.SKU, ref)
	})
	if len(bySKU) > 0 {
		return capProducts(bySKU, findLimit), nil
	}

	byDescription := s.matchLocked(func(p Product) bool {
		return p.Description != "" && strings.Contains(strings.ToLower(p.Description), lowered)
	})
	if len(byDescription) > 0 {
		return capProducts(byDescription, findLimit), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrProductNotFound, ref)
}

const findLimit = 10

func (s *MemoryStore) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchLocked(func(p Product) bool {
		if term == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.SKU), term) ||
			strings.Contains(strings.ToLower(p.Description), term)
	})
	return capProducts(matches, limit), nil
}

func (s *MemoryStore) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return capProducts(s.matchLocked(func(p Product) bool { return p.IsActive }), limit), nil
}

func (s *MemoryStore) ListByCategory(ctx context.Context, category string, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	category = strings.ToLower(strings.TrimSpace(category))

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchLocked(func(p Product) bool {
		c, ok := s.categories[p.CategoryID]
		return ok && strings.Contains(strings.ToLower(c.Name), category)
	})
	return capProducts(matches, limit), nil
}

func (s *MemoryStore) ListLowStock(ctx context.Context, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchLocked(func(p Product) bool {
		return p.IsActive && p.CurrentStock > 0 && p.CurrentStock <= p.MinimumStock
	})
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CurrentStock != matches[j].CurrentStock {
			return matches[i].CurrentStock < matches[j].CurrentStock
		}
		return matches[i].Name < matches[j].Name
	})
	return capProducts(matches, limit), nil
}

func (s *MemoryStore) ListOutOfStock(ctx context.Context, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchLocked(func(p Product) bool {
		return p.IsActive && p.CurrentStock <= 0
	})
	return capProducts(matches, limit), nil
}

func (s *MemoryStore) Overview(ctx context.Context, sampleLimit int) (*Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ov := &Overview{TotalProducts: len(s.products)}
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		ov.ActiveProducts++
		ov.TotalUnits += p.CurrentStock
		ov.InventoryValue += float64(p.CurrentStock) * p.WholesalePrice
		switch {
		case p.CurrentStock <= 0:
			ov.OutOfStockCount++
		case p.CurrentStock <= p.MinimumStock:
			ov.LowStockCount++
		}
	}
	ov.Samples = capProducts(s.matchLocked(func(p Product) bool { return p.IsActive }), sampleLimit)
	return ov, nil
}

func (s *MemoryStore) CategoryValues(ctx context.Context, top int) ([]CategoryValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := make(map[int64]*CategoryValue)
	for _, p := range s.products {
		if !p.IsActive {
			continue
		}
		cv, ok := byCategory[p.CategoryID]
		if !ok {
			name := fmt.Sprintf("category %d", p.CategoryID)
			if c, found := s.categories[p.CategoryID]; found {
				name = c.Name
			}
			cv = &CategoryValue{Category: name}
			byCategory[p.CategoryID] = cv
		}
		cv.Products++
		cv.Units += p.CurrentStock
		cv.Value += float64(p.CurrentStock) * p.WholesalePrice
	}

	values := make([]CategoryValue, 0, len(byCategory))
	for _, cv := range byCategory {
		values = append(values, *cv)
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Value != values[j].Value {
			return values[i].Value > values[j].Value
		}
		return values[i].Category < values[j].Category
	})
	if top > 0 && len(values) > top {
		values = values[:top]
	}
	return values, nil
}

func (s *MemoryStore) CountMovements(ctx context.Context, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.movements {
		if !m.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RecentMovements(ctx context.Context, since time.Time, limit int) ([]Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.movementsLocked(since, 0, "", limit), nil
}

func (s *MemoryStore) ProductMovements(ctx context.Context, productID int64, since time.Time, movementType MovementType, limit int) ([]Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.movementsLocked(since, productID, movementType, limit), nil
}

func (s *MemoryStore) FindSuppliers(ctx context.Context, name string, limit int) ([]Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.ToLower(strings.TrimSpace(name))

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Supplier, 0, 8)
	for _, sup := range s.suppliers {
		if name == "" || strings.Contains(strings.ToLower(sup.Name), name) {
			matches = append(matches, sup)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *MemoryStore) ApplyMovement(ctx context.Context, req MovementRequest) (*StockChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[req.ProductID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, req.ProductID)
	}

	before := product.CurrentStock
	delta := req.Delta
	if req.SetTo != nil {
		delta = *req.SetTo - before
	}
	if delta == 0 && req.SetTo != nil {
		change := &StockChange{Product: product, Before: before, After: before, Unchanged: true}
		s.decorateLocked(&change.Product)
		return change, nil
	}

	after := before + delta
	if after < 0 {
		return nil, &InsufficientStockError{Available: before, Requested: -delta}
	}

	now := s.now().UTC()
	product.CurrentStock = after
	product.UpdatedAt = now
	s.products[req.ProductID] = product

	s.nextMovementID++
	movement := Movement{
		ID:          s.nextMovementID,
		ProductID:   req.ProductID,
		Type:        req.Type,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  after,
		Reference:   req.Reference,
		Note:        req.Note,
		CreatedAt:   now,
	}
	s.movements = append(s.movements, movement)

	change := &StockChange{Product: product, Movement: movement, Before: before, After: after}
	s.decorateLocked(&change.Product)
	return change, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c *Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCategoryID++
	c.ID = s.nextCategoryID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStore) CreateSupplier(ctx context.Context, sup *Supplier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSupplierID++
	sup.ID = s.nextSupplierID
	if sup.CreatedAt.IsZero() {
		sup.CreatedAt = s.now().UTC()
	}
	s.suppliers[sup.ID] = *sup
	return nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if strings.EqualFold(existing.SKU, p.SKU) {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, p.SKU)
		}
	}

	s.nextProductID++
	p.ID = s.nextProductID
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	stored := *p
	stored.Category = nil
	stored.Supplier = nil
	s.products[p.ID] = stored
	return nil
}

func (s *MemoryStore) UpdatePrices(ctx context.Context, productID int64, update PriceUpdate) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, productID)
	}
	if update.CostPrice != nil {
		product.CostPrice = *update.CostPrice
	}
	if update.WholesalePrice != nil {
		product.WholesalePrice = *update.WholesalePrice
	}
	if update.RetailPrice != nil {
		product.RetailPrice = *update.RetailPrice
	}
	product.UpdatedAt = s.now().UTC()
	s.products[productID] = product

	out := product
	s.decorateLocked(&out)
	return &out, nil
}

// matchLocked collects copies of products satisfying keep, with relations
// attached, in name order. Callers must hold at least the read lock.
func (s *MemoryStore) matchLocked(keep func(Product) bool) []Product {
	matches := make([]Product, 0, 8)
	for _, p := range s.products {
		if keep(p) {
			out := p
			s.decorateLocked(&out)
			matches = append(matches, out)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

func (s *MemoryStore) decorateLocked(p *Product) {
	if c, ok := s.categories[p.CategoryID]; ok {
		category := c
		p.Category = &category
	}
	if sup, ok := s.suppliers[p.SupplierID]; ok {
		supplier := sup
		p.Supplier = &supplier
	}
}

func (s *MemoryStore) movementsLocked(since time.Time, productID int64, movementType MovementType, limit int) []Movement {
	out := make([]Movement, 0, 16)
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if m.CreatedAt.Before(since) {
			continue
		}
		if productID > 0 && m.ProductID != productID {
			continue
		}
		if movementType != "" && m.Type != movementType {
			continue
		}
		if p, ok := s.products[m.ProductID]; ok {
			product := p
			m.Product = &product
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func capProducts(products []Product, limit int) []Product {
	if limit > 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}
