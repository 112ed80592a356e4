// Package action executes interpreted intents against the inventory store.
// No LLM is involved on this path: every mutation and read is deterministic
// Go code, so a misread query can never invent a stock change.
package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/inventory"
)

const (
	listLimit        = 25
	findSampleLimit  = 10
	lowStockLimit    = 50
	outOfStockLimit  = 20
	historyProducts  = 3
	historyMovements = 10
	defaultWindow    = 30
	analyticsWindow  = 7
)

// Executor dispatches validated intents to the store.
type Executor struct {
	store inventory.Store
	now   func() time.Time
}

var _ contractx.Executor = (*Executor)(nil)

// Option customizes the Executor.
type Option func(*Executor)

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func NewExecutor(store inventory.Store, opts ...Option) (*Executor, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	e := &Executor{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Execute runs the business action for res. The error return is reserved for
// infrastructure faults; every domain negative (unknown product, not enough
// stock, missing quantity) is an ActionResult with Success=false.
func (e *Executor) Execute(ctx context.Context, res contractx.IntentResult) (contractx.ActionResult, error) {
	switch res.Intent {
	case contractx.IntentInventoryQuery:
		return e.inventoryQuery(ctx, res.Entities)
	case contractx.IntentProductSearch:
		return e.productSearch(ctx, res.Entities)
	case contractx.IntentInventoryManagement:
		return e.inventoryManagement(ctx, res.Entities)
	case contractx.IntentAnalytics:
		return e.analytics(ctx)
	case contractx.IntentSupplierQuery:
		return e.supplierQuery(ctx, res.Entities)
	case contractx.IntentPriceQuery:
		return e.priceQuery(ctx, res.Entities)
	case contractx.IntentLowStockAlert:
		return e.lowStockAlert(ctx)
	case contractx.IntentInventoryHistory:
		return e.inventoryHistory(ctx, res.Entities)
	case contractx.IntentHelp:
		return e.helpCapabilities(), nil
	default:
		// general intents are clarified before execution; reaching here
		// means the caller skipped that branch.
		return contractx.ActionResult{
			Action:  contractx.ActionClarification,
			Message: "Could you rephrase what you'd like to do with your inventory?",
		}, nil
	}
}

func (e *Executor) inventoryQuery(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	ref := productRef(ents)

	switch {
	case ref != "":
		products, err := e.findProducts(ctx, ref)
		if err != nil {
			return contractx.ActionResult{}, err
		}
		if len(products) == 0 {
			return notFoundResult(contractx.ActionProductStock, ref), nil
		}
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionProductStock,
			Message: fmt.Sprintf("Found %d products matching %q", len(products), ref),
			Payload: ProductStock{Products: toProductViews(products)},
		}, nil

	case ents.Category != "":
		products, err := e.store.ListByCategory(ctx, ents.Category, listLimit)
		if err != nil {
			return contractx.ActionResult{}, fmt.Errorf("list category %q: %w", ents.Category, err)
		}
		if len(products) == 0 {
			return contractx.ActionResult{
				Action:  contractx.ActionProductList,
				Message: fmt.Sprintf("No products found in category %q", ents.Category),
			}, nil
		}
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionProductList,
			Message: fmt.Sprintf("Retrieved %d products in %s", len(products), ents.Category),
			Payload: ProductList{Products: toProductViews(products), Scope: ents.Category},
		}, nil

	default:
		ov, err := e.store.Overview(ctx, findSampleLimit)
		if err != nil {
			return contractx.ActionResult{}, fmt.Errorf("inventory overview: %w", err)
		}
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionInventoryOverview,
			Message: fmt.Sprintf("Inventory overview: %d active products, %d units on hand", ov.ActiveProducts, ov.TotalUnits),
			Payload: InventoryOverview{
				TotalProducts:   ov.TotalProducts,
				ActiveProducts:  ov.ActiveProducts,
				TotalUnits:      ov.TotalUnits,
				InventoryValue:  ov.InventoryValue,
				LowStockCount:   ov.LowStockCount,
				OutOfStockCount: ov.OutOfStockCount,
				Samples:         toProductViews(ov.Samples),
			},
		}, nil
	}
}

func (e *Executor) productSearch(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	term := productRef(ents)
	if term == "" {
		term = ents.Category
	}

	products, err := e.store.SearchProducts(ctx, term, listLimit)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("search products %q: %w", term, err)
	}
	if len(products) == 0 {
		return contractx.ActionResult{
			Action:  contractx.ActionProductList,
			Message: fmt.Sprintf("No products found matching %q", term),
		}, nil
	}
	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionProductList,
		Message: fmt.Sprintf("Found %d products", len(products)),
		Payload: ProductList{Products: toProductViews(products), Term: term},
	}, nil
}

func (e *Executor) inventoryManagement(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	mt, absolute, ok := resolveMovement(ents.Action, ents.MovementType)
	if !ok {
		msg := "No action specified (add, remove, adjust, etc.)"
		if ents.Action != "" {
			msg = fmt.Sprintf("Unknown action %q. Try add, remove, sell, or set.", ents.Action)
		}
		return failedResult(contractx.ActionStockChange, msg), nil
	}

	ref := productRef(ents)
	if ref == "" {
		return failedResult(contractx.ActionStockChange, "No product specified"), nil
	}

	if !ents.HasQuantity {
		return failedResult(contractx.ActionStockChange, "No quantity specified"), nil
	}
	qty := ents.Quantity
	if qty < 0 || (qty == 0 && !absolute) {
		return failedResult(contractx.ActionStockChange, "Quantity must be positive"), nil
	}
	if qty > maxMovementUnits {
		return failedResult(contractx.ActionStockChange,
			fmt.Sprintf("Quantity %d exceeds the per-operation cap of %d units", qty, maxMovementUnits)), nil
	}

	products, err := e.findProducts(ctx, ref)
	if err != nil {
		return contractx.ActionResult{}, err
	}
	if len(products) == 0 {
		return notFoundResult(contractx.ActionStockChange, ref), nil
	}
	if len(products) > 1 {
		return failedResult(contractx.ActionStockChange,
			fmt.Sprintf("%q matches %d products (%s). Which one did you mean?",
				ref, len(products), strings.Join(sampleNames(products, 3), ", "))), nil
	}
	product := products[0]

	req := inventory.MovementRequest{
		ProductID: product.ID,
		Type:      mt,
		Reference: movementReference(mt, e.now()),
		Note:      fmt.Sprintf("stock %s via agent", strings.ToLower(string(mt))),
	}
	if absolute {
		target := qty
		req.SetTo = &target
	} else if mt.Decreases() {
		req.Delta = -qty
	} else {
		req.Delta = qty
	}

	change, err := e.store.ApplyMovement(ctx, req)
	if err != nil {
		var insufficient *inventory.InsufficientStockError
		if errors.As(err, &insufficient) {
			return failedResult(contractx.ActionStockChange,
				fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d",
					insufficient.Available, insufficient.Requested)), nil
		}
		if errors.Is(err, inventory.ErrInvalidMovement) {
			return failedResult(contractx.ActionStockChange, "That stock change doesn't look valid"), nil
		}
		if errors.Is(err, inventory.ErrProductNotFound) {
			return notFoundResult(contractx.ActionStockChange, ref), nil
		}
		if errors.Is(err, inventory.ErrConflict) {
			return failedResult(contractx.ActionStockChange,
				"The stock level changed while I was updating it. Please try again"), nil
		}
		return contractx.ActionResult{}, fmt.Errorf("apply movement for %q: %w", product.SKU, err)
	}

	info := StockChangeInfo{
		Product:       toProductView(change.Product),
		MovementType:  string(mt),
		Quantity:      change.Movement.Quantity,
		PreviousStock: change.Before,
		NewStock:      change.After,
		Reference:     change.Movement.Reference,
		Unchanged:     change.Unchanged,
	}

	if change.Unchanged {
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionStockChange,
			Message: fmt.Sprintf("Stock already at %d units - no adjustment needed", change.After),
			Payload: info,
		}, nil
	}

	if mt.Decreases() && change.After <= change.Product.MinimumStock {
		info.Warning = "Low stock warning!"
	}

	var msg string
	switch {
	case absolute:
		msg = fmt.Sprintf("Successfully adjusted %s stock to %d units", product.Name, change.After)
	case mt.Decreases():
		msg = fmt.Sprintf("Successfully removed %d units from %s", qty, product.Name)
	default:
		msg = fmt.Sprintf("Successfully added %d units to %s", qty, product.Name)
	}

	log.Info().
		Str("sku", product.SKU).
		Str("movement_type", string(mt)).
		Int64("quantity", change.Movement.Quantity).
		Int64("stock_before", change.Before).
		Int64("stock_after", change.After).
		Msg("stock changed")

	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionStockChange,
		Message: msg,
		Payload: info,
	}, nil
}

func (e *Executor) analytics(ctx context.Context) (contractx.ActionResult, error) {
	ov, err := e.store.Overview(ctx, 0)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("analytics overview: %w", err)
	}
	top, err := e.store.CategoryValues(ctx, 5)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("analytics categories: %w", err)
	}
	since := e.now().AddDate(0, 0, -analyticsWindow)
	moved, err := e.store.CountMovements(ctx, since)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("analytics movements: %w", err)
	}

	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionAnalyticsReport,
		Message: "Business analytics data retrieved",
		Payload: AnalyticsReport{
			TotalProducts:   ov.TotalProducts,
			ActiveProducts:  ov.ActiveProducts,
			TotalUnits:      ov.TotalUnits,
			InventoryValue:  ov.InventoryValue,
			LowStockCount:   ov.LowStockCount,
			OutOfStockCount: ov.OutOfStockCount,
			TopCategories:   top,
			RecentMovements: moved,
			WindowDays:      analyticsWindow,
		},
	}, nil
}

func (e *Executor) supplierQuery(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	if ref := productRef(ents); ents.Supplier == "" && ref != "" {
		products, err := e.findProducts(ctx, ref)
		if err != nil {
			return contractx.ActionResult{}, err
		}
		if len(products) == 0 {
			return notFoundResult(contractx.ActionSupplierInfo, ref), nil
		}
		report := SupplierReport{Product: products[0].Name}
		if sup := products[0].Supplier; sup != nil {
			report.Suppliers = append(report.Suppliers, toSupplierView(*sup))
		}
		if len(report.Suppliers) == 0 {
			return contractx.ActionResult{
				Action:  contractx.ActionSupplierInfo,
				Message: fmt.Sprintf("No supplier on record for %s", products[0].Name),
			}, nil
		}
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionSupplierInfo,
			Message: fmt.Sprintf("%s is supplied by %s", products[0].Name, report.Suppliers[0].Name),
			Payload: report,
		}, nil
	}

	suppliers, err := e.store.FindSuppliers(ctx, ents.Supplier, findSampleLimit)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("find suppliers %q: %w", ents.Supplier, err)
	}
	if len(suppliers) == 0 {
		msg := "No suppliers on record"
		if ents.Supplier != "" {
			msg = fmt.Sprintf("No suppliers found matching %q", ents.Supplier)
		}
		return contractx.ActionResult{Action: contractx.ActionSupplierInfo, Message: msg}, nil
	}

	report := SupplierReport{}
	for _, s := range suppliers {
		report.Suppliers = append(report.Suppliers, toSupplierView(s))
	}
	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionSupplierInfo,
		Message: fmt.Sprintf("Found %d suppliers", len(suppliers)),
		Payload: report,
	}, nil
}

func (e *Executor) priceQuery(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	ref := productRef(ents)
	if ref == "" {
		return failedResult(contractx.ActionPriceInfo, "No product specified for price query"), nil
	}

	products, err := e.findProducts(ctx, ref)
	if err != nil {
		return contractx.ActionResult{}, err
	}
	if len(products) == 0 {
		return notFoundResult(contractx.ActionPriceInfo, ref), nil
	}

	report := PriceReport{}
	for _, p := range products {
		view := PriceView{
			SKU:            p.SKU,
			Name:           p.Name,
			CostPrice:      p.CostPrice,
			WholesalePrice: p.WholesalePrice,
			RetailPrice:    p.RetailPrice,
			CurrentStock:   p.CurrentStock,
			Margin:         p.WholesalePrice - p.CostPrice,
		}
		if p.CostPrice > 0 {
			view.MarginPercent = view.Margin / p.CostPrice * 100
		}
		report.Products = append(report.Products, view)
	}
	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionPriceInfo,
		Message: fmt.Sprintf("Found pricing for %d products", len(report.Products)),
		Payload: report,
	}, nil
}

func (e *Executor) lowStockAlert(ctx context.Context) (contractx.ActionResult, error) {
	low, err := e.store.ListLowStock(ctx, lowStockLimit)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("list low stock: %w", err)
	}
	out, err := e.store.ListOutOfStock(ctx, outOfStockLimit)
	if err != nil {
		return contractx.ActionResult{}, fmt.Errorf("list out of stock: %w", err)
	}

	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionLowStockReport,
		Message: fmt.Sprintf("Found %d low stock and %d out of stock products", len(low), len(out)),
		Payload: LowStockReport{
			LowStock:   toProductViews(low),
			OutOfStock: toProductViews(out),
		},
	}, nil
}

func (e *Executor) inventoryHistory(ctx context.Context, ents contractx.Entities) (contractx.ActionResult, error) {
	days := ents.Days
	if days <= 0 {
		days = defaultWindow
	}
	since := e.now().AddDate(0, 0, -days)
	movementType := inventory.MovementType(strings.ToUpper(ents.MovementType))
	if !inventory.ValidMovementTypes[movementType] {
		movementType = ""
	}

	ref := productRef(ents)
	if ref == "" {
		movements, err := e.store.RecentMovements(ctx, since, historyMovements)
		if err != nil {
			return contractx.ActionResult{}, fmt.Errorf("recent movements: %w", err)
		}
		return contractx.ActionResult{
			Success: true,
			Action:  contractx.ActionMovementHistory,
			Message: fmt.Sprintf("Found %d movements in the last %d days", len(movements), days),
			Payload: MovementHistory{StoreWide: toMovementViews(movements), WindowDays: days},
		}, nil
	}

	products, err := e.findProducts(ctx, ref)
	if err != nil {
		return contractx.ActionResult{}, err
	}
	if len(products) == 0 {
		return notFoundResult(contractx.ActionMovementHistory, ref), nil
	}
	if len(products) > historyProducts {
		products = products[:historyProducts]
	}

	history := MovementHistory{WindowDays: days}
	for _, p := range products {
		movements, err := e.store.ProductMovements(ctx, p.ID, since, movementType, historyMovements)
		if err != nil {
			return contractx.ActionResult{}, fmt.Errorf("movements for %q: %w", p.SKU, err)
		}
		ph := ProductHistory{Product: toProductView(p), Movements: toMovementViews(movements)}
		if len(movements) > 0 {
			last := movements[0].CreatedAt
			ph.LastUpdated = &last
		}
		history.Products = append(history.Products, ph)
	}

	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionMovementHistory,
		Message: fmt.Sprintf("Found inventory history for %d products", len(history.Products)),
		Payload: history,
	}, nil
}

func (e *Executor) helpCapabilities() contractx.ActionResult {
	return contractx.ActionResult{
		Success: true,
		Action:  contractx.ActionCapabilities,
		Message: "Here's what I can help with",
		Payload: CapabilitiesReport{Capabilities: []Capability{
			{
				Name:        "inventory operations",
				Description: "Check and change stock with natural language",
				Examples: []string{
					"How much stock of gaming keyboard do we have?",
					"Add 50 units to laptop stand",
					"Adjust wireless mouse stock to 100 units",
				},
			},
			{
				Name:        "product search",
				Description: "Find and browse the product catalog",
				Examples: []string{
					"Show me all electronics products",
					"Find products with wireless in the name",
				},
			},
			{
				Name:        "pricing",
				Description: "Cost, wholesale, and retail prices with margins",
				Examples: []string{
					"What's the price of gaming keyboard?",
					"What's the wholesale price of phone charger?",
				},
			},
			{
				Name:        "history",
				Description: "Movement history and last-updated times",
				Examples: []string{
					"When did we last update brake pads?",
					"Show recent inventory movements",
				},
			},
			{
				Name:        "analytics",
				Description: "Business totals and top categories by value",
				Examples: []string{
					"What's our total inventory value?",
					"Show me business analytics",
				},
			},
			{
				Name:        "alerts",
				Description: "Low stock and out-of-stock products",
				Examples: []string{
					"Which products are running low?",
					"Show me out of stock items",
				},
			},
			{
				Name:        "suppliers",
				Description: "Supplier directory and per-product suppliers",
				Examples: []string{
					"Which suppliers do we work with?",
					"Who supplies the gaming keyboard?",
				},
			},
			{
				Name:        "follow-ups",
				Description: "Pronouns resolve against recent conversation",
				Examples: []string{
					"How much stock of gaming keyboard? ... What about its price?",
				},
			},
		}},
	}
}

// findProducts runs the store's resolution ladder and folds the not-found
// sentinel into an empty slice. Other store errors are infrastructure faults.
func (e *Executor) findProducts(ctx context.Context, ref string) ([]inventory.Product, error) {
	products, err := e.store.FindProduct(ctx, ref)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %q: %w", ref, err)
	}
	return products, nil
}

func productRef(ents contractx.Entities) string {
	if ents.ProductRef != "" {
		return ents.ProductRef
	}
	return ents.SKU
}

func toSupplierView(s inventory.Supplier) SupplierView {
	return SupplierView{
		Name:         s.Name,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
		PaymentTerms: s.PaymentTerms,
		IsActive:     s.IsActive,
	}
}

func toMovementViews(movements []inventory.Movement) []MovementView {
	views := make([]MovementView, 0, len(movements))
	for _, m := range movements {
		v := MovementView{
			Type:       string(m.Type),
			Quantity:   m.Quantity,
			StockAfter: m.StockAfter,
			Reference:  m.Reference,
			At:         m.CreatedAt,
		}
		if m.Product != nil {
			v.Product = m.Product.Name
		}
		views = append(views, v)
	}
	return views
}

func sampleNames(products []inventory.Product, limit int) []string {
	names := make([]string, 0, limit)
	for _, p := range products {
		if len(names) >= limit {
			break
		}
		names = append(names, p.Name)
	}
	return names
}

func failedResult(action contractx.ActionType, msg string) contractx.ActionResult {
	return contractx.ActionResult{Action: action, Message: msg}
}

func notFoundResult(action contractx.ActionType, ref string) contractx.ActionResult {
	return contractx.ActionResult{
		Action:  action,
		Message: fmt.Sprintf("Product %q not found", ref),
	}
}
