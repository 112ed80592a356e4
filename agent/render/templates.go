package render

import (
	"fmt"
	"strings"

	actionx "github.com/sirawit-b/stocktalk/agent/action"
	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/inventory"
)

// FallbackText shapes a result deterministically, one branch per payload
// type. It never returns an empty string.
func FallbackText(res contractx.ActionResult) string {
	if !res.Success {
		if res.Message != "" {
			return res.Message
		}
		return apologyText
	}

	switch payload := res.Payload.(type) {
	case actionx.ProductStock:
		return productStockText(payload)
	case actionx.ProductList:
		return productListText(payload)
	case actionx.InventoryOverview:
		return overviewText(payload)
	case actionx.StockChangeInfo:
		return stockChangeText(res.Message, payload)
	case actionx.AnalyticsReport:
		return analyticsText(payload)
	case actionx.SupplierReport:
		return supplierText(payload)
	case actionx.PriceReport:
		return priceText(payload)
	case actionx.LowStockReport:
		return lowStockText(payload)
	case actionx.MovementHistory:
		return historyText(payload)
	case actionx.CapabilitiesReport:
		return capabilitiesText(payload)
	}

	if res.Message != "" {
		return res.Message
	}
	return apologyText
}

func productStockText(p actionx.ProductStock) string {
	if len(p.Products) == 1 {
		v := p.Products[0]
		lines := []string{
			fmt.Sprintf("📦 %s (%s)", v.Name, v.SKU),
			fmt.Sprintf("• Stock: %d units (%s)", v.CurrentStock, v.StockStatus),
		}
		if v.Category != "" {
			lines = append(lines, "• Category: "+v.Category)
		}
		if v.Supplier != "" {
			lines = append(lines, "• Supplier: "+v.Supplier)
		}
		lines = append(lines, "• Wholesale: "+money(v.WholesalePrice))
		if v.StockStatus == string(inventory.StatusLowStock) {
			lines = append(lines, fmt.Sprintf("⚠️ Below the minimum of %d units", v.MinimumStock))
		}
		if v.StockStatus == string(inventory.StatusOutOfStock) {
			lines = append(lines, "⚠️ Out of stock")
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{fmt.Sprintf("📦 %d matching products:", len(p.Products))}
	for _, v := range p.Products {
		lines = append(lines, fmt.Sprintf("• %s (%s): %d units - %s", v.Name, v.SKU, v.CurrentStock, v.StockStatus))
	}
	return strings.Join(lines, "\n")
}

func productListText(p actionx.ProductList) string {
	header := fmt.Sprintf("📦 %d products:", len(p.Products))
	if p.Scope != "" {
		header = fmt.Sprintf("📦 %d products in %s:", len(p.Products), p.Scope)
	} else if p.Term != "" {
		header = fmt.Sprintf("📦 %d products matching %q:", len(p.Products), p.Term)
	}

	lines := []string{header}
	for _, v := range p.Products {
		lines = append(lines, fmt.Sprintf("• %s (%s): %d units at %s wholesale", v.Name, v.SKU, v.CurrentStock, money(v.WholesalePrice)))
	}
	return strings.Join(lines, "\n")
}

func overviewText(o actionx.InventoryOverview) string {
	lines := []string{
		"📦 Inventory overview:",
		fmt.Sprintf("• Products: %d active of %d total", o.ActiveProducts, o.TotalProducts),
		fmt.Sprintf("• Units on hand: %d", o.TotalUnits),
		fmt.Sprintf("• Inventory value: %s", money(o.InventoryValue)),
	}
	if o.LowStockCount > 0 || o.OutOfStockCount > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %d low stock, %d out of stock", o.LowStockCount, o.OutOfStockCount))
	}
	return strings.Join(lines, "\n")
}

func stockChangeText(message string, c actionx.StockChangeInfo) string {
	if c.Unchanged {
		if message != "" {
			return message
		}
		return fmt.Sprintf("Stock already at %d units - no adjustment needed", c.NewStock)
	}

	header := message
	if header == "" {
		header = fmt.Sprintf("Recorded %s of %d units for %s", c.MovementType, c.Quantity, c.Product.Name)
	}
	lines := []string{
		"✅ " + header,
		fmt.Sprintf("• Stock: %d → %d units", c.PreviousStock, c.NewStock),
	}
	if c.Reference != "" {
		lines = append(lines, "• Reference: "+c.Reference)
	}
	if c.Warning != "" {
		lines = append(lines, "⚠️ "+c.Warning)
	}
	return strings.Join(lines, "\n")
}

func analyticsText(a actionx.AnalyticsReport) string {
	lines := []string{
		"📊 Business analytics:",
		fmt.Sprintf("• Active products: %d", a.ActiveProducts),
		fmt.Sprintf("• Units on hand: %d", a.TotalUnits),
		fmt.Sprintf("• Inventory value: %s", money(a.InventoryValue)),
		fmt.Sprintf("• Movements in the last %d days: %d", a.WindowDays, a.RecentMovements),
	}
	if len(a.TopCategories) > 0 {
		lines = append(lines, "• Top categories by value:")
		for i, c := range a.TopCategories {
			lines = append(lines, fmt.Sprintf("  %d. %s: %s (%d products)", i+1, c.Category, money(c.Value), c.Products))
		}
	}
	if a.LowStockCount > 0 || a.OutOfStockCount > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %d low stock, %d out of stock", a.LowStockCount, a.OutOfStockCount))
	}
	return strings.Join(lines, "\n")
}

func supplierText(s actionx.SupplierReport) string {
	if s.Product != "" && len(s.Suppliers) > 0 {
		sup := s.Suppliers[0]
		lines := []string{fmt.Sprintf("%s is supplied by %s", s.Product, sup.Name)}
		if sup.ContactEmail != "" {
			lines = append(lines, "• Email: "+sup.ContactEmail)
		}
		if sup.ContactPhone != "" {
			lines = append(lines, "• Phone: "+sup.ContactPhone)
		}
		if sup.PaymentTerms != "" {
			lines = append(lines, "• Terms: "+sup.PaymentTerms)
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{fmt.Sprintf("Found %d suppliers:", len(s.Suppliers))}
	for _, sup := range s.Suppliers {
		line := "• " + sup.Name
		if sup.PaymentTerms != "" {
			line += " (" + sup.PaymentTerms + ")"
		}
		if !sup.IsActive {
			line += " - inactive"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func priceText(p actionx.PriceReport) string {
	lines := []string{"💰 Pricing:"}
	for _, v := range p.Products {
		lines = append(lines, fmt.Sprintf("• %s (%s)", v.Name, v.SKU))
		lines = append(lines, fmt.Sprintf("  Cost %s | Wholesale %s | Retail %s", money(v.CostPrice), money(v.WholesalePrice), money(v.RetailPrice)))
		if v.MarginPercent != 0 {
			lines = append(lines, fmt.Sprintf("  Wholesale margin: %s (%.1f%%)", money(v.Margin), v.MarginPercent))
		}
	}
	return strings.Join(lines, "\n")
}

func lowStockText(r actionx.LowStockReport) string {
	if len(r.LowStock) == 0 && len(r.OutOfStock) == 0 {
		return "✅ No low stock or out-of-stock products right now."
	}

	var lines []string
	if len(r.LowStock) > 0 {
		lines = append(lines, fmt.Sprintf("⚠️ %d products below minimum stock:", len(r.LowStock)))
		for _, v := range r.LowStock {
			lines = append(lines, fmt.Sprintf("• %s (%s): %d of %d minimum", v.Name, v.SKU, v.CurrentStock, v.MinimumStock))
		}
	}
	if len(r.OutOfStock) > 0 {
		lines = append(lines, fmt.Sprintf("❌ %d products out of stock:", len(r.OutOfStock)))
		for _, v := range r.OutOfStock {
			lines = append(lines, fmt.Sprintf("• %s (%s)", v.Name, v.SKU))
		}
	}
	return strings.Join(lines, "\n")
}

func historyText(h actionx.MovementHistory) string {
	var lines []string
	for _, ph := range h.Products {
		lines = append(lines, fmt.Sprintf("📋 History for %s (%s):", ph.Product.Name, ph.Product.SKU))
		if ph.LastUpdated != nil {
			lines = append(lines, "• Last updated: "+ph.LastUpdated.Format("2006-01-02 15:04"))
		}
		if len(ph.Movements) == 0 {
			lines = append(lines, fmt.Sprintf("• No movements in the last %d days", h.WindowDays))
		}
		for _, m := range ph.Movements {
			lines = append(lines, movementLine(m))
		}
	}
	if len(h.StoreWide) > 0 {
		lines = append(lines, fmt.Sprintf("📋 Recent movements (last %d days):", h.WindowDays))
		for _, m := range h.StoreWide {
			lines = append(lines, movementLine(m))
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No inventory movements in the last %d days.", h.WindowDays)
	}
	return strings.Join(lines, "\n")
}

func movementLine(m actionx.MovementView) string {
	line := fmt.Sprintf("• %s: %s %+d → %d units", m.At.Format("2006-01-02"), m.Type, m.Quantity, m.StockAfter)
	if m.Product != "" {
		line = fmt.Sprintf("• %s: %s %s %+d → %d units", m.At.Format("2006-01-02"), m.Product, m.Type, m.Quantity, m.StockAfter)
	}
	return line
}

func capabilitiesText(c actionx.CapabilitiesReport) string {
	lines := []string{"Here's what I can help with:"}
	for _, capability := range c.Capabilities {
		lines = append(lines, fmt.Sprintf("• %s: %s", capability.Name, capability.Description))
		if len(capability.Examples) > 0 {
			lines = append(lines, fmt.Sprintf("  e.g. %q", capability.Examples[0]))
		}
	}
	return strings.Join(lines, "\n")
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
