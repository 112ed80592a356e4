package render

import (
	"strings"
	"testing"
	"time"

	actionx "github.com/sirawit-b/stocktalk/agent/action"
	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/inventory"
)

func successResult(action contractx.ActionType, message string, payload any) contractx.ActionResult {
	return contractx.ActionResult{Success: true, Action: action, Message: message, Payload: payload}
}

func usbCableView() actionx.ProductView {
	return actionx.ProductView{
		SKU:            "ELE-1001-001",
		Name:           "USB Cable",
		Category:       "Electronics",
		Supplier:       "Meridian Wholesale",
		CurrentStock:   150,
		MinimumStock:   20,
		StockStatus:    string(inventory.StatusInStock),
		WholesalePrice: 3.5,
		RetailPrice:    5,
	}
}

func TestFallbackTextFailurePassesMessageThrough(t *testing.T) {
	t.Parallel()

	res := contractx.ActionResult{Action: contractx.ActionProductStock, Message: `Product "widget" not found`}
	if got := FallbackText(res); got != `Product "widget" not found` {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextFailureWithoutMessageApologizes(t *testing.T) {
	t.Parallel()

	if got := FallbackText(contractx.ActionResult{}); got != apologyText {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextSingleProductStock(t *testing.T) {
	t.Parallel()

	res := successResult(contractx.ActionProductStock, "", actionx.ProductStock{
		Products: []actionx.ProductView{usbCableView()},
	})
	got := FallbackText(res)

	for _, want := range []string{
		"📦 USB Cable (ELE-1001-001)",
		"• Stock: 150 units (IN_STOCK)",
		"• Category: Electronics",
		"• Supplier: Meridian Wholesale",
		"• Wholesale: $3.50",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "⚠️") {
		t.Fatalf("expected no warning for healthy stock:\n%s", got)
	}
}

func TestFallbackTextLowStockWarning(t *testing.T) {
	t.Parallel()

	view := usbCableView()
	view.CurrentStock = 10
	view.StockStatus = string(inventory.StatusLowStock)
	got := FallbackText(successResult(contractx.ActionProductStock, "",
		actionx.ProductStock{Products: []actionx.ProductView{view}}))

	if !strings.Contains(got, "⚠️ Below the minimum of 20 units") {
		t.Fatalf("expected low stock warning in:\n%s", got)
	}
}

func TestFallbackTextOutOfStockWarning(t *testing.T) {
	t.Parallel()

	view := usbCableView()
	view.CurrentStock = 0
	view.StockStatus = string(inventory.StatusOutOfStock)
	got := FallbackText(successResult(contractx.ActionProductStock, "",
		actionx.ProductStock{Products: []actionx.ProductView{view}}))

	if !strings.Contains(got, "⚠️ Out of stock") {
		t.Fatalf("expected out-of-stock warning in:\n%s", got)
	}
}

func TestFallbackTextMultipleProductStock(t *testing.T) {
	t.Parallel()

	second := usbCableView()
	second.Name = "USB Cable Pro"
	second.SKU = "ELE-1001-002"
	got := FallbackText(successResult(contractx.ActionProductStock, "",
		actionx.ProductStock{Products: []actionx.ProductView{usbCableView(), second}}))

	if !strings.HasPrefix(got, "📦 2 matching products:") {
		t.Fatalf("unexpected header in:\n%s", got)
	}
	if !strings.Contains(got, "• USB Cable Pro (ELE-1001-002): 150 units - IN_STOCK") {
		t.Fatalf("expected product bullet in:\n%s", got)
	}
}

func TestFallbackTextProductListHeaders(t *testing.T) {
	t.Parallel()

	views := []actionx.ProductView{usbCableView()}
	cases := []struct {
		name    string
		payload actionx.ProductList
		want    string
	}{
		{"scoped", actionx.ProductList{Products: views, Scope: "Electronics"}, "📦 1 products in Electronics:"},
		{"searched", actionx.ProductList{Products: views, Term: "cable"}, `📦 1 products matching "cable":`},
		{"plain", actionx.ProductList{Products: views}, "📦 1 products:"},
	}
	for _, tc := range cases {
		got := FallbackText(successResult(contractx.ActionProductList, "", tc.payload))
		if !strings.HasPrefix(got, tc.want) {
			t.Errorf("%s: expected header %q, got:\n%s", tc.name, tc.want, got)
		}
	}
}

func TestFallbackTextOverview(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionInventoryOverview, "", actionx.InventoryOverview{
		TotalProducts:   64,
		ActiveProducts:  60,
		TotalUnits:      9000,
		InventoryValue:  123456.78,
		LowStockCount:   4,
		OutOfStockCount: 2,
	}))

	for _, want := range []string{
		"📦 Inventory overview:",
		"• Products: 60 active of 64 total",
		"• Units on hand: 9000",
		"• Inventory value: $123456.78",
		"⚠️ 4 low stock, 2 out of stock",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextOverviewSkipsWarningWhenHealthy(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionInventoryOverview, "",
		actionx.InventoryOverview{TotalProducts: 10, ActiveProducts: 10}))
	if strings.Contains(got, "⚠️") {
		t.Fatalf("expected no warning line in:\n%s", got)
	}
}

func TestFallbackTextStockChange(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionStockChange, "Successfully added 50 units to USB Cable",
		actionx.StockChangeInfo{
			Product:       usbCableView(),
			MovementType:  "INBOUND",
			Quantity:      50,
			PreviousStock: 150,
			NewStock:      200,
			Reference:     "STOCK_ADD_20250314_093000",
		}))

	for _, want := range []string{
		"✅ Successfully added 50 units to USB Cable",
		"• Stock: 150 → 200 units",
		"• Reference: STOCK_ADD_20250314_093000",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextStockChangeUnchanged(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionStockChange, "",
		actionx.StockChangeInfo{NewStock: 100, Unchanged: true}))
	if got != "Stock already at 100 units - no adjustment needed" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextStockChangeCarriesWarning(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionStockChange, "Successfully removed 140 units from USB Cable",
		actionx.StockChangeInfo{
			Product:       usbCableView(),
			PreviousStock: 150,
			NewStock:      10,
			Warning:       "Low stock warning!",
		}))
	if !strings.Contains(got, "⚠️ Low stock warning!") {
		t.Fatalf("expected warning in:\n%s", got)
	}
}

func TestFallbackTextAnalytics(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionAnalyticsReport, "", actionx.AnalyticsReport{
		ActiveProducts:  60,
		TotalUnits:      9000,
		InventoryValue:  50000,
		RecentMovements: 17,
		WindowDays:      7,
		TopCategories: []inventory.CategoryValue{
			{Category: "Electronics", Products: 8, Value: 15000},
			{Category: "Tools & Hardware", Products: 8, Value: 9000},
		},
	}))

	for _, want := range []string{
		"📊 Business analytics:",
		"• Movements in the last 7 days: 17",
		"1. Electronics: $15000.00 (8 products)",
		"2. Tools & Hardware: $9000.00 (8 products)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextSupplierForProduct(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionSupplierInfo, "", actionx.SupplierReport{
		Product: "USB Cable",
		Suppliers: []actionx.SupplierView{{
			Name:         "Meridian Wholesale",
			ContactEmail: "orders@meridianwholesale.example",
			ContactPhone: "+1-555-0101",
			PaymentTerms: "Net 30",
			IsActive:     true,
		}},
	}))

	for _, want := range []string{
		"USB Cable is supplied by Meridian Wholesale",
		"• Email: orders@meridianwholesale.example",
		"• Phone: +1-555-0101",
		"• Terms: Net 30",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextSupplierDirectoryMarksInactive(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionSupplierInfo, "", actionx.SupplierReport{
		Suppliers: []actionx.SupplierView{
			{Name: "Meridian Wholesale", PaymentTerms: "Net 30", IsActive: true},
			{Name: "Lakeland Supply Co", IsActive: false},
		},
	}))

	if !strings.HasPrefix(got, "Found 2 suppliers:") {
		t.Fatalf("unexpected header in:\n%s", got)
	}
	if !strings.Contains(got, "• Meridian Wholesale (Net 30)") {
		t.Fatalf("expected terms suffix in:\n%s", got)
	}
	if !strings.Contains(got, "• Lakeland Supply Co - inactive") {
		t.Fatalf("expected inactive marker in:\n%s", got)
	}
}

func TestFallbackTextPricing(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionPriceInfo, "", actionx.PriceReport{
		Products: []actionx.PriceView{{
			SKU:            "ELE-1001-001",
			Name:           "USB Cable",
			CostPrice:      2,
			WholesalePrice: 3.5,
			RetailPrice:    5,
			Margin:         1.5,
			MarginPercent:  75,
		}},
	}))

	for _, want := range []string{
		"💰 Pricing:",
		"• USB Cable (ELE-1001-001)",
		"Cost $2.00 | Wholesale $3.50 | Retail $5.00",
		"Wholesale margin: $1.50 (75.0%)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextPricingSkipsZeroMargin(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionPriceInfo, "", actionx.PriceReport{
		Products: []actionx.PriceView{{SKU: "X", Name: "Freebie"}},
	}))
	if strings.Contains(got, "margin") {
		t.Fatalf("expected no margin line in:\n%s", got)
	}
}

func TestFallbackTextLowStockReport(t *testing.T) {
	t.Parallel()

	low := usbCableView()
	low.CurrentStock = 10
	out := usbCableView()
	out.Name = "HDMI Cable"
	out.SKU = "ELE-1001-003"
	out.CurrentStock = 0

	got := FallbackText(successResult(contractx.ActionLowStockReport, "", actionx.LowStockReport{
		LowStock:   []actionx.ProductView{low},
		OutOfStock: []actionx.ProductView{out},
	}))

	for _, want := range []string{
		"⚠️ 1 products below minimum stock:",
		"• USB Cable (ELE-1001-001): 10 of 20 minimum",
		"❌ 1 products out of stock:",
		"• HDMI Cable (ELE-1001-003)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextLowStockReportAllHealthy(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionLowStockReport, "", actionx.LowStockReport{}))
	if got != "✅ No low stock or out-of-stock products right now." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextProductHistory(t *testing.T) {
	t.Parallel()

	updated := time.Date(2025, 3, 13, 16, 45, 0, 0, time.UTC)
	got := FallbackText(successResult(contractx.ActionMovementHistory, "", actionx.MovementHistory{
		WindowDays: 30,
		Products: []actionx.ProductHistory{{
			Product:     usbCableView(),
			LastUpdated: &updated,
			Movements: []actionx.MovementView{{
				Type:       "OUTBOUND",
				Quantity:   -30,
				StockAfter: 120,
				At:         updated,
			}},
		}},
	}))

	for _, want := range []string{
		"📋 History for USB Cable (ELE-1001-001):",
		"• Last updated: 2025-03-13 16:45",
		"• 2025-03-13: OUTBOUND -30 → 120 units",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextStoreWideHistory(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	got := FallbackText(successResult(contractx.ActionMovementHistory, "", actionx.MovementHistory{
		WindowDays: 7,
		StoreWide: []actionx.MovementView{{
			Product:    "USB Cable",
			Type:       "INBOUND",
			Quantity:   50,
			StockAfter: 200,
			At:         at,
		}},
	}))

	if !strings.HasPrefix(got, "📋 Recent movements (last 7 days):") {
		t.Fatalf("unexpected header in:\n%s", got)
	}
	if !strings.Contains(got, "• 2025-03-12: USB Cable INBOUND +50 → 200 units") {
		t.Fatalf("expected movement line in:\n%s", got)
	}
}

func TestFallbackTextEmptyHistory(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionMovementHistory, "",
		actionx.MovementHistory{WindowDays: 30}))
	if got != "No inventory movements in the last 30 days." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextCapabilities(t *testing.T) {
	t.Parallel()

	got := FallbackText(successResult(contractx.ActionCapabilities, "", actionx.CapabilitiesReport{
		Capabilities: []actionx.Capability{{
			Name:        "pricing",
			Description: "Cost, wholesale, and retail prices",
			Examples:    []string{"What's the price of gaming keyboard?"},
		}},
	}))

	for _, want := range []string{
		"Here's what I can help with:",
		"• pricing: Cost, wholesale, and retail prices",
		`e.g. "What's the price of gaming keyboard?"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFallbackTextUnknownPayloadUsesMessage(t *testing.T) {
	t.Parallel()

	res := successResult(contractx.ActionClarification, "Could you rephrase?", nil)
	if got := FallbackText(res); got != "Could you rephrase?" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFallbackTextNeverEmpty(t *testing.T) {
	t.Parallel()

	results := []contractx.ActionResult{
		{},
		{Success: true},
		{Success: true, Action: contractx.ActionProductStock, Payload: actionx.ProductStock{}},
		{Success: true, Action: contractx.ActionMovementHistory, Payload: actionx.MovementHistory{}},
		{Success: true, Action: contractx.ActionLowStockReport, Payload: actionx.LowStockReport{}},
		{Success: true, Action: contractx.ActionCapabilities, Payload: actionx.CapabilitiesReport{}},
	}
	for i, res := range results {
		if got := FallbackText(res); strings.TrimSpace(got) == "" {
			t.Errorf("result %d produced an empty reply", i)
		}
	}
}
