// Package seed loads a deterministic demo catalog so the agent can answer
// real questions out of the box. Opening stock goes through ApplyMovement,
// keeping the movement ledger consistent with product quantities.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/sirawit-b/stocktalk/inventory"
)

const randSeed = 404117

type Summary struct {
	Categories int
	Suppliers  int
	Products   int
	Movements  int
}

type catalogCategory struct {
	name        string
	description string
	skuPrefix   string
	products    []string
}

var catalog = []catalogCategory{
	{
		name:        "Electronics",
		description: "Electronic devices and accessories",
		skuPrefix:   "ELE",
		products: []string{
			"Wireless Bluetooth Headphones", "USB-C Charging Cable", "Bluetooth Speaker",
			"Wireless Mouse", "Power Bank", "HDMI Cable", "Gaming Keyboard", "LED Monitor",
		},
	},
	{
		name:        "Clothing & Apparel",
		description: "Clothing, shoes, and fashion accessories",
		skuPrefix:   "CLO",
		products: []string{
			"Cotton T-Shirt", "Denim Jeans", "Running Shoes", "Baseball Cap",
			"Cotton Hoodie", "Polo Shirt", "Wool Sweater", "Winter Coat",
		},
	},
	{
		name:        "Home & Garden",
		description: "Home improvement and gardening supplies",
		skuPrefix:   "HOM",
		products: []string{
			"Garden Hose", "LED Light Bulbs", "Plant Pot Set", "Watering Can",
			"Pruning Shears", "Solar Lights", "Garden Tool Set", "Bird Feeder",
		},
	},
	{
		name:        "Health & Beauty",
		description: "Personal care and beauty products",
		skuPrefix:   "HLT",
		products: []string{
			"Face Moisturizer", "Body Lotion", "Vitamin C Serum", "Sunscreen SPF 30",
			"Hand Sanitizer", "Shampoo", "Conditioner", "Body Wash",
		},
	},
	{
		name:        "Office Supplies",
		description: "Business and office equipment",
		skuPrefix:   "OFF",
		products: []string{
			"Ballpoint Pens", "Sticky Notes", "Copy Paper", "Stapler",
			"File Folders", "Desk Organizer", "Calculator", "Desk Lamp",
		},
	},
	{
		name:        "Automotive",
		description: "Car parts and automotive accessories",
		skuPrefix:   "AUT",
		products: []string{
			"Motor Oil", "Brake Pads", "Windshield Wipers", "Jumper Cables",
			"Car Floor Mats", "Spark Plugs", "Tire Pressure Gauge", "Antifreeze",
		},
	},
	{
		name:        "Sports & Outdoors",
		description: "Sports equipment and outdoor gear",
		skuPrefix:   "SPT",
		products: []string{
			"Basketball", "Yoga Mat", "Camping Tent", "Hiking Boots",
			"Water Bottle", "Dumbbells Set", "Sleeping Bag", "Bicycle Helmet",
		},
	},
	{
		name:        "Tools & Hardware",
		description: "Construction tools and hardware",
		skuPrefix:   "TLS",
		products: []string{
			"Screwdriver Set", "Claw Hammer", "Drill Bits", "Measuring Tape",
			"Wrench Set", "Safety Glasses", "Utility Knife", "Tool Box",
		},
	},
}

var suppliers = []inventory.Supplier{
	{Name: "Meridian Wholesale", ContactEmail: "orders@meridianwholesale.example", ContactPhone: "+1-555-0141", PaymentTerms: "Net 30", IsActive: true},
	{Name: "Pacific Rim Distribution", ContactEmail: "sales@pacrimdist.example", ContactPhone: "+1-555-0172", PaymentTerms: "Net 45", IsActive: true},
	{Name: "Ironclad Supply Co", ContactEmail: "contact@ironcladsupply.example", ContactPhone: "+1-555-0123", PaymentTerms: "Net 15", IsActive: true},
	{Name: "Brightline Trading", ContactEmail: "hello@brightlinetrading.example", ContactPhone: "+1-555-0195", PaymentTerms: "2/10 Net 30", IsActive: true},
	{Name: "Summit Import Export", ContactEmail: "ops@summitimpex.example", ContactPhone: "+1-555-0156", PaymentTerms: "Net 30", IsActive: true},
	{Name: "Cascade Bulk Supply", ContactEmail: "support@cascadebulk.example", ContactPhone: "+1-555-0113", PaymentTerms: "COD", IsActive: true},
	{Name: "Atlas Global Supply", ContactEmail: "orders@atlasglobal.example", ContactPhone: "+1-555-0187", PaymentTerms: "Net 30", IsActive: true},
	{Name: "Harbor Direct", ContactEmail: "sales@harbordirect.example", ContactPhone: "+1-555-0164", PaymentTerms: "Net 15", IsActive: true},
	{Name: "Crestview Commercial", ContactEmail: "info@crestviewcommercial.example", ContactPhone: "+1-555-0139", PaymentTerms: "Net 45", IsActive: true},
	{Name: "Redwood Trading", ContactEmail: "orders@redwoodtrading.example", ContactPhone: "+1-555-0148", PaymentTerms: "Net 30", IsActive: true},
	{Name: "Keystone Distribution", ContactEmail: "sales@keystonedist.example", ContactPhone: "+1-555-0176", PaymentTerms: "2/10 Net 30", IsActive: true},
	{Name: "Lakeland Supply Co", ContactEmail: "contact@lakelandsupply.example", ContactPhone: "+1-555-0192", PaymentTerms: "Net 60", IsActive: false},
}

// Load populates an empty store. Quantities and prices are pseudo-random
// but identical on every run.
func Load(ctx context.Context, store inventory.Store) (Summary, error) {
	rng := rand.New(rand.NewSource(randSeed))

	var sum Summary

	categoryIDs := make([]int64, len(catalog))
	for i, c := range catalog {
		cat := &inventory.Category{Name: c.name, Description: c.description}
		if err := store.CreateCategory(ctx, cat); err != nil {
			return sum, fmt.Errorf("seed category %s: %w", c.name, err)
		}
		categoryIDs[i] = cat.ID
		sum.Categories++
	}

	supplierIDs := make([]int64, 0, len(suppliers))
	for _, s := range suppliers {
		sup := s
		if err := store.CreateSupplier(ctx, &sup); err != nil {
			return sum, fmt.Errorf("seed supplier %s: %w", s.Name, err)
		}
		if sup.IsActive {
			supplierIDs = append(supplierIDs, sup.ID)
		}
		sum.Suppliers++
	}

	seq := 0
	for i, c := range catalog {
		for j, name := range c.products {
			seq++

			cost := round2(5 + rng.Float64()*195)
			wholesale := round2(cost * (1.3 + rng.Float64()*0.7))
			retail := round2(cost * (1.8 + rng.Float64()*1.2))
			minimum := int64(5 + rng.Intn(46))

			p := &inventory.Product{
				SKU:            fmt.Sprintf("%s-%04d-%03d", c.skuPrefix, 1000+seq, j+1),
				Name:           name,
				Description:    fmt.Sprintf("Bulk %s stocked for %s retailers", strings.ToLower(name), strings.ToLower(c.name)),
				CategoryID:     categoryIDs[i],
				SupplierID:     supplierIDs[rng.Intn(len(supplierIDs))],
				CostPrice:      cost,
				WholesalePrice: wholesale,
				RetailPrice:    retail,
				MinimumStock:   minimum,
				MaximumStock:   200 + int64(rng.Intn(801)),
				IsActive:       true,
			}
			if err := store.CreateProduct(ctx, p); err != nil {
				return sum, fmt.Errorf("seed product %s: %w", p.SKU, err)
			}
			sum.Products++

			opening := openingStock(rng, seq, minimum)
			if opening == 0 {
				continue
			}

			if _, err := store.ApplyMovement(ctx, inventory.MovementRequest{
				ProductID: p.ID,
				Type:      inventory.MovementInbound,
				Delta:     opening,
				Reference: fmt.Sprintf("INB-%08d", 10000000+seq),
				Note:      "opening stock",
			}); err != nil {
				return sum, fmt.Errorf("seed opening stock %s: %w", p.SKU, err)
			}
			sum.Movements++

			// Ship a slice of some openings so history and analytics queries
			// have movement data on day one.
			if seq%4 == 0 && opening > 3 {
				shipped := opening / 3
				if _, err := store.ApplyMovement(ctx, inventory.MovementRequest{
					ProductID: p.ID,
					Type:      inventory.MovementOutbound,
					Delta:     -shipped,
					Reference: fmt.Sprintf("OUT-%08d", 20000000+seq),
					Note:      "wholesale order",
				}); err != nil {
					return sum, fmt.Errorf("seed shipment %s: %w", p.SKU, err)
				}
				sum.Movements++
			}
		}
	}

	return sum, nil
}

// openingStock leaves roughly one product in nine out of stock and one in
// five at or below its minimum, so alert queries have something to find.
func openingStock(rng *rand.Rand, seq int, minimum int64) int64 {
	switch {
	case seq%9 == 0:
		return 0
	case seq%5 == 0:
		return rng.Int63n(minimum) + 1
	default:
		return minimum + 20 + rng.Int63n(300)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
