package loader

import (
	"strings"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
)

// warehouseNames maps the company display names stored in the live
// inventory table onto the short canonical warehouse names used by the
// attribution table.
var warehouseNames = map[string]string{
	"Heavenly Secrets Private Limited - Bangalore":      "Bangalore",
	"Heavenly Secrets Private Limited - Mumbai - B2B":   "Mumbai B2B",
	"Heavenly Secrets Pvt Ltd - Kolkata":                "Kolkata",
	"Heavenly Secrets Private Limited - Emiza Bilaspur": "Bilaspur",
}

// CanonicalWarehouse normalizes a raw warehouse/location display name.
// Unknown Mumbai locations that are not B2B default to the B2C warehouse;
// anything else passes through trimmed so new warehouses degrade to "no
// attributed demand" instead of crashing the pipeline.
func CanonicalWarehouse(raw string) string {
	name := strings.TrimSpace(raw)
	if mapped, ok := warehouseNames[name]; ok {
		return mapped
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "mumbai") && !strings.Contains(lower, "b2b") {
		return "Mumbai B2C"
	}
	return name
}

// RawBlockedRow is one row as it comes out of the live inventory table,
// before canonicalization.
type RawBlockedRow struct {
	Location    string
	ProductName string
	SKU         string
	Quantity    string
	Locked      bool
	Eligible    bool
	Status      string
}

// CleanBlocked canonicalizes warehouse names and SKUs and aggregates the
// raw rows per (warehouse, sku) into total, blocked and available
// quantities. Only rows with status "available" and the eligibility flag
// set participate; the locked flag splits total into blocked vs sellable.
// Non-numeric quantities default to 0.
func CleanBlocked(raw []RawBlockedRow) []domain.BlockedInventoryRecord {
	type key struct {
		warehouse string
		sku       string
	}

	agg := make(map[key]*domain.BlockedInventoryRecord)
	order := make([]key, 0)

	for _, row := range raw {
		if !row.Eligible || strings.ToLower(strings.TrimSpace(row.Status)) != "available" {
			continue
		}
		sku := normalize.SKU(row.SKU)
		if sku == "" {
			continue
		}

		k := key{warehouse: CanonicalWarehouse(row.Location), sku: sku}
		rec := agg[k]
		if rec == nil {
			rec = &domain.BlockedInventoryRecord{
				Warehouse:   k.warehouse,
				ProductName: strings.TrimSpace(row.ProductName),
				SKU:         sku,
			}
			agg[k] = rec
			order = append(order, k)
		}

		qty := parseNumeric(row.Quantity)
		rec.Total += qty
		if row.Locked {
			rec.Blocked += qty
		} else {
			rec.Available += qty
		}
	}

	out := make([]domain.BlockedInventoryRecord, 0, len(order))
	for _, k := range order {
		out = append(out, *agg[k])
	}
	return out
}
