package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func obs(d int, variantID, status string, inventory float64) domain.InventoryObservation {
	return domain.InventoryObservation{
		Timestamp: day(d).Add(9 * time.Hour),
		VariantID: variantID,
		Status:    status,
		Inventory: inventory,
	}
}

func TestComputeOOSDaysAndLatestInventory(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 5),
			obs(2, "101", "active", 0),
			obs(3, "101", "active", 0),
			obs(4, "101", "active", 3),
			obs(5, "101", "active", 0),
		},
	}

	rep := engine.Compute(inputs, domain.ReportParams{DefaultDRR: 5, DefaultASP: 250})
	require.Len(t, rep.Rows, 1)

	row := rep.Rows[0]
	assert.Equal(t, 3, row.DaysOutOfStock)
	assert.Equal(t, 0.0, row.LatestInventory, "latest observation wins, not max")
	assert.True(t, row.IsFallback)
	assert.Equal(t, 5.0, row.DRR)
	assert.Equal(t, 250.0, row.ASP)
	assert.Equal(t, 3*5*250.0, row.BusinessLoss)
}

func TestComputeEndToEnd(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 0),
			obs(2, "101", "active", 0),
			obs(3, "101", "active", 0),
			obs(4, "101", "active", 15),
		},
		Rates: []domain.ReferenceRecord{
			{VariantID: "101", SKU: "HS-GEL-01", ProductTitle: "Face Gel", DRR: 2, ASP: 250, HasASP: true},
		},
		B2B: []domain.B2BSnapshotRow{
			{SKU: "HS-GEL-01", ProductName: "Face Gel", Inventory: 40},
		},
		Blocked: []domain.BlockedInventoryRecord{
			{Warehouse: "Bangalore", SKU: "HS-GEL-01", Total: 12, Blocked: 8, Available: 4},
			{Warehouse: "Kolkata", SKU: "HS-GEL-01", Total: 6, Blocked: 2, Available: 4},
		},
	}
	params := domain.ReportParams{From: day(1), To: day(10), DefaultDRR: 5, DefaultASP: 250}

	rep := engine.Compute(inputs, params)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, 10, rep.TotalDays)

	row := rep.Rows[0]
	assert.Equal(t, "HS-GEL-01", row.SKU)
	assert.Equal(t, "Face Gel", row.ProductTitle)
	assert.False(t, row.IsFallback)
	assert.Equal(t, 3, row.DaysOutOfStock)
	assert.Equal(t, 1500.0, row.BusinessLoss)
	assert.Equal(t, 8, row.DaysOnHand, "ceil(15/2)")
	assert.Equal(t, 70.0, row.OnShelfAvailabilityPct)
	assert.Equal(t, 40.0, row.B2BInventory)
	assert.Equal(t, 10.0, row.BlockedQuantity, "blocked summed across warehouses")

	assert.Equal(t, 1500.0, rep.Summary.TotalBusinessLoss)
	assert.Equal(t, 3, rep.Summary.TotalOOSDays)
	assert.Equal(t, 1, rep.Summary.UniqueVariants)
	assert.Equal(t, 2.0, rep.Summary.AvgDRR)
}

func TestComputeSKUFallbackJoin(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "abc-1", "active", 10),
		},
		Rates: []domain.ReferenceRecord{
			{SKU: "ABC-1", DRR: 3, ASP: 100, HasASP: true},
		},
	}

	rep := engine.Compute(inputs, domain.ReportParams{DefaultDRR: 5, DefaultASP: 250})
	require.Len(t, rep.Rows, 1)

	// No variant-id match, but the normalized variant equals a reference SKU.
	row := rep.Rows[0]
	assert.False(t, row.IsFallback)
	assert.Equal(t, "ABC-1", row.SKU)
	assert.Equal(t, 3.0, row.DRR)
}

func TestComputeMissingASPUsesDefault(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 0),
		},
		Rates: []domain.ReferenceRecord{
			{VariantID: "101", SKU: "HS-SRM-02", DRR: 2},
		},
	}

	rep := engine.Compute(inputs, domain.ReportParams{DefaultDRR: 5, DefaultASP: 250})
	require.Len(t, rep.Rows, 1)
	assert.False(t, rep.Rows[0].IsFallback)
	assert.Equal(t, 250.0, rep.Rows[0].ASP)
}

func TestComputeInactiveVariantsExcluded(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 1),
			obs(1, "202", "draft", 0),
			// No status on the observation; the products sheet decides.
			obs(1, "303", "", 0),
			obs(1, "404", "", 0),
		},
		Products: []domain.ProductRecord{
			{VariantID: "303", Status: "active", Title: "Third"},
			{VariantID: "404", Status: "archived"},
		},
	}

	rep := engine.Compute(inputs, domain.ReportParams{DefaultDRR: 5, DefaultASP: 250})
	require.Len(t, rep.Rows, 2)

	variants := []string{rep.Rows[0].VariantID, rep.Rows[1].VariantID}
	assert.ElementsMatch(t, []string{"101", "303"}, variants)
}

func TestComputeEmptyRange(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 1),
		},
	}
	params := domain.ReportParams{From: day(20), To: day(25), DefaultDRR: 5, DefaultASP: 250}

	rep := engine.Compute(inputs, params)
	assert.Empty(t, rep.Rows)
	assert.NotEmpty(t, rep.Reason)
}

func TestComputeOSAClamped(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	// Two zero observations on one day inside a one-day range: the OOS count
	// exceeds the range length, so availability clamps at 0 instead of
	// going negative.
	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 0),
			{Timestamp: day(1).Add(18 * time.Hour), VariantID: "101", Status: "active"},
		},
	}
	params := domain.ReportParams{From: day(1), To: day(1), DefaultDRR: 5, DefaultASP: 250}

	rep := engine.Compute(inputs, params)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, 0.0, rep.Rows[0].OnShelfAvailabilityPct)
	assert.GreaterOrEqual(t, rep.Rows[0].BusinessLoss, 0.0)
}

func TestComputeDedupePolicies(t *testing.T) {
	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 1),
			obs(1, "102", "active", 2),
		},
		Rates: []domain.ReferenceRecord{
			{VariantID: "101", SKU: "SHARED", DRR: 2, ASP: 100, HasASP: true},
			{VariantID: "102", SKU: "SHARED", DRR: 2, ASP: 100, HasASP: true},
		},
	}
	params := domain.ReportParams{DefaultDRR: 5, DefaultASP: 250}

	composite := NewEngine(Options{IncludeZeroDRR: true}).Compute(inputs, params)
	assert.Len(t, composite.Rows, 2, "composite keeps every (sku, variant) pair")

	keepFirst := NewEngine(Options{IncludeZeroDRR: true, DedupePolicy: DedupeKeepFirst}).Compute(inputs, params)
	assert.Len(t, keepFirst.Rows, 1)
}

func TestComputeZeroDRRFilter(t *testing.T) {
	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "101", "active", 1),
		},
	}
	// Unmatched variant with a zero default DRR.
	params := domain.ReportParams{DefaultDRR: 0, DefaultASP: 250}

	included := NewEngine(Options{IncludeZeroDRR: true}).Compute(inputs, params)
	require.Len(t, included.Rows, 1)
	assert.Equal(t, 0.0, included.Rows[0].BusinessLoss, "zero demand cannot produce loss")

	excluded := NewEngine(Options{IncludeZeroDRR: false}).Compute(inputs, params)
	assert.Empty(t, excluded.Rows)
}

func TestComputeSortedByTitleThenVariant(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Observations: []domain.InventoryObservation{
			obs(1, "300", "active", 1),
			obs(1, "100", "active", 1),
			obs(1, "200", "active", 1),
		},
		Products: []domain.ProductRecord{
			{VariantID: "300", Status: "active", Title: "Zinc Serum"},
			{VariantID: "100", Status: "active", Title: "Aloe Gel"},
			{VariantID: "200", Status: "active", Title: "Aloe Gel"},
		},
	}

	rep := engine.Compute(inputs, domain.ReportParams{DefaultDRR: 5, DefaultASP: 250})
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, "100", rep.Rows[0].VariantID)
	assert.Equal(t, "200", rep.Rows[1].VariantID)
	assert.Equal(t, "300", rep.Rows[2].VariantID)

	for _, row := range rep.Rows {
		assert.Equal(t, 0.0, row.BusinessLoss, "no stock-out days, no loss")
	}
}

func TestWarehouseBreakdown(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Rates: []domain.ReferenceRecord{
			{SKU: "HS-GEL-01", DRR: 10, ASP: 300, HasASP: true},
		},
		Blocked: []domain.BlockedInventoryRecord{
			{Warehouse: "Bangalore", SKU: "HS-GEL-01", Total: 12, Blocked: 8, Available: 4},
			{Warehouse: "Bilaspur", SKU: "HS-GEL-01", Total: 36, Blocked: 0, Available: 36},
			{Warehouse: "Kolkata", SKU: "OTHER", Total: 5, Blocked: 5, Available: 0},
		},
	}
	params := domain.ReportParams{DefaultDRR: 5, DefaultASP: 250}

	rows := engine.WarehouseBreakdown("hs-gel-01", inputs, params)
	require.Len(t, rows, 2)

	bangalore := rows[0]
	assert.Equal(t, "Bangalore", bangalore.Warehouse)
	assert.Equal(t, 20.0, bangalore.SharePct)
	assert.Equal(t, 2.0, bangalore.WarehouseDRR)
	assert.Equal(t, 2, bangalore.WarehouseDOH, "ceil(4/2)")
	assert.Equal(t, 300.0, bangalore.PerUnitLossEst)

	bilaspur := rows[1]
	assert.Equal(t, "Bilaspur", bilaspur.Warehouse)
	assert.Equal(t, 36.0, bilaspur.SharePct)
	assert.Equal(t, 10, bilaspur.WarehouseDOH, "ceil(36/3.6)")
}

func TestWarehouseBreakdownUnmatchedSKUUsesDefaults(t *testing.T) {
	engine := NewEngine(Options{IncludeZeroDRR: true})

	inputs := Inputs{
		Blocked: []domain.BlockedInventoryRecord{
			{Warehouse: "Kolkata", SKU: "UNKNOWN-1", Total: 17, Blocked: 0, Available: 17},
		},
	}
	params := domain.ReportParams{DefaultDRR: 4, DefaultASP: 111}

	rows := engine.WarehouseBreakdown("unknown-1", inputs, params)
	require.Len(t, rows, 1)
	assert.Equal(t, 111.0, rows[0].PerUnitLossEst)
	assert.InDelta(t, 0.68, rows[0].WarehouseDRR, 1e-9)
}

func TestTopLoss(t *testing.T) {
	rows := []domain.ReportRow{
		{VariantID: "1", ProductTitle: "Gel", BusinessLoss: 100},
		{VariantID: "2", ProductTitle: "Gel", BusinessLoss: 50},
		{VariantID: "3", ProductTitle: "Serum", BusinessLoss: 120},
		{VariantID: "4", BusinessLoss: 10},
	}

	entries := TopLoss(rows, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, "Serum", entries[0].ProductTitle)
	assert.Equal(t, 150.0, entries[1].BusinessLoss, "title groups aggregate")
	assert.Equal(t, "Gel", entries[1].ProductTitle)

	// n <= 0 means no limit; untitled rows group under the variant id.
	all := TopLoss(rows, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "4", all[2].ProductTitle)
}

func TestDaysOnHand(t *testing.T) {
	assert.Equal(t, 8, daysOnHand(15, 2))
	assert.Equal(t, 1, daysOnHand(1, 2))
	assert.Equal(t, 0, daysOnHand(0, 2))
	assert.Equal(t, 0, daysOnHand(100, 0), "zero drr means no estimate")
}
