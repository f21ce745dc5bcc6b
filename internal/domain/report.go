package domain

import "time"

// ReportParams are the caller-supplied knobs for a report computation. The
// date range is inclusive on both ends; zero times mean "derive from data".
type ReportParams struct {
	From       time.Time `json:"from,omitempty"`
	To         time.Time `json:"to,omitempty"`
	DefaultDRR float64   `json:"default_drr"`
	DefaultASP float64   `json:"default_asp"`
}

// ReportRow is the derived output entity, one per (sku, variant) pair.
type ReportRow struct {
	VariantID              string  `json:"variant_id"`
	SKU                    string  `json:"sku,omitempty"`
	ProductTitle           string  `json:"product_title,omitempty"`
	DaysOutOfStock         int     `json:"days_out_of_stock"`
	LatestInventory        float64 `json:"latest_inventory"`
	DRR                    float64 `json:"drr"`
	ASP                    float64 `json:"asp"`
	IsFallback             bool    `json:"is_fallback"`
	BusinessLoss           float64 `json:"business_loss"`
	DaysOnHand             int     `json:"days_on_hand"`
	OnShelfAvailabilityPct float64 `json:"on_shelf_availability_pct"`
	B2BInventory           float64 `json:"b2b_inventory"`
	BlockedQuantity        float64 `json:"blocked_quantity"`
}

// ReportSummary mirrors the totals of the original summary export.
type ReportSummary struct {
	TotalBusinessLoss float64 `json:"total_business_loss"`
	TotalOOSDays      int     `json:"total_oos_days"`
	UniqueVariants    int     `json:"unique_variants"`
	AvgDRR            float64 `json:"avg_drr"`
}

// Report is one immutable computation snapshot. SourceErrors carries
// per-loader failures so callers can render partial data with a warning;
// Reason is set (and Rows empty) when nothing at all could be computed.
type Report struct {
	Rows         []ReportRow            `json:"rows"`
	Inventory    []InventoryObservation `json:"inventory,omitempty"`
	Summary      ReportSummary          `json:"summary"`
	TotalDays    int                    `json:"total_days"`
	Reason       string                 `json:"reason,omitempty"`
	SourceErrors map[string]string      `json:"source_errors,omitempty"`
	ComputedAt   time.Time              `json:"computed_at"`
}

// WarehouseBreakdownRow is the per-warehouse view for a single SKU.
type WarehouseBreakdownRow struct {
	Warehouse      string  `json:"warehouse"`
	Total          float64 `json:"total"`
	Blocked        float64 `json:"blocked"`
	Available      float64 `json:"available"`
	SharePct       float64 `json:"share_pct"`
	WarehouseDRR   float64 `json:"warehouse_drr"`
	WarehouseDOH   int     `json:"warehouse_doh"`
	PerUnitLossEst float64 `json:"per_unit_loss_estimate"`
}

// DOHHealth buckets a days-on-hand figure the way the ops dashboard colors
// it: healthy above 30 days, monitor between 15 and 30, low below 15 and
// out-of-stock at zero.
type DOHHealth string

const (
	DOHHealthy    DOHHealth = "healthy"
	DOHMonitor    DOHHealth = "monitor"
	DOHLow        DOHHealth = "low"
	DOHOutOfStock DOHHealth = "out_of_stock"
)

// ClassifyDOH maps a days-on-hand value onto its health bucket.
func ClassifyDOH(doh int) DOHHealth {
	switch {
	case doh > 30:
		return DOHHealthy
	case doh >= 15:
		return DOHMonitor
	case doh > 0:
		return DOHLow
	default:
		return DOHOutOfStock
	}
}

// TopLossEntry is one bar of the "top N by business loss" aggregation,
// grouped by product title.
type TopLossEntry struct {
	ProductTitle string  `json:"product_title"`
	BusinessLoss float64 `json:"business_loss"`
}
