package report

import (
	"math"
	"sort"
	"time"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/reshape"
)

// DedupePolicy controls what happens when multiple variant IDs map onto the
// same SKU. The composite default keeps every (sku, variant) pair; KeepFirst
// reproduces the historical dashboards, which silently kept the first row
// per SKU.
type DedupePolicy int

const (
	DedupeComposite DedupePolicy = iota
	DedupeKeepFirst
)

// Options carries the engine configuration. Zero defaults: composite dedup,
// zero-DRR rows included, default attribution table.
type Options struct {
	DedupePolicy   DedupePolicy
	IncludeZeroDRR bool
	Attribution    Attribution
}

// Engine is the join-and-compute stage of the pipeline.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.Attribution == nil {
		opts.Attribution = DefaultAttribution()
	}
	return &Engine{opts: opts}
}

// Inputs bundles everything one report computation consumes. Products,
// B2B and Blocked are optional; Rates may be nil when that loader failed,
// in which case every row falls back to the caller defaults.
type Inputs struct {
	Observations []domain.InventoryObservation
	Products     []domain.ProductRecord
	Rates        []domain.ReferenceRecord
	B2B          []domain.B2BSnapshotRow
	Blocked      []domain.BlockedInventoryRecord
}

// variantAccum accumulates per-variant facts from the observation pass.
type variantAccum struct {
	variantID string
	oosDays   int
	latest    domain.InventoryObservation
	hasLatest bool
}

// Compute derives the report for the given params. Inventory observations
// are filtered to the inclusive date range and to variants that are active
// (observation status, or the products sheet when the observation lacks a
// status). Every observed variant appears in the output, including those
// never out of stock.
func (e *Engine) Compute(in Inputs, params domain.ReportParams) *domain.Report {
	now := time.Now()

	filtered := reshape.FilterByDate(in.Observations, params.From, params.To)
	if len(filtered) == 0 {
		return &domain.Report{
			Rows:       []domain.ReportRow{},
			Inventory:  []domain.InventoryObservation{},
			Reason:     "no inventory observations in the selected date range",
			ComputedAt: now,
		}
	}

	statusByVariant := make(map[string]string, len(in.Products))
	titleByVariant := make(map[string]string, len(in.Products))
	for _, p := range in.Products {
		statusByVariant[p.VariantID] = p.Status
		if p.Title != "" {
			titleByVariant[p.VariantID] = p.Title
		}
	}

	// Pass 1: group active observations by variant, counting zero-inventory
	// days and tracking the max-timestamp observation.
	accums := make(map[string]*variantAccum)
	variantOrder := make([]string, 0)
	allDays := make(map[time.Time]bool)

	for _, obs := range filtered {
		status := obs.Status
		if status == "" {
			status = statusByVariant[obs.VariantID]
		}
		if status != "active" {
			continue
		}
		allDays[obs.Day()] = true

		acc := accums[obs.VariantID]
		if acc == nil {
			acc = &variantAccum{variantID: obs.VariantID}
			accums[obs.VariantID] = acc
			variantOrder = append(variantOrder, obs.VariantID)
		}
		if obs.Inventory == 0 {
			acc.oosDays++
		}
		if !acc.hasLatest || obs.Timestamp.After(acc.latest.Timestamp) {
			acc.latest = obs
			acc.hasLatest = true
		}
	}

	if len(accums) == 0 {
		return &domain.Report{
			Rows:       []domain.ReportRow{},
			Inventory:  filtered,
			Reason:     "no active variants in the selected date range",
			ComputedAt: now,
		}
	}

	totalDays := totalDaysInRange(params.From, params.To, allDays)

	ratesByVariant := make(map[string]domain.ReferenceRecord, len(in.Rates))
	ratesBySKU := make(map[string]domain.ReferenceRecord, len(in.Rates))
	for _, r := range in.Rates {
		if r.VariantID != "" {
			if _, dup := ratesByVariant[r.VariantID]; !dup {
				ratesByVariant[r.VariantID] = r
			}
		}
		if r.SKU != "" {
			if _, dup := ratesBySKU[r.SKU]; !dup {
				ratesBySKU[r.SKU] = r
			}
		}
	}

	b2bBySKU := make(map[string]domain.B2BSnapshotRow, len(in.B2B))
	for _, b := range in.B2B {
		if _, dup := b2bBySKU[b.SKU]; !dup {
			b2bBySKU[b.SKU] = b
		}
	}

	blockedBySKU := make(map[string]float64, len(in.Blocked))
	for _, b := range in.Blocked {
		blockedBySKU[b.SKU] += b.Blocked
	}

	rows := make([]domain.ReportRow, 0, len(variantOrder))
	seenSKU := make(map[string]bool)

	for _, variantID := range variantOrder {
		acc := accums[variantID]
		row := domain.ReportRow{
			VariantID:       variantID,
			DaysOutOfStock:  acc.oosDays,
			LatestInventory: acc.latest.Inventory,
		}

		// Reference join: variant id first, normalized SKU as fallback.
		ref, matched := ratesByVariant[variantID]
		if !matched {
			ref, matched = ratesBySKU[normalize.SKU(variantID)]
		}
		if matched {
			row.SKU = ref.SKU
			row.ProductTitle = ref.ProductTitle
			row.DRR = ref.DRR
			if ref.HasASP {
				row.ASP = ref.ASP
			} else {
				row.ASP = params.DefaultASP
			}
		} else {
			// A variant absent from the reference sheet does not have zero
			// demand; it gets the caller defaults and a fallback marker.
			row.DRR = params.DefaultDRR
			row.ASP = params.DefaultASP
			row.IsFallback = true
		}

		if title, ok := titleByVariant[variantID]; ok && row.ProductTitle == "" {
			row.ProductTitle = title
		}

		if row.SKU != "" {
			if b2b, ok := b2bBySKU[row.SKU]; ok {
				row.B2BInventory = b2b.Inventory
				if row.ProductTitle == "" {
					row.ProductTitle = b2b.ProductName
				}
			}
			row.BlockedQuantity = blockedBySKU[row.SKU]
		}

		row.BusinessLoss = float64(row.DaysOutOfStock) * row.DRR * row.ASP
		row.DaysOnHand = daysOnHand(row.LatestInventory, row.DRR)
		row.OnShelfAvailabilityPct = onShelfAvailability(row.DaysOutOfStock, totalDays)

		if !e.opts.IncludeZeroDRR && row.DRR == 0 {
			continue
		}

		if e.opts.DedupePolicy == DedupeKeepFirst && row.SKU != "" {
			if seenSKU[row.SKU] {
				continue
			}
			seenSKU[row.SKU] = true
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ProductTitle != rows[j].ProductTitle {
			return rows[i].ProductTitle < rows[j].ProductTitle
		}
		return rows[i].VariantID < rows[j].VariantID
	})

	return &domain.Report{
		Rows:       rows,
		Inventory:  filtered,
		Summary:    summarize(rows),
		TotalDays:  totalDays,
		ComputedAt: now,
	}
}

// WarehouseBreakdown returns the per-warehouse view for one SKU: quantities
// from the blocked-inventory table, the attributed demand share, the
// warehouse DOH at that share and a per-unit loss estimate from the
// reference ASP (caller default when the SKU is unmatched).
func (e *Engine) WarehouseBreakdown(sku string, in Inputs, params domain.ReportParams) []domain.WarehouseBreakdownRow {
	key := normalize.SKU(sku)

	drr := params.DefaultDRR
	asp := params.DefaultASP
	for _, r := range in.Rates {
		if r.SKU == key {
			drr = r.DRR
			if r.HasASP {
				asp = r.ASP
			}
			break
		}
	}

	rows := make([]domain.WarehouseBreakdownRow, 0, 4)
	for _, b := range in.Blocked {
		if b.SKU != key {
			continue
		}
		share := e.opts.Attribution.Share(b.Warehouse)
		warehouseDRR := drr * share
		rows = append(rows, domain.WarehouseBreakdownRow{
			Warehouse:      b.Warehouse,
			Total:          b.Total,
			Blocked:        b.Blocked,
			Available:      b.Available,
			SharePct:       share * 100,
			WarehouseDRR:   warehouseDRR,
			WarehouseDOH:   daysOnHand(b.Available, warehouseDRR),
			PerUnitLossEst: asp,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Warehouse < rows[j].Warehouse })
	return rows
}

// TopLoss aggregates business loss by product title and returns the top n
// entries, descending.
func TopLoss(rows []domain.ReportRow, n int) []domain.TopLossEntry {
	byTitle := make(map[string]float64)
	order := make([]string, 0)
	for _, row := range rows {
		title := row.ProductTitle
		if title == "" {
			title = row.VariantID
		}
		if _, seen := byTitle[title]; !seen {
			order = append(order, title)
		}
		byTitle[title] += row.BusinessLoss
	}

	entries := make([]domain.TopLossEntry, 0, len(order))
	for _, title := range order {
		entries = append(entries, domain.TopLossEntry{ProductTitle: title, BusinessLoss: byTitle[title]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].BusinessLoss > entries[j].BusinessLoss })

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// daysOnHand is ceil(inventory / drr); 0 is the sentinel for "cannot
// estimate" when drr is 0.
func daysOnHand(inventory, drr float64) int {
	if drr <= 0 {
		return 0
	}
	return int(math.Ceil(inventory / drr))
}

// onShelfAvailability is (1 - oosDays/totalDays) * 100, clamped to [0, 100].
// The clamp matters when the date range shrinks between passes and the
// stored OOS count exceeds the new range.
func onShelfAvailability(oosDays, totalDays int) float64 {
	if totalDays <= 0 {
		return 0
	}
	pct := (1 - float64(oosDays)/float64(totalDays)) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// totalDaysInRange prefers the explicit inclusive range; an open range
// falls back to the number of distinct observed days.
func totalDaysInRange(from, to time.Time, observedDays map[time.Time]bool) int {
	if !from.IsZero() && !to.IsZero() {
		days := int(to.Sub(from).Hours()/24) + 1
		if days > 0 {
			return days
		}
	}
	return len(observedDays)
}

func summarize(rows []domain.ReportRow) domain.ReportSummary {
	s := domain.ReportSummary{}
	variants := make(map[string]bool, len(rows))
	var drrSum float64
	for _, row := range rows {
		s.TotalBusinessLoss += row.BusinessLoss
		s.TotalOOSDays += row.DaysOutOfStock
		variants[row.VariantID] = true
		drrSum += row.DRR
	}
	s.UniqueVariants = len(variants)
	if len(rows) > 0 {
		s.AvgDRR = drrSum / float64(len(rows))
	}
	return s
}
