package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
)

// VariantCSV renders the full per-variant report as CSV, one row per
// (sku, variant) pair in the report's order.
func VariantCSV(rep *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"variant_id", "sku", "product_title",
		"days_out_of_stock", "latest_inventory",
		"drr", "asp", "is_fallback",
		"business_loss", "days_on_hand", "on_shelf_availability_pct",
		"b2b_inventory", "blocked_quantity", "doh_health",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rep.Rows {
		record := []string{
			row.VariantID,
			row.SKU,
			row.ProductTitle,
			strconv.Itoa(row.DaysOutOfStock),
			formatFloat(row.LatestInventory),
			formatFloat(row.DRR),
			formatFloat(row.ASP),
			strconv.FormatBool(row.IsFallback),
			formatFloat(row.BusinessLoss),
			strconv.Itoa(row.DaysOnHand),
			formatFloat(row.OnShelfAvailabilityPct),
			formatFloat(row.B2BInventory),
			formatFloat(row.BlockedQuantity),
			string(domain.ClassifyDOH(row.DaysOnHand)),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SummaryCSV renders the report totals as a two-row CSV.
func SummaryCSV(rep *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{
		"total_business_loss", "total_oos_days", "unique_variants", "avg_drr", "total_days",
	}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{
		formatFloat(rep.Summary.TotalBusinessLoss),
		strconv.Itoa(rep.Summary.TotalOOSDays),
		strconv.Itoa(rep.Summary.UniqueVariants),
		formatFloat(rep.Summary.AvgDRR),
		strconv.Itoa(rep.TotalDays),
	}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ObjectKey builds the storage key for an exported report file, namespaced
// by the report's date range.
func ObjectKey(rep *domain.Report, params domain.ReportParams, kind string) string {
	from := "auto"
	to := "auto"
	if !params.From.IsZero() {
		from = params.From.Format("2006-01-02")
	}
	if !params.To.IsZero() {
		to = params.To.Format("2006-01-02")
	}
	return fmt.Sprintf("reports/%s_%s/%s_%s.csv", from, to, kind, rep.ComputedAt.Format("20060102T150405"))
}
