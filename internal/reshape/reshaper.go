// Package reshape converts the two-level-header wide inventory time series
// into tidy per-variant-per-timestamp observations.
//
// The source sheet has one row per timestamp and one {Status, Inventory}
// column pair per variant. The variant label appears only on the first
// column of its pair (a merged-cell artifact), so the outer header must be
// carried forward positionally. Rather than melting on column-name string
// surgery, the parser builds an explicit column index from the two header
// rows in a first pass and extracts values by that index in a second pass,
// which keeps variant identifiers containing underscores intact.
package reshape

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
)

const (
	fieldStatus    = "status"
	fieldInventory = "inventory"
)

// timestampLayouts are the formats observed in the exported sheets, in
// order of likelihood.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// column describes where one (variant, field) value lives in a data row.
type column struct {
	variantID string
	field     string
}

// index is the result of the first header pass.
type index struct {
	timestampCol int
	columns      map[int]column // data column position -> (variant, field)
	variants     []string       // variant order of first appearance
}

// Reshape parses the raw records of the wide sheet (two header rows
// followed by one row per timestamp) into tidy observations. Malformed
// timestamps survive as zero-time observations so that callers can still
// see the rows; FilterByDate excludes them.
func Reshape(records [][]string) ([]domain.InventoryObservation, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("wide inventory table needs two header rows, got %d rows", len(records))
	}

	idx, err := buildIndex(records[0], records[1])
	if err != nil {
		return nil, err
	}

	observations := make([]domain.InventoryObservation, 0, (len(records)-2)*len(idx.variants))
	for _, row := range records[2:] {
		ts := parseTimestamp(cell(row, idx.timestampCol))

		// Collect both fields per variant before emitting, so each
		// (timestamp, variant) pair yields exactly one observation.
		type pair struct {
			status    string
			inventory float64
			seen      bool
		}
		byVariant := make(map[string]*pair, len(idx.variants))

		for pos, col := range idx.columns {
			raw := strings.TrimSpace(cell(row, pos))
			p := byVariant[col.variantID]
			if p == nil {
				p = &pair{}
				byVariant[col.variantID] = p
			}
			switch col.field {
			case fieldStatus:
				p.status = strings.ToLower(raw)
				p.seen = true
			case fieldInventory:
				p.inventory = parseQuantity(raw)
				p.seen = true
			}
		}

		for _, variantID := range idx.variants {
			p := byVariant[variantID]
			if p == nil || !p.seen {
				continue
			}
			observations = append(observations, domain.InventoryObservation{
				Timestamp: ts,
				VariantID: variantID,
				Status:    p.status,
				Inventory: p.inventory,
			})
		}
	}

	return observations, nil
}

// FilterByDate keeps observations whose calendar day falls inside the
// inclusive [from, to] range. Zero bounds are open on that side.
// Observations with unparseable (zero) timestamps are always excluded.
func FilterByDate(obs []domain.InventoryObservation, from, to time.Time) []domain.InventoryObservation {
	out := make([]domain.InventoryObservation, 0, len(obs))
	for _, o := range obs {
		if o.Timestamp.IsZero() {
			continue
		}
		day := o.Day()
		if !from.IsZero() && day.Before(truncateDay(from)) {
			continue
		}
		if !to.IsZero() && day.After(truncateDay(to)) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// buildIndex is the first pass: read the header pair per column, carrying
// forward the last non-empty outer header as the current variant label.
func buildIndex(outer, inner []string) (*index, error) {
	idx := &index{
		timestampCol: -1,
		columns:      make(map[int]column),
	}
	seen := make(map[string]bool)

	width := len(outer)
	if len(inner) > width {
		width = len(inner)
	}

	current := ""
	for i := 0; i < width; i++ {
		label := strings.TrimSpace(cell(outer, i))
		if label != "" {
			current = label
		}

		if isTimestampHeader(current) {
			if idx.timestampCol == -1 {
				idx.timestampCol = i
			}
			continue
		}

		field := strings.ToLower(strings.TrimSpace(cell(inner, i)))
		if field != fieldStatus && field != fieldInventory {
			continue
		}

		variantID := normalize.ID(current)
		if variantID == "" {
			continue
		}

		idx.columns[i] = column{variantID: variantID, field: field}
		if !seen[variantID] {
			seen[variantID] = true
			idx.variants = append(idx.variants, variantID)
		}
	}

	if idx.timestampCol == -1 {
		return nil, fmt.Errorf("wide inventory table has no timestamp column")
	}
	if len(idx.columns) == 0 {
		return nil, fmt.Errorf("wide inventory table has no variant status/inventory columns")
	}

	return idx, nil
}

func isTimestampHeader(label string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "")
	return normalized == "timestamp"
}

// parseTimestamp tries the known layouts; failures map to the zero time so
// the row is representable but excluded from date-filtered results.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// parseQuantity coerces an inventory cell to a number; failed or missing
// values become 0.
func parseQuantity(raw string) float64 {
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
