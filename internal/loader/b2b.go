package loader

import (
	"strings"
	"time"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
)

// b2bMetaRows is the fixed metadata block at the top of the B2B sheet:
// sku, product name, size, category and range, each transposed across one
// row with one column per SKU.
const b2bMetaRows = 5

// dateRowLayouts cover the day-month strings keying the B2B data rows.
var dateRowLayouts = []string{
	"2-Jan",
	"02-Jan",
	"2-Jan-06",
	"2-Jan-2006",
	"2 Jan",
	"2006-01-02",
	"02-01-2006",
}

// LoadB2BSnapshot parses the wide B2B sheet: the metadata block becomes one
// row per SKU, and the most recent date-keyed data row supplies the current
// on-hand quantity per SKU. When no row parses as a date the result is
// empty but correctly shaped, never an error; "no current snapshot" is a
// representable state.
func LoadB2BSnapshot(records [][]string) ([]domain.B2BSnapshotRow, error) {
	if len(records) < b2bMetaRows {
		return []domain.B2BSnapshotRow{}, nil
	}

	meta := records[:b2bMetaRows]

	// Pick the data row with the maximum parsed date.
	var (
		currentRow  []string
		currentDate time.Time
		found       bool
	)
	for _, row := range records[b2bMetaRows:] {
		if len(row) == 0 {
			continue
		}
		d, ok := parseDayMonth(row[0])
		if !ok {
			continue
		}
		if !found || d.After(currentDate) {
			currentRow = row
			currentDate = d
			found = true
		}
	}
	if !found {
		return []domain.B2BSnapshotRow{}, nil
	}

	// Unpivot: column 0 is the date key, every further column is one SKU.
	width := len(meta[0])
	rows := make([]domain.B2BSnapshotRow, 0, width)
	for col := 1; col < width; col++ {
		sku := normalize.SKU(cell(meta[0], col))
		if sku == "" {
			continue
		}
		rows = append(rows, domain.B2BSnapshotRow{
			SKU:         sku,
			ProductName: cell(meta[1], col),
			Size:        cell(meta[2], col),
			Category:    cell(meta[3], col),
			Range:       cell(meta[4], col),
			Inventory:   parseNumeric(cell(currentRow, col)),
		})
	}

	return rows, nil
}

// parseDayMonth parses the date-like first-column value of a data row.
// Layouts without a year parse into year 0, which still orders correctly
// within one sheet.
func parseDayMonth(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateRowLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
