// Package loader reads and lightly cleans the external reference tables:
// the DRR/ASP rate sheet, the products status sheet, the wide B2B snapshot
// and the blocked-inventory warehouse table. Loaders are side-effect-free
// and fail independently; a failure in one must not abort the others.
package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldSpec declares one canonical column of a source table and the header
// aliases it may appear under. Upstream sheets rename columns freely, so
// each loader resolves its schema once at load time instead of probing
// candidate names per row.
type FieldSpec struct {
	Canonical string
	Aliases   []string
	Required  bool
}

// columnMap maps canonical field names to column positions; absent optional
// fields are simply missing from the map.
type columnMap map[string]int

// resolveColumns matches the header row against the field specs and reports
// every unresolved required field in a single error, so a structural change
// upstream is visible at once instead of one column at a time.
func resolveColumns(header []string, specs []FieldSpec) (columnMap, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, taken := positions[key]; !taken {
			positions[key] = i
		}
	}

	cols := make(columnMap, len(specs))
	var missing []string
	for _, spec := range specs {
		found := false
		for _, alias := range append([]string{spec.Canonical}, spec.Aliases...) {
			if pos, ok := positions[normalizeHeader(alias)]; ok {
				cols[spec.Canonical] = pos
				found = true
				break
			}
		}
		if !found && spec.Required {
			missing = append(missing, spec.Canonical)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required columns not found under any known alias: %s (header: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}

	return cols, nil
}

var headerSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// normalizeHeader lower-cases a header and strips separators so that
// "SKU Code", "sku_code" and "skucode" all resolve identically.
func normalizeHeader(name string) string {
	return headerSanitizer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

func (c columnMap) get(row []string, field string) (string, bool) {
	pos, ok := c[field]
	if !ok || pos < 0 || pos >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[pos]), true
}

// parseNumeric coerces a cell to a number with non-numeric -> 0, mirroring
// the tolerant quantity handling used across the sheets.
func parseNumeric(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
