package loader

import (
	"fmt"
	"strings"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
)

var productSpecs = []FieldSpec{
	{Canonical: "variant_id", Aliases: []string{"variant", "variantid", "product_variant_id"}, Required: true},
	{Canonical: "title", Aliases: []string{"product_title", "product_name", "name"}},
	{Canonical: "status", Required: true},
}

// LoadProducts parses the products status sheet. Status is lower-cased for
// the "active" equality check downstream; rows without a variant identifier
// are dropped.
func LoadProducts(records [][]string) ([]domain.ProductRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("products sheet is empty")
	}

	cols, err := resolveColumns(records[0], productSpecs)
	if err != nil {
		return nil, fmt.Errorf("products sheet: %w", err)
	}

	rows := make([]domain.ProductRecord, 0, len(records)-1)
	for _, record := range records[1:] {
		rawID, _ := cols.get(record, "variant_id")
		variantID := normalize.ID(rawID)
		if variantID == "" {
			continue
		}

		title, _ := cols.get(record, "title")
		status, _ := cols.get(record, "status")

		rows = append(rows, domain.ProductRecord{
			VariantID: variantID,
			Title:     title,
			Status:    strings.ToLower(status),
		})
	}

	return rows, nil
}
