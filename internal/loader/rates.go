package loader

import (
	"fmt"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
)

// rateSpecs declares the DRR/ASP sheet schema. The identifier requirement
// (variant_id or sku under any alias) is checked separately since either
// one is enough to join on.
var rateSpecs = []FieldSpec{
	{Canonical: "sku", Aliases: []string{"sku_code", "skucode"}},
	{Canonical: "variant_id", Aliases: []string{"variant", "variantid"}},
	{Canonical: "drr", Aliases: []string{"daily_run_rate"}, Required: true},
	{Canonical: "asp", Aliases: []string{"avg_selling_price", "average_selling_price"}},
	{Canonical: "product_title", Aliases: []string{"title", "product_name", "product"}},
}

// LoadRates parses the DRR/ASP reference sheet into reference records.
//
// A missing drr column is a hard error: derived metrics are meaningless
// without demand rates, so a structural change upstream must stop this
// loader rather than be silently worked around. The same goes for a sheet
// carrying neither a SKU nor a variant identifier column. Rows whose
// normalized SKU is empty or "0", or whose drr is <= 0, carry no signal and
// are dropped so they cannot shadow a later row with the same key.
func LoadRates(records [][]string) ([]domain.ReferenceRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("rates sheet is empty")
	}

	cols, err := resolveColumns(records[0], rateSpecs)
	if err != nil {
		return nil, fmt.Errorf("rates sheet: %w", err)
	}
	if _, hasSKU := cols["sku"]; !hasSKU {
		if _, hasVariant := cols["variant_id"]; !hasVariant {
			return nil, fmt.Errorf("rates sheet: no sku or variant_id column under any known alias (header: %v)", records[0])
		}
	}

	rows := make([]domain.ReferenceRecord, 0, len(records)-1)
	for _, record := range records[1:] {
		rawSKU, _ := cols.get(record, "sku")
		rawVariant, _ := cols.get(record, "variant_id")
		rawDRR, _ := cols.get(record, "drr")
		rawASP, hasASPCell := cols.get(record, "asp")
		title, _ := cols.get(record, "product_title")

		rec := domain.ReferenceRecord{
			SKU:          normalize.SKU(rawSKU),
			VariantID:    normalize.ID(rawVariant),
			ProductTitle: title,
			DRR:          parseNumeric(rawDRR),
		}

		if hasASPCell && rawASP != "" {
			rec.ASP = parseNumeric(rawASP)
			rec.HasASP = true
		}

		if (rec.SKU == "" || rec.SKU == "0") && rec.VariantID == "" {
			continue
		}
		if rec.DRR <= 0 {
			continue
		}

		rows = append(rows, rec)
	}

	return rows, nil
}
