package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRates(t *testing.T) {
	records := [][]string{
		{"SKU Code", "Variant", "Daily Run Rate", "Avg Selling Price", "Product Name"},
		{"hs-gel-01", "101.0", "4", "300", "Face Gel"},
		{"hs-srm-02", "202", "2.5", "", "Serum"},
		{"0", "", "3", "100", "orphan"},
		{"hs-bad-03", "303", "0", "100", "zero drr"},
		{"hs-bad-04", "404", "-1", "100", "negative drr"},
	}

	rows, err := LoadRates(records)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "HS-GEL-01", rows[0].SKU)
	assert.Equal(t, "101", rows[0].VariantID)
	assert.Equal(t, 4.0, rows[0].DRR)
	assert.Equal(t, 300.0, rows[0].ASP)
	assert.True(t, rows[0].HasASP)
	assert.Equal(t, "Face Gel", rows[0].ProductTitle)

	// Empty ASP cell means "use the default", not "price is zero".
	assert.Equal(t, "HS-SRM-02", rows[1].SKU)
	assert.False(t, rows[1].HasASP)
}

func TestLoadRatesHeaderAliases(t *testing.T) {
	// Separator and case variations of the same header must all resolve.
	headers := [][]string{
		{"sku_code", "drr"},
		{"skucode", "DRR"},
		{"SKU", "daily run rate"},
		{"Sku-Code", "Daily_Run_Rate"},
	}
	for _, header := range headers {
		rows, err := LoadRates([][]string{header, {"abc", "5"}})
		require.NoError(t, err, "header %v", header)
		require.Len(t, rows, 1)
		assert.Equal(t, "ABC", rows[0].SKU)
		assert.Equal(t, 5.0, rows[0].DRR)
	}
}

func TestLoadRatesMissingDRRColumn(t *testing.T) {
	_, err := LoadRates([][]string{
		{"sku", "asp"},
		{"abc", "100"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drr")
}

func TestLoadRatesMissingIdentifierColumns(t *testing.T) {
	_, err := LoadRates([][]string{
		{"drr", "asp"},
		{"5", "100"},
	})
	require.Error(t, err)
}

func TestLoadRatesVariantOnlySheet(t *testing.T) {
	rows, err := LoadRates([][]string{
		{"variant_id", "drr"},
		{"4.26e13", "5"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "42600000000000", rows[0].VariantID)
	assert.Empty(t, rows[0].SKU)
}

func TestLoadRatesEmpty(t *testing.T) {
	_, err := LoadRates(nil)
	assert.Error(t, err)
}
