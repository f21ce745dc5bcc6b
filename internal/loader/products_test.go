package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProducts(t *testing.T) {
	records := [][]string{
		{"Variant ID", "Product Title", "Status"},
		{"101.0", "Face Gel", "Active"},
		{"202", "Serum", "DRAFT"},
		{"nan", "ghost", "active"},
	}

	rows, err := LoadProducts(records)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "101", rows[0].VariantID)
	assert.Equal(t, "Face Gel", rows[0].Title)
	assert.Equal(t, "active", rows[0].Status)
	assert.Equal(t, "draft", rows[1].Status)
}

func TestLoadProductsMissingColumns(t *testing.T) {
	_, err := LoadProducts([][]string{
		{"title"},
		{"Face Gel"},
	})
	require.Error(t, err)
	// Both missing required columns are reported at once.
	assert.Contains(t, err.Error(), "variant_id")
	assert.Contains(t, err.Error(), "status")
}
