package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalWarehouse(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Heavenly Secrets Private Limited - Bangalore", "Bangalore"},
		{"Heavenly Secrets Private Limited - Mumbai - B2B", "Mumbai B2B"},
		{"Heavenly Secrets Pvt Ltd - Kolkata", "Kolkata"},
		{"Heavenly Secrets Private Limited - Emiza Bilaspur", "Bilaspur"},
		{"Some Fulfilment Co - Mumbai Andheri", "Mumbai B2C"},
		{"  Heavenly Secrets Pvt Ltd - Kolkata  ", "Kolkata"},
		{"New Warehouse - Pune", "New Warehouse - Pune"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CanonicalWarehouse(tt.input), "input %q", tt.input)
	}
}

func TestCleanBlocked(t *testing.T) {
	raw := []RawBlockedRow{
		{Location: "Heavenly Secrets Private Limited - Bangalore", ProductName: "Face Gel", SKU: "hs-gel-01", Quantity: "10", Locked: true, Eligible: true, Status: "available"},
		{Location: "Heavenly Secrets Private Limited - Bangalore", SKU: "HS-GEL-01", Quantity: "5", Locked: false, Eligible: true, Status: "Available"},
		{Location: "Heavenly Secrets Pvt Ltd - Kolkata", SKU: "hs-gel-01", Quantity: "3", Locked: false, Eligible: true, Status: "available"},
		// Filtered out: not eligible, wrong status, empty sku.
		{Location: "Heavenly Secrets Pvt Ltd - Kolkata", SKU: "hs-gel-01", Quantity: "99", Locked: false, Eligible: false, Status: "available"},
		{Location: "Heavenly Secrets Pvt Ltd - Kolkata", SKU: "hs-gel-01", Quantity: "99", Locked: false, Eligible: true, Status: "damaged"},
		{Location: "Heavenly Secrets Pvt Ltd - Kolkata", SKU: "nan", Quantity: "99", Locked: false, Eligible: true, Status: "available"},
	}

	records := CleanBlocked(raw)
	require.Len(t, records, 2)

	bangalore := records[0]
	assert.Equal(t, "Bangalore", bangalore.Warehouse)
	assert.Equal(t, "HS-GEL-01", bangalore.SKU)
	assert.Equal(t, "Face Gel", bangalore.ProductName)
	assert.Equal(t, 15.0, bangalore.Total)
	assert.Equal(t, 10.0, bangalore.Blocked)
	assert.Equal(t, 5.0, bangalore.Available)

	kolkata := records[1]
	assert.Equal(t, "Kolkata", kolkata.Warehouse)
	assert.Equal(t, 3.0, kolkata.Total)
	assert.Equal(t, 0.0, kolkata.Blocked)
	assert.Equal(t, 3.0, kolkata.Available)
}

func TestCleanBlockedNonNumericQuantity(t *testing.T) {
	records := CleanBlocked([]RawBlockedRow{
		{Location: "Heavenly Secrets Pvt Ltd - Kolkata", SKU: "abc", Quantity: "n/a", Eligible: true, Status: "available"},
	})
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Total)
}
