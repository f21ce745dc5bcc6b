// Package report joins the reshaped inventory with the reference tables and
// derives the loss metrics: out-of-stock days, latest on-hand quantity,
// business loss, days on hand, on-shelf availability and the per-warehouse
// demand split.
package report

// Attribution is the static per-warehouse demand-share table used to split
// a variant's aggregate DRR across physical locations. Shares for one
// demand channel sum to at most 1.
type Attribution map[string]float64

// DefaultAttribution is the D2C split across the four fulfillment
// warehouses. Mumbai B2B serves a different channel and carries no share.
func DefaultAttribution() Attribution {
	return Attribution{
		"Bilaspur":   0.36,
		"Mumbai B2C": 0.27,
		"Bangalore":  0.20,
		"Kolkata":    0.17,
		"Mumbai B2B": 0.00,
	}
}

// Share returns the demand share for a warehouse, 0 for unknown names.
// New warehouses degrade to "no attributed demand" rather than erroring.
func (a Attribution) Share(warehouse string) float64 {
	return a[warehouse]
}

// TotalShare sums the configured shares; used by callers validating that a
// channel's split covers the whole demand.
func (a Attribution) TotalShare() float64 {
	var sum float64
	for _, share := range a {
		sum += share
	}
	return sum
}
