package domain

import "time"

// InventoryObservation is one tidy row produced by reshaping the wide
// inventory time series: the state of a single variant at a single timestamp.
type InventoryObservation struct {
	Timestamp time.Time `json:"timestamp"`
	VariantID string    `json:"variant_id"`
	Status    string    `json:"status"`
	Inventory float64   `json:"inventory"`
}

// Day returns the observation timestamp truncated to the calendar day.
func (o InventoryObservation) Day() time.Time {
	return time.Date(o.Timestamp.Year(), o.Timestamp.Month(), o.Timestamp.Day(), 0, 0, 0, 0, o.Timestamp.Location())
}

// ReferenceRecord carries the demand rate and selling price for one variant
// and/or SKU, as loaded from the DRR/ASP reference sheet.
type ReferenceRecord struct {
	VariantID    string  `json:"variant_id,omitempty"`
	SKU          string  `json:"sku,omitempty"`
	ProductTitle string  `json:"product_title,omitempty"`
	DRR          float64 `json:"drr"`
	ASP          float64 `json:"asp"`
	HasASP       bool    `json:"has_asp"`
}

// ProductRecord is one row of the products status sheet. Only variants with
// Status "active" participate in loss calculations.
type ProductRecord struct {
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
}

// B2BSnapshotRow is the current B2B on-hand quantity for one SKU together
// with the metadata block transposed from the wide sheet.
type B2BSnapshotRow struct {
	SKU         string  `json:"sku"`
	ProductName string  `json:"product_name,omitempty"`
	Size        string  `json:"size,omitempty"`
	Category    string  `json:"category,omitempty"`
	Range       string  `json:"range,omitempty"`
	Inventory   float64 `json:"b2b_inventory"`
}

// BlockedInventoryRecord aggregates the live warehouse table per
// (warehouse, SKU): total on-hand units, the locked (blocked) portion and
// the sellable remainder. Warehouse is the canonical short name.
type BlockedInventoryRecord struct {
	Warehouse   string  `json:"warehouse"`
	ProductName string  `json:"product_name,omitempty"`
	SKU         string  `json:"sku"`
	Total       float64 `json:"total"`
	Blocked     float64 `json:"blocked"`
	Available   float64 `json:"available"`
}
