// Package repository reads the warehouse-hosted live inventory table that
// backs the blocked-inventory loader.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/loader"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/repository/postgres"
)

// LiveInventoryRepository fetches raw (location, product, sku, quantity,
// locked, eligible) rows from the live inventory report table.
type LiveInventoryRepository struct {
	db *postgres.DB
}

func NewLiveInventoryRepository(db *postgres.DB) *LiveInventoryRepository {
	return &LiveInventoryRepository{db: db}
}

// blockedRowsQuery is the one place the blocked-row read policy lives; the
// server source and the CLI both fetch through it.
const blockedRowsQuery = `
	SELECT
		company_name,
		COALESCE(product_name, '') AS product_name,
		CAST(sku AS TEXT) AS sku,
		CAST(quantity AS TEXT) AS quantity,
		locked,
		greater_than_eighty AS eligible,
		status
	FROM live_inventory_report
	WHERE LOWER(status) = 'available'
	  AND greater_than_eighty = TRUE
	ORDER BY company_name, sku`

// FetchBlockedRows returns the rows the blocked-inventory loader cleans and
// aggregates. Filtering on status and eligibility happens in SQL to keep
// the transfer small; the loader re-checks both so direct callers of
// CleanBlocked get the same policy.
func (r *LiveInventoryRepository) FetchBlockedRows(ctx context.Context) ([]loader.RawBlockedRow, error) {
	if err := r.db.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer r.db.Release()

	rows, err := r.db.QueryxContext(ctx, blockedRowsQuery)
	if err != nil {
		return nil, fmt.Errorf("query live inventory: %w", err)
	}
	defer rows.Close()

	var out []loader.RawBlockedRow
	for rows.Next() {
		var (
			row      loader.RawBlockedRow
			product  sql.NullString
			quantity sql.NullString
		)
		if err := rows.Scan(&row.Location, &product, &row.SKU, &quantity, &row.Locked, &row.Eligible, &row.Status); err != nil {
			return nil, fmt.Errorf("scan live inventory row: %w", err)
		}
		row.ProductName = product.String
		row.Quantity = quantity.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live inventory rows: %w", err)
	}

	return out, nil
}

// LiveInventoryRow is one parsed CSV row bound for the live inventory table.
type LiveInventoryRow struct {
	CompanyName string
	ProductName string
	SKU         string
	Quantity    float64
	Locked      bool
	Eligible    bool
	Status      string
}

const createLiveInventoryTable = `
	CREATE TABLE IF NOT EXISTS live_inventory_report (
		company_name TEXT NOT NULL,
		product_name TEXT,
		sku TEXT NOT NULL,
		quantity NUMERIC NOT NULL DEFAULT 0,
		locked BOOLEAN NOT NULL DEFAULT FALSE,
		greater_than_eighty BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT ''
	)`

const insertLiveInventoryRow = `
	INSERT INTO live_inventory_report
		(company_name, product_name, sku, quantity, locked, greater_than_eighty, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// ReplaceRows loads rows into the live inventory table inside a single
// transaction, ensuring the table exists and optionally truncating first.
// It returns the number of rows inserted.
func (r *LiveInventoryRepository) ReplaceRows(ctx context.Context, rows []LiveInventoryRow, truncate bool) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createLiveInventoryTable); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		if truncate {
			if _, err := tx.ExecContext(ctx, `TRUNCATE live_inventory_report`); err != nil {
				return fmt.Errorf("truncate table: %w", err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, insertLiveInventoryRow)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx,
				row.CompanyName, row.ProductName, row.SKU,
				row.Quantity, row.Locked, row.Eligible, row.Status,
			); err != nil {
				return fmt.Errorf("insert row: %w", err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
