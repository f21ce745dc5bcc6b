// Package source fetches the raw tables the pipeline consumes: Google
// Sheet / Drive CSV export links, locally uploaded files and Drive folders.
// Fetchers return parsed CSV records and do no cleaning; that belongs to
// the loaders.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SheetFetcher downloads a CSV export URL (Google Sheets "export?format=csv"
// or Drive "uc?export=download" links) and parses it into records.
type SheetFetcher struct {
	client *http.Client
}

func NewSheetFetcher(timeout time.Duration) *SheetFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SheetFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the sheet at url. The context lets callers
// abandon a slow fetch; a partial download never reaches the caller.
func (f *SheetFetcher) Fetch(ctx context.Context, url string) ([][]string, error) {
	if url == "" {
		return nil, fmt.Errorf("sheet url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet %s: unexpected status %d", url, resp.StatusCode)
	}

	return parseCSV(resp.Body)
}

// parseCSV reads records tolerantly: the wide sheets have ragged rows, so
// per-record field counts are not enforced.
func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}
