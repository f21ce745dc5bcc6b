package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/service"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inventory := func(ctx context.Context) ([][]string, error) {
		return [][]string{
			{"Timestamp", "101", ""},
			{"", "Status", "Inventory"},
			{"2026-08-01 09:00:00", "active", "0"},
			{"2026-08-02 09:00:00", "active", "7"},
		}, nil
	}
	rates := func(ctx context.Context) ([][]string, error) {
		return [][]string{
			{"variant_id", "sku", "drr", "asp", "product_title"},
			{"101", "HS-GEL-01", "2", "250", "Face Gel"},
		}, nil
	}

	svc := service.NewReportService(service.Sources{
		Inventory: inventory,
		Rates:     rates,
	}, nil, nil, nil, service.TTLs{})

	return NewRouter(&Services{
		ReportService: svc,
		Defaults:      config.ReportConfig{DefaultDRR: 5, DefaultASP: 250},
	}, nil)
}

func TestGetReport(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/business_loss/report?from=2026-08-01&to=2026-08-10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rep domain.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "HS-GEL-01", rep.Rows[0].SKU)
	assert.Equal(t, 1, rep.Rows[0].DaysOutOfStock)
	assert.Equal(t, 500.0, rep.Rows[0].BusinessLoss)
	assert.Equal(t, 10, rep.TotalDays)
}

func TestGetReportBadDate(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/business_loss/report?from=08-01-2026", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAttribution(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/business_loss/attribution", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Attribution map[string]float64 `json:"attribution"`
		TotalShare  float64            `json:"total_share"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 1.0, body.TotalShare, 1e-9)
	assert.Equal(t, 0.36, body.Attribution["Bilaspur"])
}

func TestGetTopLoss(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/business_loss/top_loss?n=3", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []domain.TopLossEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "Face Gel", body.Entries[0].ProductTitle)
}

func TestExportWithoutStorage(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/business_loss/export", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
