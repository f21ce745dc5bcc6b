package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/export"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/normalize"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/report"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/service"
)

type ReportHandler struct {
	service  *service.ReportService
	uploader *export.Uploader
	defaults config.ReportConfig
}

func NewReportHandler(svc *service.ReportService, uploader *export.Uploader, defaults config.ReportConfig) *ReportHandler {
	return &ReportHandler{service: svc, uploader: uploader, defaults: defaults}
}

const dateLayout = "2006-01-02"

func (h *ReportHandler) parseParams(c *gin.Context) (domain.ReportParams, error) {
	params := domain.ReportParams{
		DefaultDRR: h.defaults.DefaultDRR,
		DefaultASP: h.defaults.DefaultASP,
	}

	if from := strings.TrimSpace(c.Query("from")); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return params, err
		}
		params.From = t
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return params, err
		}
		params.To = t
	}
	if drr := strings.TrimSpace(c.Query("default_drr")); drr != "" {
		v, err := strconv.ParseFloat(drr, 64)
		if err != nil {
			return params, err
		}
		params.DefaultDRR = v
	}
	if asp := strings.TrimSpace(c.Query("default_asp")); asp != "" {
		v, err := strconv.ParseFloat(asp, 64)
		if err != nil {
			return params, err
		}
		params.DefaultASP = v
	}

	return params, nil
}

// GetReport computes the business-loss report for the requested window.
func (h *ReportHandler) GetReport(c *gin.Context) {
	params, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.service.ComputeReport(c.Request.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("report computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, rep)
}

// GetTopLoss aggregates the top N product titles by business loss.
func (h *ReportHandler) GetTopLoss(c *gin.Context) {
	params, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n := 10
	if raw := strings.TrimSpace(c.Query("n")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	entries, err := h.service.TopLoss(c.Request.Context(), n, params)
	if err != nil {
		log.Error().Err(err).Msg("top loss computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute top loss"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetWarehouseBreakdown returns per-warehouse quantities and attributed DOH
// for one SKU.
func (h *ReportHandler) GetWarehouseBreakdown(c *gin.Context) {
	params, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sku := normalize.SKU(c.Param("sku"))
	if sku == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	rows, sourceErrors := h.service.WarehouseBreakdown(c.Request.Context(), sku, params)

	resp := gin.H{"sku": sku, "warehouses": rows}
	if len(sourceErrors) > 0 {
		resp["source_errors"] = sourceErrors
	}
	c.JSON(http.StatusOK, resp)
}

// GetAttribution exposes the static warehouse demand split.
func (h *ReportHandler) GetAttribution(c *gin.Context) {
	attribution := report.DefaultAttribution()
	c.JSON(http.StatusOK, gin.H{
		"attribution": attribution,
		"total_share": attribution.TotalShare(),
	})
}

// ExportReport computes the report and ships variant and summary CSVs to
// object storage.
func (h *ReportHandler) ExportReport(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export storage not configured"})
		return
	}

	params, err := h.parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep, err := h.service.ComputeReport(c.Request.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("report computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	variantKey, summaryKey, err := h.uploader.Upload(c.Request.Context(), rep, params)
	if err != nil {
		log.Error().Err(err).Msg("report export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variant_key": variantKey,
		"summary_key": summaryKey,
		"rows":        len(rep.Rows),
	})
}
