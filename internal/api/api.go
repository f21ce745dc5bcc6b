package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/api/handlers"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/api/middleware"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/cache"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/export"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/service"
)

type Services struct {
	ReportService *service.ReportService
	Uploader      *export.Uploader
	ReportCache   cache.ReportCache
	SourceCache   cache.SourceCache
	Defaults      config.ReportConfig
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ReportService != nil {
		reportHandler := handlers.NewReportHandler(services.ReportService, services.Uploader, services.Defaults)
		reportGroup := apiGroup.Group("/business_loss")
		{
			reportGroup.GET("/report", reportHandler.GetReport)
			reportGroup.GET("/top_loss", reportHandler.GetTopLoss)
			reportGroup.GET("/warehouses/:sku", reportHandler.GetWarehouseBreakdown)
			reportGroup.GET("/attribution", reportHandler.GetAttribution)
			reportGroup.POST("/export", reportHandler.ExportReport)
		}

		cacheGroup := apiGroup.Group("/cache")
		{
			cacheGroup.POST("/invalidate", invalidateCaches(services))
		}
	}

	return router
}

func invalidateCaches(services *Services) gin.HandlerFunc {
	sourceKeys := []string{"inventory", "products", "rates", "b2b"}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if services.ReportCache != nil {
			if err := services.ReportCache.InvalidateAll(ctx); err != nil {
				errorResponse(c, http.StatusInternalServerError, "failed to invalidate report cache")
				return
			}
		}
		if services.SourceCache != nil {
			for _, key := range sourceKeys {
				if err := services.SourceCache.Invalidate(ctx, key); err != nil {
					errorResponse(c, http.StatusInternalServerError, "failed to invalidate source cache")
					return
				}
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
