package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/api"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/cache"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/export"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/loader"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/report"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/repository"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/repository/postgres"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/service"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/source"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/storage"
	"github.com/heavenlyops/business-loss-py/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sources := buildSources(cfg)

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, running uncached")
		reportCache = cache.NewNoopReportCache()
	}
	sourceCache, err := cache.NewSourceCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("source cache unavailable, running uncached")
		sourceCache = cache.NewNoopSourceCache()
	}

	engine := report.NewEngine(report.Options{IncludeZeroDRR: true})
	reportService := service.NewReportService(sources, engine, reportCache, sourceCache, service.TTLs{
		Source:  time.Duration(cfg.Cache.SourceTTLSeconds) * time.Second,
		Blocked: time.Duration(cfg.Cache.BlockedTTLSeconds) * time.Second,
	})

	services := &api.Services{
		ReportService: reportService,
		ReportCache:   reportCache,
		SourceCache:   sourceCache,
		Defaults:      cfg.Report,
	}
	if cfg.Export.Endpoint != "" {
		store, err := storageClient(cfg)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("export storage unavailable")
		} else {
			services.Uploader = export.NewUploader(store)
		}
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func storageClient(cfg *config.Config) (storage.ObjectStorage, error) {
	return storage.NewS3Client(cfg.Export)
}

// buildSources wires each configured source reference to a fetcher. Plain
// URLs go through the sheet fetcher; "drive:<name>" references read the named
// file from the configured Drive folder. Missing references leave the source
// nil so the report degrades instead of failing at boot.
func buildSources(cfg *config.Config) service.Sources {
	fetcher := source.NewSheetFetcher(30 * time.Second)

	var drive *source.DriveService
	if cfg.Sources.DriveCredentialsJSON != "" {
		var err error
		drive, err = source.NewDriveService(cfg.Sources.DriveCredentialsJSON)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("drive unavailable, drive-backed sources disabled")
		}
	}

	recordsSource := func(ref string) service.RecordsFunc {
		if ref == "" {
			return nil
		}
		if name, ok := source.ParseDriveRef(ref); ok {
			if drive == nil {
				logger.Log.Warn().Str("source", ref).Msg("drive-backed source configured without drive credentials")
				return nil
			}
			return func(ctx context.Context) ([][]string, error) {
				return drive.RecordsByName(ctx, cfg.Sources.DriveFolderPath, name)
			}
		}
		return func(ctx context.Context) ([][]string, error) {
			return fetcher.Fetch(ctx, ref)
		}
	}

	sources := service.Sources{
		Inventory: recordsSource(cfg.Sources.InventoryURL),
		Products:  recordsSource(cfg.Sources.ProductsURL),
		Rates:     recordsSource(cfg.Sources.RatesURL),
		B2B:       recordsSource(cfg.Sources.B2BSheetURL),
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("live inventory database unavailable, blocked quantities disabled")
		return sources
	}
	repo := repository.NewLiveInventoryRepository(db)
	sources.Blocked = func(ctx context.Context) ([]loader.RawBlockedRow, error) {
		return repo.FetchBlockedRows(ctx)
	}

	return sources
}
