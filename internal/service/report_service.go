package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/cache"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/loader"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/report"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/reshape"
)

// RecordsFunc fetches one raw source table.
type RecordsFunc func(ctx context.Context) ([][]string, error)

// BlockedFunc fetches the raw live-inventory rows.
type BlockedFunc func(ctx context.Context) ([]loader.RawBlockedRow, error)

// Sources binds the report service to its four external tables. Any entry
// may be nil; the corresponding report fields degrade.
type Sources struct {
	Inventory RecordsFunc
	Products  RecordsFunc
	Rates     RecordsFunc
	B2B       RecordsFunc
	Blocked   BlockedFunc
}

// TTLs carries the per-source cache lifetimes.
type TTLs struct {
	Source  time.Duration
	Blocked time.Duration
}

// ReportService orchestrates one report computation: it fetches the sources
// concurrently (read-through cached, single flight per source key), runs the
// loaders independently so one failure cannot abort the others, and hands
// everything to the derivation engine. Callers always get a renderable
// report; data problems surface as Reason/SourceErrors, never as a panic.
type ReportService struct {
	sources     Sources
	engine      *report.Engine
	reportCache cache.ReportCache
	sourceCache cache.SourceCache
	ttls        TTLs
	flight      singleflight.Group

	// Blocked rows come from the database rather than a record source, so
	// they get a small in-process memo instead of the record cache.
	blockedMu        sync.Mutex
	blockedRows      []domain.BlockedInventoryRecord
	blockedFetchedAt time.Time
}

func NewReportService(sources Sources, engine *report.Engine, reportCache cache.ReportCache, sourceCache cache.SourceCache, ttls TTLs) *ReportService {
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	if sourceCache == nil {
		sourceCache = cache.NewNoopSourceCache()
	}
	if engine == nil {
		engine = report.NewEngine(report.Options{IncludeZeroDRR: true})
	}
	return &ReportService{
		sources:     sources,
		engine:      engine,
		reportCache: reportCache,
		sourceCache: sourceCache,
		ttls:        ttls,
	}
}

// loadResult is what one concurrent source load produces.
type loadResult struct {
	inputs report.Inputs
	errs   map[string]string
}

// ComputeReport recomputes (or serves from cache) the business-loss report
// for the given parameters.
func (s *ReportService) ComputeReport(ctx context.Context, params domain.ReportParams) (*domain.Report, error) {
	if cached, ok, err := s.reportCache.Get(ctx, params); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report: cache get failed")
	}

	key := fmt.Sprintf("report|%s|%s|%.4f|%.4f",
		params.From.Format("2006-01-02"), params.To.Format("2006-01-02"),
		params.DefaultDRR, params.DefaultASP)

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.computeFresh(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	rep := v.(*domain.Report)

	if rep.Reason == "" && len(rep.SourceErrors) == 0 {
		if err := s.reportCache.Set(ctx, params, rep); err != nil {
			log.Warn().Err(err).Msg("report: cache set failed")
		}
	}

	return rep, nil
}

func (s *ReportService) computeFresh(ctx context.Context, params domain.ReportParams) (*domain.Report, error) {
	res := s.loadAll(ctx)

	if _, failed := res.errs["inventory"]; failed || len(res.inputs.Observations) == 0 {
		rep := &domain.Report{
			Rows:         []domain.ReportRow{},
			Reason:       "inventory source unavailable or empty",
			SourceErrors: res.errs,
			ComputedAt:   time.Now(),
		}
		if reason, ok := res.errs["inventory"]; ok {
			rep.Reason = reason
		}
		return rep, nil
	}

	rep := s.engine.Compute(res.inputs, params)
	if len(res.errs) > 0 {
		rep.SourceErrors = res.errs
	}
	return rep, nil
}

// WarehouseBreakdown returns per-warehouse quantities and attributed DOH
// for one SKU.
func (s *ReportService) WarehouseBreakdown(ctx context.Context, sku string, params domain.ReportParams) ([]domain.WarehouseBreakdownRow, map[string]string) {
	errs := make(map[string]string)
	inputs := report.Inputs{}

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()
		rates, err := s.loadRates(ctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs["rates"] = err.Error()
			return
		}
		inputs.Rates = rates
	}()
	go func() {
		defer wg.Done()
		blocked, err := s.loadBlocked(ctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs["blocked_inventory"] = err.Error()
			return
		}
		inputs.Blocked = blocked
	}()
	wg.Wait()

	return s.engine.WarehouseBreakdown(sku, inputs, params), errs
}

// TopLoss computes the report and aggregates the top n product titles by
// business loss.
func (s *ReportService) TopLoss(ctx context.Context, n int, params domain.ReportParams) ([]domain.TopLossEntry, error) {
	rep, err := s.ComputeReport(ctx, params)
	if err != nil {
		return nil, err
	}
	return report.TopLoss(rep.Rows, n), nil
}

// loadAll fetches the five sources concurrently. Each failure is recorded
// under its source name; siblings keep going.
func (s *ReportService) loadAll(ctx context.Context) loadResult {
	res := loadResult{errs: make(map[string]string)}

	var wg sync.WaitGroup
	var mu sync.Mutex

	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		log.Warn().Err(err).Str("source", name).Msg("report: source load failed")
		res.errs[name] = err.Error()
	}

	wg.Add(5)

	go func() {
		defer wg.Done()
		if s.sources.Inventory == nil {
			record("inventory", fmt.Errorf("inventory source not configured"))
			return
		}
		records, err := s.fetchRecords(ctx, "inventory", s.sources.Inventory)
		if err != nil {
			record("inventory", err)
			return
		}
		obs, err := reshape.Reshape(records)
		if err != nil {
			record("inventory", err)
			return
		}
		mu.Lock()
		res.inputs.Observations = obs
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		if s.sources.Products == nil {
			return
		}
		records, err := s.fetchRecords(ctx, "products", s.sources.Products)
		if err != nil {
			record("products", err)
			return
		}
		products, err := loader.LoadProducts(records)
		if err != nil {
			record("products", err)
			return
		}
		mu.Lock()
		res.inputs.Products = products
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		rates, err := s.loadRates(ctx)
		if err != nil {
			record("rates", err)
			return
		}
		mu.Lock()
		res.inputs.Rates = rates
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		if s.sources.B2B == nil {
			return
		}
		records, err := s.fetchRecords(ctx, "b2b", s.sources.B2B)
		if err != nil {
			record("b2b", err)
			return
		}
		b2b, err := loader.LoadB2BSnapshot(records)
		if err != nil {
			record("b2b", err)
			return
		}
		mu.Lock()
		res.inputs.B2B = b2b
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		blocked, err := s.loadBlocked(ctx)
		if err != nil {
			record("blocked_inventory", err)
			return
		}
		mu.Lock()
		res.inputs.Blocked = blocked
		mu.Unlock()
	}()

	wg.Wait()
	return res
}

func (s *ReportService) loadRates(ctx context.Context) ([]domain.ReferenceRecord, error) {
	if s.sources.Rates == nil {
		return nil, fmt.Errorf("rates source not configured")
	}
	records, err := s.fetchRecords(ctx, "rates", s.sources.Rates)
	if err != nil {
		return nil, err
	}
	return loader.LoadRates(records)
}

func (s *ReportService) loadBlocked(ctx context.Context) ([]domain.BlockedInventoryRecord, error) {
	if s.sources.Blocked == nil {
		return nil, nil
	}

	if s.ttls.Blocked > 0 {
		s.blockedMu.Lock()
		if s.blockedRows != nil && time.Since(s.blockedFetchedAt) < s.ttls.Blocked {
			rows := s.blockedRows
			s.blockedMu.Unlock()
			return rows, nil
		}
		s.blockedMu.Unlock()
	}

	v, err, _ := s.flight.Do("blocked_inventory", func() (interface{}, error) {
		raw, err := s.sources.Blocked(ctx)
		if err != nil {
			return nil, err
		}
		return loader.CleanBlocked(raw), nil
	})
	if err != nil {
		return nil, err
	}
	rows := v.([]domain.BlockedInventoryRecord)

	if s.ttls.Blocked > 0 {
		s.blockedMu.Lock()
		s.blockedRows = rows
		s.blockedFetchedAt = time.Now()
		s.blockedMu.Unlock()
	}

	return rows, nil
}

// fetchRecords is the read-through path for record sources: cache hit, else
// a single in-flight fetch per source key, with the cache written only on
// success so an abandoned fetch cannot leave a partial entry.
func (s *ReportService) fetchRecords(ctx context.Context, sourceKey string, fn RecordsFunc) ([][]string, error) {
	if records, ok, err := s.sourceCache.GetRecords(ctx, sourceKey); err == nil && ok {
		return records, nil
	} else if err != nil {
		log.Warn().Err(err).Str("source", sourceKey).Msg("report: source cache get failed")
	}

	v, err, _ := s.flight.Do("source|"+sourceKey, func() (interface{}, error) {
		records, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.sourceCache.SetRecords(ctx, sourceKey, records, s.ttls.Source); err != nil {
			log.Warn().Err(err).Str("source", sourceKey).Msg("report: source cache set failed")
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([][]string), nil
}
