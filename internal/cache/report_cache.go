package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/heavenlyops/business-loss-py/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix    = "bizloss:report"
	reportScanBatchLen = 100
)

// ReportCache stores computed report snapshots keyed by their parameters.
// Entries are written replace-on-success only, so an abandoned computation
// can never leave a partially-populated value behind.
type ReportCache interface {
	Get(ctx context.Context, params domain.ReportParams) (*domain.Report, bool, error)
	Set(ctx context.Context, params domain.ReportParams, report *domain.Report) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{
		client: client,
		ttl:    ttlOrDefault(cfg.ReportTTLSeconds),
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, params domain.ReportParams) (*domain.Report, bool, error) {
	payload, err := c.client.Get(ctx, buildReportKey(params)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, params domain.ReportParams, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, buildReportKey(params), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, reportScanBatchLen)
}

func (n *noopReportCache) Get(ctx context.Context, params domain.ReportParams) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, params domain.ReportParams, report *domain.Report) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildReportKey(params domain.ReportParams) string {
	return fmt.Sprintf("%s:%s", reportKeyPrefix, reportParamsHash(params))
}

func reportParamsHash(params domain.ReportParams) string {
	raw := fmt.Sprintf("from=%s|to=%s|drr=%.4f|asp=%.4f",
		params.From.Format("2006-01-02"),
		params.To.Format("2006-01-02"),
		params.DefaultDRR,
		params.DefaultASP,
	)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
