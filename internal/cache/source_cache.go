package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/heavenlyops/business-loss-py/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const sourceKeyPrefix = "bizloss:source"

// SourceCache stores raw source table fetches (the parsed CSV records) per
// source key with a short TTL, since the backing sheets change slowly
// relative to dashboard refreshes. The single-flight guarantee lives in the
// service layer; this cache only does atomic per-key replace-on-success.
type SourceCache interface {
	GetRecords(ctx context.Context, sourceKey string) ([][]string, bool, error)
	SetRecords(ctx context.Context, sourceKey string, records [][]string, ttl time.Duration) error
	Invalidate(ctx context.Context, sourceKey string) error
}

type redisSourceCache struct {
	client *redis.Client
}

type noopSourceCache struct{}

func NewSourceCache(cfg config.CacheConfig) (SourceCache, error) {
	if !cfg.Enabled {
		return &noopSourceCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSourceCache{client: client}, nil
}

func NewNoopSourceCache() SourceCache {
	return &noopSourceCache{}
}

func (c *redisSourceCache) GetRecords(ctx context.Context, sourceKey string) ([][]string, bool, error) {
	payload, err := c.client.Get(ctx, buildSourceKey(sourceKey)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records [][]string
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode source cache: %w", err)
	}

	return records, true, nil
}

func (c *redisSourceCache) SetRecords(ctx context.Context, sourceKey string, records [][]string, ttl time.Duration) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode source cache: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if err := c.client.Set(ctx, buildSourceKey(sourceKey), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSourceCache) Invalidate(ctx context.Context, sourceKey string) error {
	return c.client.Del(ctx, buildSourceKey(sourceKey)).Err()
}

func (n *noopSourceCache) GetRecords(ctx context.Context, sourceKey string) ([][]string, bool, error) {
	return nil, false, nil
}

func (n *noopSourceCache) SetRecords(ctx context.Context, sourceKey string, records [][]string, ttl time.Duration) error {
	return nil
}

func (n *noopSourceCache) Invalidate(ctx context.Context, sourceKey string) error {
	return nil
}

func buildSourceKey(sourceKey string) string {
	return fmt.Sprintf("%s:%s", sourceKeyPrefix, sourceKey)
}
