package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trovehq/trove_api/internal/models"
)

// CatalogCache caches catalog pages per (sort, category, cursor) query key.
// A cached page is served without hitting the store until its TTL elapses.
type CatalogCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCatalogCache creates a new CatalogCache with the given page TTL.
func NewCatalogCache(redis *RedisClient, ttl time.Duration) *CatalogCache {
	return &CatalogCache{redis: redis, ttl: ttl}
}

// pageKey returns the Redis key for one catalog page.
// Format: catalog:page:{sort}:{category}:{cursor}
func (c *CatalogCache) pageKey(sort models.SortKey, category string, cursor int) string {
	return fmt.Sprintf("catalog:page:%s:%s:%d", sort, category, cursor)
}

// GetPage retrieves a cached page. The second return value reports a hit.
func (c *CatalogCache) GetPage(ctx context.Context, sort models.SortKey, category string, cursor int) (*models.Page, bool, error) {
	raw, err := c.redis.Get(ctx, c.pageKey(sort, category, cursor))
	if err != nil {
		if IsMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page models.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return &page, true, nil
}

// SetPage stores one page under its query key.
func (c *CatalogCache) SetPage(ctx context.Context, sort models.SortKey, category string, cursor int, page *models.Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	return c.redis.Set(ctx, c.pageKey(sort, category, cursor), string(raw), c.ttl)
}

// Invalidate drops every cached page. Called after moderation changes the
// approved catalog, since any (sort, category) sequence may have shifted.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.redis.DeleteByPattern(ctx, "catalog:page:*")
}
