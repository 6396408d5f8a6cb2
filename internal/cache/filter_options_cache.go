package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/GTDGit/pricing_api/internal/models"
)

// FilterOptionsCache stores the pricing filter options of one retailer store.
type FilterOptionsCache struct {
	redis *RedisClient
	store string
	ttl   time.Duration
}

// NewFilterOptionsCache creates a new FilterOptionsCache.
func NewFilterOptionsCache(redis *RedisClient, retailerStore string, ttl time.Duration) *FilterOptionsCache {
	return &FilterOptionsCache{
		redis: redis,
		store: strings.ToUpper(strings.TrimSpace(retailerStore)),
		ttl:   ttl,
	}
}

func (c *FilterOptionsCache) key() string {
	return fmt.Sprintf("pricing:filter-options:%s", c.store)
}

func (c *FilterOptionsCache) lockKey() string {
	return c.key() + ":refresh"
}

// Get returns the cached options or ErrMiss.
func (c *FilterOptionsCache) Get(ctx context.Context) (*models.FilterOptions, error) {
	raw, err := c.redis.Get(ctx, c.key())
	if err != nil {
		return nil, err
	}

	var opts models.FilterOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filter options: %w", err)
	}
	return &opts, nil
}

// Set stores opts for the configured TTL.
func (c *FilterOptionsCache) Set(ctx context.Context, opts *models.FilterOptions) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to marshal filter options: %w", err)
	}
	return c.redis.Set(ctx, c.key(), raw, c.ttl)
}

// Invalidate drops the cached options.
func (c *FilterOptionsCache) Invalidate(ctx context.Context) error {
	return c.redis.Delete(ctx, c.key())
}

// ClaimRefresh lets a single replica refresh the options per interval.
func (c *FilterOptionsCache) ClaimRefresh(ctx context.Context, interval time.Duration) (bool, error) {
	return c.redis.TryLock(ctx, c.lockKey(), interval)
}
