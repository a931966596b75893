package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retrosole/storefront/internal/domain"
)

const keyPrefix = "catalog:products:"

// ProductList is the cached payload for one page of the shop listing.
type ProductList struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

// CatalogCache caches shop product listings in Redis. Mutations on the
// catalog invalidate every cached page.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a Redis-backed catalog cache.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		ttl:    ttl,
	}
}

// Key builds the cache key for one listing page.
func Key(category, search string, page, perPage int) string {
	return fmt.Sprintf("%sc=%s;q=%s;p=%d;n=%d", keyPrefix, category, search, page, perPage)
}

// Get retrieves a cached listing page. A cache miss returns (nil, nil).
func (c *CatalogCache) Get(ctx context.Context, key string) (*ProductList, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get listing: %w", err)
	}

	var list ProductList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal cached listing: %w", err)
	}

	return &list, nil
}

// Set stores a listing page with the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, list *ProductList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set listing: %w", err)
	}

	return nil
}

// Invalidate removes every cached listing page.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan listings: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del listings: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
