package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// stockTTL bounds staleness of catalog stock counts. Claims invalidate the
// key eagerly, the TTL only covers writes that bypass the allocator (manual
// inventory loads).
const stockTTL = 30 * time.Second

// StockCache caches per-product available-account counts for the catalog
// endpoint, so that browsing the shop does not hit the accounts table on
// every request.
type StockCache struct {
	redis *RedisClient
}

// NewStockCache creates a new StockCache.
func NewStockCache(redis *RedisClient) *StockCache {
	return &StockCache{redis: redis}
}

func (c *StockCache) key(productID string) string {
	return fmt.Sprintf("stock:product:%s", productID)
}

// Get returns the cached available count for a product. The second return
// value reports a cache hit; an unreachable Redis degrades to a miss.
func (c *StockCache) Get(ctx context.Context, productID string) (int, bool) {
	v, err := c.redis.Get(ctx, c.key(productID))
	if err != nil {
		if !IsMiss(err) {
			log.Warn().Err(err).Str("product_id", productID).Msg("Stock cache read failed")
		}
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores the available count for a product.
func (c *StockCache) Set(ctx context.Context, productID string, count int) error {
	return c.redis.Set(ctx, c.key(productID), strconv.Itoa(count), stockTTL)
}

// Invalidate drops the cached count for a product. Called after every
// successful claim; deleting a missing key is a no-op.
func (c *StockCache) Invalidate(ctx context.Context, productID string) error {
	return c.redis.Delete(ctx, c.key(productID))
}
