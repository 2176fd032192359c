// AngelaMos | 2026
// cache.go

package core

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is an in-process L1 cache for immutable reference data.
type Cache[V any] struct {
	c *ristretto.Cache[string, V]
}

func NewCache[V any](maxCost int64) (*Cache[V], error) {
	if maxCost <= 0 {
		maxCost = 1 << 20
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxCost / 100 * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache[V]{c: c}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	return c.c.Get(key)
}

func (c *Cache[V]) Set(key string, value V, cost int64, ttl time.Duration) {
	c.c.SetWithTTL(key, value, cost, ttl)
	c.c.Wait()
}

func (c *Cache[V]) Delete(key string) {
	c.c.Del(key)
}

func (c *Cache[V]) Close() {
	c.c.Close()
}
