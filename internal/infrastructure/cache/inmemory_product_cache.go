package cache

import (
	"context"
	"sync"
	"time"

	"github.com/catalogbridge/backend/internal/domain/catalog"
)

// defaultProductTTL bounds how long a cached product object stays valid
const defaultProductTTL = 5 * time.Minute

type productEntry struct {
	product   catalog.Product
	expiresAt time.Time
}

// InMemoryProductCache implements catalog.ProductCache using a mutex-guarded
// map. Suitable for single-instance deployments and testing.
type InMemoryProductCache struct {
	mu      sync.RWMutex
	entries map[int64]productEntry
	ttl     time.Duration
}

// NewInMemoryProductCache creates a new in-memory product cache
func NewInMemoryProductCache() *InMemoryProductCache {
	return &InMemoryProductCache{
		entries: make(map[int64]productEntry),
		ttl:     defaultProductTTL,
	}
}

// Get returns the cached product or nil on a miss
func (c *InMemoryProductCache) Get(ctx context.Context, productID int64) (*catalog.Product, error) {
	c.mu.RLock()
	entry, ok := c.entries[productID]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	// return a copy so callers never mutate the cached object in place
	product := entry.product
	return &product, nil
}

// Set stores a product object
func (c *InMemoryProductCache) Set(ctx context.Context, product *catalog.Product) error {
	if product == nil || product.ID == 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[product.ID] = productEntry{
		product:   *product,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate drops any cached object for the product id
func (c *InMemoryProductCache) Invalidate(ctx context.Context, productID int64) error {
	c.mu.Lock()
	delete(c.entries, productID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries (expired entries included)
func (c *InMemoryProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
