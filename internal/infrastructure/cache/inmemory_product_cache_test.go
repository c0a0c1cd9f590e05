package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/infrastructure/config"
)

func cachedProduct(t *testing.T, id int64) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("SKU-1", "m-1", "Leather belt")
	require.NoError(t, err)
	product.ID = id
	return product
}

func TestInMemoryProductCache_SetGetInvalidate(t *testing.T) {
	c := NewInMemoryProductCache()
	ctx := context.Background()

	hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, hit, "a miss is a nil product, not an error")

	require.NoError(t, c.Set(ctx, cachedProduct(t, 1)))
	assert.Equal(t, 1, c.Len())

	hit, err = c.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "SKU-1", hit.SKU)

	require.NoError(t, c.Invalidate(ctx, 1))
	hit, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestInMemoryProductCache_IgnoresUnsavedProducts(t *testing.T) {
	c := NewInMemoryProductCache()
	require.NoError(t, c.Set(context.Background(), cachedProduct(t, 0)))
	require.NoError(t, c.Set(context.Background(), nil))
	assert.Zero(t, c.Len())
}

func TestInMemoryProductCache_ReturnsCopies(t *testing.T) {
	c := NewInMemoryProductCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cachedProduct(t, 1)))

	first, err := c.Get(ctx, 1)
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Leather belt", second.Name, "callers never mutate the cached object")
}

func TestInMemoryProductCache_ExpiredEntriesMiss(t *testing.T) {
	c := NewInMemoryProductCache()
	c.ttl = -time.Second // everything stored is already expired
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, cachedProduct(t, 1)))
	hit, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestProductCacheFactory_DisabledRedisUsesInMemory(t *testing.T) {
	factory := NewProductCacheFactory(config.RedisConfig{Enabled: false})
	store, err := factory.CreateCache()
	require.NoError(t, err)
	assert.IsType(t, &InMemoryProductCache{}, store)
}

func TestProductCacheFactory_UnreachableRedisFallsBack(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1} // nothing listens here
	store, err := NewProductCacheFactory(cfg).CreateCache()
	require.NoError(t, err)
	assert.IsType(t, &InMemoryProductCache{}, store)

	_, err = NewProductCacheFactory(cfg, WithInMemoryFallback(false)).CreateCache()
	assert.Error(t, err)
}
