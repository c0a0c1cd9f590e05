package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/backend/internal/domain/catalog"
)

func seedSynced(t *testing.T, env *testEnv, sku, mtrl string, at time.Time) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(sku, mtrl, "Item "+mtrl)
	require.NoError(t, err)
	product.Stock = 5
	product.MarkSynced("hash", at)
	require.NoError(t, env.products.Save(context.Background(), product))
	return product
}

func TestHandleStaleItems_RetiresUntouchedProducts(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems", StaleBatchSize: 2})
	ctx := context.Background()
	runTs := time.Now()

	old1 := seedSynced(t, env, "SKU-1", "m-1", runTs.Add(-time.Hour))
	old2 := seedSynced(t, env, "SKU-2", "m-2", runTs.Add(-2*time.Hour))
	old3 := seedSynced(t, env, "SKU-3", "m-3", runTs.Add(-3*time.Hour))
	fresh := seedSynced(t, env, "SKU-4", "m-4", runTs)

	deactivated, err := env.engine.HandleStaleItems(ctx, runTs)
	require.NoError(t, err)
	assert.Equal(t, 3, deactivated, "the walk crosses batch boundaries")

	for _, p := range []*catalog.Product{old1, old2, old3} {
		reloaded := env.products.mustGet(p.ID)
		assert.False(t, reloaded.IsActive())
		assert.Zero(t, reloaded.Stock)
		assert.True(t, reloaded.LastSyncAt.Equal(runTs), "retired items are stamped with the run timestamp")
	}
	assert.True(t, env.products.mustGet(fresh.ID).IsActive())
	assert.Len(t, env.media.skus(), 3)
}

func TestHandleStaleItems_GalleryReattachOnlyWithSKU(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	runTs := time.Now()

	seedSynced(t, env, "SKU-1", "m-1", runTs.Add(-time.Hour))
	seedSynced(t, env, "", "m-2", runTs.Add(-time.Hour))

	deactivated, err := env.engine.HandleStaleItems(context.Background(), runTs)
	require.NoError(t, err)
	assert.Equal(t, 2, deactivated)
	assert.Equal(t, []string{"SKU-1"}, env.media.skus())
}

func TestHandleStaleItems_RelinkerFailureDoesNotAbort(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	env.media.err = assert.AnError
	runTs := time.Now()

	seedSynced(t, env, "SKU-1", "m-1", runTs.Add(-time.Hour))
	seedSynced(t, env, "SKU-2", "m-2", runTs.Add(-time.Hour))

	deactivated, err := env.engine.HandleStaleItems(context.Background(), runTs)
	require.NoError(t, err)
	assert.Equal(t, 2, deactivated)
}

func TestHandleStaleItems_NothingStale(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	runTs := time.Now()
	seedSynced(t, env, "SKU-1", "m-1", runTs)

	deactivated, err := env.engine.HandleStaleItems(context.Background(), runTs)
	require.NoError(t, err)
	assert.Zero(t, deactivated)
	assert.Empty(t, env.media.skus())
}

func TestHandleStaleItems_SaveFailureStopsWithoutLooping(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	runTs := time.Now()
	seedSynced(t, env, "SKU-1", "m-1", runTs.Add(-time.Hour))
	env.products.saveErr = assert.AnError

	deactivated, err := env.engine.HandleStaleItems(context.Background(), runTs)
	require.NoError(t, err)
	assert.Zero(t, deactivated, "an unprogressable batch terminates the walk")
}
