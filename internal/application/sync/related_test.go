package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/backend/internal/domain/catalog"
)

func storedSiblings(t *testing.T, env *testEnv, productID int64) []string {
	t.Helper()
	raw, ok := env.meta.get(productID, catalog.MetaKeyRelatedItemMtrls)
	require.True(t, ok)
	var list []string
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	return list
}

func TestSyncRelatedItemRelationships_AuthoritativePointerWins(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})

	err := env.engine.SyncRelatedItemRelationships(context.Background(),
		42, "m-self", "m-parent", []string{"m-2", "m-3"}, true)
	require.NoError(t, err)

	pointer, ok := env.meta.get(42, catalog.MetaKeyRelatedItemMtrl)
	require.True(t, ok)
	assert.Equal(t, "m-parent", pointer)
	assert.Equal(t, []string{"m-2", "m-3"}, storedSiblings(t, env, 42))
}

func TestSyncRelatedItemRelationships_PointerInferredFromList(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})

	err := env.engine.SyncRelatedItemRelationships(context.Background(),
		42, "m-self", "", []string{"m-self", "m-2", "m-3"}, true)
	require.NoError(t, err)

	pointer, ok := env.meta.get(42, catalog.MetaKeyRelatedItemMtrl)
	require.True(t, ok)
	assert.Equal(t, "m-2", pointer, "the first non-self candidate becomes the pointer")
	assert.Equal(t, []string{"m-2", "m-3"}, storedSiblings(t, env, 42),
		"the stored list never self-references")
}

func TestSyncRelatedItemRelationships_EmptyPayloadClearsPointer(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	ctx := context.Background()

	require.NoError(t, env.engine.SyncRelatedItemRelationships(ctx,
		42, "m-self", "m-parent", []string{"m-2"}, true))

	// the source now explicitly reports no relationships
	require.NoError(t, env.engine.SyncRelatedItemRelationships(ctx,
		42, "m-self", "", nil, true))

	_, ok := env.meta.get(42, catalog.MetaKeyRelatedItemMtrl)
	assert.False(t, ok, "an explicitly empty payload clears the pointer")
	assert.Empty(t, storedSiblings(t, env, 42))
}

func TestSyncRelatedItemRelationships_AbsentPayloadLeavesStateUntouched(t *testing.T) {
	env := newTestEnv(t, nil, Config{Query: "getItems"})
	ctx := context.Background()

	require.NoError(t, env.engine.SyncRelatedItemRelationships(ctx,
		42, "m-self", "m-parent", []string{"m-2"}, true))

	// no relationship fields in the payload at all
	require.NoError(t, env.engine.SyncRelatedItemRelationships(ctx,
		42, "m-self", "", nil, false))

	pointer, ok := env.meta.get(42, catalog.MetaKeyRelatedItemMtrl)
	require.True(t, ok)
	assert.Equal(t, "m-parent", pointer)
	assert.Equal(t, []string{"m-2"}, storedSiblings(t, env, 42))
}
