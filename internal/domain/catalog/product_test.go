package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/backend/internal/domain/shared"
)

func TestNewProduct(t *testing.T) {
	product, err := NewProduct(" SKU-1 ", " m-1 ", "Leather belt")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", product.SKU)
	assert.Equal(t, "m-1", product.Mtrl)
	assert.Equal(t, ProductKindSimple, product.Kind)
	assert.Equal(t, ProductStatusActive, product.Status)
	assert.True(t, product.Price.IsZero())
	assert.Equal(t, "{}", product.Attributes)
}

func TestNewProduct_EmptySKUAllowed(t *testing.T) {
	product, err := NewProduct("", "m-1", "Material-only item")
	require.NoError(t, err)
	assert.Empty(t, product.SKU)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct("SKU-1", "m-1", "")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_NAME", de.Code)

	_, err = NewProduct("SKU-1", "m-1", strings.Repeat("x", 256))
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_NAME", de.Code)

	_, err = NewProduct(strings.Repeat("s", 101), "m-1", "Item")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_SKU", de.Code)
}

func TestNewVariation(t *testing.T) {
	parent, err := NewProduct("SKU-P", "m-p", "Shirt")
	require.NoError(t, err)
	parent.ID = 7
	require.NoError(t, parent.PromoteToVariable())

	variation, err := NewVariation(parent, "SKU-V", "m-v")
	require.NoError(t, err)
	assert.Equal(t, ProductKindVariation, variation.Kind)
	assert.Equal(t, int64(7), variation.ParentID)
	assert.Equal(t, "Shirt", variation.Name, "a variation inherits the parent name")
	assert.True(t, variation.IsVariation())
}

func TestNewVariation_RequiresPersistedVariableParent(t *testing.T) {
	_, err := NewVariation(nil, "SKU-V", "m-v")
	assert.ErrorIs(t, err, shared.ErrVariationOrphan)

	unsaved, _ := NewProduct("SKU-P", "m-p", "Shirt")
	_, err = NewVariation(unsaved, "SKU-V", "m-v")
	assert.ErrorIs(t, err, shared.ErrVariationOrphan)

	simple, _ := NewProduct("SKU-P", "m-p", "Shirt")
	simple.ID = 7
	_, err = NewVariation(simple, "SKU-V", "m-v")
	assert.ErrorIs(t, err, shared.ErrPromotionFailed)
}

func TestPromoteToVariable(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	require.NoError(t, product.PromoteToVariable())
	assert.Equal(t, ProductKindVariable, product.Kind)

	// promoting again is a no-op
	require.NoError(t, product.PromoteToVariable())
	assert.Equal(t, ProductKindVariable, product.Kind)

	product.Kind = ProductKindVariation
	assert.ErrorIs(t, product.PromoteToVariable(), shared.ErrPromotionFailed)
}

func TestSetPrice(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	require.NoError(t, product.SetPrice(decimal.NewFromFloat(19.9)))
	assert.Equal(t, "19.9", product.Price.String())

	err := product.SetPrice(decimal.NewFromInt(-1))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PRICE", de.Code)
	assert.Equal(t, "19.9", product.Price.String(), "a rejected price leaves the old one intact")
}

func TestSetStock_ClampsNegative(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	product.SetStock(5)
	assert.Equal(t, 5, product.Stock)
	product.SetStock(-3)
	assert.Zero(t, product.Stock)
}

func TestRetireAndActivate(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	product.SetStock(5)
	at := time.Now()

	product.Retire(at)
	assert.Equal(t, ProductStatusDraft, product.Status)
	assert.Zero(t, product.Stock)
	assert.True(t, product.LastSyncAt.Equal(at))
	assert.False(t, product.IsActive())

	product.Activate()
	assert.True(t, product.IsActive())
}

func TestMarkSynced(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	at := time.Now()
	product.MarkSynced("abc123", at)
	assert.Equal(t, "abc123", product.PayloadHash)
	assert.True(t, product.LastSyncAt.Equal(at))
}

func TestAttributes(t *testing.T) {
	product, _ := NewProduct("SKU-1", "m-1", "Shirt")
	assert.Empty(t, product.AttributesMap())
	assert.Empty(t, product.AttributeValue("colour"))

	product.SetAttributeValue("colour", "Red")
	product.SetAttributeValue("size", "L")
	assert.Equal(t, "Red", product.AttributeValue("colour"))
	assert.Equal(t, []string{"colour", "size"}, product.AttributeNames())

	product.SetAttributesMap(nil)
	assert.Equal(t, "{}", product.Attributes)
	assert.Empty(t, product.AttributesMap())

	// malformed stored JSON degrades to an empty map
	product.Attributes = "{not json"
	assert.Empty(t, product.AttributesMap())
}
