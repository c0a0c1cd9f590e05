package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogbridge/backend/internal/domain/shared"
)

func TestNewTerm(t *testing.T) {
	term, err := NewTerm(TaxonomyCategory, "  Shoes  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "Shoes", term.Name)
	assert.Equal(t, TaxonomyCategory, term.Taxonomy)
	assert.Equal(t, int64(3), term.ParentID)
	assert.False(t, term.IsRoot())

	root, err := NewTerm(TaxonomyBrand, "Acme", 0)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
}

func TestNewTerm_Validation(t *testing.T) {
	var de *shared.DomainError

	_, err := NewTerm(TaxonomyCategory, "   ", 0)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_TERM", de.Code)

	_, err = NewTerm("", "Shoes", 0)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_TAXONOMY", de.Code)

	_, err = NewTerm(TaxonomyCategory, "Shoes", -1)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PARENT", de.Code)
}
