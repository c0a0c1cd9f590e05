package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// categorySeparators are the tokens upstream uses to encode hierarchy
// levels inside one path string, e.g. "Men --> Shoes" or "Men / Shoes".
var categorySeparators = []string{"-->", ">", "/"}

// uncategorizedSentinels are level names that mean "no category" and are
// dropped from the chain.
var uncategorizedSentinels = map[string]struct{}{
	"uncategorized": {},
	"uncategorised": {},
	"n/a":           {},
}

// CategoryBuilder reconstructs the category tree from denormalized path
// strings, creating missing nodes and memoizing name+parent lookups for
// the duration of one run.
type CategoryBuilder struct {
	terms  catalog.TermRepository
	logger *zap.Logger
	// cache maps "parentID|name" to term id; scoped to one run
	cache map[string]int64
}

// NewCategoryBuilder creates a category builder with an empty run cache
func NewCategoryBuilder(terms catalog.TermRepository, logger *zap.Logger) *CategoryBuilder {
	return &CategoryBuilder{
		terms:  terms,
		logger: logger,
		cache:  make(map[string]int64),
	}
}

// Reset drops the memoized lookups. Called at run start so a run never
// observes node ids cached by a previous run.
func (b *CategoryBuilder) Reset() {
	b.cache = make(map[string]int64)
}

// PrepareCategoryIDs resolves the row's category fields into the full,
// ordered id chain, outermost first. The primary path field and the
// subcategory field are concatenated, so "Parent"+"Child" produces the
// same chain and parent linkage as a single "Parent --> Child".
func (b *CategoryBuilder) PrepareCategoryIDs(ctx context.Context, row *NormalizedRow) ([]int64, error) {
	levels := splitCategoryLevels(row.CategoryPath)
	levels = append(levels, splitCategoryLevels(row.Subcategory)...)
	if len(levels) == 0 {
		return nil, nil
	}

	chain := make([]int64, 0, len(levels))
	var parentID int64
	for _, name := range levels {
		id, err := b.ensureNode(ctx, name, parentID)
		if err != nil {
			return nil, fmt.Errorf("category level %q: %w", name, err)
		}
		chain = append(chain, id)
		parentID = id
	}
	return chain, nil
}

// ensureNode finds or creates a category term by name under the parent
func (b *CategoryBuilder) ensureNode(ctx context.Context, name string, parentID int64) (int64, error) {
	key := fmt.Sprintf("%d|%s", parentID, strings.ToLower(name))
	if id, ok := b.cache[key]; ok {
		return id, nil
	}

	term, err := b.terms.FindByNameAndParent(ctx, catalog.TaxonomyCategory, name, parentID)
	switch {
	case err == nil:
		b.cache[key] = term.ID
		return term.ID, nil
	case errors.Is(err, shared.ErrNotFound):
		// fall through to create
	default:
		return 0, err
	}

	term, err = catalog.NewTerm(catalog.TaxonomyCategory, name, parentID)
	if err != nil {
		return 0, err
	}
	if err := b.terms.Save(ctx, term); err != nil {
		return 0, err
	}
	b.logger.Debug("created category node",
		zap.String("name", name),
		zap.Int64("parent_id", parentID),
		zap.Int64("term_id", term.ID))
	b.cache[key] = term.ID
	return term.ID, nil
}

// splitCategoryLevels splits one path string into trimmed level names,
// dropping empty and sentinel levels. All accepted separators normalize
// to the same result. Sentinels are checked before each split stage:
// "n/a" itself contains a separator and must be dropped whole, never
// shredded into bogus levels.
func splitCategoryLevels(path string) []string {
	parts := []string{path}
	for _, sep := range categorySeparators {
		next := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p == "" {
				continue
			}
			if _, drop := uncategorizedSentinels[strings.ToLower(p)]; drop {
				continue
			}
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}

	levels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, drop := uncategorizedSentinels[strings.ToLower(p)]; drop {
			continue
		}
		levels = append(levels, p)
	}
	return levels
}
