package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PendingVariationEntry is a queued request to materialize one variation
// under an existing or to-be-created variable parent. Entries live only
// within one run and are consumed exactly once by the drain pass.
type PendingVariationEntry struct {
	ParentMtrl      string
	AttributeTerm   string
	SKU             string
	Mtrl            string
	Price           decimal.Decimal
	Stock           int
	Backorder       bool
	ExtraAttributes map[string]string
	// SourceProductID is the simple product the row was imported as; it
	// is retired to draft once migrated into a variation
	SourceProductID int64
}

// PendingColourSyncEntry is a queued request to aggregate a family of
// related materials into variations of one parent.
type PendingColourSyncEntry struct {
	ParentProductID int64
	CurrentMtrl     string
	RelatedMtrls    []string
	Taxonomy        string
}

// QueueSingleProductVariation records a variation request for the later
// drain pass. Queueing instead of applying inline avoids reloading and
// re-promoting the parent once per row.
func (e *Engine) QueueSingleProductVariation(entry PendingVariationEntry) {
	e.pendingVariations = append(e.pendingVariations, entry)
}

// QueueColourVariationSync records a colour-family aggregation request
// for the later drain pass.
func (e *Engine) QueueColourVariationSync(entry PendingColourSyncEntry) {
	e.pendingColourSyncs = append(e.pendingColourSyncs, entry)
}

// PendingCounts reports the queued work not yet drained
func (e *Engine) PendingCounts() (variations, colourSyncs int) {
	return len(e.pendingVariations), len(e.pendingColourSyncs)
}

// ProcessPendingSingleProductVariations drains the single-product queue.
// Entries are grouped by parent so each parent is loaded, promoted and
// cache-invalidated once. A failing entry is logged and skipped; it
// never aborts the remaining queue.
func (e *Engine) ProcessPendingSingleProductVariations(ctx context.Context, runTs time.Time) {
	if len(e.pendingVariations) == 0 {
		return
	}
	queue := e.pendingVariations
	e.pendingVariations = nil

	groups := make(map[string][]PendingVariationEntry)
	order := make([]string, 0, len(queue))
	for _, entry := range queue {
		if _, seen := groups[entry.ParentMtrl]; !seen {
			order = append(order, entry.ParentMtrl)
		}
		groups[entry.ParentMtrl] = append(groups[entry.ParentMtrl], entry)
	}

	for _, parentMtrl := range order {
		entries := groups[parentMtrl]
		parent, err := e.loadOrCreateParent(ctx, parentMtrl, entries[0], runTs)
		if err != nil {
			e.logger.Error("variation parent unavailable",
				zap.String("parent_mtrl", parentMtrl),
				zap.String("reason_code", "PARENT_UNAVAILABLE"),
				zap.Error(err))
			continue
		}

		terms := make([]string, 0, len(entries))
		for _, entry := range entries {
			terms = append(terms, entry.AttributeTerm)
		}
		if err := e.unionAttributeTerms(ctx, parent.ID, catalog.TaxonomyColour, terms); err != nil {
			e.logger.Error("attribute union failed",
				zap.Int64("product_id", parent.ID),
				zap.String("reason_code", "ATTRIBUTE_UNION_FAILED"),
				zap.Error(err))
		}

		for _, entry := range entries {
			if err := e.applyVariation(ctx, parent, entry, runTs); err != nil {
				e.logger.Error("variation apply failed",
					zap.Int64("product_id", parent.ID),
					zap.String("mtrl", entry.Mtrl),
					zap.String("reason_code", "VARIATION_APPLY_FAILED"),
					zap.Error(err))
				continue
			}
			e.retireMigratedSource(ctx, entry.SourceProductID, parent.ID, runTs)
		}

		// drop any stale cached object so later reads see the promoted kind
		e.cacheInvalidate(ctx, parent.ID)
	}
}

// ProcessPendingColourVariationSyncs drains the colour-aggregation queue:
// each entry expands into one variation per related material, skipping
// the parent's own id; migrated source simples become inactive drafts,
// never deleted, so no duplicate catalog entries remain.
func (e *Engine) ProcessPendingColourVariationSyncs(ctx context.Context, runTs time.Time) {
	if len(e.pendingColourSyncs) == 0 {
		return
	}
	queue := e.pendingColourSyncs
	e.pendingColourSyncs = nil

	for _, entry := range queue {
		if err := e.applyColourSync(ctx, entry, runTs); err != nil {
			e.logger.Error("colour aggregation failed",
				zap.Int64("product_id", entry.ParentProductID),
				zap.String("reason_code", "COLOUR_SYNC_FAILED"),
				zap.Error(err))
		}
	}
}

func (e *Engine) applyColourSync(ctx context.Context, entry PendingColourSyncEntry, runTs time.Time) error {
	parent, err := e.products.FindByID(ctx, entry.ParentProductID)
	if err != nil {
		return fmt.Errorf("load parent: %w", err)
	}
	if err := e.promoteParent(ctx, parent); err != nil {
		return err
	}

	for _, mtrl := range entry.RelatedMtrls {
		if mtrl == entry.CurrentMtrl {
			continue
		}
		sourceID, err := e.products.FindIDByMtrl(ctx, mtrl)
		if errors.Is(err, shared.ErrNotFound) {
			// related material not imported yet; a later run picks it up
			continue
		}
		if err != nil {
			return err
		}
		source, err := e.products.FindByID(ctx, sourceID)
		if err != nil {
			return err
		}
		if source.IsVariation() || source.ID == parent.ID {
			continue
		}

		varEntry := PendingVariationEntry{
			ParentMtrl:    parent.Mtrl,
			AttributeTerm: source.AttributeValue("colour"),
			SKU:           source.SKU,
			Mtrl:          source.Mtrl,
			Price:         source.Price,
			Stock:         source.Stock,
			Backorder:     source.Backorder,
		}
		if varEntry.AttributeTerm != "" {
			if err := e.unionAttributeTerms(ctx, parent.ID, entry.Taxonomy, []string{varEntry.AttributeTerm}); err != nil {
				return err
			}
		}
		if err := e.applyVariation(ctx, parent, varEntry, runTs); err != nil {
			return err
		}

		// the simple product migrated into a variation becomes a draft
		source.Retire(runTs)
		if err := e.products.Save(ctx, source); err != nil {
			return fmt.Errorf("retire migrated simple %d: %w", source.ID, err)
		}
		e.cacheInvalidate(ctx, source.ID)
	}

	e.cacheInvalidate(ctx, parent.ID)
	return nil
}

// loadOrCreateParent resolves the target parent by material id, creating
// a placeholder variable parent when the family arrived before its parent
func (e *Engine) loadOrCreateParent(ctx context.Context, parentMtrl string, seed PendingVariationEntry, runTs time.Time) (*catalog.Product, error) {
	id, err := e.products.FindIDByMtrl(ctx, parentMtrl)
	switch {
	case err == nil:
		parent, err := e.products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := e.promoteParent(ctx, parent); err != nil {
			return nil, err
		}
		return parent, nil
	case errors.Is(err, shared.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	name := parentMtrl
	if seed.SourceProductID != 0 {
		if source, err := e.products.FindByID(ctx, seed.SourceProductID); err == nil {
			name = source.Name
		}
	}
	parent, err := catalog.NewProduct("", parentMtrl, name)
	if err != nil {
		return nil, err
	}
	if err := parent.PromoteToVariable(); err != nil {
		return nil, err
	}
	parent.MarkSynced("", runTs)
	if err := e.products.Save(ctx, parent); err != nil {
		return nil, err
	}
	return parent, nil
}

// retireMigratedSource drafts the standalone simple a row was first
// imported as once its data lives on in a variation. Best effort: a
// failure here leaves a duplicate draft candidate for the stale sweep.
func (e *Engine) retireMigratedSource(ctx context.Context, sourceID, parentID int64, runTs time.Time) {
	if sourceID == 0 || sourceID == parentID {
		return
	}
	source, err := e.products.FindByID(ctx, sourceID)
	if err != nil || source.IsVariation() || !source.IsActive() {
		return
	}
	source.Retire(runTs)
	if err := e.products.Save(ctx, source); err != nil {
		e.logger.Error("retire migrated source failed",
			zap.Int64("product_id", sourceID),
			zap.String("reason_code", "SOURCE_RETIRE_FAILED"),
			zap.Error(err))
		return
	}
	e.cacheInvalidate(ctx, sourceID)
}

// promoteParent converts a simple parent to variable at most once
func (e *Engine) promoteParent(ctx context.Context, parent *catalog.Product) error {
	if parent.Kind == catalog.ProductKindVariable {
		return nil
	}
	if err := parent.PromoteToVariable(); err != nil {
		return fmt.Errorf("promote product %d: %w", parent.ID, err)
	}
	if err := e.products.Save(ctx, parent); err != nil {
		return fmt.Errorf("save promoted product %d: %w", parent.ID, err)
	}
	e.cacheInvalidate(ctx, parent.ID)
	return nil
}

// unionAttributeTerms ensures the named terms exist and appends any that
// are missing from the parent's assignment. Re-running the same terms
// never duplicates the assignment.
func (e *Engine) unionAttributeTerms(ctx context.Context, productID int64, taxonomy string, names []string) error {
	existing, err := e.terms.TermIDsForProduct(ctx, productID, taxonomy)
	if err != nil {
		return err
	}
	assigned := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		assigned[id] = struct{}{}
	}

	union := append([]int64(nil), existing...)
	for _, name := range names {
		if name == "" {
			continue
		}
		termID, err := e.ensureFlatTerm(ctx, taxonomy, name)
		if err != nil {
			return err
		}
		if _, ok := assigned[termID]; ok {
			continue
		}
		assigned[termID] = struct{}{}
		union = append(union, termID)
	}

	if len(union) == len(existing) {
		return nil
	}
	return e.terms.AssignToProduct(ctx, productID, taxonomy, union)
}

// applyVariation creates or updates the child variation under the parent.
// Existing variations are matched by discriminating attribute value, then
// by material id, then by SKU.
func (e *Engine) applyVariation(ctx context.Context, parent *catalog.Product, entry PendingVariationEntry, runTs time.Time) error {
	variations, err := e.products.FindVariations(ctx, parent.ID)
	if err != nil {
		return err
	}

	variation := matchVariation(variations, entry)
	if variation == nil {
		variation, err = catalog.NewVariation(parent, entry.SKU, entry.Mtrl)
		if err != nil {
			return err
		}
	}

	variation.SKU = entry.SKU
	if entry.Mtrl != "" {
		variation.Mtrl = entry.Mtrl
	}
	if err := variation.SetPrice(entry.Price); err != nil {
		return err
	}
	variation.SetStock(entry.Stock)
	variation.Backorder = entry.Backorder
	variation.Activate()

	attrs := make(map[string]string, len(entry.ExtraAttributes)+1)
	for k, v := range entry.ExtraAttributes {
		attrs[k] = v
	}
	if entry.AttributeTerm != "" {
		attrs["colour"] = entry.AttributeTerm
	}
	variation.SetAttributesMap(attrs)
	variation.MarkSynced("", runTs)

	if err := e.products.Save(ctx, variation); err != nil {
		return err
	}
	e.cacheInvalidate(ctx, variation.ID)
	return nil
}

// matchVariation finds an existing variation for the queued entry:
// attribute value first, then material id, then SKU
func matchVariation(variations []catalog.Product, entry PendingVariationEntry) *catalog.Product {
	if entry.AttributeTerm != "" {
		for i := range variations {
			if variations[i].AttributeValue("colour") == entry.AttributeTerm {
				return &variations[i]
			}
		}
	}
	if entry.Mtrl != "" {
		for i := range variations {
			if variations[i].Mtrl == entry.Mtrl {
				return &variations[i]
			}
		}
	}
	if entry.SKU != "" {
		for i := range variations {
			if variations[i].SKU == entry.SKU {
				return &variations[i]
			}
		}
	}
	return nil
}
