package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ImportOutcome is the per-row reconciliation decision
type ImportOutcome string

const (
	OutcomeCreated ImportOutcome = "created"
	OutcomeUpdated ImportOutcome = "updated"
	OutcomeSkipped ImportOutcome = "skipped"
)

// ImportRow reconciles one normalized row against the local catalog.
//
// Lookup order is material id first, SKU second. An unmatched row is
// created. A matched row is compared by payload hash: an unchanged row
// is skipped without touching categories, taxonomies or attributes,
// unless the forced-refresh flag is set. Relationship pointers are an
// independent signal and are refreshed whenever the source supplied
// relationship data, even on a hash skip.
func (e *Engine) ImportRow(ctx context.Context, row *NormalizedRow, runTs time.Time) (ImportOutcome, error) {
	id, err := e.lookupProductID(ctx, row)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", row.Identity(), err)
	}

	if id == 0 {
		return e.createFromRow(ctx, row, runTs)
	}
	return e.updateFromRow(ctx, id, row, runTs)
}

// lookupProductID matches by external material id, then by SKU
func (e *Engine) lookupProductID(ctx context.Context, row *NormalizedRow) (int64, error) {
	if row.Mtrl != "" {
		id, err := e.products.FindIDByMtrl(ctx, row.Mtrl)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return 0, err
		}
	}
	if row.SKU != "" {
		id, err := e.products.FindIDBySKU(ctx, row.SKU)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return 0, err
		}
	}
	return 0, nil
}

func (e *Engine) createFromRow(ctx context.Context, row *NormalizedRow, runTs time.Time) (ImportOutcome, error) {
	product, err := catalog.NewProduct(row.SKU, row.Mtrl, row.Name)
	if err != nil {
		return "", err
	}
	product.Description = row.Description
	if err := product.SetPrice(row.Price); err != nil {
		return "", err
	}
	product.SetStock(row.Stock)
	product.Backorder = row.Backorder
	product.SetAttributesMap(rowAttributesWithColour(row))

	// first save assigns the id the taxonomy links need
	if err := e.products.Save(ctx, product); err != nil {
		return "", fmt.Errorf("save new product %s: %w", row.Identity(), err)
	}

	if err := e.assignTaxonomies(ctx, product, row); err != nil {
		return "", err
	}

	product.MarkSynced(payloadHash(row), runTs)
	if err := e.products.Save(ctx, product); err != nil {
		return "", fmt.Errorf("finalize product %s: %w", row.Identity(), err)
	}
	e.cacheSet(ctx, product)

	if err := e.queueRelationships(ctx, product, row); err != nil {
		return "", err
	}

	e.logger.Debug("created catalog product",
		zap.Int64("product_id", product.ID),
		zap.String("mtrl", row.Mtrl),
		zap.String("sku", row.SKU))
	return OutcomeCreated, nil
}

func (e *Engine) updateFromRow(ctx context.Context, id int64, row *NormalizedRow, runTs time.Time) (ImportOutcome, error) {
	product, err := e.loadProduct(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load product %d: %w", id, err)
	}

	hash := payloadHash(row)
	if product.PayloadHash == hash && !e.cfg.ForceRefresh {
		// Idempotence short-circuit. Relationship refresh stays an
		// independent signal.
		if row.HasRelatedPayload {
			if err := e.SyncRelatedItemRelationships(ctx, product.ID, row.Mtrl, row.RelatedParentMtrl, row.RelatedMtrls, true); err != nil {
				return "", err
			}
		}
		// The sync stamp still advances: the row is present upstream,
		// and the stale sweep selects on last-sync alone.
		product.MarkSynced(hash, runTs)
		if err := e.products.Save(ctx, product); err != nil {
			return "", fmt.Errorf("save product %d: %w", id, err)
		}
		e.cacheSet(ctx, product)
		return OutcomeSkipped, nil
	}

	if err := product.Rename(row.Name, row.Description); err != nil {
		return "", err
	}
	if err := product.SetPrice(row.Price); err != nil {
		return "", err
	}
	product.SetStock(row.Stock)
	product.Backorder = row.Backorder
	if row.Mtrl != "" {
		product.Mtrl = row.Mtrl
	}
	if row.SKU != "" {
		product.SKU = row.SKU
	}
	product.Activate()
	product.SetAttributesMap(rowAttributesWithColour(row))

	if err := e.assignTaxonomies(ctx, product, row); err != nil {
		return "", err
	}

	product.MarkSynced(hash, runTs)
	if err := e.products.Save(ctx, product); err != nil {
		return "", fmt.Errorf("save product %d: %w", id, err)
	}
	e.cacheSet(ctx, product)

	if err := e.queueRelationships(ctx, product, row); err != nil {
		return "", err
	}

	return OutcomeUpdated, nil
}

// assignTaxonomies recomputes the category chain and reassigns category,
// brand and colour terms
func (e *Engine) assignTaxonomies(ctx context.Context, product *catalog.Product, row *NormalizedRow) error {
	chain, err := e.builder.PrepareCategoryIDs(ctx, row)
	if err != nil {
		return fmt.Errorf("prepare categories for %s: %w", row.Identity(), err)
	}
	if len(chain) > 0 {
		if err := e.terms.AssignToProduct(ctx, product.ID, catalog.TaxonomyCategory, chain); err != nil {
			return fmt.Errorf("assign categories for %s: %w", row.Identity(), err)
		}
	}

	if row.Brand != "" {
		termID, err := e.ensureFlatTerm(ctx, catalog.TaxonomyBrand, row.Brand)
		if err != nil {
			return err
		}
		if err := e.terms.AssignToProduct(ctx, product.ID, catalog.TaxonomyBrand, []int64{termID}); err != nil {
			return fmt.Errorf("assign brand for %s: %w", row.Identity(), err)
		}
	}

	if row.Colour != "" && !product.IsVariation() {
		termID, err := e.ensureFlatTerm(ctx, catalog.TaxonomyColour, row.Colour)
		if err != nil {
			return err
		}
		if err := e.terms.AssignToProduct(ctx, product.ID, catalog.TaxonomyColour, []int64{termID}); err != nil {
			return fmt.Errorf("assign colour for %s: %w", row.Identity(), err)
		}
	}
	return nil
}

// ensureFlatTerm finds or creates a root-level term in a flat taxonomy
func (e *Engine) ensureFlatTerm(ctx context.Context, taxonomy, name string) (int64, error) {
	term, err := e.terms.FindByNameAndParent(ctx, taxonomy, name, 0)
	if err == nil {
		return term.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}
	term, err = catalog.NewTerm(taxonomy, name, 0)
	if err != nil {
		return 0, err
	}
	if err := e.terms.Save(ctx, term); err != nil {
		return 0, err
	}
	return term.ID, nil
}

// queueRelationships enqueues variant-aggregation work and refreshes the
// related-item pointers when the source supplied relationship data
func (e *Engine) queueRelationships(ctx context.Context, product *catalog.Product, row *NormalizedRow) error {
	if row.RelatedParentMtrl != "" && row.Colour != "" && row.RelatedParentMtrl != row.Mtrl {
		e.QueueSingleProductVariation(PendingVariationEntry{
			ParentMtrl:      row.RelatedParentMtrl,
			AttributeTerm:   row.Colour,
			SKU:             row.SKU,
			Mtrl:            row.Mtrl,
			Price:           row.Price,
			Stock:           row.Stock,
			Backorder:       row.Backorder,
			ExtraAttributes: row.Attributes,
			SourceProductID: product.ID,
		})
	}
	if len(row.RelatedMtrls) > 0 {
		e.QueueColourVariationSync(PendingColourSyncEntry{
			ParentProductID: product.ID,
			CurrentMtrl:     row.Mtrl,
			RelatedMtrls:    append([]string(nil), row.RelatedMtrls...),
			Taxonomy:        catalog.TaxonomyColour,
		})
	}

	if row.HasRelatedPayload {
		return e.SyncRelatedItemRelationships(ctx, product.ID, row.Mtrl, row.RelatedParentMtrl, row.RelatedMtrls, true)
	}
	return nil
}

// rowAttributesWithColour folds the colour into the free-form attributes
func rowAttributesWithColour(row *NormalizedRow) map[string]string {
	attrs := make(map[string]string, len(row.Attributes)+1)
	for k, v := range row.Attributes {
		attrs[k] = v
	}
	if row.Colour != "" {
		attrs["colour"] = row.Colour
	}
	return attrs
}

// loadProduct reads through the object cache
func (e *Engine) loadProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if cached, err := e.cache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	}
	product, err := e.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.cacheSet(ctx, product)
	return product, nil
}

// cacheSet stores a product in the object cache, best effort
func (e *Engine) cacheSet(ctx context.Context, product *catalog.Product) {
	if err := e.cache.Set(ctx, product); err != nil {
		e.logger.Debug("product cache set failed", zap.Int64("product_id", product.ID), zap.Error(err))
	}
}

// cacheInvalidate drops a product from the object cache, best effort
func (e *Engine) cacheInvalidate(ctx context.Context, id int64) {
	if err := e.cache.Invalidate(ctx, id); err != nil {
		e.logger.Debug("product cache invalidate failed", zap.Int64("product_id", id), zap.Error(err))
	}
}
