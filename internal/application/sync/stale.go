package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HandleStaleItems retires catalog entries the current run never touched.
//
// The catalog is walked in fixed-size batches of products whose last-sync
// timestamp predates runTs. Each one is drafted with zero stock and
// stamped with runTs so it is not revisited; gallery images are
// reattached exactly once, and only for products that still carry a SKU.
// One product's failure never aborts the walk.
func (e *Engine) HandleStaleItems(ctx context.Context, runTs time.Time) (int, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.handleStaleItems(ctx, runTs)
}

// handleStaleItems is the sweep body; the coordinator calls it at the
// run boundary with runMu already held.
func (e *Engine) handleStaleItems(ctx context.Context, runTs time.Time) (int, error) {
	deactivated := 0
	for {
		batch, err := e.products.FindSyncedBefore(ctx, runTs, e.cfg.StaleBatchSize)
		if err != nil {
			return deactivated, err
		}
		if len(batch) == 0 {
			return deactivated, nil
		}

		progressed := false
		for i := range batch {
			product := &batch[i]
			product.Retire(runTs)
			if err := e.products.Save(ctx, product); err != nil {
				e.logger.Error("stale retire failed",
					zap.Int64("product_id", product.ID),
					zap.String("reason_code", "STALE_RETIRE_FAILED"),
					zap.Error(err))
				continue
			}
			progressed = true
			deactivated++
			e.cacheInvalidate(ctx, product.ID)

			if product.SKU == "" {
				continue
			}
			if err := e.media.ReattachGallery(ctx, product.ID, product.SKU); err != nil {
				e.logger.Warn("gallery reattachment failed",
					zap.Int64("product_id", product.ID),
					zap.String("sku", product.SKU),
					zap.Error(err))
			}
		}

		// a batch where nothing could be stamped would repeat forever
		if !progressed {
			e.logger.Error("stale walk made no progress, stopping",
				zap.Int("batch", len(batch)))
			return deactivated, nil
		}
	}
}
