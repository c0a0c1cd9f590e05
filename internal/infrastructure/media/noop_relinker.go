package media

import (
	"context"

	"go.uber.org/zap"

	"github.com/catalogbridge/backend/internal/domain/catalog"
)

// Ensure NoopRelinker implements MediaRelinker
var _ catalog.MediaRelinker = (*NoopRelinker)(nil)

// NoopRelinker is used when no media storage is configured. It logs and
// succeeds so stale-item handling never fails on missing media config.
type NoopRelinker struct {
	logger *zap.Logger
}

// NewNoopRelinker creates a relinker that does nothing
func NewNoopRelinker(logger *zap.Logger) *NoopRelinker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopRelinker{logger: logger}
}

// ReattachGallery logs the request and returns nil
func (r *NoopRelinker) ReattachGallery(_ context.Context, productID int64, sku string) error {
	r.logger.Debug("media storage not configured, skipping gallery reattach",
		zap.Int64("product_id", productID),
		zap.String("sku", sku))
	return nil
}
