package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// SyncRelatedItemRelationships persists the authoritative related-parent
// pointer and the sibling list for one product.
//
// Precedence: a non-empty authoritativePointer always wins; otherwise the
// pointer is inferred as the first non-self entry of candidateList. The
// stored list is candidateList with the product's own material id removed
// and order otherwise preserved; it never self-references. When
// receivedPayload is false the upstream did not supply relationship data
// and previously persisted state is left untouched rather than cleared.
func (e *Engine) SyncRelatedItemRelationships(ctx context.Context, productID int64, currentMtrl, authoritativePointer string, candidateList []string, receivedPayload bool) error {
	if !receivedPayload {
		return nil
	}

	siblings := make([]string, 0, len(candidateList))
	for _, mtrl := range candidateList {
		if mtrl == "" || mtrl == currentMtrl {
			continue
		}
		siblings = append(siblings, mtrl)
	}

	pointer := authoritativePointer
	if pointer == "" && len(siblings) > 0 {
		pointer = siblings[0]
	}

	if pointer != "" {
		if err := e.meta.Set(ctx, productID, catalog.MetaKeyRelatedItemMtrl, pointer); err != nil {
			return fmt.Errorf("store related pointer for product %d: %w", productID, err)
		}
	} else {
		if err := e.meta.Delete(ctx, productID, catalog.MetaKeyRelatedItemMtrl); err != nil {
			return fmt.Errorf("clear related pointer for product %d: %w", productID, err)
		}
	}

	encoded, err := json.Marshal(siblings)
	if err != nil {
		return err
	}
	if err := e.meta.Set(ctx, productID, catalog.MetaKeyRelatedItemMtrls, string(encoded)); err != nil {
		return fmt.Errorf("store related list for product %d: %w", productID, err)
	}

	e.logger.Debug("refreshed related-item pointers",
		zap.Int64("product_id", productID),
		zap.String("pointer", pointer),
		zap.Int("siblings", len(siblings)))
	return nil
}
