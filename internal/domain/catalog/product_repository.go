package catalog

import (
	"context"
	"time"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindIDBySKU finds a product id by its SKU
	FindIDBySKU(ctx context.Context, sku string) (int64, error)

	// FindIDByMtrl finds a product id by its external material id
	FindIDByMtrl(ctx context.Context, mtrl string) (int64, error)

	// FindVariations finds all variations under a variable parent
	FindVariations(ctx context.Context, parentID int64) ([]Product, error)

	// FindSyncedBefore finds up to limit active products whose last-sync
	// timestamp predates cutoff, ordered by id
	FindSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// CountByKind counts products of the given kind
	CountByKind(ctx context.Context, kind ProductKind) (int64, error)
}

// TermRepository defines the interface for taxonomy term persistence
type TermRepository interface {
	// FindByID finds a term by its ID
	FindByID(ctx context.Context, id int64) (*Term, error)

	// FindByNameAndParent finds a term by taxonomy, name and parent id
	FindByNameAndParent(ctx context.Context, taxonomy, name string, parentID int64) (*Term, error)

	// Save creates or updates a term
	Save(ctx context.Context, term *Term) error

	// AssignToProduct replaces the product's term assignment for one
	// taxonomy with the given term ids
	AssignToProduct(ctx context.Context, productID int64, taxonomy string, termIDs []int64) error

	// TermIDsForProduct returns the term ids assigned to a product for one taxonomy
	TermIDsForProduct(ctx context.Context, productID int64, taxonomy string) ([]int64, error)
}

// ProductMetaRepository defines the interface for per-product key-value metadata
type ProductMetaRepository interface {
	// Get reads a metadata value; returns shared.ErrNotFound when absent
	Get(ctx context.Context, productID int64, key string) (string, error)

	// Set writes a metadata value, creating or overwriting the key
	Set(ctx context.Context, productID int64, key, value string) error

	// Delete removes a metadata key; deleting an absent key is not an error
	Delete(ctx context.Context, productID int64, key string) error
}

// ProductCache is the object-level cache for product records. The engine
// invalidates entries after structural changes (e.g. promotion to variable)
// so subsequent reads observe the new shape.
type ProductCache interface {
	// Get returns the cached product or nil on a miss
	Get(ctx context.Context, productID int64) (*Product, error)

	// Set stores a product object
	Set(ctx context.Context, product *Product) error

	// Invalidate drops any cached object for the product id
	Invalidate(ctx context.Context, productID int64) error
}

// MediaRelinker reattaches gallery images to a product from external
// object storage. Invoked by the stale-item handler for records that
// still carry a SKU.
type MediaRelinker interface {
	// ReattachGallery relocates gallery images for the given SKU
	ReattachGallery(ctx context.Context, productID int64, sku string) error
}
