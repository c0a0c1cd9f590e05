package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindIDBySKU finds a product id by its SKU
func (r *GormProductRepository) FindIDBySKU(ctx context.Context, sku string) (int64, error) {
	return r.findID(ctx, "sku = ?", sku)
}

// FindIDByMtrl finds a product id by its external material id
func (r *GormProductRepository) FindIDByMtrl(ctx context.Context, mtrl string) (int64, error) {
	return r.findID(ctx, "mtrl = ?", mtrl)
}

func (r *GormProductRepository) findID(ctx context.Context, cond string, value string) (int64, error) {
	if value == "" {
		return 0, shared.ErrNotFound
	}
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Select("id").
		Where(cond, value).
		Order("id ASC").
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return product.ID, nil
}

// FindVariations finds all variations under a variable parent
func (r *GormProductRepository) FindVariations(ctx context.Context, parentID int64) ([]catalog.Product, error) {
	var variations []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("parent_id = ? AND kind = ?", parentID, catalog.ProductKindVariation).
		Order("id ASC").
		Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}

// FindSyncedBefore finds up to limit active products whose last-sync
// timestamp predates cutoff
func (r *GormProductRepository) FindSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("status = ? AND last_sync_at < ?", catalog.ProductStatusActive, cutoff).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// CountByKind counts products of the given kind
func (r *GormProductRepository) CountByKind(ctx context.Context, kind catalog.ProductKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("kind = ?", kind).
		Count(&count).Error
	return count, err
}
