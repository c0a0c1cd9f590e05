package persistence

import (
	"context"
	"errors"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductMetaRepository implements catalog.ProductMetaRepository using GORM
type GormProductMetaRepository struct {
	db *gorm.DB
}

// NewGormProductMetaRepository creates a new GormProductMetaRepository
func NewGormProductMetaRepository(db *gorm.DB) *GormProductMetaRepository {
	return &GormProductMetaRepository{db: db}
}

// Get reads a metadata value; returns shared.ErrNotFound when absent
func (r *GormProductMetaRepository) Get(ctx context.Context, productID int64, key string) (string, error) {
	var meta catalog.ProductMeta
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND key = ?", productID, key).
		First(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return meta.Value, nil
}

// Set writes a metadata value, creating or overwriting the key
func (r *GormProductMetaRepository) Set(ctx context.Context, productID int64, key, value string) error {
	if key == "" {
		return shared.NewDomainError("META_KEY_EMPTY", "Metadata key cannot be empty")
	}
	meta := catalog.ProductMeta{
		ProductID: productID,
		Key:       key,
		Value:     value,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&meta).Error
}

// Delete removes a metadata key; deleting an absent key is not an error
func (r *GormProductMetaRepository) Delete(ctx context.Context, productID int64, key string) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND key = ?", productID, key).
		Delete(&catalog.ProductMeta{}).Error
}
