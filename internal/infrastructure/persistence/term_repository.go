package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTermRepository implements catalog.TermRepository using GORM
type GormTermRepository struct {
	db *gorm.DB
}

// NewGormTermRepository creates a new GormTermRepository
func NewGormTermRepository(db *gorm.DB) *GormTermRepository {
	return &GormTermRepository{db: db}
}

// FindByID finds a term by its ID
func (r *GormTermRepository) FindByID(ctx context.Context, id int64) (*catalog.Term, error) {
	var term catalog.Term
	if err := r.db.WithContext(ctx).First(&term, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &term, nil
}

// FindByNameAndParent finds a term by taxonomy, name and parent id.
// Name matching is trimmed and exact.
func (r *GormTermRepository) FindByNameAndParent(ctx context.Context, taxonomy, name string, parentID int64) (*catalog.Term, error) {
	var term catalog.Term
	if err := r.db.WithContext(ctx).
		Where("taxonomy = ? AND name = ? AND parent_id = ?", taxonomy, strings.TrimSpace(name), parentID).
		First(&term).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &term, nil
}

// Save creates or updates a term
func (r *GormTermRepository) Save(ctx context.Context, term *catalog.Term) error {
	return r.db.WithContext(ctx).Save(term).Error
}

// AssignToProduct replaces the product's term assignment for one taxonomy
func (r *GormTermRepository) AssignToProduct(ctx context.Context, productID int64, taxonomy string, termIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("product_id = ? AND taxonomy = ?", productID, taxonomy).
			Delete(&catalog.ProductTerm{}).Error; err != nil {
			return err
		}
		if len(termIDs) == 0 {
			return nil
		}
		links := make([]catalog.ProductTerm, 0, len(termIDs))
		for _, termID := range termIDs {
			links = append(links, catalog.ProductTerm{
				ProductID: productID,
				TermID:    termID,
				Taxonomy:  taxonomy,
			})
		}
		return tx.Create(&links).Error
	})
}

// TermIDsForProduct returns the term ids assigned to a product for one taxonomy
func (r *GormTermRepository) TermIDsForProduct(ctx context.Context, productID int64, taxonomy string) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductTerm{}).
		Where("product_id = ? AND taxonomy = ?", productID, taxonomy).
		Order("term_id ASC").
		Pluck("term_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
