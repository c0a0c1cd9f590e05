package catalog

import (
	"strings"
	"time"

	"github.com/catalogbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductKind represents the catalog shape of a product record
type ProductKind string

const (
	ProductKindSimple    ProductKind = "simple"
	ProductKindVariable  ProductKind = "variable"
	ProductKindVariation ProductKind = "variation"
)

// ProductStatus represents the publication status of a product
type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	// ProductStatusDraft marks records retired from the storefront.
	// Retired records are never deleted so external ids stay resolvable.
	ProductStatusDraft ProductStatus = "draft"
)

// Product represents one catalog entry: a simple product, a variable
// parent, or a variation under a variable parent.
// It is the aggregate root for item synchronization.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	SKU         string          `gorm:"type:varchar(100);index"`
	Mtrl        string          `gorm:"type:varchar(64);index"` // external material id, the upstream join key
	Kind        ProductKind     `gorm:"type:varchar(20);not null;default:'simple'"`
	ParentID    int64           `gorm:"not null;default:0;index"` // 0 unless Kind == variation
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock       int             `gorm:"not null;default:0"`
	Backorder   bool            `gorm:"not null;default:false"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	Attributes  string          `gorm:"type:text"` // JSON object of attribute name -> value
	PayloadHash string          `gorm:"type:varchar(64);index"`
	LastSyncAt  time.Time       `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new simple product
func NewProduct(sku, mtrl, name string) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}

	return &Product{
		SKU:        strings.TrimSpace(sku),
		Mtrl:       strings.TrimSpace(mtrl),
		Kind:       ProductKindSimple,
		Name:       name,
		Price:      decimal.Zero,
		Status:     ProductStatusActive,
		Attributes: "{}",
	}, nil
}

// NewVariation creates a variation under the given parent product
func NewVariation(parent *Product, sku, mtrl string) (*Product, error) {
	if parent == nil || parent.ID == 0 {
		return nil, shared.ErrVariationOrphan
	}
	if parent.Kind != ProductKindVariable {
		return nil, shared.ErrPromotionFailed
	}

	return &Product{
		SKU:        strings.TrimSpace(sku),
		Mtrl:       strings.TrimSpace(mtrl),
		Kind:       ProductKindVariation,
		ParentID:   parent.ID,
		Name:       parent.Name,
		Price:      decimal.Zero,
		Status:     ProductStatusActive,
		Attributes: "{}",
	}, nil
}

// Rename updates the product's displayed name and description
func (p *Product) Rename(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	return nil
}

// SetPrice sets the selling price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	return nil
}

// SetStock sets the stock quantity; negative quantities are clamped to zero
func (p *Product) SetStock(qty int) {
	if qty < 0 {
		qty = 0
	}
	p.Stock = qty
	p.UpdatedAt = time.Now()
}

// PromoteToVariable converts a simple product into a variable parent.
// Promotion happens at most once; promoting an already variable product
// is a no-op and promoting a variation is an error.
func (p *Product) PromoteToVariable() error {
	switch p.Kind {
	case ProductKindVariable:
		return nil
	case ProductKindVariation:
		return shared.ErrPromotionFailed
	}
	p.Kind = ProductKindVariable
	p.UpdatedAt = time.Now()
	return nil
}

// MarkSynced stamps the payload hash and last-sync timestamp
func (p *Product) MarkSynced(hash string, at time.Time) {
	p.PayloadHash = hash
	p.LastSyncAt = at
	p.UpdatedAt = time.Now()
}

// Retire moves the product out of the storefront without deleting it
func (p *Product) Retire(at time.Time) {
	p.Status = ProductStatusDraft
	p.Stock = 0
	p.LastSyncAt = at
	p.UpdatedAt = time.Now()
}

// Activate restores a retired product
func (p *Product) Activate() {
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
}

// IsActive returns true if the product is published
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsVariation returns true if the product is a child variation
func (p *Product) IsVariation() bool {
	return p.Kind == ProductKindVariation
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}

// validateSKU validates the SKU; an empty SKU is allowed because some
// upstream records carry only a material id
func validateSKU(sku string) error {
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	return nil
}
