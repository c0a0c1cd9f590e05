package catalog

import (
	"strings"
	"time"

	"github.com/catalogbridge/backend/internal/domain/shared"
)

// Taxonomy names used by the synchronization engine. The same term table
// backs the category tree, attribute terms and brand terms.
const (
	TaxonomyCategory = "product_cat"
	TaxonomyColour   = "pa_colour"
	TaxonomyBrand    = "product_brand"
)

// Term is a taxonomy node: a product category, an attribute value
// (e.g. a colour) or a brand. Categories form a tree through ParentID;
// ParentID == 0 means root.
type Term struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(200);not null;index:idx_term_tax_name_parent,priority:2"`
	Taxonomy  string `gorm:"type:varchar(50);not null;index:idx_term_tax_name_parent,priority:1"`
	ParentID  int64  `gorm:"not null;default:0;index:idx_term_tax_name_parent,priority:3"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (Term) TableName() string {
	return "terms"
}

// NewTerm creates a taxonomy term under the given parent (0 = root)
func NewTerm(taxonomy, name string, parentID int64) (*Term, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TERM", "Term name cannot be empty")
	}
	if taxonomy == "" {
		return nil, shared.NewDomainError("INVALID_TAXONOMY", "Taxonomy cannot be empty")
	}
	if parentID < 0 {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent id cannot be negative")
	}
	return &Term{
		Name:     name,
		Taxonomy: taxonomy,
		ParentID: parentID,
	}, nil
}

// IsRoot returns true for terms directly under the taxonomy root
func (t *Term) IsRoot() bool {
	return t.ParentID == 0
}

// ProductTerm links a product to a taxonomy term
type ProductTerm struct {
	ProductID int64  `gorm:"primaryKey;autoIncrement:false"`
	TermID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Taxonomy  string `gorm:"type:varchar(50);not null;index"`
}

// TableName returns the table name for GORM
func (ProductTerm) TableName() string {
	return "product_terms"
}
