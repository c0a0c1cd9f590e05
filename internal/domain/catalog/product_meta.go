package catalog

import (
	"time"
)

// Metadata keys written by the synchronization engine
const (
	MetaKeyRelatedItemMtrl  = "related_item_mtrl"  // authoritative related-parent pointer
	MetaKeyRelatedItemMtrls = "related_item_mtrls" // JSON list of sibling material ids
	MetaKeyGalleryRelinked  = "gallery_relinked_at"
	MetaKeyGalleryImages    = "gallery_image_keys" // JSON list of object-storage keys
)

// ProductMeta stores one arbitrary key-value pair attached to a product.
// The engine uses it for relationship pointers and housekeeping markers;
// host systems may attach their own keys.
type ProductMeta struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID int64  `gorm:"not null;uniqueIndex:idx_meta_product_key,priority:1"`
	Key       string `gorm:"type:varchar(100);not null;uniqueIndex:idx_meta_product_key,priority:2"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (ProductMeta) TableName() string {
	return "product_meta"
}
