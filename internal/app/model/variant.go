package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Variant is one color of a product. Sizes carry the purchasable SKUs.
type Variant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_variants_product_color" json:"product_id"`
	Color     string         `gorm:"not null;uniqueIndex:idx_variants_product_color,where:deleted_at IS NULL" json:"color"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	Images    ImageList      `gorm:"type:text" json:"images"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Product Product       `gorm:"foreignKey:ProductID" json:"-"`
	Sizes   []VariantSize `gorm:"foreignKey:VariantID" json:"sizes,omitempty"`
}

func (Variant) TableName() string {
	return "variants"
}

// VariantSize is one size entry of a variant. SKU uniqueness is catalog-wide
// and backed by the unique index; service-level pre-checks are an
// optimization on top of it. Size rows are hard-deleted so a removed SKU is
// immediately reusable.
type VariantSize struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	VariantID uint      `gorm:"not null;index" json:"variant_id"`
	Size      string    `gorm:"not null" json:"size"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	SKU       string    `gorm:"column:sku;uniqueIndex;not null" json:"sku"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Variant Variant `gorm:"foreignKey:VariantID" json:"-"`
}

func (VariantSize) TableName() string {
	return "variant_sizes"
}

// NormalizeSKU canonicalizes a SKU: trimmed, upper-case.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
