package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type ProductCategory string

const (
	CategoryBangles   ProductCategory = "bangles"
	CategoryBracelets ProductCategory = "bracelets"
)

// Product prices are stored in paise. AvailableStock and HasStock are a
// materialized view over the product's variants, written only by the stock
// aggregator; they are never incremented in place.
type Product struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	Title           string          `gorm:"not null" json:"title"`
	Slug            string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description     string          `gorm:"type:text" json:"description"`
	Category        ProductCategory `gorm:"type:varchar(50);index" json:"category"`
	Price           int64           `gorm:"not null" json:"price"`
	DiscountPercent int             `gorm:"default:0" json:"discount_percent"` // 0..60
	HSNCode         string          `gorm:"type:varchar(20)" json:"hsn_code"`
	Images          ImageList       `gorm:"type:text" json:"images"`
	Ratings         float64         `gorm:"default:0" json:"ratings"`
	NumberOfReviews int             `gorm:"default:0" json:"number_of_reviews"`
	IsActive        bool            `gorm:"default:true;index" json:"is_active"`
	AvailableStock  int             `gorm:"default:0;index" json:"available_stock"`
	HasStock        bool            `gorm:"default:false;index" json:"has_stock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Variants []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Reviews  []Review  `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// FinalPrice is the discount-adjusted price, derived at read time and never
// stored.
func (p *Product) FinalPrice() int64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	discounted := float64(p.Price) - float64(p.Price)*float64(p.DiscountPercent)/100
	return int64(math.Round(discounted))
}
