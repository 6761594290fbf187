package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Cart is owned by either a registered user or an anonymous guest session,
// never both. At most one active cart exists per owner, enforced by the
// partial unique owner indexes; older carts are deactivated, not deleted,
// when merged.
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    *uint          `gorm:"uniqueIndex:idx_carts_user_active,where:is_active AND deleted_at IS NULL" json:"user_id,omitempty"`
	GuestID   *string        `gorm:"type:varchar(64);uniqueIndex:idx_carts_guest_active,where:is_active AND deleted_at IS NULL" json:"guest_id,omitempty"`
	Subtotal  int64          `gorm:"default:0" json:"subtotal"`
	Shipping  int64          `gorm:"default:0" json:"shipping"`
	Discount  int64          `gorm:"default:0" json:"discount"`
	Total     int64          `gorm:"default:0" json:"total"`
	Currency  string         `gorm:"type:varchar(8);default:'INR'" json:"currency"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at,omitempty"` // guest carts only
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem captures the product, variant and size at the moment of adding,
// with the unit price snapshot. Within one active cart no two items share
// (ProductID, VariantID); such adds merge by summing quantity.
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CartID    uint           `gorm:"not null;index" json:"cart_id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	VariantID uint           `gorm:"not null" json:"variant_id"`
	SizeID    uint           `gorm:"not null" json:"size_id"`
	SKU       string         `gorm:"not null" json:"sku"`
	Title     string         `json:"title"`
	Image     string         `json:"image"`
	PriceAt   int64          `gorm:"not null" json:"price_at"` // unit price snapshot in paise
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	AddedAt   time.Time      `json:"added_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Cart Cart `gorm:"foreignKey:CartID" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Recalculate refreshes the monetary totals from the item list. It touches
// only subtotal and total and is idempotent.
func (c *Cart) Recalculate() {
	var subtotal float64
	for _, it := range c.Items {
		subtotal += float64(it.PriceAt) * float64(it.Quantity)
	}
	c.Subtotal = int64(math.Round(subtotal))
	total := c.Subtotal + c.Shipping - c.Discount
	if total < 0 {
		total = 0
	}
	c.Total = total
}

// FindItem returns the index of the item matching (productID, variantID), or
// -1 when absent.
func (c *Cart) FindItem(productID, variantID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
