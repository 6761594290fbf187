package repository

import (
	"time"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

// CartOwner identifies who a cart belongs to: a registered user or an
// anonymous guest session, never both.
type CartOwner struct {
	UserID  *uint
	GuestID *string
}

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	// FindActiveByOwner loads the owner's single active cart with its items
	// in insertion order.
	FindActiveByOwner(owner CartOwner) (*model.Cart, error)
	Create(cart *model.Cart) error
	Save(cart *model.Cart) error
	Delete(cart *model.Cart) error
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(itemID uint) error
	// DeactivateExpired marks guest carts past their expiry inactive and
	// returns how many were swept.
	DeactivateExpired(now time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) FindActiveByOwner(owner CartOwner) (*model.Cart, error) {
	query := r.db.Where("is_active = ?", true)
	switch {
	case owner.UserID != nil:
		query = query.Where("user_id = ?", *owner.UserID)
	case owner.GuestID != nil:
		query = query.Where("guest_id = ?", *owner.GuestID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var cart model.Cart
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.added_at ASC, cart_items.id ASC")
	}).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Create(cart *model.Cart) error {
	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id":  cart.UserID,
			"guest_id": cart.GuestID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Save(cart *model.Cart) error {
	if err := r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error; err != nil {
		logger.Error("Failed to save cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Delete(cart *model.Cart) error {
	if err := r.db.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items in database", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	if err := r.db.Delete(cart).Error; err != nil {
		logger.Error("Failed to delete cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item in database", err, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeactivateExpired(now time.Time) (int64, error) {
	result := r.db.Model(&model.Cart{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate expired carts", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
