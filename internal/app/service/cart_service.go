package service

import (
	"errors"
	"strings"
	"time"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidCartInput  = errors.New("invalid cart item input")
	ErrCartOwnerRequired = errors.New("cart owner required")
)

// guestCartTTL bounds how long an anonymous cart stays active.
const guestCartTTL = 30 * 24 * time.Hour

// isCartWriteConflict treats a lost race on the one-active-cart-per-owner
// unique index as transient: the retry re-reads and finds the cart the
// other writer created.
func isCartWriteConflict(err error) bool {
	if apperrors.IsTransientTxError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "idx_carts_user_active") ||
		strings.Contains(msg, "idx_carts_guest_active")
}

// AddItemInput describes an add-to-cart request. PriceAt is the unit price
// snapshot captured by the caller at add time.
type AddItemInput struct {
	ProductID uint
	VariantID uint
	SizeID    uint
	SKU       string
	Title     string
	Image     string
	PriceAt   int64
	Quantity  int
}

// CartService mutates a single owner's active cart. Every mutation runs a
// read-modify-write inside a retried transaction: concurrent writers to the
// same cart serialize at commit, and a retry re-reads the latest state, so
// lost updates are impossible.
type CartService interface {
	GetCart(owner repository.CartOwner) (*model.Cart, error)
	AddOrUpdateItem(owner repository.CartOwner, input AddItemInput) (*model.Cart, error)
	DecrementItem(owner repository.CartOwner, itemID uint, delta int) (*model.Cart, error)
	ClearCart(owner repository.CartOwner) error
	// MergeGuestCart folds a guest cart into the user's cart item by item,
	// then deactivates the guest cart.
	MergeGuestCart(userID uint, guestID string) (*model.Cart, error)
}

type cartService struct {
	db       *gorm.DB
	cartRepo repository.CartRepository
}

func NewCartService(database *gorm.DB, cartRepo repository.CartRepository) CartService {
	return &cartService{
		db:       database,
		cartRepo: cartRepo,
	}
}

func (s *cartService) GetCart(owner repository.CartOwner) (*model.Cart, error) {
	if owner.UserID == nil && owner.GuestID == nil {
		return nil, ErrCartOwnerRequired
	}
	cart, err := s.cartRepo.FindActiveByOwner(owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (s *cartService) AddOrUpdateItem(owner repository.CartOwner, input AddItemInput) (*model.Cart, error) {
	if owner.UserID == nil && owner.GuestID == nil {
		return nil, ErrCartOwnerRequired
	}
	if input.ProductID == 0 || input.VariantID == 0 || input.SizeID == 0 || input.SKU == "" || input.PriceAt < 0 {
		return nil, ErrInvalidCartInput
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    owner.UserID,
		"guest_id":   owner.GuestID,
		"product_id": input.ProductID,
		"variant_id": input.VariantID,
		"quantity":   input.Quantity,
	})

	var saved *model.Cart
	err := db.RunInTxWithClassifier(s.db, isCartWriteConflict, func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		cart, err := repo.FindActiveByOwner(owner)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cart = newCartFor(owner)
			if err := repo.Create(cart); err != nil {
				return err
			}
		}

		now := time.Now()
		if idx := cart.FindItem(input.ProductID, input.VariantID); idx >= 0 {
			// Merge: quantities add, the price snapshot refreshes.
			cart.Items[idx].Quantity += input.Quantity
			cart.Items[idx].PriceAt = input.PriceAt
		} else {
			cart.Items = append(cart.Items, model.CartItem{
				CartID:    cart.ID,
				ProductID: input.ProductID,
				VariantID: input.VariantID,
				SizeID:    input.SizeID,
				SKU:       model.NormalizeSKU(input.SKU),
				Title:     input.Title,
				Image:     input.Image,
				PriceAt:   input.PriceAt,
				Quantity:  input.Quantity,
				AddedAt:   now,
			})
		}

		cart.Recalculate()
		if err := repo.Save(cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"cart_id": saved.ID,
		"items":   len(saved.Items),
		"total":   saved.Total,
	})
	return saved, nil
}

func (s *cartService) DecrementItem(owner repository.CartOwner, itemID uint, delta int) (*model.Cart, error) {
	if owner.UserID == nil && owner.GuestID == nil {
		return nil, ErrCartOwnerRequired
	}
	if delta <= 0 {
		return nil, ErrInvalidQuantity
	}

	var saved *model.Cart
	err := db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		cart, err := repo.FindActiveByOwner(owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartItemNotFound
			}
			return err
		}

		idx := -1
		for i := range cart.Items {
			if cart.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrCartItemNotFound
		}

		newQty := cart.Items[idx].Quantity - delta
		if newQty <= 0 {
			if err := repo.DeleteItem(cart.Items[idx].ID); err != nil {
				return err
			}
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = newQty
			cart.Items[idx].AddedAt = time.Now()
		}

		cart.Recalculate()
		if err := repo.Save(cart); err != nil {
			return err
		}
		saved = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item decremented", map[string]interface{}{
		"cart_id":      saved.ID,
		"cart_item_id": itemID,
		"delta":        delta,
	})
	return saved, nil
}

func (s *cartService) ClearCart(owner repository.CartOwner) error {
	if owner.UserID == nil && owner.GuestID == nil {
		return ErrCartOwnerRequired
	}

	return db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		cart, err := repo.FindActiveByOwner(owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}
		return repo.Delete(cart)
	})
}

func (s *cartService) MergeGuestCart(userID uint, guestID string) (*model.Cart, error) {
	if guestID == "" {
		return nil, ErrCartOwnerRequired
	}

	userOwner := repository.CartOwner{UserID: &userID}
	guestOwner := repository.CartOwner{GuestID: &guestID}

	var saved *model.Cart
	err := db.RunInTxWithClassifier(s.db, isCartWriteConflict, func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		guestCart, err := repo.FindActiveByOwner(guestOwner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to merge; hand back the user cart if one exists.
				cart, err := repo.FindActiveByOwner(userOwner)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCartNotFound
				}
				saved = cart
				return err
			}
			return err
		}

		userCart, err := repo.FindActiveByOwner(userOwner)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			userCart = newCartFor(userOwner)
			if err := repo.Create(userCart); err != nil {
				return err
			}
		}

		now := time.Now()
		for _, it := range guestCart.Items {
			if idx := userCart.FindItem(it.ProductID, it.VariantID); idx >= 0 {
				userCart.Items[idx].Quantity += it.Quantity
				userCart.Items[idx].PriceAt = it.PriceAt
			} else {
				userCart.Items = append(userCart.Items, model.CartItem{
					CartID:    userCart.ID,
					ProductID: it.ProductID,
					VariantID: it.VariantID,
					SizeID:    it.SizeID,
					SKU:       it.SKU,
					Title:     it.Title,
					Image:     it.Image,
					PriceAt:   it.PriceAt,
					Quantity:  it.Quantity,
					AddedAt:   now,
				})
			}
		}

		userCart.Recalculate()
		if err := repo.Save(userCart); err != nil {
			return err
		}

		guestCart.IsActive = false
		if err := repo.Save(guestCart); err != nil {
			return err
		}

		saved = userCart
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"user_id":  userID,
		"guest_id": guestID,
		"cart_id":  saved.ID,
	})
	return saved, nil
}

func newCartFor(owner repository.CartOwner) *model.Cart {
	cart := &model.Cart{
		UserID:   owner.UserID,
		GuestID:  owner.GuestID,
		Currency: "INR",
		IsActive: true,
	}
	if owner.GuestID != nil {
		expires := time.Now().Add(guestCartTTL)
		cart.ExpiresAt = &expires
	}
	return cart
}
