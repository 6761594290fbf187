package service

import (
	"errors"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"gorm.io/gorm"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistService manages per-user product wishlists. Adding an already
// wished product is a no-op.
type WishlistService interface {
	Add(userID, productID uint) (*model.WishlistItem, error)
	Remove(userID, productID uint) error
	List(userID uint) ([]model.WishlistItem, error)
	Toggle(userID, productID uint) (added bool, err error)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

func (s *wishlistService) Add(userID, productID uint) (*model.WishlistItem, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	item := &model.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlistRepo.Add(item); err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return item, nil
		}
		return nil, err
	}
	return item, nil
}

func (s *wishlistService) Remove(userID, productID uint) error {
	if err := s.wishlistRepo.Remove(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWishlistItemNotFound
		}
		return err
	}
	return nil
}

func (s *wishlistService) List(userID uint) ([]model.WishlistItem, error) {
	return s.wishlistRepo.FindByUserID(userID)
}

func (s *wishlistService) Toggle(userID, productID uint) (bool, error) {
	exists, err := s.wishlistRepo.Exists(userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.Remove(userID, productID)
	}
	_, err = s.Add(userID, productID)
	return true, err
}
