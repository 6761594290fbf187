package service

import (
	"errors"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound     = errors.New("review not found")
	ErrReviewExists       = errors.New("product already reviewed by this user")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrReviewAccessDenied = errors.New("review belongs to another user")
)

// ReviewInput carries a rating and optional comment.
type ReviewInput struct {
	Rating  int
	Comment string
}

// ReviewService manages product reviews. One review per user per product;
// the product's rating average and count are refreshed after every change.
type ReviewService interface {
	Create(userID, productID uint, input ReviewInput) (*model.Review, error)
	ListByProduct(productID uint, page, pageSize int) ([]model.Review, int64, error)
	Update(reviewID, userID uint, input ReviewInput) (*model.Review, error)
	Delete(reviewID, userID uint, isAdmin bool) error
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

func (s *reviewService) Create(userID, productID uint, input ReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return nil, ErrReviewExists
		}
		return nil, err
	}

	s.refreshRatingStats(productID)
	return review, nil
}

func (s *reviewService) ListByProduct(productID uint, page, pageSize int) ([]model.Review, int64, error) {
	return s.reviewRepo.FindByProductID(productID, page, pageSize)
}

func (s *reviewService) Update(reviewID, userID uint, input ReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrReviewAccessDenied
	}

	review.Rating = input.Rating
	review.Comment = input.Comment
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}

	s.refreshRatingStats(review.ProductID)
	return review, nil
}

func (s *reviewService) Delete(reviewID, userID uint, isAdmin bool) error {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if !isAdmin && review.UserID != userID {
		return ErrReviewAccessDenied
	}

	if err := s.reviewRepo.Delete(review); err != nil {
		return err
	}

	s.refreshRatingStats(review.ProductID)
	return nil
}

// refreshRatingStats recomputes the product's rating cache. Failures are
// logged; the review mutation itself has already committed.
func (s *reviewService) refreshRatingStats(productID uint) {
	avg, count, err := s.reviewRepo.Aggregate(productID)
	if err == nil {
		err = s.productRepo.UpdateRatingStats(productID, avg, count)
	}
	if err != nil {
		logger.Error("Failed to refresh product rating stats", err, map[string]interface{}{
			"product_id": productID,
		})
	}
}
