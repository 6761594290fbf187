package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidProductInput = errors.New("invalid product input")
	ErrSlugConflict        = errors.New("product slug already exists")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CreateProductInput is the payload for registering a product.
type CreateProductInput struct {
	Name            string
	Description     string
	Category        model.ProductCategory
	Price           int64
	DiscountPercent int
	Images          []model.Image
}

// UpdateProductInput patches product fields; nil means unchanged.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	Category        *model.ProductCategory
	Price           *int64
	DiscountPercent *int
	IsActive        *bool
	Images          []model.Image
}

// ProductDTO is the read shape of a product; FinalPrice is derived at read
// time from the stored price and discount, never persisted.
type ProductDTO struct {
	Product    model.Product `json:"product"`
	FinalPrice int64         `json:"final_price"`
}

type ProductService interface {
	Create(input CreateProductInput) (*model.Product, error)
	GetByID(productID uint) (*ProductDTO, error)
	GetBySlug(slug string) (*ProductDTO, error)
	List(filter repository.ProductFilter) ([]ProductDTO, int64, error)
	Update(productID uint, input UpdateProductInput) (*model.Product, error)
	Delete(productID uint) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) Create(input CreateProductInput) (*model.Product, error) {
	if input.Name == "" || input.Price <= 0 {
		return nil, ErrInvalidProductInput
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return nil, ErrInvalidProductInput
	}
	if input.Category != model.CategoryBangles && input.Category != model.CategoryBracelets {
		return nil, ErrInvalidProductInput
	}

	product := &model.Product{
		Title:           strings.TrimSpace(input.Name),
		Slug:            Slugify(input.Name),
		Description:     input.Description,
		Category:        input.Category,
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		Images:          input.Images,
		IsActive:        true,
	}

	if err := s.productRepo.Create(product); err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugConflict, product.Slug)
		}
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
		"category":   product.Category,
	})
	return product, nil
}

func (s *productService) GetByID(productID uint) (*ProductDTO, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *productService) GetBySlug(slug string) (*ProductDTO, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *productService) List(filter repository.ProductFilter) ([]ProductDTO, int64, error) {
	products, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *toProductDTO(&products[i]))
	}
	return dtos, total, nil
}

func (s *productService) Update(productID uint, input UpdateProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		product.Title = strings.TrimSpace(*input.Name)
		product.Slug = Slugify(product.Title)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category != model.CategoryBangles && *input.Category != model.CategoryBracelets {
			return nil, ErrInvalidProductInput
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, ErrInvalidProductInput
		}
		product.Price = *input.Price
	}
	if input.DiscountPercent != nil {
		if *input.DiscountPercent < 0 || *input.DiscountPercent > 100 {
			return nil, ErrInvalidProductInput
		}
		product.DiscountPercent = *input.DiscountPercent
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := s.productRepo.Update(product); err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugConflict, product.Slug)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(productID uint) error {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if err := s.productRepo.Delete(product); err != nil {
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": productID,
		"slug":       product.Slug,
	})
	return nil
}

func toProductDTO(product *model.Product) *ProductDTO {
	return &ProductDTO{
		Product:    *product,
		FinalPrice: product.FinalPrice(),
	}
}

// Slugify lowercases the name and collapses non-alphanumeric runs to single
// hyphens.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}
