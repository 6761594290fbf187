package repository

import (
	"fmt"
	"strings"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows and pages catalog listings.
type ProductFilter struct {
	Category string
	Search   string
	MinPrice *int64
	MaxPrice *int64
	InStock  bool
	SortBy   string // price_asc, price_desc, newest, ratings
	Page     int
	PageSize int
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	List(filter ProductFilter) ([]model.Product, int64, error)
	Update(product *model.Product) error
	Delete(product *model.Product) error
	// UpdateStockCache overwrites the materialized stock fields. Only the
	// stock aggregator calls this.
	UpdateStockCache(productID uint, available int, hasStock bool) error
	UpdateRatingStats(productID uint, ratings float64, count int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"slug": product.Slug,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("slug = ?", slug).
		Preload("Variants", "is_active = ?", true).
		Preload("Variants.Sizes").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(filter ProductFilter) ([]model.Product, int64, error) {
	query := r.db.Model(&model.Product{}).Where("is_active = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		query = query.Where("has_stock = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	case "ratings":
		query = query.Order("ratings DESC")
	default:
		query = query.Order("created_at DESC")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(product *model.Product) error {
	if err := r.db.Delete(product).Error; err != nil {
		logger.Error("Failed to delete product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) UpdateStockCache(productID uint, available int, hasStock bool) error {
	err := r.db.Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"available_stock": available,
			"has_stock":       hasStock,
		}).Error
	if err != nil {
		logger.Error("Failed to update product stock cache", err, map[string]interface{}{
			"product_id": productID,
			"available":  available,
		})
		return fmt.Errorf("update stock cache: %w", err)
	}
	return nil
}

func (r *productRepository) UpdateRatingStats(productID uint, ratings float64, count int) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"ratings":           ratings,
			"number_of_reviews": count,
		}).Error
}
