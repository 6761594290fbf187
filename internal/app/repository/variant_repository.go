package repository

import (
	"errors"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

type VariantRepository interface {
	WithTx(tx *gorm.DB) VariantRepository
	Create(variant *model.Variant) error
	CreateBatch(variants []*model.Variant) error
	FindByID(id uint) (*model.Variant, error)
	FindByProductID(productID uint) ([]model.Variant, error)
	Update(variant *model.Variant) error
	Delete(variant *model.Variant) error

	FindSizeByID(variantID, sizeID uint) (*model.VariantSize, error)
	CreateSize(size *model.VariantSize) error
	UpdateSize(size *model.VariantSize) error
	DeleteSize(size *model.VariantSize) error

	// FindSizesBySKUs returns existing size rows owning any of the given
	// normalized SKUs, across the whole catalog.
	FindSizesBySKUs(skus []string) ([]model.VariantSize, error)
	// SKUOwnedByOther reports whether any variant other than excludeVariantID
	// owns the normalized SKU.
	SKUOwnedByOther(sku string, excludeVariantID uint) (bool, error)

	// SumStock aggregates stock across sizes of active variants of a product.
	// When activeSizesOnly is set, inactive sizes are excluded too.
	SumStock(productID uint, activeSizesOnly bool) (int, error)

	// DecrementSizeStock conditionally subtracts qty from a size's stock.
	// Returns ErrInsufficientStock when the row has less than qty left.
	DecrementSizeStock(sizeID uint, qty int) error
}

// ErrInsufficientStock is returned when a conditional stock decrement finds
// less stock than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) WithTx(tx *gorm.DB) VariantRepository {
	return &variantRepository{db: tx}
}

func (r *variantRepository) Create(variant *model.Variant) error {
	if err := r.db.Create(variant).Error; err != nil {
		logger.Error("Failed to create variant in database", err, map[string]interface{}{
			"product_id": variant.ProductID,
			"color":      variant.Color,
		})
		return err
	}
	return nil
}

func (r *variantRepository) CreateBatch(variants []*model.Variant) error {
	if err := r.db.Create(variants).Error; err != nil {
		logger.Error("Failed to create variant batch in database", err, map[string]interface{}{
			"count": len(variants),
		})
		return err
	}
	return nil
}

func (r *variantRepository) FindByID(id uint) (*model.Variant, error) {
	var variant model.Variant
	err := r.db.Preload("Sizes", func(db *gorm.DB) *gorm.DB {
		return db.Order("variant_sizes.id ASC")
	}).First(&variant, id).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) FindByProductID(productID uint) ([]model.Variant, error) {
	var variants []model.Variant
	err := r.db.Where("product_id = ?", productID).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("variant_sizes.id ASC")
		}).
		Order("id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *variantRepository) Update(variant *model.Variant) error {
	if err := r.db.Save(variant).Error; err != nil {
		logger.Error("Failed to update variant in database", err, map[string]interface{}{
			"variant_id": variant.ID,
		})
		return err
	}
	return nil
}

func (r *variantRepository) Delete(variant *model.Variant) error {
	if err := r.db.Where("variant_id = ?", variant.ID).Delete(&model.VariantSize{}).Error; err != nil {
		logger.Error("Failed to delete variant sizes in database", err, map[string]interface{}{
			"variant_id": variant.ID,
		})
		return err
	}
	if err := r.db.Delete(variant).Error; err != nil {
		logger.Error("Failed to delete variant in database", err, map[string]interface{}{
			"variant_id": variant.ID,
		})
		return err
	}
	return nil
}

func (r *variantRepository) FindSizeByID(variantID, sizeID uint) (*model.VariantSize, error) {
	var size model.VariantSize
	err := r.db.Where("variant_id = ? AND id = ?", variantID, sizeID).First(&size).Error
	if err != nil {
		return nil, err
	}
	return &size, nil
}

func (r *variantRepository) CreateSize(size *model.VariantSize) error {
	if err := r.db.Create(size).Error; err != nil {
		logger.Error("Failed to create size in database", err, map[string]interface{}{
			"variant_id": size.VariantID,
			"sku":        size.SKU,
		})
		return err
	}
	return nil
}

func (r *variantRepository) UpdateSize(size *model.VariantSize) error {
	if err := r.db.Save(size).Error; err != nil {
		logger.Error("Failed to update size in database", err, map[string]interface{}{
			"size_id": size.ID,
		})
		return err
	}
	return nil
}

func (r *variantRepository) DeleteSize(size *model.VariantSize) error {
	if err := r.db.Delete(size).Error; err != nil {
		logger.Error("Failed to delete size in database", err, map[string]interface{}{
			"size_id": size.ID,
		})
		return err
	}
	return nil
}

func (r *variantRepository) FindSizesBySKUs(skus []string) ([]model.VariantSize, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var sizes []model.VariantSize
	if err := r.db.Where("sku IN ?", skus).Find(&sizes).Error; err != nil {
		return nil, err
	}
	return sizes, nil
}

func (r *variantRepository) SKUOwnedByOther(sku string, excludeVariantID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.VariantSize{}).
		Where("sku = ? AND variant_id <> ?", sku, excludeVariantID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *variantRepository) DecrementSizeStock(sizeID uint, qty int) error {
	result := r.db.Model(&model.VariantSize{}).
		Where("id = ? AND stock >= ?", sizeID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		logger.Error("Failed to decrement size stock in database", result.Error, map[string]interface{}{
			"size_id": sizeID,
			"qty":     qty,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *variantRepository) SumStock(productID uint, activeSizesOnly bool) (int, error) {
	query := r.db.Model(&model.VariantSize{}).
		Joins("JOIN variants ON variants.id = variant_sizes.variant_id").
		Where("variants.product_id = ? AND variants.is_active = ? AND variants.deleted_at IS NULL", productID, true)
	if activeSizesOnly {
		query = query.Where("variant_sizes.is_active = ?", true)
	}

	var total int
	err := query.Select("COALESCE(SUM(variant_sizes.stock), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
