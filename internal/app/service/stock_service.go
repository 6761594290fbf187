package service

import (
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

// RecomputeOptions selects the aggregation policy. The default considers
// only the variant-level active flag; ActiveSizesOnly additionally excludes
// inactive size entries.
type RecomputeOptions struct {
	ActiveSizesOnly bool
}

// StockService maintains a product's cached availableStock/hasStock fields.
// The cache is a materialized view over the variant rows: Recompute reads
// the variants and overwrites the product fields, so calling it redundantly
// or concurrently is safe; it never increments.
type StockService interface {
	Recompute(productID uint, opts RecomputeOptions) (int, error)
	// RecomputeTx runs the same recomputation inside an open transaction,
	// for callers that need the cache refresh to commit atomically with a
	// variant mutation.
	RecomputeTx(tx *gorm.DB, productID uint, opts RecomputeOptions) (int, error)
}

type stockService struct {
	variantRepo repository.VariantRepository
	productRepo repository.ProductRepository
}

func NewStockService(variantRepo repository.VariantRepository, productRepo repository.ProductRepository) StockService {
	return &stockService{
		variantRepo: variantRepo,
		productRepo: productRepo,
	}
}

func (s *stockService) Recompute(productID uint, opts RecomputeOptions) (int, error) {
	return s.recompute(s.variantRepo, s.productRepo, productID, opts)
}

func (s *stockService) RecomputeTx(tx *gorm.DB, productID uint, opts RecomputeOptions) (int, error) {
	return s.recompute(s.variantRepo.WithTx(tx), s.productRepo.WithTx(tx), productID, opts)
}

func (s *stockService) recompute(
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
	productID uint,
	opts RecomputeOptions,
) (int, error) {
	total, err := variantRepo.SumStock(productID, opts.ActiveSizesOnly)
	if err != nil {
		logger.Error("Failed to aggregate variant stock", err, map[string]interface{}{
			"product_id": productID,
		})
		return 0, err
	}

	if err := productRepo.UpdateStockCache(productID, total, total > 0); err != nil {
		return 0, err
	}

	logger.Debug("Product stock recomputed", map[string]interface{}{
		"product_id":        productID,
		"available_stock":   total,
		"active_sizes_only": opts.ActiveSizesOnly,
	})
	return total, nil
}
