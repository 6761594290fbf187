package service

import (
	"errors"
	"fmt"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	apperrors "github.com/shoaibhasann/zahra/internal/errors"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrVariantNotFound       = errors.New("variant not found")
	ErrSizeNotFound          = errors.New("size not found")
	ErrNoSizes               = errors.New("variant payload must include at least one size")
	ErrInvalidStock          = errors.New("stock must be a non-negative integer")
	ErrDuplicateSKUInPayload = errors.New("duplicate sku in payload")
	ErrDuplicateColor        = errors.New("duplicate variant color in payload")
	// ErrSKUConflict reports a catalog-wide SKU uniqueness violation; the
	// wrapped message names the offending SKU.
	ErrSKUConflict = errors.New("sku already exists in catalog")
)

// SizeInput is one size entry of a variant creation payload.
type SizeInput struct {
	Size     string
	Stock    int
	SKU      string
	IsActive *bool
}

// CreateVariantInput is the payload for creating one variant.
type CreateVariantInput struct {
	Color  string
	Images []model.Image
	Sizes  []SizeInput
}

// UpdateVariantInput patches variant-level fields; nil means unchanged.
type UpdateVariantInput struct {
	Color    *string
	IsActive *bool
	Images   []model.Image
}

// UpdateSizeInput patches one size entry; nil means unchanged.
type UpdateSizeInput struct {
	Size     *string
	Stock    *int
	SKU      *string
	IsActive *bool
}

// VariantService is the catalog's SKU registry: it owns variant and size
// lifecycle and enforces catalog-wide SKU uniqueness. The service-level
// pre-checks give precise errors; the unique index on variant_sizes.sku is
// the actual guard, and duplicate-key failures that slip past a pre-check
// are translated to the same conflict outcome.
type VariantService interface {
	CreateVariant(productID uint, input CreateVariantInput) (*model.Variant, error)
	CreateVariants(productID uint, inputs []CreateVariantInput) ([]model.Variant, error)
	GetVariant(variantID uint) (*model.Variant, error)
	ListByProduct(productID uint) ([]model.Variant, error)
	UpdateVariant(variantID uint, input UpdateVariantInput) (*model.Variant, error)
	DeleteVariant(variantID uint) error

	AddSize(variantID uint, input SizeInput) (*model.VariantSize, error)
	UpdateSize(variantID, sizeID uint, input UpdateSizeInput) (*model.VariantSize, error)
	DeleteSize(variantID, sizeID uint) error
}

type variantService struct {
	db          *gorm.DB
	variantRepo repository.VariantRepository
	productRepo repository.ProductRepository
	stock       StockService
}

func NewVariantService(
	database *gorm.DB,
	variantRepo repository.VariantRepository,
	productRepo repository.ProductRepository,
	stock StockService,
) VariantService {
	return &variantService{
		db:          database,
		variantRepo: variantRepo,
		productRepo: productRepo,
		stock:       stock,
	}
}

func (s *variantService) CreateVariant(productID uint, input CreateVariantInput) (*model.Variant, error) {
	skus, err := normalizePayloadSKUs([]CreateVariantInput{input})
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := s.checkCatalogSKUs(skus); err != nil {
		return nil, err
	}

	variant := buildVariant(productID, input)

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).Create(variant); err != nil {
			return translateDuplicateSKU(err)
		}
		return s.adoptVariantImage(tx, product, variant)
	})
	if err != nil {
		return nil, err
	}

	s.recomputeAfterCommit(productID)

	logger.Info("Variant created", map[string]interface{}{
		"variant_id": variant.ID,
		"product_id": productID,
		"color":      variant.Color,
		"sizes":      len(variant.Sizes),
	})
	return variant, nil
}

func (s *variantService) CreateVariants(productID uint, inputs []CreateVariantInput) ([]model.Variant, error) {
	if len(inputs) == 0 {
		return nil, ErrNoSizes
	}

	colors := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := colors[in.Color]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColor, in.Color)
		}
		colors[in.Color] = struct{}{}
	}

	skus, err := normalizePayloadSKUs(inputs)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := s.checkCatalogSKUs(skus); err != nil {
		return nil, err
	}

	variants := make([]*model.Variant, 0, len(inputs))
	for _, in := range inputs {
		variants = append(variants, buildVariant(productID, in))
	}

	// All-or-nothing: any insert failure rolls back the whole batch, and
	// the stock cache refresh commits with the inserts.
	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).CreateBatch(variants); err != nil {
			return translateDuplicateSKU(err)
		}
		if err := s.adoptVariantImage(tx, product, variants[0]); err != nil {
			return err
		}
		_, err := s.stock.RecomputeTx(tx, productID, RecomputeOptions{})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Variant batch created", map[string]interface{}{
		"product_id": productID,
		"count":      len(variants),
	})

	result := make([]model.Variant, 0, len(variants))
	for _, v := range variants {
		result = append(result, *v)
	}
	return result, nil
}

func (s *variantService) GetVariant(variantID uint) (*model.Variant, error) {
	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return variant, nil
}

func (s *variantService) ListByProduct(productID uint) ([]model.Variant, error) {
	return s.variantRepo.FindByProductID(productID)
}

func (s *variantService) UpdateVariant(variantID uint, input UpdateVariantInput) (*model.Variant, error) {
	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	if input.Color != nil {
		variant.Color = *input.Color
	}
	if input.IsActive != nil {
		variant.IsActive = *input.IsActive
	}
	if input.Images != nil {
		variant.Images = input.Images
	}

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		return s.variantRepo.WithTx(tx).Update(variant)
	})
	if err != nil {
		return nil, err
	}

	// An active-flag flip changes the aggregate.
	s.recomputeAfterCommit(variant.ProductID)
	return variant, nil
}

func (s *variantService) DeleteVariant(variantID uint) error {
	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariantNotFound
		}
		return err
	}

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		return s.variantRepo.WithTx(tx).Delete(variant)
	})
	if err != nil {
		return err
	}

	s.recomputeAfterCommit(variant.ProductID)

	logger.Info("Variant deleted", map[string]interface{}{
		"variant_id": variantID,
		"product_id": variant.ProductID,
	})
	return nil
}

func (s *variantService) AddSize(variantID uint, input SizeInput) (*model.VariantSize, error) {
	sku := model.NormalizeSKU(input.SKU)
	if sku == "" || input.Size == "" {
		return nil, ErrNoSizes
	}
	if input.Stock < 0 {
		return nil, ErrInvalidStock
	}

	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	for _, existing := range variant.Sizes {
		if existing.SKU == sku {
			return nil, fmt.Errorf("%w: %s", ErrSKUConflict, sku)
		}
	}
	taken, err := s.variantRepo.SKUOwnedByOther(sku, variantID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrSKUConflict, sku)
	}

	size := &model.VariantSize{
		VariantID: variantID,
		Size:      input.Size,
		Stock:     input.Stock,
		SKU:       sku,
		IsActive:  input.IsActive == nil || *input.IsActive,
	}

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).CreateSize(size); err != nil {
			return translateDuplicateSKU(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recomputeAfterCommit(variant.ProductID)
	return size, nil
}

func (s *variantService) UpdateSize(variantID, sizeID uint, input UpdateSizeInput) (*model.VariantSize, error) {
	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}

	size, err := s.variantRepo.FindSizeByID(variantID, sizeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSizeNotFound
		}
		return nil, err
	}

	if input.SKU != nil {
		sku := model.NormalizeSKU(*input.SKU)
		if sku == "" {
			return nil, ErrNoSizes
		}
		if sku != size.SKU {
			taken, err := s.variantRepo.SKUOwnedByOther(sku, variantID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("%w: %s", ErrSKUConflict, sku)
			}
			size.SKU = sku
		}
	}
	if input.Size != nil {
		size.Size = *input.Size
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, ErrInvalidStock
		}
		size.Stock = *input.Stock
	}
	if input.IsActive != nil {
		size.IsActive = *input.IsActive
	}

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).UpdateSize(size); err != nil {
			return translateDuplicateSKU(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recomputeAfterCommit(variant.ProductID)
	return size, nil
}

func (s *variantService) DeleteSize(variantID, sizeID uint) error {
	variant, err := s.variantRepo.FindByID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVariantNotFound
		}
		return err
	}

	size, err := s.variantRepo.FindSizeByID(variantID, sizeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSizeNotFound
		}
		return err
	}

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		return s.variantRepo.WithTx(tx).DeleteSize(size)
	})
	if err != nil {
		return err
	}

	s.recomputeAfterCommit(variant.ProductID)
	return nil
}

// normalizePayloadSKUs canonicalizes every SKU in the payload in place and
// rejects payloads whose SKUs collide after normalization. Returns the flat
// normalized SKU list.
func normalizePayloadSKUs(inputs []CreateVariantInput) ([]string, error) {
	seen := make(map[string]struct{})
	var skus []string
	for vi := range inputs {
		if len(inputs[vi].Sizes) == 0 {
			return nil, ErrNoSizes
		}
		for si := range inputs[vi].Sizes {
			size := &inputs[vi].Sizes[si]
			if size.Stock < 0 {
				return nil, ErrInvalidStock
			}
			sku := model.NormalizeSKU(size.SKU)
			if sku == "" {
				return nil, ErrNoSizes
			}
			if _, dup := seen[sku]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSKUInPayload, sku)
			}
			seen[sku] = struct{}{}
			size.SKU = sku
			skus = append(skus, sku)
		}
	}
	return skus, nil
}

// checkCatalogSKUs fails with ErrSKUConflict when any of the normalized SKUs
// is already owned somewhere in the catalog.
func (s *variantService) checkCatalogSKUs(skus []string) error {
	existing, err := s.variantRepo.FindSizesBySKUs(skus)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", ErrSKUConflict, existing[0].SKU)
	}
	return nil
}

// adoptVariantImage copies the variant's first image onto the product when
// the product has none yet.
func (s *variantService) adoptVariantImage(tx *gorm.DB, product *model.Product, variant *model.Variant) error {
	if len(product.Images) > 0 || len(variant.Images) == 0 {
		return nil
	}
	product.Images = model.ImageList{variant.Images[0]}
	return s.productRepo.WithTx(tx).Update(product)
}

// recomputeAfterCommit refreshes the product stock cache after a variant
// mutation has committed. The cache is eventually consistent: a failure here
// is logged and never unwinds the mutation that triggered it.
func (s *variantService) recomputeAfterCommit(productID uint) {
	if _, err := s.stock.Recompute(productID, RecomputeOptions{}); err != nil {
		logger.Error("Stock recompute after variant mutation failed", err, map[string]interface{}{
			"product_id": productID,
		})
	}
}

// translateDuplicateSKU maps a storage duplicate-key failure on the SKU index
// to the same conflict outcome as the pre-check. A race between pre-check and
// insert ends up here.
func translateDuplicateSKU(err error) error {
	if apperrors.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrSKUConflict, err)
	}
	return err
}

func buildVariant(productID uint, input CreateVariantInput) *model.Variant {
	sizes := make([]model.VariantSize, 0, len(input.Sizes))
	for _, in := range input.Sizes {
		sizes = append(sizes, model.VariantSize{
			Size:     in.Size,
			Stock:    in.Stock,
			SKU:      in.SKU,
			IsActive: in.IsActive == nil || *in.IsActive,
		})
	}
	return &model.Variant{
		ProductID: productID,
		Color:     input.Color,
		IsActive:  true,
		Images:    input.Images,
		Sizes:     sizes,
	}
}
