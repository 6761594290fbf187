package service

import (
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStockServiceTest(t *testing.T) (StockService, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	variantRepo := repository.NewVariantRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	stock := NewStockService(variantRepo, productRepo)

	product := &model.Product{
		Title:    "Stone Bracelet",
		Slug:     "stone-bracelet",
		Category: model.CategoryBracelets,
		Price:    80000,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return stock, product, testDB
}

func createVariantWithSizes(t *testing.T, testDB *gorm.DB, productID uint, color string, active bool, sizes ...model.VariantSize) *model.Variant {
	t.Helper()
	variant := &model.Variant{
		ProductID: productID,
		Color:     color,
		IsActive:  active,
		Sizes:     sizes,
	}
	require.NoError(t, testDB.Create(variant).Error)
	return variant
}

func loadProduct(t *testing.T, testDB *gorm.DB, id uint) *model.Product {
	t.Helper()
	var product model.Product
	require.NoError(t, testDB.First(&product, id).Error)
	return &product
}

func TestStockService_Recompute(t *testing.T) {
	stock, product, testDB := setupStockServiceTest(t)

	createVariantWithSizes(t, testDB, product.ID, "Red", true,
		model.VariantSize{Size: "2.4", Stock: 5, SKU: "RED-24", IsActive: true},
		model.VariantSize{Size: "2.6", Stock: 0, SKU: "RED-26", IsActive: true},
	)

	total, err := stock.Recompute(product.ID, RecomputeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	stored := loadProduct(t, testDB, product.ID)
	assert.Equal(t, 5, stored.AvailableStock)
	assert.True(t, stored.HasStock)
}

func TestStockService_Recompute_NoVariants(t *testing.T) {
	stock, product, testDB := setupStockServiceTest(t)

	total, err := stock.Recompute(product.ID, RecomputeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	stored := loadProduct(t, testDB, product.ID)
	assert.Equal(t, 0, stored.AvailableStock)
	assert.False(t, stored.HasStock)
}

func TestStockService_Recompute_ExcludesInactiveVariants(t *testing.T) {
	stock, product, testDB := setupStockServiceTest(t)

	createVariantWithSizes(t, testDB, product.ID, "Red", true,
		model.VariantSize{Size: "2.4", Stock: 5, SKU: "RED-24", IsActive: true},
	)
	createVariantWithSizes(t, testDB, product.ID, "Blue", false,
		model.VariantSize{Size: "2.4", Stock: 7, SKU: "BLU-24", IsActive: true},
	)

	total, err := stock.Recompute(product.ID, RecomputeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestStockService_Recompute_ActiveSizesOnly(t *testing.T) {
	stock, product, testDB := setupStockServiceTest(t)

	createVariantWithSizes(t, testDB, product.ID, "Red", true,
		model.VariantSize{Size: "2.4", Stock: 5, SKU: "RED-24", IsActive: true},
		model.VariantSize{Size: "2.6", Stock: 3, SKU: "RED-26", IsActive: false},
	)

	// Default policy counts inactive sizes.
	total, err := stock.Recompute(product.ID, RecomputeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8, total)

	// The sellable view skips them.
	total, err = stock.Recompute(product.ID, RecomputeOptions{ActiveSizesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	stored := loadProduct(t, testDB, product.ID)
	assert.Equal(t, 5, stored.AvailableStock)
}

func TestStockService_RecomputeTx(t *testing.T) {
	stock, product, testDB := setupStockServiceTest(t)

	createVariantWithSizes(t, testDB, product.ID, "Red", true,
		model.VariantSize{Size: "2.4", Stock: 4, SKU: "RED-24", IsActive: true},
	)

	err := testDB.Transaction(func(tx *gorm.DB) error {
		total, err := stock.RecomputeTx(tx, product.ID, RecomputeOptions{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		return nil
	})
	require.NoError(t, err)

	stored := loadProduct(t, testDB, product.ID)
	assert.Equal(t, 4, stored.AvailableStock)
	assert.True(t, stored.HasStock)
}
