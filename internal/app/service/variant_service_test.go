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

func setupVariantServiceTest(t *testing.T) (VariantService, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	variantRepo := repository.NewVariantRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	stock := NewStockService(variantRepo, productRepo)
	variantService := NewVariantService(testDB, variantRepo, productRepo, stock)

	product := &model.Product{
		Title:    "Glass Bangle Set",
		Slug:     "glass-bangle-set",
		Category: model.CategoryBangles,
		Price:    50000,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return variantService, product, testDB
}

func variantInput(color string, skus ...string) CreateVariantInput {
	input := CreateVariantInput{Color: color}
	for _, sku := range skus {
		input.Sizes = append(input.Sizes, SizeInput{Size: "2.4", Stock: 5, SKU: sku})
	}
	return input
}

func TestVariantService_CreateVariant(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)

	assert.Equal(t, product.ID, variant.ProductID)
	require.Len(t, variant.Sizes, 1)
	// SKUs are normalized on the way in.
	assert.Equal(t, "RED-24", variant.Sizes[0].SKU)

	// The stock cache is recomputed after commit.
	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 5, stored.AvailableStock)
	assert.True(t, stored.HasStock)
}

func TestVariantService_CreateVariant_ProductNotFound(t *testing.T) {
	variantService, _, _ := setupVariantServiceTest(t)

	_, err := variantService.CreateVariant(9999, variantInput("Red", "red-24"))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestVariantService_CreateVariant_DuplicateSKUInPayload(t *testing.T) {
	variantService, product, _ := setupVariantServiceTest(t)

	// Same SKU twice after normalization.
	_, err := variantService.CreateVariant(product.ID, variantInput("Red", "RED-24", " red-24 "))
	assert.ErrorIs(t, err, ErrDuplicateSKUInPayload)
}

func TestVariantService_CreateVariant_CatalogSKUConflict(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	_, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)

	_, err = variantService.CreateVariant(product.ID, variantInput("Blue", "RED-24"))
	assert.ErrorIs(t, err, ErrSKUConflict)

	// The losing payload leaves no partial rows behind.
	var variants int64
	require.NoError(t, testDB.Model(&model.Variant{}).Count(&variants).Error)
	assert.Equal(t, int64(1), variants)
}

func TestVariantService_CreateVariant_NoSizes(t *testing.T) {
	variantService, product, _ := setupVariantServiceTest(t)

	_, err := variantService.CreateVariant(product.ID, CreateVariantInput{Color: "Red"})
	assert.ErrorIs(t, err, ErrNoSizes)
}

func TestVariantService_CreateVariants_Batch(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	variants, err := variantService.CreateVariants(product.ID, []CreateVariantInput{
		variantInput("Red", "red-24", "red-26"),
		variantInput("Green", "grn-24"),
	})
	require.NoError(t, err)
	assert.Len(t, variants, 2)

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 15, stored.AvailableStock)
}

func TestVariantService_CreateVariants_AllOrNothing(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	_, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)

	// Second entry collides with an existing SKU; the whole batch rolls back.
	_, err = variantService.CreateVariants(product.ID, []CreateVariantInput{
		variantInput("Green", "grn-24"),
		variantInput("Blue", "red-24"),
	})
	assert.ErrorIs(t, err, ErrSKUConflict)

	var variants int64
	require.NoError(t, testDB.Model(&model.Variant{}).Count(&variants).Error)
	assert.Equal(t, int64(1), variants)
}

func TestVariantService_CreateVariants_DuplicateColor(t *testing.T) {
	variantService, product, _ := setupVariantServiceTest(t)

	_, err := variantService.CreateVariants(product.ID, []CreateVariantInput{
		variantInput("Red", "red-24"),
		variantInput("red", "red-26"),
	})
	assert.ErrorIs(t, err, ErrDuplicateColor)
}

func TestVariantService_AddSize(t *testing.T) {
	variantService, product, _ := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)

	size, err := variantService.AddSize(variant.ID, SizeInput{Size: "2.6", Stock: 3, SKU: "red-26"})
	require.NoError(t, err)
	assert.Equal(t, "RED-26", size.SKU)

	_, err = variantService.AddSize(variant.ID, SizeInput{Size: "2.8", Stock: 1, SKU: "red-24"})
	assert.ErrorIs(t, err, ErrSKUConflict)

	_, err = variantService.AddSize(variant.ID, SizeInput{Size: "2.8", Stock: -1, SKU: "red-28"})
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestVariantService_UpdateSize(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)
	other, err := variantService.CreateVariant(product.ID, variantInput("Blue", "blu-24"))
	require.NoError(t, err)

	newStock := 10
	size, err := variantService.UpdateSize(variant.ID, variant.Sizes[0].ID, UpdateSizeInput{Stock: &newStock})
	require.NoError(t, err)
	assert.Equal(t, 10, size.Stock)

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 15, stored.AvailableStock)

	// Moving a size onto a SKU owned by another variant is a conflict.
	taken := "BLU-24"
	_, err = variantService.UpdateSize(variant.ID, variant.Sizes[0].ID, UpdateSizeInput{SKU: &taken})
	assert.ErrorIs(t, err, ErrSKUConflict)

	// Re-asserting its own SKU is not.
	own := "red-24"
	_, err = variantService.UpdateSize(variant.ID, variant.Sizes[0].ID, UpdateSizeInput{SKU: &own})
	assert.NoError(t, err)

	_ = other
}

func TestVariantService_UpdateVariant_ActiveFlagRecomputesStock(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24"))
	require.NoError(t, err)

	inactive := false
	updated, err := variantService.UpdateVariant(variant.ID, UpdateVariantInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 0, stored.AvailableStock)
	assert.False(t, stored.HasStock)

	active := true
	_, err = variantService.UpdateVariant(variant.ID, UpdateVariantInput{IsActive: &active})
	require.NoError(t, err)

	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 5, stored.AvailableStock)
	assert.True(t, stored.HasStock)

	_, err = variantService.UpdateVariant(9999, UpdateVariantInput{IsActive: &active})
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestVariantService_DeleteSizeAndVariant(t *testing.T) {
	variantService, product, testDB := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24", "red-26"))
	require.NoError(t, err)

	require.NoError(t, variantService.DeleteSize(variant.ID, variant.Sizes[0].ID))

	var stored model.Product
	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 5, stored.AvailableStock)

	require.NoError(t, variantService.DeleteVariant(variant.ID))

	require.NoError(t, testDB.First(&stored, product.ID).Error)
	assert.Equal(t, 0, stored.AvailableStock)
	assert.False(t, stored.HasStock)

	err = variantService.DeleteSize(variant.ID, 9999)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestVariantService_DeletedSKUIsReusable(t *testing.T) {
	variantService, product, _ := setupVariantServiceTest(t)

	variant, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24", "red-26"))
	require.NoError(t, err)

	// Deleting a size frees its SKU for the rest of the catalog.
	require.NoError(t, variantService.DeleteSize(variant.ID, variant.Sizes[0].ID))

	size, err := variantService.AddSize(variant.ID, SizeInput{Size: "2.8", Stock: 2, SKU: "red-24"})
	require.NoError(t, err)
	assert.Equal(t, "RED-24", size.SKU)

	// Deleting a whole variant frees every SKU it held.
	require.NoError(t, variantService.DeleteVariant(variant.ID))

	recreated, err := variantService.CreateVariant(product.ID, variantInput("Red", "red-24", "red-26"))
	require.NoError(t, err)
	require.Len(t, recreated.Sizes, 2)
	assert.Equal(t, "RED-24", recreated.Sizes[0].SKU)
}
