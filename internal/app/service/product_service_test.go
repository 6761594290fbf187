package service

import (
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) ProductService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return NewProductService(repository.NewProductRepository(testDB))
}

func TestProductService_Create(t *testing.T) {
	productService := setupProductServiceTest(t)

	product, err := productService.Create(CreateProductInput{
		Name:            "  Royal Meenakari Bangle  ",
		Category:        model.CategoryBangles,
		Price:           150000,
		DiscountPercent: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "Royal Meenakari Bangle", product.Title)
	assert.Equal(t, "royal-meenakari-bangle", product.Slug)
	assert.True(t, product.IsActive)
	assert.Equal(t, int64(135000), product.FinalPrice())
}

func TestProductService_Create_Validation(t *testing.T) {
	productService := setupProductServiceTest(t)

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"empty name", CreateProductInput{Category: model.CategoryBangles, Price: 1000}},
		{"zero price", CreateProductInput{Name: "X", Category: model.CategoryBangles}},
		{"unknown category", CreateProductInput{Name: "X", Category: "necklaces", Price: 1000}},
		{"discount out of range", CreateProductInput{Name: "X", Category: model.CategoryBangles, Price: 1000, DiscountPercent: 101}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := productService.Create(tc.input)
			assert.ErrorIs(t, err, ErrInvalidProductInput)
		})
	}
}

func TestProductService_Create_SlugConflict(t *testing.T) {
	productService := setupProductServiceTest(t)

	input := CreateProductInput{
		Name:     "Pearl Bracelet",
		Category: model.CategoryBracelets,
		Price:    90000,
	}
	_, err := productService.Create(input)
	require.NoError(t, err)

	// Different casing slugifies to the same value.
	input.Name = "PEARL bracelet"
	_, err = productService.Create(input)
	assert.ErrorIs(t, err, ErrSlugConflict)
}

func TestProductService_GetBySlug(t *testing.T) {
	productService := setupProductServiceTest(t)

	created, err := productService.Create(CreateProductInput{
		Name:            "Oxidised Bangle",
		Category:        model.CategoryBangles,
		Price:           60000,
		DiscountPercent: 25,
	})
	require.NoError(t, err)

	dto, err := productService.GetBySlug("oxidised-bangle")
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.Product.ID)
	assert.Equal(t, int64(45000), dto.FinalPrice)

	_, err = productService.GetBySlug("missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_Update(t *testing.T) {
	productService := setupProductServiceTest(t)

	product, err := productService.Create(CreateProductInput{
		Name:     "Thread Bangle",
		Category: model.CategoryBangles,
		Price:    30000,
	})
	require.NoError(t, err)

	newName := "Silk Thread Bangle"
	newPrice := int64(35000)
	updated, err := productService.Update(product.ID, UpdateProductInput{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Silk Thread Bangle", updated.Title)
	assert.Equal(t, "silk-thread-bangle", updated.Slug)
	assert.Equal(t, int64(35000), updated.Price)

	badPrice := int64(0)
	_, err = productService.Update(product.ID, UpdateProductInput{Price: &badPrice})
	assert.ErrorIs(t, err, ErrInvalidProductInput)
}

func TestProductService_Delete(t *testing.T) {
	productService := setupProductServiceTest(t)

	product, err := productService.Create(CreateProductInput{
		Name:     "Jadau Bangle",
		Category: model.CategoryBangles,
		Price:    250000,
	})
	require.NoError(t, err)

	require.NoError(t, productService.Delete(product.ID))

	_, err = productService.GetByID(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	err = productService.Delete(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Royal Meenakari Bangle", "royal-meenakari-bangle"},
		{"  Gold-Plated  Kada!  ", "gold-plated-kada"},
		{"2.4\" Glass Set", "2-4-glass-set"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), tc.in)
	}
}
