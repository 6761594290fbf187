package service

import (
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWishlistServiceTest(t *testing.T) (WishlistService, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	wishlistService := NewWishlistService(
		repository.NewWishlistRepository(testDB),
		repository.NewProductRepository(testDB),
	)

	email := "wisher@example.com"
	user := &model.User{Email: &email, Name: "Wisher", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)

	product := &model.Product{
		Title:    "Antique Kada",
		Slug:     "antique-kada",
		Category: model.CategoryBracelets,
		Price:    120000,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return wishlistService, user, product
}

func TestWishlistService_AddIsIdempotent(t *testing.T) {
	wishlistService, user, product := setupWishlistServiceTest(t)

	_, err := wishlistService.Add(user.ID, product.ID)
	require.NoError(t, err)

	// A second add is a no-op, not an error.
	_, err = wishlistService.Add(user.ID, product.ID)
	require.NoError(t, err)

	items, err := wishlistService.List(user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWishlistService_Add_ProductNotFound(t *testing.T) {
	wishlistService, user, _ := setupWishlistServiceTest(t)

	_, err := wishlistService.Add(user.ID, 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestWishlistService_Remove(t *testing.T) {
	wishlistService, user, product := setupWishlistServiceTest(t)

	_, err := wishlistService.Add(user.ID, product.ID)
	require.NoError(t, err)

	require.NoError(t, wishlistService.Remove(user.ID, product.ID))

	err = wishlistService.Remove(user.ID, product.ID)
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
}

func TestWishlistService_Toggle(t *testing.T) {
	wishlistService, user, product := setupWishlistServiceTest(t)

	added, err := wishlistService.Toggle(user.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = wishlistService.Toggle(user.ID, product.ID)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := wishlistService.List(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
