package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	cartService := NewCartService(testDB, cartRepo)

	email := "test@example.com"
	user := &model.User{
		Email: &email,
		Name:  "Test User",
		Role:  model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	return cartService, user, testDB
}

func userOwner(user *model.User) repository.CartOwner {
	return repository.CartOwner{UserID: &user.ID}
}

func addItemInput(productID, variantID, sizeID uint, price int64, qty int) AddItemInput {
	return AddItemInput{
		ProductID: productID,
		VariantID: variantID,
		SizeID:    sizeID,
		SKU:       "SKU-TEST",
		Title:     "Test Bangle",
		PriceAt:   price,
		Quantity:  qty,
	}
}

func TestCartService_AddOrUpdateItem_CreatesCart(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)

	cart, err := cartService.AddOrUpdateItem(userOwner(user), addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(20000), cart.Subtotal)
	assert.Equal(t, cart.Subtotal+cart.Shipping-cart.Discount, cart.Total)
	assert.True(t, cart.IsActive)
}

func TestCartService_AddOrUpdateItem_MergesSameVariant(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)

	// Same product and variant merges quantities and refreshes the snapshot.
	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 12000, 3))
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(12000), cart.Items[0].PriceAt)
	assert.Equal(t, int64(60000), cart.Subtotal)
}

func TestCartService_AddOrUpdateItem_DistinctVariants(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 1))
	require.NoError(t, err)

	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 2, 3, 15000, 1))
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
	assert.Equal(t, int64(25000), cart.Subtotal)
}

func TestCartService_AddOrUpdateItem_Validation(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	input := addItemInput(1, 1, 1, 10000, 1)
	input.SKU = ""
	_, err = cartService.AddOrUpdateItem(owner, input)
	assert.ErrorIs(t, err, ErrInvalidCartInput)

	_, err = cartService.AddOrUpdateItem(repository.CartOwner{}, addItemInput(1, 1, 1, 10000, 1))
	assert.ErrorIs(t, err, ErrCartOwnerRequired)
}

func TestCartService_DecrementItem(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 3))
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = cartService.DecrementItem(owner, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(20000), cart.Subtotal)
}

func TestCartService_DecrementItem_ToZeroRemovesItem(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = cartService.DecrementItem(owner, itemID, 5)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int64(0), cart.Subtotal)
}

func TestCartService_DecrementItem_NotFound(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)

	_, err = cartService.DecrementItem(owner, 9999, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_DecrementItem_ConcurrentOnLastUnit(t *testing.T) {
	cartService, user, testDB := setupCartServiceTest(t)
	owner := userOwner(user)

	// The in-memory store hands every pooled connection its own database;
	// keep the pool at one so both writers see the same state.
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 1))
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	// Two racing decrements of a single-unit item: exactly one removes the
	// row, the other re-reads inside its transaction and finds it gone.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cartService.DecrementItem(owner, itemID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var removed, notFound int
	for err := range errs {
		switch {
		case err == nil:
			removed++
		case errors.Is(err, ErrCartItemNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, notFound)

	final, err := cartService.GetCart(owner)
	require.NoError(t, err)
	assert.Empty(t, final.Items)
	assert.Equal(t, int64(0), final.Subtotal)
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)
	owner := userOwner(user)

	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(owner))

	_, err = cartService.GetCart(owner)
	assert.ErrorIs(t, err, ErrCartNotFound)

	err = cartService.ClearCart(owner)
	assert.ErrorIs(t, err, ErrCartNotFound)

	// The cleared cart does not block a fresh one for the same owner.
	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 1))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestCartService_GetCart_NotFound(t *testing.T) {
	cartService, user, _ := setupCartServiceTest(t)

	_, err := cartService.GetCart(userOwner(user))
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_GuestCartHasExpiry(t *testing.T) {
	cartService, _, _ := setupCartServiceTest(t)

	guestID := "guest-123"
	owner := repository.CartOwner{GuestID: &guestID}

	cart, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 1))
	require.NoError(t, err)
	require.NotNil(t, cart.ExpiresAt)
	assert.Nil(t, cart.UserID)
}

func TestCartService_MergeGuestCart(t *testing.T) {
	cartService, user, testDB := setupCartServiceTest(t)
	owner := userOwner(user)

	guestID := "guest-merge"
	guestOwner := repository.CartOwner{GuestID: &guestID}

	// Shared line in both carts plus one guest-only line.
	_, err := cartService.AddOrUpdateItem(owner, addItemInput(1, 1, 1, 10000, 2))
	require.NoError(t, err)
	_, err = cartService.AddOrUpdateItem(guestOwner, addItemInput(1, 1, 1, 12000, 3))
	require.NoError(t, err)
	_, err = cartService.AddOrUpdateItem(guestOwner, addItemInput(2, 5, 7, 20000, 1))
	require.NoError(t, err)

	merged, err := cartService.MergeGuestCart(user.ID, guestID)
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	byVariant := make(map[uint]model.CartItem)
	for _, it := range merged.Items {
		byVariant[it.VariantID] = it
	}
	assert.Equal(t, 5, byVariant[1].Quantity)
	assert.Equal(t, int64(12000), byVariant[1].PriceAt)
	assert.Equal(t, 1, byVariant[5].Quantity)
	assert.Equal(t, int64(80000), merged.Subtotal)

	// The guest cart is deactivated, not deleted.
	var guestCart model.Cart
	require.NoError(t, testDB.Where("guest_id = ?", guestID).First(&guestCart).Error)
	assert.False(t, guestCart.IsActive)

	_, err = cartService.GetCart(guestOwner)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCart_RecalculateIdempotent(t *testing.T) {
	cart := &model.Cart{
		Items: []model.CartItem{
			{PriceAt: 10000, Quantity: 2},
			{PriceAt: 5000, Quantity: 1},
		},
		Shipping: 4000,
		Discount: 1000,
	}

	cart.Recalculate()
	first := cart.Total
	cart.Recalculate()

	assert.Equal(t, int64(25000), cart.Subtotal)
	assert.Equal(t, int64(28000), cart.Total)
	assert.Equal(t, first, cart.Total)
}
