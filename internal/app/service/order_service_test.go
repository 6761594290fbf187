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

type orderTestEnv struct {
	orders  OrderService
	carts   CartService
	user    *model.User
	address *model.Address
	product *model.Product
	variant *model.Variant
	testDB  *gorm.DB
}

func setupOrderServiceTest(t *testing.T) *orderTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	variantRepo := repository.NewVariantRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	stock := NewStockService(variantRepo, productRepo)

	orders := NewOrderService(testDB, orderRepo, cartRepo, variantRepo, addressRepo, stock)
	carts := NewCartService(testDB, cartRepo)

	email := "buyer@example.com"
	user := &model.User{Email: &email, Name: "Buyer", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)

	address := &model.Address{
		UserID:  user.ID,
		Name:    "Buyer",
		Phone:   "+919876543210",
		Line1:   "12 MG Road",
		City:    "Jaipur",
		State:   "Rajasthan",
		Pincode: "302001",
	}
	require.NoError(t, testDB.Create(address).Error)

	product := &model.Product{
		Title:    "Kundan Bangle",
		Slug:     "kundan-bangle",
		Category: model.CategoryBangles,
		Price:    40000,
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	variant := &model.Variant{
		ProductID: product.ID,
		Color:     "Gold",
		IsActive:  true,
		Sizes: []model.VariantSize{
			{Size: "2.4", Stock: 5, SKU: "KUN-24", IsActive: true},
		},
	}
	require.NoError(t, testDB.Create(variant).Error)

	return &orderTestEnv{
		orders:  orders,
		carts:   carts,
		user:    user,
		address: address,
		product: product,
		variant: variant,
		testDB:  testDB,
	}
}

func (e *orderTestEnv) fillCart(t *testing.T, qty int) {
	t.Helper()
	_, err := e.carts.AddOrUpdateItem(repository.CartOwner{UserID: &e.user.ID}, AddItemInput{
		ProductID: e.product.ID,
		VariantID: e.variant.ID,
		SizeID:    e.variant.Sizes[0].ID,
		SKU:       e.variant.Sizes[0].SKU,
		Title:     e.product.Title,
		PriceAt:   e.product.FinalPrice(),
		Quantity:  qty,
	})
	require.NoError(t, err)
}

func (e *orderTestEnv) sizeStock(t *testing.T) int {
	t.Helper()
	var size model.VariantSize
	require.NoError(t, e.testDB.First(&size, e.variant.Sizes[0].ID).Error)
	return size.Stock
}

func TestOrderService_Checkout(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 2)

	order, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(40000), order.Items[0].Price)
	assert.Equal(t, int64(80000), order.Subtotal)
	require.Len(t, order.History, 1)
	assert.Equal(t, model.OrderStatusPending, order.History[0].Status)

	// Stock is consumed and the cache refreshed.
	assert.Equal(t, 3, env.sizeStock(t))
	var stored model.Product
	require.NoError(t, env.testDB.First(&stored, env.product.ID).Error)
	assert.Equal(t, 3, stored.AvailableStock)

	// The cart is deactivated, not deleted.
	_, err = env.carts.GetCart(repository.CartOwner{UserID: &env.user.ID})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	env := setupOrderServiceTest(t)

	_, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestOrderService_Checkout_InsufficientStock(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 9)

	_, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// The failed checkout leaves stock and cart untouched.
	assert.Equal(t, 5, env.sizeStock(t))
	cart, err := env.carts.GetCart(repository.CartOwner{UserID: &env.user.ID})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	var orders int64
	require.NoError(t, env.testDB.Model(&model.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(0), orders)
}

func TestOrderService_Checkout_AddressOwnership(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 1)

	email := "other@example.com"
	other := &model.User{Email: &email, Name: "Other", Role: model.RoleUser}
	require.NoError(t, env.testDB.Create(other).Error)
	theirs := &model.Address{
		UserID: other.ID, Name: "Other", Phone: "+919876500000",
		Line1: "1 Lane", City: "Delhi", State: "Delhi", Pincode: "110001",
	}
	require.NoError(t, env.testDB.Create(theirs).Error)

	_, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: theirs.ID})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestOrderService_StatusLifecycle(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 1)

	order, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)

	order, err = env.orders.UpdateStatus(order.ID, model.OrderStatusConfirmed, "payment verified", 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.Len(t, order.History, 2)

	// Skipping ahead in the lifecycle is rejected.
	_, err = env.orders.UpdateStatus(order.ID, model.OrderStatusDelivered, "", 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	order, err = env.orders.UpdateStatus(order.ID, model.OrderStatusPacked, "", 1)
	require.NoError(t, err)
	order, err = env.orders.UpdateStatus(order.ID, model.OrderStatusShipped, "", 1)
	require.NoError(t, err)
	assert.NotNil(t, order.ShippedAt)
}

func TestOrderService_CancelRestocks(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 2)

	order, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, env.sizeStock(t))

	cancelled, err := env.orders.CancelOrder(order.ID, env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, env.sizeStock(t))

	// A delivered order cannot be cancelled by the customer.
	env.fillCart(t, 1)
	order, err = env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)
	for _, status := range []model.OrderStatus{
		model.OrderStatusConfirmed, model.OrderStatusPacked,
		model.OrderStatusShipped, model.OrderStatusOutForDelivery,
		model.OrderStatusDelivered,
	} {
		_, err = env.orders.UpdateStatus(order.ID, status, "", 1)
		require.NoError(t, err)
	}
	_, err = env.orders.CancelOrder(order.ID, env.user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderService_GetOrder_Access(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 1)

	order, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)

	_, err = env.orders.GetOrder(order.ID, env.user.ID+1, false)
	assert.ErrorIs(t, err, ErrOrderAccessDenied)

	got, err := env.orders.GetOrder(order.ID, env.user.ID+1, true)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestOrderService_AttachShipment(t *testing.T) {
	env := setupOrderServiceTest(t)
	env.fillCart(t, 1)

	order, err := env.orders.Checkout(CheckoutInput{UserID: env.user.ID, AddressID: env.address.ID})
	require.NoError(t, err)

	// Tracking can only attach once the parcel is packed.
	_, err = env.orders.AttachShipment(order.ID, ShipmentInput{Carrier: "Shiprocket"})
	assert.ErrorIs(t, err, ErrShippingNotAllowed)

	_, err = env.orders.UpdateStatus(order.ID, model.OrderStatusConfirmed, "", 1)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(order.ID, model.OrderStatusPacked, "", 1)
	require.NoError(t, err)

	updated, err := env.orders.AttachShipment(order.ID, ShipmentInput{
		Carrier:        "Shiprocket",
		TrackingNumber: "AWB123456",
		TrackingURL:    "https://shiprocket.co/tracking/AWB123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "AWB123456", updated.TrackingNumber)
}
