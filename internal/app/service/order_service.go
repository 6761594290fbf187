package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAddressNotFound    = errors.New("address not found")
	ErrInsufficientStock  = errors.New("insufficient stock for item")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderAccessDenied  = errors.New("order belongs to another user")
	ErrShippingNotAllowed = errors.New("tracking can only be set on shipped orders")
)

// CheckoutInput creates an order from the user's active cart.
type CheckoutInput struct {
	UserID     uint
	AddressID  uint
	PaymentRef string
}

// ShipmentInput attaches carrier tracking to an order.
type ShipmentInput struct {
	Carrier        string
	TrackingNumber string
	TrackingURL    string
}

// OrderService turns carts into orders and walks orders through their status
// lifecycle. Checkout runs as one retried transaction: stock is decremented
// per size, the order is written, the cart deactivated and the product stock
// caches refreshed together, so a conflicting checkout retries from scratch
// against fresh stock.
type OrderService interface {
	Checkout(input CheckoutInput) (*model.Order, error)
	GetOrder(orderID, userID uint, isAdmin bool) (*model.Order, error)
	ListUserOrders(userID uint, page, pageSize int) ([]model.Order, int64, error)
	ListOrders(status model.OrderStatus, page, pageSize int) ([]model.Order, int64, error)
	UpdateStatus(orderID uint, next model.OrderStatus, note string, updatedBy uint) (*model.Order, error)
	AttachShipment(orderID uint, input ShipmentInput) (*model.Order, error)
	CancelOrder(orderID, userID uint) (*model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	variantRepo repository.VariantRepository
	addressRepo repository.AddressRepository
	stock       StockService
}

func NewOrderService(
	database *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	variantRepo repository.VariantRepository,
	addressRepo repository.AddressRepository,
	stock StockService,
) OrderService {
	return &orderService{
		db:          database,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		addressRepo: addressRepo,
		stock:       stock,
	}
}

func (s *orderService) Checkout(input CheckoutInput) (*model.Order, error) {
	address, err := s.addressRepo.FindByID(input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != input.UserID {
		return nil, ErrAddressNotFound
	}

	var order *model.Order

	err = db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		cart, err := cartRepo.FindActiveByOwner(repository.CartOwner{UserID: &input.UserID})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		items := make([]model.OrderItem, 0, len(cart.Items))
		touched := make(map[uint]struct{})
		for _, it := range cart.Items {
			if err := variantRepo.DecrementSizeStock(it.SizeID, it.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, it.SKU)
				}
				return err
			}
			touched[it.ProductID] = struct{}{}
			items = append(items, model.OrderItem{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				SizeID:    it.SizeID,
				Title:     it.Title,
				SKU:       it.SKU,
				Price:     it.PriceAt,
				Quantity:  it.Quantity,
			})
		}

		cart.Recalculate()
		order = &model.Order{
			UserID:     input.UserID,
			AddressID:  input.AddressID,
			Subtotal:   cart.Subtotal,
			Discount:   cart.Discount,
			Shipping:   cart.Shipping,
			Total:      cart.Total,
			Currency:   cart.Currency,
			Status:     model.OrderStatusPending,
			PaymentRef: input.PaymentRef,
			History: model.StatusHistory{{
				Status: model.OrderStatusPending,
				At:     time.Now(),
			}},
			Items: items,
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		cart.IsActive = false
		if err := cartRepo.Save(cart); err != nil {
			return err
		}

		// Checkout consumes sellable stock only, so the cache refresh
		// counts active sizes alone here.
		for productID := range touched {
			if _, err := s.stock.RecomputeTx(tx, productID, RecomputeOptions{ActiveSizesOnly: true}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  input.UserID,
		"total":    order.Total,
		"items":    len(order.Items),
	})
	return order, nil
}

func (s *orderService) GetOrder(orderID, userID uint, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *orderService) ListUserOrders(userID uint, page, pageSize int) ([]model.Order, int64, error) {
	return s.orderRepo.FindByUserID(userID, page, pageSize)
}

func (s *orderService) ListOrders(status model.OrderStatus, page, pageSize int) ([]model.Order, int64, error) {
	return s.orderRepo.List(status, page, pageSize)
}

func (s *orderService) UpdateStatus(orderID uint, next model.OrderStatus, note string, updatedBy uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !order.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	order.Status = next
	order.History = append(order.History, model.StatusChange{
		Status:    next,
		Note:      note,
		UpdatedBy: updatedBy,
		At:        time.Now(),
	})
	if next == model.OrderStatusShipped {
		now := time.Now()
		order.ShippedAt = &now
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	// Cancelled and returned orders put their stock back on the shelf.
	if next == model.OrderStatusCancelled || next == model.OrderStatusReturned {
		if err := s.restock(order); err != nil {
			logger.Error("Failed to restock after order reversal", err, map[string]interface{}{
				"order_id": order.ID,
			})
		}
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   next,
	})
	return order, nil
}

func (s *orderService) AttachShipment(orderID uint, input ShipmentInput) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Status != model.OrderStatusPacked && order.Status != model.OrderStatusShipped {
		return nil, ErrShippingNotAllowed
	}

	order.Carrier = input.Carrier
	order.TrackingNumber = input.TrackingNumber
	order.TrackingURL = input.TrackingURL
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) CancelOrder(orderID, userID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderAccessDenied
	}
	return s.UpdateStatus(orderID, model.OrderStatusCancelled, "cancelled by customer", userID)
}

// restock returns each item's quantity to its size row and refreshes the
// affected product caches, in one retried transaction.
func (s *orderService) restock(order *model.Order) error {
	return db.RunInTxWithRetry(s.db, func(tx *gorm.DB) error {
		touched := make(map[uint]struct{})
		for _, it := range order.Items {
			err := tx.Model(&model.VariantSize{}).
				Where("id = ?", it.SizeID).
				UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error
			if err != nil {
				return err
			}
			touched[it.ProductID] = struct{}{}
		}
		for productID := range touched {
			if _, err := s.stock.RecomputeTx(tx, productID, RecomputeOptions{ActiveSizesOnly: true}); err != nil {
				return err
			}
		}
		return nil
	})
}
