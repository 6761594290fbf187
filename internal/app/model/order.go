package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// StatusChange is one entry in an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	UpdatedBy uint        `json:"updated_by,omitempty"`
	At        time.Time   `json:"at"`
}

// StatusHistory stores the ordered status trail as a JSON column.
type StatusHistory []StatusChange

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for StatusHistory")
	}
	if len(data) == 0 {
		*h = StatusHistory{}
		return nil
	}
	return json.Unmarshal(data, h)
}

type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	AddressID      uint           `gorm:"not null" json:"address_id"`
	Subtotal       int64          `gorm:"not null" json:"subtotal"`
	Discount       int64          `gorm:"default:0" json:"discount"`
	Shipping       int64          `gorm:"default:0" json:"shipping"`
	Total          int64          `gorm:"not null" json:"total"`
	Currency       string         `gorm:"type:varchar(8);default:'INR'" json:"currency"`
	Status         OrderStatus    `gorm:"type:varchar(30);default:'pending';index" json:"status"`
	History        StatusHistory  `gorm:"type:text" json:"history"`
	Carrier        string         `json:"carrier,omitempty"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	TrackingURL    string         `json:"tracking_url,omitempty"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	PaymentRef     string         `json:"payment_ref,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User        `gorm:"foreignKey:UserID" json:"-"`
	Address Address     `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable snapshot of a cart item at checkout time.
type OrderItem struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	OrderID   uint   `gorm:"not null;index" json:"order_id"`
	ProductID uint   `gorm:"not null" json:"product_id"`
	VariantID uint   `gorm:"not null" json:"variant_id"`
	SizeID    uint   `gorm:"not null" json:"size_id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	SKU       string `json:"sku"`
	Price     int64  `gorm:"not null" json:"price"`
	Quantity  int    `gorm:"not null" json:"quantity"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// CanTransitionTo reports whether the order may move to next.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	allowed, ok := orderTransitions[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:         {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusOutForDelivery, OrderStatusReturned},
	OrderStatusOutForDelivery: {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered:      {OrderStatusReturned},
	OrderStatusReturned:       {OrderStatusRefunded},
}
