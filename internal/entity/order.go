package entity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every known status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
}

// ParseOrderStatus normalizes s; ok is false for unknown values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range OrderStatuses {
		if status == known {
			return status, true
		}
	}
	return "", false
}

// OrderItem is a single line of an order, stored as JSON on the order row.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Order represents a customer purchase placed on the storefront.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string      `bun:"id,pk"`
	OrderNumber     string      `bun:"order_number,notnull"`
	CustomerName    string      `bun:"customer_name"`
	CustomerPhone   string      `bun:"customer_phone"`
	CustomerEmail   string      `bun:"customer_email"`
	ShippingAddress string      `bun:"shipping_address"`
	City            string      `bun:"city"`
	Items           []OrderItem `bun:"items,type:jsonb"`
	TotalAmount     float64     `bun:"total_amount,notnull"`
	Status          string      `bun:"status"`
	PaymentMethod   string      `bun:"payment_method"`
	Notes           string      `bun:"notes"`
	CreatedAt       time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time   `bun:"updated_at,nullzero"`
}

// EffectiveStatus returns the stored status, reading empty or unknown values as pending.
func (o Order) EffectiveStatus() OrderStatus {
	if status, ok := ParseOrderStatus(o.Status); ok {
		return status
	}
	return OrderPending
}

// Revenue is the amount that counts towards sales; cancelled orders count for nothing.
func (o Order) Revenue() float64 {
	if o.EffectiveStatus() == OrderCancelled {
		return 0
	}
	return o.TotalAmount
}
