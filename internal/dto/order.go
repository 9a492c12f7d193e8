package dto

import "time"

// OrderItemResponse is one line of an order.
type OrderItemResponse struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	ImageSrc  string  `json:"image_src,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	ShippingAddress string              `json:"shipping_address"`
	City            string              `json:"city"`
	Items           []OrderItemResponse `json:"items"`
	TotalAmount     float64             `json:"total_amount"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// UpdateOrderStatusRequest is the body of PATCH /orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
