package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is a placed checkout.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Address     string      `json:"address"`
	Payment     string      `json:"payment"`
	CouponCode  *string     `json:"coupon_code"`
	Discount    float64     `json:"discount"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []OrderItem `json:"items"`
}

// OrderItem is one cart line of an order.
type OrderItem struct {
	ID        uuid.UUID `json:"-"`
	OrderID   uuid.UUID `json:"-"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Size      string    `json:"size"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
}

// CartItem is a line in the checkout request.
type CartItem struct {
	ProductID string  `json:"id" validate:"required,uuid"`
	Name      string  `json:"name"`
	Size      string  `json:"size" validate:"max=32"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// CheckoutRequest is the DTO for POST /api/checkout
type CheckoutRequest struct {
	Name        string     `json:"name" validate:"required,notblank,max=255"`
	Email       string     `json:"email" validate:"required,email"`
	Phone       string     `json:"phone" validate:"required,notblank,max=32"`
	Address     string     `json:"address" validate:"required,notblank"`
	Cart        []CartItem `json:"cart" validate:"required,min=1,dive"`
	Payment     string     `json:"payment" validate:"required,notblank"`
	TotalAmount *float64   `json:"total_amount" validate:"required,gte=0,lte=1000000000"`
	CouponCode  string     `json:"coupon_code" validate:"max=64"`
}

// CheckoutResponse is returned after an order is placed.
type CheckoutResponse struct {
	Message     string    `json:"message"`
	OrderID     uuid.UUID `json:"order_id"`
	Discount    float64   `json:"discount"`
	TotalAmount float64   `json:"total_amount"`
}
