package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Coupon represents a coupon in the system
type Coupon struct {
	ID            uuid.UUID    `json:"id"`
	Code          string       `json:"coupon_code"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	MinCartValue  float64      `json:"min_cart_value"`
	MaxDiscount   *float64     `json:"max_discount"`
	ExpiryDate    *time.Time   `json:"expiry_date"`
	IsActive      bool         `json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NormalizeCouponCode trims and upper-cases a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateCouponRequest is the DTO for POST /api/admin/coupons/add
type CreateCouponRequest struct {
	Code          string     `json:"coupon_code" validate:"required,notblank,max=64"`
	DiscountType  string     `json:"discount_type" validate:"required,discounttype"`
	DiscountValue *float64   `json:"discount_value" validate:"required,gt=0"`
	MinCartValue  *float64   `json:"min_cart_value" validate:"omitempty,gte=0"`
	MaxDiscount   *float64   `json:"max_discount" validate:"omitempty,gt=0"`
	ExpiryDate    *time.Time `json:"expiry_date" validate:"required"`
}

// MaxAmount is the largest cart or order total accepted, in rupees.
// Order totals are stored as NUMERIC(12, 2).
const MaxAmount = 1e9

// ApplyCouponRequest is the DTO for POST /api/coupons/apply
type ApplyCouponRequest struct {
	Code      string   `json:"coupon_code" validate:"required,notblank,max=64"`
	CartTotal *float64 `json:"cart_total" validate:"required,gte=0,lte=1000000000"`
}

// ApplyCouponResponse is the result of applying a coupon to a cart total.
type ApplyCouponResponse struct {
	Success    bool    `json:"success"`
	Code       string  `json:"coupon_code"`
	Discount   float64 `json:"discount"`
	FinalTotal float64 `json:"final_total"`
}
