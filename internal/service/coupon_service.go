package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/metrics"
	"github.com/mdsaddlery/storefront/internal/model"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	ListPublic(ctx context.Context, now time.Time) ([]model.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponService provides business logic for coupon operations.
type CouponService struct {
	couponRepo CouponRepositoryInterface
	now        func() time.Time
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(couponRepo CouponRepositoryInterface) *CouponService {
	return &CouponService{couponRepo: couponRepo, now: time.Now}
}

// WithClock replaces the time source. Primarily used for testing.
func (s *CouponService) WithClock(now func() time.Time) *CouponService {
	s.now = now
	return s
}

// Apply validates a coupon against a cart total and computes the discount.
// Returns:
//   - ErrCouponInvalid if the code is unknown or the coupon inactive
//   - ErrCouponExpired if the expiry date has passed
//   - *CartBelowMinimumError if the cart total is under the coupon minimum
func (s *CouponService) Apply(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error) {
	code = model.NormalizeCouponCode(code)
	if code == "" || !validAmount(cartTotal) {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil || !coupon.IsActive {
		metrics.CouponApplyTotal.WithLabelValues("invalid").Inc()
		return nil, ErrCouponInvalid
	}

	if coupon.ExpiryDate != nil && coupon.ExpiryDate.Before(s.now()) {
		metrics.CouponApplyTotal.WithLabelValues("expired").Inc()
		return nil, ErrCouponExpired
	}

	if cartTotal < coupon.MinCartValue {
		metrics.CouponApplyTotal.WithLabelValues("below_minimum").Inc()
		return nil, &CartBelowMinimumError{Minimum: coupon.MinCartValue}
	}

	discount := Discount(coupon, cartTotal)
	final := math.Max(cartTotal-discount, 0)

	metrics.CouponApplyTotal.WithLabelValues("applied").Inc()
	return &model.ApplyCouponResponse{
		Success:    true,
		Code:       coupon.Code,
		Discount:   math.Round(discount),
		FinalTotal: math.Round(final),
	}, nil
}

// Discount returns the unrounded discount of coupon on cartTotal.
// Percentage discounts are capped at MaxDiscount; flat discounts are returned verbatim.
func Discount(coupon *model.Coupon, cartTotal float64) float64 {
	switch coupon.DiscountType {
	case model.DiscountPercentage:
		d := cartTotal * (coupon.DiscountValue / 100)
		if coupon.MaxDiscount != nil && d > *coupon.MaxDiscount {
			d = *coupon.MaxDiscount
		}
		return d
	case model.DiscountFlat:
		return coupon.DiscountValue
	default:
		return 0
	}
}

// Add creates a coupon from the request.
// Returns ErrCouponExists if a coupon with the same code already exists.
// Returns ErrInvalidRequest if the discount rules are inconsistent.
func (s *CouponService) Add(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	// The handler validates these; nil still means a malformed request here.
	if req == nil || req.DiscountValue == nil || req.ExpiryDate == nil {
		return nil, ErrInvalidRequest
	}

	discountType := model.DiscountType(strings.ToLower(strings.TrimSpace(req.DiscountType)))
	switch discountType {
	case model.DiscountPercentage:
		if *req.DiscountValue > 100 {
			return nil, fmt.Errorf("%w: percentage discount cannot exceed 100", ErrInvalidRequest)
		}
	case model.DiscountFlat:
		if req.MaxDiscount != nil {
			return nil, fmt.Errorf("%w: max_discount only applies to percentage coupons", ErrInvalidRequest)
		}
	default:
		return nil, fmt.Errorf("%w: discount_type must be percentage or flat", ErrInvalidRequest)
	}

	coupon := &model.Coupon{
		Code:          model.NormalizeCouponCode(req.Code),
		DiscountType:  discountType,
		DiscountValue: *req.DiscountValue,
		MaxDiscount:   req.MaxDiscount,
		ExpiryDate:    req.ExpiryDate,
		IsActive:      true,
	}
	if req.MinCartValue != nil {
		coupon.MinCartValue = *req.MinCartValue
	}

	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		if errors.Is(err, ErrCouponExists) {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("insert coupon: %w", err)
	}

	log.Info().Str("coupon_code", coupon.Code).Str("discount_type", string(coupon.DiscountType)).Msg("coupon created")
	return coupon, nil
}

// List returns every coupon, newest first.
func (s *CouponService) List(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// ListPublic returns active coupons that have not expired, newest first.
func (s *CouponService) ListPublic(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.ListPublic(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list public coupons: %w", err)
	}
	return coupons, nil
}

// Delete removes a coupon.
// Returns ErrCouponNotFound if no coupon has the id.
func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}

// validAmount reports whether total is a finite amount within [0, MaxAmount].
func validAmount(total float64) bool {
	return !math.IsNaN(total) && total >= 0 && total <= model.MaxAmount
}
