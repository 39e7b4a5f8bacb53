package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/model"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Apply(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error)
	Add(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)
	ListPublic(ctx context.Context) ([]model.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// ApplyCoupon handles POST /api/coupons/apply requests.
func (h *CouponHandler) ApplyCoupon(c *fiber.Ctx) error {
	var req model.ApplyCouponRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	result, err := h.service.Apply(c.Context(), req.Code, *req.CartTotal)
	if err != nil {
		return respondError(c, err, "apply coupon")
	}

	log.Info().
		Str("coupon_code", result.Code).
		Float64("cart_total", *req.CartTotal).
		Float64("discount", result.Discount).
		Msg("coupon applied")

	return c.JSON(result)
}

// ListPublic handles GET /api/coupons: active coupons that have not expired.
func (h *CouponHandler) ListPublic(c *fiber.Ctx) error {
	coupons, err := h.service.ListPublic(c.Context())
	if err != nil {
		return respondError(c, err, "list public coupons")
	}
	return c.JSON(coupons)
}

// AddCoupon handles POST /api/admin/coupons/add.
func (h *CouponHandler) AddCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	coupon, err := h.service.Add(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "add coupon")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Coupon added successfully.",
		"coupon":  coupon,
	})
}

// ListCoupons handles GET /api/admin/coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, err, "list coupons")
	}
	return c.JSON(coupons)
}

// DeleteCoupon handles DELETE /api/admin/coupons/delete/:id.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "coupon not found", CodeNotFound)
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return respondError(c, err, "delete coupon")
	}
	return c.JSON(fiber.Map{"message": "Coupon deleted successfully."})
}
