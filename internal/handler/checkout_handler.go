package handler

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/model"
)

// CheckoutServiceInterface defines order placement and lookup.
type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
	OrdersByPhone(ctx context.Context, phone string) ([]model.Order, error)
}

// CheckoutHandler handles checkout and order history requests.
type CheckoutHandler struct {
	service   CheckoutServiceInterface
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutServiceInterface, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: svc, validator: v}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req model.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body", CodeValidation)
	}
	if len(req.Cart) == 0 || req.Payment == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Missing payment or cart info", CodeValidation)
	}
	if err := h.validator.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, formatValidationError(err), CodeValidation)
	}

	resp, err := h.service.Checkout(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "checkout")
	}

	log.Info().
		Str("order_id", resp.OrderID.String()).
		Float64("total_amount", resp.TotalAmount).
		Int("items", len(req.Cart)).
		Msg("order placed")

	return c.JSON(resp)
}

// OrdersByPhone handles GET /api/orders/:phone.
func (h *CheckoutHandler) OrdersByPhone(c *fiber.Ctx) error {
	phone, err := url.PathUnescape(c.Params("phone"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid phone", CodeValidation)
	}

	orders, err := h.service.OrdersByPhone(c.Context(), phone)
	if err != nil {
		return respondError(c, err, "list orders")
	}
	return c.JSON(orders)
}
