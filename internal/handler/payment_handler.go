package handler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mdsaddlery/storefront/internal/model"
)

// PaymentGateway creates and captures gateway orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64) (*model.PaymentOrder, error)
	Capture(ctx context.Context, orderID string) (*model.PaymentCapture, error)
}

// PaymentHandler exposes the payment gateway to the storefront.
type PaymentHandler struct {
	gateway   PaymentGateway
	validator *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(gateway PaymentGateway, v *validator.Validate) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, validator: v}
}

// CreateOrder handles POST /api/payments/create-order.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req model.CreatePaymentRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	order, err := h.gateway.CreateOrder(c.Context(), *req.Amount)
	if err != nil {
		return respondError(c, err, "create payment order")
	}
	return c.JSON(order)
}

// Capture handles POST /api/payments/capture/:orderId.
func (h *PaymentHandler) Capture(c *fiber.Ctx) error {
	orderID := strings.TrimSpace(c.Params("orderId"))
	if orderID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request: orderId is required", CodeValidation)
	}

	capture, err := h.gateway.Capture(c.Context(), orderID)
	if err != nil {
		return respondError(c, err, "capture payment")
	}
	return c.JSON(capture)
}
