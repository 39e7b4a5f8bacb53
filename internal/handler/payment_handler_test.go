package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/payment"
	"github.com/mdsaddlery/storefront/internal/validator"
)

type mockGateway struct {
	createFn  func(ctx context.Context, amount float64) (*model.PaymentOrder, error)
	captureFn func(ctx context.Context, orderID string) (*model.PaymentCapture, error)
}

func (m *mockGateway) CreateOrder(ctx context.Context, amount float64) (*model.PaymentOrder, error) {
	if m.createFn != nil {
		return m.createFn(ctx, amount)
	}
	return &model.PaymentOrder{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (m *mockGateway) Capture(ctx context.Context, orderID string) (*model.PaymentCapture, error) {
	if m.captureFn != nil {
		return m.captureFn(ctx, orderID)
	}
	return &model.PaymentCapture{OrderID: orderID, CaptureID: "CAP-1", Status: "COMPLETED"}, nil
}

func setupPaymentApp(gw *mockGateway) *fiber.App {
	app := fiber.New()
	h := NewPaymentHandler(gw, validator.New())
	app.Post("/api/payments/create-order", h.CreateOrder)
	app.Post("/api/payments/capture/:orderId", h.Capture)
	return app
}

func TestPaymentCreateOrder(t *testing.T) {
	var gotAmount float64
	gw := &mockGateway{
		createFn: func(ctx context.Context, amount float64) (*model.PaymentOrder, error) {
			gotAmount = amount
			return &model.PaymentOrder{ID: "ORDER-1", Status: "CREATED"}, nil
		},
	}
	app := setupPaymentApp(gw)

	status, body := doJSON(t, app, http.MethodPost, "/api/payments/create-order", `{"amount":49.99}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ORDER-1", body["id"])
	assert.Equal(t, 49.99, gotAmount)
}

func TestPaymentCreateOrder_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "missing_amount", body: `{}`, wantStatus: fiber.StatusBadRequest},
		{name: "zero_amount", body: `{"amount":0}`, wantStatus: fiber.StatusBadRequest},
		{name: "not_configured", body: `{"amount":10}`, err: payment.ErrNotConfigured, wantStatus: fiber.StatusServiceUnavailable},
		{name: "gateway_rejected", body: `{"amount":10}`, err: &payment.APIError{Status: 422, Body: "UNPROCESSABLE_ENTITY"}, wantStatus: fiber.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &mockGateway{
				createFn: func(ctx context.Context, amount float64) (*model.PaymentOrder, error) {
					return nil, tc.err
				},
			}
			app := setupPaymentApp(gw)

			status, body := doJSON(t, app, http.MethodPost, "/api/payments/create-order", tc.body)

			assert.Equal(t, tc.wantStatus, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPaymentCapture(t *testing.T) {
	app := setupPaymentApp(&mockGateway{})

	status, body := doJSON(t, app, http.MethodPost, "/api/payments/capture/ORDER-1", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, "CAP-1", body["capture_id"])
}
