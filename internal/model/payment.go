package model

// CreatePaymentRequest is the DTO for POST /api/payments/create-order
type CreatePaymentRequest struct {
	Amount *float64 `json:"amount" validate:"required,gt=0"`
}

// PaymentOrder is a gateway order awaiting buyer approval.
type PaymentOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// PaymentCapture is the result of capturing an approved gateway order.
type PaymentCapture struct {
	OrderID   string `json:"order_id"`
	CaptureID string `json:"capture_id"`
	Status    string `json:"status"`
}
