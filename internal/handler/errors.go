package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/payment"
	"github.com/mdsaddlery/storefront/internal/service"
	"github.com/mdsaddlery/storefront/internal/session"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidOTP       = "INVALID_OTP"
	CodeOTPExpired       = "OTP_EXPIRED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyVerified  = "ALREADY_VERIFIED"
	CodeConflict         = "CONFLICT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeCouponInvalid    = "COUPON_INVALID"
	CodeCouponExpired    = "COUPON_EXPIRED"
	CodeCartBelowMinimum = "CART_BELOW_MINIMUM"
	CodePaymentFailed    = "PAYMENT_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrInvalidRequest, fiber.StatusBadRequest, CodeValidation},
	{service.ErrInvalidOTP, fiber.StatusBadRequest, CodeInvalidOTP},
	{service.ErrOTPExpired, fiber.StatusBadRequest, CodeOTPExpired},
	{service.ErrTooManyAttempts, fiber.StatusTooManyRequests, CodeRateLimited},
	{service.ErrAccountNotFound, fiber.StatusNotFound, CodeNotFound},
	{service.ErrAlreadyVerified, fiber.StatusBadRequest, CodeAlreadyVerified},
	{service.ErrAccountExists, fiber.StatusConflict, CodeConflict},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, CodeUnauthenticated},
	{service.ErrNotVerified, fiber.StatusForbidden, CodeForbidden},
	{service.ErrCouponInvalid, fiber.StatusNotFound, CodeCouponInvalid},
	{service.ErrCouponExpired, fiber.StatusBadRequest, CodeCouponExpired},
	{service.ErrCartBelowMinimum, fiber.StatusBadRequest, CodeCartBelowMinimum},
	{service.ErrCouponExists, fiber.StatusConflict, CodeConflict},
	{service.ErrCouponNotFound, fiber.StatusNotFound, CodeNotFound},
	{service.ErrProductNotFound, fiber.StatusNotFound, CodeNotFound},
	{session.ErrUnauthenticated, fiber.StatusUnauthorized, CodeUnauthenticated},
	{session.ErrForbidden, fiber.StatusForbidden, CodeForbidden},
	{payment.ErrNotConfigured, fiber.StatusServiceUnavailable, CodePaymentFailed},
}

// errorJSON writes the uniform error body.
func errorJSON(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

// respondError maps a service error to its status and code. Unmapped errors
// are logged and answered with a generic 500.
func respondError(c *fiber.Ctx, err error, op string) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return errorJSON(c, m.status, userMessage(err, m.target), m.code)
		}
	}

	var gatewayErr *payment.APIError
	if errors.As(err, &gatewayErr) {
		log.Warn().Err(err).Int("gateway_status", gatewayErr.Status).Msg(op + " rejected by gateway")
		return errorJSON(c, fiber.StatusBadGateway, "payment gateway error", CodePaymentFailed)
	}

	log.Error().Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg(op + " failed")
	return errorJSON(c, fiber.StatusInternalServerError, "internal server error", CodeInternal)
}

// userMessage returns the message shown to clients. Wrapped validation
// details are kept; other sentinels are shown as declared.
func userMessage(err, target error) string {
	var below *service.CartBelowMinimumError
	if errors.As(err, &below) {
		msg := below.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
	if target == service.ErrInvalidRequest {
		return err.Error()
	}
	return target.Error()
}

// formatValidationError converts validator errors to client messages.
// Field names come from json tags.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be whitespace only"
			case "email":
				return "invalid request: " + field + " must be a valid email"
			case "max":
				return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
			case "min":
				if fe.Kind() == reflect.String {
					return "invalid request: " + field + " must be at least " + fe.Param() + " characters"
				}
				return "invalid request: " + field + " must contain at least " + fe.Param() + " item(s)"
			case "gt", "gte", "lt", "lte":
				return "invalid request: " + field + " is out of range"
			case "bcryptmax":
				return "invalid request: " + field + " exceeds maximum length of 72 bytes"
			case "discounttype":
				return "invalid request: " + field + " must be percentage or flat"
			case "oneof":
				return "invalid request: " + field + " must be one of " + fe.Param()
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// bindAndValidate parses the JSON body into req and validates it, writing
// the 400 response itself. ok is false when the caller must return.
func bindAndValidate(c *fiber.Ctx, v *validator.Validate, req any) (resp error, ok bool) {
	if err := c.BodyParser(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body", CodeValidation), false
	}
	if err := v.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, formatValidationError(err), CodeValidation), false
	}
	return nil, true
}
