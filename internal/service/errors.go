package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidOTP is returned for a wrong, missing or mismatched one-time code.
	// Unknown emails also produce it so verification cannot be used to probe accounts.
	ErrInvalidOTP = errors.New("invalid OTP")

	// ErrOTPExpired is returned when the pending code is past its expiry
	ErrOTPExpired = errors.New("OTP expired")

	// ErrTooManyAttempts is returned once the attempt budget of a code is spent
	ErrTooManyAttempts = errors.New("too many attempts, request a new OTP")

	// ErrAccountNotFound is returned when no account matches the email
	ErrAccountNotFound = errors.New("account not found")

	// ErrAlreadyVerified is returned when a signup code is requested for a verified account
	ErrAlreadyVerified = errors.New("account already verified")

	// ErrAccountExists is returned when registering an email that belongs to a verified account
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotVerified is returned when a correct password is given for an unverified account
	ErrNotVerified = errors.New("please verify your account first")

	// ErrCouponInvalid is returned when a coupon is missing or inactive
	ErrCouponInvalid = errors.New("invalid or inactive coupon")

	// ErrCouponExpired is returned when a coupon's expiry date has passed
	ErrCouponExpired = errors.New("coupon has expired")

	// ErrCartBelowMinimum is matched by *CartBelowMinimumError
	ErrCartBelowMinimum = errors.New("cart total below coupon minimum")

	// ErrCouponExists is returned when attempting to create a coupon that already exists
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrProductNotFound is returned when a product cannot be found
	ErrProductNotFound = errors.New("product not found")
)

// CartBelowMinimumError carries the minimum cart value of the rejected coupon.
type CartBelowMinimumError struct {
	Minimum float64
}

func (e *CartBelowMinimumError) Error() string {
	return fmt.Sprintf("minimum cart value ₹%s required", formatAmount(e.Minimum))
}

// Is lets errors.Is(err, ErrCartBelowMinimum) match.
func (e *CartBelowMinimumError) Is(target error) bool {
	return target == ErrCartBelowMinimum
}

// formatAmount prints whole amounts without decimals and fractional ones with two.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
