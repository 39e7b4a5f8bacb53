package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes storefront customers from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Purpose is the intended use of a one-time code.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeSignup || p == PurposeReset
}

// OTPState is the pending one-time code of an account.
// The four fields are persisted together and cleared together.
type OTPState struct {
	Code      string
	Purpose   Purpose
	ExpiresAt time.Time
	Attempts  int
}

// NewOTPState returns a fresh pending code with zero attempts.
func NewOTPState(code string, purpose Purpose, now time.Time, ttl time.Duration) *OTPState {
	return &OTPState{
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		Attempts:  0,
	}
}

// Expired reports whether the code expired before now.
func (s *OTPState) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// Account is a user or admin credential record.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	OTP          *OTPState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingOTP reports whether a code is waiting to be verified.
func (a *Account) HasPendingOTP() bool {
	return a.OTP != nil
}

// ClearOTP drops the pending code.
func (a *Account) ClearOTP() {
	a.OTP = nil
}

// Profile returns the public view of the account.
func (a *Account) Profile() Profile {
	return Profile{
		ID:         a.ID.String(),
		Name:       a.Name,
		Email:      a.Email,
		Phone:      a.Phone,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
	}
}

// NormalizeEmail trims and lower-cases an address so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the API representation of an account.
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuthResult is returned after a successful login or OTP verification.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// MaxPasswordBytes is the longest password bcrypt accepts, in bytes.
const MaxPasswordBytes = 72

// RegisterRequest is the DTO for POST /api/users/register
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=6,bcryptmax"`
}

// VerifyOTPRequest is the DTO for POST /api/users/verify-otp
type VerifyOTPRequest struct {
	Email string  `json:"email" validate:"required,email"`
	OTP   string  `json:"otp" validate:"required,max=16"`
	Type  Purpose `json:"type" validate:"omitempty,oneof=signup reset"`
}

// EmailRequest carries only an email (resend, forgot-password).
type EmailRequest struct {
	Email string  `json:"email" validate:"required,email"`
	Type  Purpose `json:"type" validate:"omitempty,oneof=signup reset"`
}

// LoginRequest is the DTO for user and admin login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordRequest is the DTO for POST /api/users/reset-password
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,max=16"`
	Password string `json:"password" validate:"required,min=6,bcryptmax"`
}

// UpdateProfileRequest is the DTO for PUT /api/users/profile.
// Email cannot be changed.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Password *string `json:"password" validate:"omitempty,min=6,bcryptmax"`
}
