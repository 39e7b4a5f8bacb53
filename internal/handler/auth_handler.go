package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mdsaddlery/storefront/internal/middleware"
	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/service"
)

// AuthServiceInterface defines the account flows used by the auth routes.
type AuthServiceInterface interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*service.RegisterResult, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error)
	AdminLogin(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error
	GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// OTPServiceInterface defines the one-time code operations exposed over HTTP.
type OTPServiceInterface interface {
	Verify(ctx context.Context, email, code string, purpose model.Purpose) (*model.AuthResult, error)
	Resend(ctx context.Context, email string, purpose model.Purpose) error
}

// AuthHandler handles user registration, login, password reset and profile requests.
type AuthHandler struct {
	auth      AuthServiceInterface
	otp       OTPServiceInterface
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthServiceInterface, otp OTPServiceInterface, v *validator.Validate) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp, validator: v}
}

func sessionBody(message string, res *model.AuthResult) fiber.Map {
	return fiber.Map{
		"message":    message,
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	}
}

func purposeOrSignup(p model.Purpose) model.Purpose {
	if p == "" {
		return model.PurposeSignup
	}
	return p
}

// Register handles POST /api/users/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	result, err := h.auth.Register(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "register")
	}
	if result.Resent {
		return c.JSON(fiber.Map{"message": "OTP already sent. Please verify your account."})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "OTP sent to registered email. Please verify."})
}

// VerifyOTP handles POST /api/users/verify-otp. A successful check logs the user in.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req model.VerifyOTPRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	purpose := purposeOrSignup(req.Type)
	res, err := h.otp.Verify(c.Context(), req.Email, req.OTP, purpose)
	if err != nil {
		return respondError(c, err, "verify otp")
	}

	message := "Account verified successfully"
	if purpose == model.PurposeReset {
		message = "OTP verified successfully"
	}
	return c.JSON(sessionBody(message, res))
}

// ResendOTP handles POST /api/users/resend-otp.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req model.EmailRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	if err := h.otp.Resend(c.Context(), req.Email, purposeOrSignup(req.Type)); err != nil {
		return respondError(c, err, "resend otp")
	}
	return c.JSON(fiber.Map{"message": "OTP resent successfully"})
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	res, err := h.auth.Login(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "login")
	}
	return c.JSON(sessionBody("Login successful", res))
}

// AdminLogin handles POST /api/admin/login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req model.LoginRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	res, err := h.auth.AdminLogin(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "admin login")
	}
	return c.JSON(sessionBody("Login successful", res))
}

// ForgotPassword handles POST /api/users/forgot-password.
// The response is the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req model.EmailRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	if err := h.auth.ForgotPassword(c.Context(), req.Email); err != nil {
		return respondError(c, err, "forgot password")
	}
	return c.JSON(fiber.Map{"message": "OTP sent to your email to reset password"})
}

// ResetPassword handles POST /api/users/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req model.ResetPasswordRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	if err := h.auth.ResetPassword(c.Context(), &req); err != nil {
		return respondError(c, err, "reset password")
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// GetProfile handles GET /api/users/profile.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthenticated", CodeUnauthenticated)
	}

	profile, err := h.auth.GetProfile(c.Context(), id)
	if err != nil {
		return respondError(c, err, "get profile")
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthenticated", CodeUnauthenticated)
	}

	var req model.UpdateProfileRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	profile, err := h.auth.UpdateProfile(c.Context(), id, &req)
	if err != nil {
		return respondError(c, err, "update profile")
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": profile})
}

// DeleteProfile handles DELETE /api/users/profile.
func (h *AuthHandler) DeleteProfile(c *fiber.Ctx) error {
	id, ok := middleware.CurrentAccountID(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthenticated", CodeUnauthenticated)
	}

	if err := h.auth.DeleteAccount(c.Context(), id); err != nil {
		return respondError(c, err, "delete account")
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
