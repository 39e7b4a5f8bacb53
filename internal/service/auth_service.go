package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mdsaddlery/storefront/internal/model"
)

// RegisterResult reports whether Register created an account or re-sent a
// code to an existing unverified one.
type RegisterResult struct {
	Resent bool
}

// AuthService implements the account flows on top of OTPService.
type AuthService struct {
	accounts   AccountRepositoryInterface
	otp        *OTPService
	issuer     TokenIssuer
	ttls       TokenTTLs
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts AccountRepositoryInterface, otp *OTPService, issuer TokenIssuer, ttls TokenTTLs) *AuthService {
	return &AuthService{
		accounts:   accounts,
		otp:        otp,
		issuer:     issuer,
		ttls:       ttls,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost. Primarily used for testing.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > model.MaxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidRequest, model.MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates an unverified account and sends a signup code.
// An existing unverified account gets a fresh code instead of a duplicate row.
// Returns ErrAccountExists if the email belongs to a verified account.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*RegisterResult, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	email := model.NormalizeEmail(req.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, ErrAccountExists
		}
		if err := s.otp.Issue(ctx, existing, model.PurposeSignup); err != nil {
			return nil, err
		}
		return &RegisterResult{Resent: true}, nil
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if err := s.otp.Issue(ctx, account, model.PurposeSignup); err != nil {
		return nil, err
	}
	log.Info().Str("account_id", account.ID.String()).Msg("account registered")
	return &RegisterResult{}, nil
}

// Login authenticates a storefront user.
// Unknown emails and wrong passwords both return ErrInvalidCredentials; a
// correct password on an unverified account returns ErrNotVerified.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error) {
	return s.login(ctx, req, model.RoleUser)
}

// AdminLogin authenticates an administrator.
func (s *AuthService) AdminLogin(ctx context.Context, req *model.LoginRequest) (*model.AuthResult, error) {
	return s.login(ctx, req, model.RoleAdmin)
}

func (s *AuthService) login(ctx context.Context, req *model.LoginRequest, role model.Role) (*model.AuthResult, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	account, err := s.accounts.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil || account.Role != role {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	if !account.IsVerified {
		return nil, ErrNotVerified
	}

	return s.session(account)
}

func (s *AuthService) session(account *model.Account) (*model.AuthResult, error) {
	token, expiresAt, err := s.issuer.Issue(account.ID, account.Email, account.Role, s.ttls.forRole(account.Role))
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &model.AuthResult{Token: token, ExpiresAt: expiresAt, User: account.Profile()}, nil
}

// ForgotPassword sends a reset code when the email is known.
// Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		log.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	return s.otp.Issue(ctx, account, model.PurposeReset)
}

// ResetPassword verifies a reset code and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if req == nil {
		return ErrInvalidRequest
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	account, err := s.otp.Consume(ctx, req.Email, req.OTP, model.PurposeReset, func(a *model.Account) error {
		a.PasswordHash = hash
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("account_id", account.ID.String()).Msg("password reset")
	return nil
}

// GetProfile returns the profile of the account.
func (s *AuthService) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	profile := account.Profile()
	return &profile, nil
}

// UpdateProfile changes name, phone and optionally the password.
// The email is never changed.
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hash
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	profile := account.Profile()
	return &profile, nil
}

// DeleteAccount removes the account.
func (s *AuthService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.accounts.Delete(ctx, id)
}

// EnsureAdmin creates a verified admin account, or promotes and re-passwords
// an existing account with the same email. Used by the seeding command.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*model.Account, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidRequest
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		account = &model.Account{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
			IsVerified:   true,
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}

	account.Role = model.RoleAdmin
	account.IsVerified = true
	account.PasswordHash = hash
	account.ClearOTP()
	if name != "" {
		account.Name = name
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}
