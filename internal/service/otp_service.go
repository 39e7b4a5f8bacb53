package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/metrics"
	"github.com/mdsaddlery/storefront/internal/model"
)

// AccountRepositoryInterface defines the interface for account data access.
// Lookups return nil, nil when no account matches.
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	SaveOTP(ctx context.Context, id uuid.UUID, otp *model.OTPState) error
	IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OTPMailer delivers one-time codes.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, name, code string, purpose model.Purpose) error
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, email string, role model.Role, ttl time.Duration) (string, time.Time, error)
}

// TokenTTLs holds the session lifetime per role.
type TokenTTLs struct {
	User  time.Duration
	Admin time.Duration
}

func (t TokenTTLs) forRole(role model.Role) time.Duration {
	if role == model.RoleAdmin {
		return t.Admin
	}
	return t.User
}

// OTPOptions configures code lifetime and the attempt budget.
type OTPOptions struct {
	TTL         time.Duration
	MaxAttempts int
}

// OTPService issues, verifies and re-issues one-time codes.
// It is the only place that reads or mutates an account's OTP state.
type OTPService struct {
	accounts AccountRepositoryInterface
	mailer   OTPMailer
	issuer   TokenIssuer
	ttls     TokenTTLs
	opts     OTPOptions
	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService creates a new OTPService.
func NewOTPService(accounts AccountRepositoryInterface, mailer OTPMailer, issuer TokenIssuer, ttls TokenTTLs, opts OTPOptions) *OTPService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &OTPService{
		accounts: accounts,
		mailer:   mailer,
		issuer:   issuer,
		ttls:     ttls,
		opts:     opts,
		now:      time.Now,
		generate: generateCode,
	}
}

// WithClock replaces the time source. Primarily used for testing.
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// WithGenerator replaces the code generator. Primarily used for testing.
func (s *OTPService) WithGenerator(gen func() (string, error)) *OTPService {
	s.generate = gen
	return s
}

// generateCode returns a uniformly random code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue stores a fresh code on the account with zero attempts and emails it.
// The code is persisted before the email is sent; a send failure is returned
// and leaves the stored code in place.
func (s *OTPService) Issue(ctx context.Context, account *model.Account, purpose model.Purpose) error {
	if account == nil || !purpose.Valid() {
		return ErrInvalidRequest
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	state := model.NewOTPState(code, purpose, s.now(), s.opts.TTL)
	if err := s.accounts.SaveOTP(ctx, account.ID, state); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	account.OTP = state

	if err := s.mailer.SendOTP(ctx, account.Email, account.Name, code, purpose); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
	log.Info().
		Str("account_id", account.ID.String()).
		Str("purpose", string(purpose)).
		Time("expires_at", state.ExpiresAt).
		Msg("otp issued")
	return nil
}

// Resend re-issues a code for an existing account.
func (s *OTPService) Resend(ctx context.Context, email string, purpose model.Purpose) error {
	if !purpose.Valid() {
		return ErrInvalidRequest
	}

	account, err := s.accounts.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if purpose == model.PurposeSignup && account.IsVerified {
		return ErrAlreadyVerified
	}
	return s.Issue(ctx, account, purpose)
}

// Verify checks a code and, on success, returns a session for the account.
// A signup code is consumed and marks the account verified. A reset code is
// only checked and stays pending for ResetPassword; every check still spends
// an attempt.
func (s *OTPService) Verify(ctx context.Context, email, code string, purpose model.Purpose) (*model.AuthResult, error) {
	var (
		account *model.Account
		err     error
	)
	if purpose == model.PurposeReset {
		account, err = s.check(ctx, email, code, purpose)
		if err == nil {
			s.observe(purpose, "checked")
		}
	} else {
		account, err = s.Consume(ctx, email, code, purpose, nil)
	}
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(account.ID, account.Email, account.Role, s.ttls.forRole(account.Role))
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &model.AuthResult{Token: token, ExpiresAt: expiresAt, User: account.Profile()}, nil
}

// Consume runs the verification steps and clears the code on a match.
// apply, when non-nil, mutates the account before it is persisted so that
// the caller's change and the cleared code are written together.
func (s *OTPService) Consume(ctx context.Context, email, code string, purpose model.Purpose, apply func(*model.Account) error) (*model.Account, error) {
	account, err := s.check(ctx, email, code, purpose)
	if err != nil {
		return nil, err
	}

	if purpose == model.PurposeSignup {
		account.IsVerified = true
	}
	account.ClearOTP()
	if apply != nil {
		if err := apply(account); err != nil {
			return nil, err
		}
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	s.observe(purpose, "success")
	return account, nil
}

// check spends one attempt and matches code against the pending code
// without clearing it.
func (s *OTPService) check(ctx context.Context, email, code string, purpose model.Purpose) (*model.Account, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidRequest
	}

	account, err := s.accounts.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		s.observe(purpose, "unknown_account")
		return nil, ErrInvalidOTP
	}

	otp := account.OTP
	if otp == nil || otp.Purpose != purpose {
		s.observe(purpose, "invalid")
		return nil, ErrInvalidOTP
	}

	if otp.Expired(s.now()) {
		s.observe(purpose, "expired")
		return nil, ErrOTPExpired
	}

	// Counted in the database so parallel guesses cannot share one attempt.
	attempts, err := s.accounts.IncrementOTPAttempts(ctx, account.ID)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			s.observe(purpose, "invalid")
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("save otp attempts: %w", err)
	}
	otp.Attempts = attempts
	if otp.Attempts > s.opts.MaxAttempts {
		s.observe(purpose, "too_many_attempts")
		log.Warn().
			Str("account_id", account.ID.String()).
			Int("attempts", otp.Attempts).
			Msg("otp attempt budget exhausted")
		return nil, ErrTooManyAttempts
	}

	if otp.Code != code {
		s.observe(purpose, "invalid")
		return nil, ErrInvalidOTP
	}
	return account, nil
}

func (s *OTPService) observe(purpose model.Purpose, result string) {
	metrics.OTPVerifyTotal.WithLabelValues(string(purpose), result).Inc()
}
