package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/service"
)

const accountColumns = `id, name, email, phone, password_hash, role, is_verified,
	otp_code, otp_purpose, otp_expiry, otp_attempts, created_at, updated_at`

// AccountRepository provides data access for user and admin accounts.
type AccountRepository struct {
	pool PoolInterface
}

// NewAccountRepository creates a new AccountRepository with the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// NewAccountRepositoryWithPool creates a new AccountRepository with a custom pool interface.
// This is primarily used for testing.
func NewAccountRepositoryWithPool(pool PoolInterface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// otpColumns splits the OTP value object into its four nullable columns.
func otpColumns(otp *model.OTPState) (code, purpose *string, expiry *time.Time, attempts *int) {
	if otp == nil {
		return nil, nil, nil, nil
	}
	p := string(otp.Purpose)
	return &otp.Code, &p, &otp.ExpiresAt, &otp.Attempts
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		a        model.Account
		role     string
		code     *string
		purpose  *string
		expiry   *time.Time
		attempts *int
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &role, &a.IsVerified,
		&code, &purpose, &expiry, &attempts, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	if code != nil && purpose != nil && expiry != nil && attempts != nil {
		a.OTP = &model.OTPState{
			Code:      *code,
			Purpose:   model.Purpose(*purpose),
			ExpiresAt: *expiry,
			Attempts:  *attempts,
		}
	}
	return &a, nil
}

// Create inserts a new account and fills in its id and timestamps.
// Returns service.ErrAccountExists if the email is taken.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	code, purpose, expiry, attempts := otpColumns(a.OTP)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, email, phone, password_hash, role, is_verified,
			otp_code, otp_purpose, otp_expiry, otp_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		a.Name, a.Email, a.Phone, a.PasswordHash, string(a.Role), a.IsVerified,
		code, purpose, expiry, attempts,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if hasPgCode(err, pgUniqueViolation) {
			return service.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by its normalized email.
// Returns nil, nil if the account is not found (service layer handles this).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// GetByID retrieves an account by id.
// Returns nil, nil if the account is not found.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

// Update writes every mutable column of the account, OTP state included.
// Returns service.ErrAccountNotFound if the row is gone.
func (r *AccountRepository) Update(ctx context.Context, a *model.Account) error {
	code, purpose, expiry, attempts := otpColumns(a.OTP)
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET name = $2, phone = $3, password_hash = $4, role = $5, is_verified = $6,
			otp_code = $7, otp_purpose = $8, otp_expiry = $9, otp_attempts = $10, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Name, a.Phone, a.PasswordHash, string(a.Role), a.IsVerified,
		code, purpose, expiry, attempts,
	)
	if err != nil {
		return fmt.Errorf("update account %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAccountNotFound
	}
	return nil
}

// SaveOTP replaces only the OTP columns. A nil state clears them.
func (r *AccountRepository) SaveOTP(ctx context.Context, id uuid.UUID, otp *model.OTPState) error {
	code, purpose, expiry, attempts := otpColumns(otp)
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET otp_code = $2, otp_purpose = $3, otp_expiry = $4, otp_attempts = $5, updated_at = NOW()
		WHERE id = $1`,
		id, code, purpose, expiry, attempts,
	)
	if err != nil {
		return fmt.Errorf("save otp for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAccountNotFound
	}
	return nil
}

// IncrementOTPAttempts bumps the attempt counter of the pending code and
// returns the new count. Returns service.ErrInvalidOTP if no code is pending.
func (r *AccountRepository) IncrementOTPAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx,
		`UPDATE accounts SET otp_attempts = otp_attempts + 1, updated_at = NOW()
		WHERE id = $1 AND otp_code IS NOT NULL
		RETURNING otp_attempts`, id,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, service.ErrInvalidOTP
		}
		return 0, fmt.Errorf("increment otp attempts for %s: %w", id, err)
	}
	return attempts, nil
}

// Delete removes an account.
// Returns service.ErrAccountNotFound if no row matched.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAccountNotFound
	}
	return nil
}
