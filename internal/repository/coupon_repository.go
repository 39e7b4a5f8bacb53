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

const couponColumns = `id, code, discount_type, discount_value, min_cart_value, max_discount, expiry_date, is_active, created_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var (
		c            model.Coupon
		discountType string
	)
	err := row.Scan(
		&c.ID,
		&c.Code,
		&discountType,
		&c.DiscountValue,
		&c.MinCartValue,
		&c.MaxDiscount,
		&c.ExpiryDate,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DiscountType = model.DiscountType(discountType)
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupons (code, discount_type, discount_value, min_cart_value, max_discount, expiry_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		coupon.Code, string(coupon.DiscountType), coupon.DiscountValue, coupon.MinCartValue,
		coupon.MaxDiscount, coupon.ExpiryDate, coupon.IsActive,
	).Scan(&coupon.ID, &coupon.CreatedAt)
	if err != nil {
		if hasPgCode(err, pgUniqueViolation) {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetActiveByCode retrieves an active coupon by its normalized code.
// Returns nil, nil if no active coupon matches (service layer handles this).
func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1 AND is_active`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// List returns every coupon, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
}

// ListPublic returns active coupons without an expiry or expiring at or after now, newest first.
func (r *CouponRepository) ListPublic(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	return r.list(ctx, `SELECT `+couponColumns+` FROM coupons
		WHERE is_active AND (expiry_date IS NULL OR expiry_date >= $1)
		ORDER BY created_at DESC`, now)
}

func (r *CouponRepository) list(ctx context.Context, query string, args ...any) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, nil
}

// Delete removes a coupon by id.
// Returns service.ErrCouponNotFound if no row matched.
func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}
