package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/metrics"
	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/pkg/database"
)

// OrderRepositoryInterface defines the interface for order data access.
type OrderRepositoryInterface interface {
	InsertOrder(ctx context.Context, tx database.TxQuerier, order *model.Order) error
	InsertItems(ctx context.Context, tx database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error
	ListByPhone(ctx context.Context, phone string) ([]model.Order, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CouponApplier computes a coupon discount for a cart total.
type CouponApplier interface {
	Apply(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error)
}

// OrderMailer sends order emails to the customer and the store.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
	SendStoreNotification(ctx context.Context, order *model.Order) error
}

// CheckoutService places orders.
type CheckoutService struct {
	pool    TxBeginner
	orders  OrderRepositoryInterface
	coupons CouponApplier
	mailer  OrderMailer
}

// NewCheckoutService creates a new CheckoutService with the given pool and collaborators.
func NewCheckoutService(pool *pgxpool.Pool, orders OrderRepositoryInterface, coupons CouponApplier, mailer OrderMailer) *CheckoutService {
	return &CheckoutService{pool: pool, orders: orders, coupons: coupons, mailer: mailer}
}

// NewCheckoutServiceWithTxBeginner creates a CheckoutService with a custom TxBeginner.
// Primarily used for testing.
func NewCheckoutServiceWithTxBeginner(pool TxBeginner, orders OrderRepositoryInterface, coupons CouponApplier, mailer OrderMailer) *CheckoutService {
	return &CheckoutService{pool: pool, orders: orders, coupons: coupons, mailer: mailer}
}

// Checkout writes the order and its items in one transaction, then emails
// the customer and the store. Email failures are logged and do not fail the
// call because the order is already committed.
func (s *CheckoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req == nil || req.TotalAmount == nil || len(req.Cart) == 0 || strings.TrimSpace(req.Payment) == "" {
		return nil, fmt.Errorf("%w: missing payment or cart info", ErrInvalidRequest)
	}
	if !validAmount(*req.TotalAmount) {
		return nil, fmt.Errorf("%w: total_amount is out of range", ErrInvalidRequest)
	}

	items := make([]model.OrderItem, 0, len(req.Cart))
	for _, line := range req.Cart {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product id %q", ErrInvalidRequest, line.ProductID)
		}
		items = append(items, model.OrderItem{
			ProductID: productID,
			Name:      line.Name,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	order := &model.Order{
		Name:        strings.TrimSpace(req.Name),
		Email:       model.NormalizeEmail(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Payment:     strings.TrimSpace(req.Payment),
		TotalAmount: *req.TotalAmount,
		Items:       items,
	}

	if code := model.NormalizeCouponCode(req.CouponCode); code != "" {
		applied, err := s.coupons.Apply(ctx, code, *req.TotalAmount)
		if err != nil {
			return nil, err
		}
		order.CouponCode = &applied.Code
		order.Discount = applied.Discount
		order.TotalAmount = applied.FinalTotal
	}

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreatedTotal.Inc()

	s.notify(ctx, order)

	return &model.CheckoutResponse{
		Message:     "Order placed successfully",
		OrderID:     order.ID,
		Discount:    order.Discount,
		TotalAmount: order.TotalAmount,
	}, nil
}

func (s *CheckoutService) persist(ctx context.Context, order *model.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.orders.InsertOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if err := s.orders.InsertItems(ctx, tx, order.ID, order.Items); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (s *CheckoutService) notify(ctx context.Context, order *model.Order) {
	if err := s.mailer.SendOrderConfirmation(ctx, order); err != nil {
		metrics.EmailFailuresTotal.WithLabelValues("order_confirmation").Inc()
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to send order confirmation")
	}
	if err := s.mailer.SendStoreNotification(ctx, order); err != nil {
		metrics.EmailFailuresTotal.WithLabelValues("store_notification").Inc()
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to send store notification")
	}
}

// OrdersByPhone returns the orders placed with a phone number, newest first,
// each with its items. An unknown phone yields an empty list.
func (s *CheckoutService) OrdersByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrInvalidRequest
	}
	orders, err := s.orders.ListByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
