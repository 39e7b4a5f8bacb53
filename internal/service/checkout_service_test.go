package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/pkg/database"
)

// mockOrderRepository is a mock implementation of OrderRepositoryInterface.
type mockOrderRepository struct {
	insertOrderFn func(ctx context.Context, tx database.TxQuerier, order *model.Order) error
	insertItemsFn func(ctx context.Context, tx database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error
	listByPhoneFn func(ctx context.Context, phone string) ([]model.Order, error)
}

func (m *mockOrderRepository) InsertOrder(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
	if m.insertOrderFn != nil {
		return m.insertOrderFn(ctx, tx, order)
	}
	order.ID = uuid.New()
	return nil
}

func (m *mockOrderRepository) InsertItems(ctx context.Context, tx database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error {
	if m.insertItemsFn != nil {
		return m.insertItemsFn(ctx, tx, orderID, items)
	}
	return nil
}

func (m *mockOrderRepository) ListByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	if m.listByPhoneFn != nil {
		return m.listByPhoneFn(ctx, phone)
	}
	return nil, nil
}

// mockCouponApplier is a mock implementation of CouponApplier.
type mockCouponApplier struct {
	applyFn func(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error)
}

func (m *mockCouponApplier) Apply(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, code, cartTotal)
	}
	return nil, ErrCouponInvalid
}

func checkoutRequest() *model.CheckoutRequest {
	return &model.CheckoutRequest{
		Name:    "Jo",
		Email:   "Jo@B.com",
		Phone:   "555",
		Address: "1 Barn Rd",
		Cart: []model.CartItem{
			{ProductID: uuid.NewString(), Name: "Saddle", Size: "17", Quantity: 1, Price: 1500},
			{ProductID: uuid.NewString(), Name: "Pad", Quantity: 2, Price: 250},
		},
		Payment:     "paypal:ORDER-1",
		TotalAmount: floatPtr(2000),
	}
}

func TestCheckoutService_Checkout_Success(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	var insertedItems []model.OrderItem
	var itemsTx database.TxQuerier
	orders := &mockOrderRepository{
		insertItemsFn: func(ctx context.Context, q database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error {
			itemsTx = q
			insertedItems = items
			return nil
		},
	}
	mailer := &mockMailer{}

	svc := NewCheckoutServiceWithTxBeginner(pool, orders, &mockCouponApplier{}, mailer)
	resp, err := svc.Checkout(context.Background(), checkoutRequest())

	require.NoError(t, err)
	assert.Equal(t, "Order placed successfully", resp.Message)
	assert.NotEqual(t, uuid.Nil, resp.OrderID)
	assert.Equal(t, 2000.0, resp.TotalAmount)
	assert.Equal(t, 0.0, resp.Discount)
	assert.Len(t, insertedItems, 2)
	assert.Same(t, tx, itemsTx, "items are written inside the transaction")
	assert.True(t, tx.committed)
}

func TestCheckoutService_Checkout_WithCoupon(t *testing.T) {
	var stored *model.Order
	orders := &mockOrderRepository{
		insertOrderFn: func(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
			stored = order
			order.ID = uuid.New()
			return nil
		},
	}
	coupons := &mockCouponApplier{
		applyFn: func(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error) {
			assert.Equal(t, "SAVE10", code)
			assert.Equal(t, 2000.0, cartTotal)
			return &model.ApplyCouponResponse{Success: true, Code: "SAVE10", Discount: 100, FinalTotal: 1900}, nil
		},
	}
	req := checkoutRequest()
	req.CouponCode = "save10"

	svc := NewCheckoutServiceWithTxBeginner(&mockTxBeginner{}, orders, coupons, &mockMailer{})
	resp, err := svc.Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1900.0, resp.TotalAmount)
	assert.Equal(t, 100.0, resp.Discount)
	require.NotNil(t, stored.CouponCode)
	assert.Equal(t, "SAVE10", *stored.CouponCode)
	assert.Equal(t, "jo@b.com", stored.Email)
}

func TestCheckoutService_Checkout_CouponRejected(t *testing.T) {
	orders := &mockOrderRepository{
		insertOrderFn: func(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
			t.Fatal("order must not be written")
			return nil
		},
	}
	coupons := &mockCouponApplier{
		applyFn: func(ctx context.Context, code string, cartTotal float64) (*model.ApplyCouponResponse, error) {
			return nil, &CartBelowMinimumError{Minimum: 5000}
		},
	}
	req := checkoutRequest()
	req.CouponCode = "BIG"

	_, err := NewCheckoutServiceWithTxBeginner(&mockTxBeginner{}, orders, coupons, &mockMailer{}).Checkout(context.Background(), req)

	assert.ErrorIs(t, err, ErrCartBelowMinimum)
}

func TestCheckoutService_Checkout_MissingCartOrPayment(t *testing.T) {
	svc := NewCheckoutServiceWithTxBeginner(&mockTxBeginner{}, &mockOrderRepository{}, &mockCouponApplier{}, &mockMailer{})

	req := checkoutRequest()
	req.Cart = nil
	_, err := svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = checkoutRequest()
	req.Payment = " "
	_, err = svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = checkoutRequest()
	req.TotalAmount = floatPtr(model.MaxAmount * 10)
	_, err = svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = checkoutRequest()
	req.Cart[0].ProductID = "not-a-uuid"
	_, err = svc.Checkout(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCheckoutService_Checkout_ItemsFailRollsBack(t *testing.T) {
	tx := &mockTx{}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}
	orders := &mockOrderRepository{
		insertItemsFn: func(ctx context.Context, q database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error {
			return ErrProductNotFound
		},
	}
	mailer := &mockMailer{
		confirmationFn: func(ctx context.Context, order *model.Order) error {
			t.Fatal("no email for a failed order")
			return nil
		},
	}

	_, err := NewCheckoutServiceWithTxBeginner(pool, orders, &mockCouponApplier{}, mailer).Checkout(context.Background(), checkoutRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestCheckoutService_Checkout_BeginFails(t *testing.T) {
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) {
		return nil, errors.New("pool exhausted")
	}}

	_, err := NewCheckoutServiceWithTxBeginner(pool, &mockOrderRepository{}, &mockCouponApplier{}, &mockMailer{}).Checkout(context.Background(), checkoutRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestCheckoutService_Checkout_CommitFails(t *testing.T) {
	tx := &mockTx{commitFn: func(ctx context.Context) error { return errors.New("serialization failure") }}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}

	_, err := NewCheckoutServiceWithTxBeginner(pool, &mockOrderRepository{}, &mockCouponApplier{}, &mockMailer{}).Checkout(context.Background(), checkoutRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit order")
}

func TestCheckoutService_Checkout_EmailFailureIsNotFatal(t *testing.T) {
	mailer := &mockMailer{
		confirmationFn: func(ctx context.Context, order *model.Order) error { return errors.New("smtp down") },
		storeFn:        func(ctx context.Context, order *model.Order) error { return errors.New("smtp down") },
	}

	resp, err := NewCheckoutServiceWithTxBeginner(&mockTxBeginner{}, &mockOrderRepository{}, &mockCouponApplier{}, mailer).Checkout(context.Background(), checkoutRequest())

	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestCheckoutService_OrdersByPhone(t *testing.T) {
	orders := &mockOrderRepository{
		listByPhoneFn: func(ctx context.Context, phone string) ([]model.Order, error) {
			if phone == "555" {
				return []model.Order{{Phone: "555"}}, nil
			}
			return nil, nil
		},
	}
	svc := NewCheckoutServiceWithTxBeginner(&mockTxBeginner{}, orders, &mockCouponApplier{}, &mockMailer{})

	got, err := svc.OrdersByPhone(context.Background(), " 555 ")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.OrdersByPhone(context.Background(), "999")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.OrdersByPhone(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
