package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/service"
	"github.com/mdsaddlery/storefront/pkg/database"
)

// OrderRepository provides data access for orders and their items.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates a new OrderRepository with a custom pool interface.
// This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InsertOrder writes the order header inside tx and fills in its id and created_at.
func (r *OrderRepository) InsertOrder(ctx context.Context, tx database.TxQuerier, o *model.Order) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (name, email, phone, address, payment, coupon_code, discount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		o.Name, o.Email, o.Phone, o.Address, o.Payment, o.CouponCode, o.Discount, o.TotalAmount,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// InsertItems writes the order lines inside tx.
// Returns service.ErrProductNotFound if a line references an unknown product.
func (r *OrderRepository) InsertItems(ctx context.Context, tx database.TxQuerier, orderID uuid.UUID, items []model.OrderItem) error {
	for i := range items {
		item := &items[i]
		item.OrderID = orderID
		err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, line_no, product_id, size, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			orderID, i, item.ProductID, item.Size, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			if hasPgCode(err, pgForeignKeyViolation) {
				return fmt.Errorf("product %s: %w", item.ProductID, service.ErrProductNotFound)
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// ListByPhone returns the orders placed with phone, newest first, each with
// its items joined to the product name and image.
func (r *OrderRepository) ListByPhone(ctx context.Context, phone string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, address, payment, coupon_code, discount, total_amount, created_at
		FROM orders WHERE phone = $1 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	index := map[uuid.UUID]int{}
	ids := []string{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.Payment,
			&o.CouponCode, &o.Discount, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []model.OrderItem{}
		index[o.ID] = len(orders)
		ids = append(ids, o.ID.String())
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), COALESCE(p.image_url, ''),
			oi.size, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item      model.OrderItem
			productID uuid.NullUUID // NULL once the product is deleted
		)
		if err := itemRows.Scan(&item.ID, &item.OrderID, &productID, &item.Name, &item.ImageURL,
			&item.Size, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.ProductID = productID.UUID
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return orders, nil
}
