package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/service"
)

const productColumns = `id, name, description, price, discounted_price, image_url, extra_images, category, sizes, created_at`

// ProductRepository provides data access for the catalog.
type ProductRepository struct {
	pool PoolInterface
}

// NewProductRepository creates a new ProductRepository with the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// NewProductRepositoryWithPool creates a new ProductRepository with a custom pool interface.
func NewProductRepositoryWithPool(pool PoolInterface) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p           model.Product
		extraImages []string
		sizes       []string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DiscountedPrice,
		&p.ImageURL, &extraImages, &p.Category, &sizes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ExtraImages = model.StringList(extraImages)
	p.Sizes = model.StringList(sizes)
	if p.ExtraImages == nil {
		p.ExtraImages = model.StringList{}
	}
	if p.Sizes == nil {
		p.Sizes = model.StringList{}
	}
	return &p, nil
}

// Insert adds a product and fills in its id and created_at.
func (r *ProductRepository) Insert(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, discounted_price, image_url, extra_images, category, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		p.Name, p.Description, p.Price, p.DiscountedPrice, p.ImageURL,
		[]string(p.ExtraImages), p.Category, []string(p.Sizes),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product.
// Returns nil, nil if the product is not found.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// List returns every product, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Update replaces the editable columns and refreshes p.CreatedAt from the row.
// Returns service.ErrProductNotFound if no row matched.
func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, discounted_price = $5,
			image_url = $6, extra_images = $7, category = $8, sizes = $9
		WHERE id = $1
		RETURNING created_at`,
		p.ID, p.Name, p.Description, p.Price, p.DiscountedPrice, p.ImageURL,
		[]string(p.ExtraImages), p.Category, []string(p.Sizes),
	).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrProductNotFound
		}
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	return nil
}

// Delete removes a product.
// Returns service.ErrProductNotFound if no row matched.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrProductNotFound
	}
	return nil
}
