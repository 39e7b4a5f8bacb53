package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/model"
)

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	Insert(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductService provides catalog CRUD.
type ProductService struct {
	productRepo ProductRepositoryInterface
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo ProductRepositoryInterface) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List returns every product, newest first.
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get returns one product.
// Returns ErrProductNotFound if the product doesn't exist.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if req == nil || req.Price == nil {
		return nil, ErrInvalidRequest
	}

	product := req.ToProduct()
	if err := s.productRepo.Insert(ctx, product); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	log.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Update replaces the editable fields of a product.
// Returns ErrProductNotFound if the product doesn't exist.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	if req == nil || req.Price == nil {
		return nil, ErrInvalidRequest
	}

	product := req.ToProduct()
	product.ID = id
	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Delete removes a product.
// Returns ErrProductNotFound if the product doesn't exist.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
