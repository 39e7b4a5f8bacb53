package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mdsaddlery/storefront/internal/model"
)

// ProductServiceInterface defines the catalog operations.
type ProductServiceInterface interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductHandler serves the public catalog and the admin product routes.
type ProductHandler struct {
	service   ProductServiceInterface
	validator *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc ProductServiceInterface, v *validator.Validate) *ProductHandler {
	return &ProductHandler{service: svc, validator: v}
}

func productID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// List handles GET /api/products and GET /api/admin/products.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, err, "list products")
	}
	return c.JSON(products)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "product not found", CodeNotFound)
	}

	product, err := h.service.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "get product")
	}
	return c.JSON(product)
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req model.ProductRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	product, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "create product")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product added successfully.",
		"product": product,
	})
}

// Update handles PUT /api/admin/products/:id.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "product not found", CodeNotFound)
	}

	var req model.ProductRequest
	if resp, ok := bindAndValidate(c, h.validator, &req); !ok {
		return resp
	}

	product, err := h.service.Update(c.Context(), id, &req)
	if err != nil {
		return respondError(c, err, "update product")
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully.",
		"product": product,
	})
}

// Delete handles DELETE /api/admin/products/:id.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "product not found", CodeNotFound)
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return respondError(c, err, "delete product")
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully."})
}
