package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry.
type Product struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	DiscountedPrice *float64   `json:"discounted_price"`
	ImageURL        string     `json:"image_url"`
	ExtraImages     StringList `json:"extra_images"`
	Category        string     `json:"category"`
	Sizes           StringList `json:"sizes"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ProductRequest is the DTO for creating and updating products.
type ProductRequest struct {
	Name            string     `json:"name" validate:"required,notblank,max=255"`
	Description     string     `json:"description"`
	Price           *float64   `json:"price" validate:"required,gt=0"`
	DiscountedPrice *float64   `json:"discounted_price" validate:"omitempty,gte=0"`
	ImageURL        string     `json:"image_url" validate:"required,notblank"`
	Category        string     `json:"category" validate:"max=255"`
	Sizes           StringList `json:"sizes"`
	ExtraImages     StringList `json:"extra_images"`
}

// ToProduct builds a Product from the request.
func (r *ProductRequest) ToProduct() *Product {
	p := &Product{
		Name:            r.Name,
		Description:     r.Description,
		DiscountedPrice: r.DiscountedPrice,
		ImageURL:        r.ImageURL,
		Category:        r.Category,
		Sizes:           r.Sizes,
		ExtraImages:     r.ExtraImages,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if p.Sizes == nil {
		p.Sizes = StringList{}
	}
	if p.ExtraImages == nil {
		p.ExtraImages = StringList{}
	}
	return p
}
