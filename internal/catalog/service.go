// Package catalog manages the product records the admin panel edits and the
// pricing engine consumes.
package catalog

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tomatopickles404/shop-api/internal/pricing"
	"github.com/tomatopickles404/shop-api/internal/store"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Service encapsulates product catalog operations over the key-value store.
type Service struct {
	Store    store.Store
	Validate *validator.Validate
	NewID    func() string
}

// ProductInput carries the fields an admin may set on a product.
type ProductInput struct {
	Name        string                 `json:"name" validate:"required"`
	Price       pricing.Money          `json:"price" validate:"gte=0"`
	Stock       int                    `json:"stock" validate:"gte=0"`
	Tiers       []pricing.DiscountTier `json:"discounts" validate:"dive"`
	Description string                 `json:"description"`
}

func (s *Service) newID() string {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) validate(input ProductInput) error {
	v := s.Validate
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(input); err != nil {
		return fmt.Errorf("validate product: %w", err)
	}
	return nil
}

// List returns all products. A missing store key yields an empty catalog.
func (s *Service) List(ctx context.Context) ([]pricing.Product, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("catalog service not configured")
	}
	var products []pricing.Product
	if _, err := s.Store.GetJSON(ctx, store.KeyProducts, &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if products == nil {
		products = []pricing.Product{}
	}
	return products, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (pricing.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return pricing.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return pricing.Product{}, ErrNotFound
}

// Add validates the input and appends a new product with a generated id.
func (s *Service) Add(ctx context.Context, input ProductInput) (pricing.Product, error) {
	if s == nil || s.Store == nil {
		return pricing.Product{}, errors.New("catalog service not configured")
	}
	if err := s.validate(input); err != nil {
		return pricing.Product{}, err
	}
	products, err := s.List(ctx)
	if err != nil {
		return pricing.Product{}, err
	}
	product := pricing.Product{
		ID:          s.newID(),
		Name:        input.Name,
		Price:       input.Price,
		Stock:       input.Stock,
		Tiers:       input.Tiers,
		Description: input.Description,
	}
	products = append(products, product)
	if err := s.Store.SetJSON(ctx, store.KeyProducts, products); err != nil {
		return pricing.Product{}, fmt.Errorf("save products: %w", err)
	}
	return product, nil
}

// Update replaces the editable fields of an existing product.
func (s *Service) Update(ctx context.Context, id string, input ProductInput) (pricing.Product, error) {
	if s == nil || s.Store == nil {
		return pricing.Product{}, errors.New("catalog service not configured")
	}
	if err := s.validate(input); err != nil {
		return pricing.Product{}, err
	}
	products, err := s.List(ctx)
	if err != nil {
		return pricing.Product{}, err
	}
	for i, p := range products {
		if p.ID != id {
			continue
		}
		products[i] = pricing.Product{
			ID:          id,
			Name:        input.Name,
			Price:       input.Price,
			Stock:       input.Stock,
			Tiers:       input.Tiers,
			Description: input.Description,
		}
		if err := s.Store.SetJSON(ctx, store.KeyProducts, products); err != nil {
			return pricing.Product{}, fmt.Errorf("save products: %w", err)
		}
		return products[i], nil
	}
	return pricing.Product{}, ErrNotFound
}

// Delete removes a product from the catalog. Carts referencing the product
// keep their snapshot; pruning is the cart owner's decision.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	products, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := products[:0]
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.Store.SetJSON(ctx, store.KeyProducts, kept); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	return nil
}

// Seed writes the default catalog when no products exist. With force it
// overwrites unconditionally. It reports whether a write happened.
func (s *Service) Seed(ctx context.Context, force bool) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("catalog service not configured")
	}
	if !force {
		var existing []pricing.Product
		ok, err := s.Store.GetJSON(ctx, store.KeyProducts, &existing)
		if err != nil {
			return false, fmt.Errorf("load products: %w", err)
		}
		if ok {
			return false, nil
		}
	}
	if err := s.Store.SetJSON(ctx, store.KeyProducts, DefaultProducts()); err != nil {
		return false, fmt.Errorf("seed products: %w", err)
	}
	return true, nil
}

// DefaultProducts returns the demo catalog the shop starts with.
func DefaultProducts() []pricing.Product {
	return []pricing.Product{
		{
			ID:    "p1",
			Name:  "Item 1",
			Price: 10000,
			Stock: 20,
			Tiers: []pricing.DiscountTier{
				{Quantity: 10, Rate: 0.1},
				{Quantity: 20, Rate: 0.2},
			},
			Description: "Premium quality item.",
		},
		{
			ID:    "p2",
			Name:  "Item 2",
			Price: 20000,
			Stock: 20,
			Tiers: []pricing.DiscountTier{
				{Quantity: 10, Rate: 0.15},
			},
			Description: "Practical item with versatile features.",
		},
		{
			ID:    "p3",
			Name:  "Item 3",
			Price: 30000,
			Stock: 20,
			Tiers: []pricing.DiscountTier{
				{Quantity: 10, Rate: 0.2},
				{Quantity: 30, Rate: 0.25},
			},
			Description: "High capacity, high performance item.",
		},
	}
}
