// Package coupon manages the coupon catalog and the customer's current
// selection. Selection is the place the eligibility gate lives: the pricing
// math itself applies whatever coupon it is handed.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomatopickles404/shop-api/internal/pricing"
	"github.com/tomatopickles404/shop-api/internal/store"
)

var (
	// ErrNotFound indicates the coupon code does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when adding a coupon whose code already exists.
	ErrDuplicateCode = errors.New("coupon code already exists")
	// ErrInvalidInput is returned when the provided coupon fields are invalid.
	ErrInvalidInput = errors.New("invalid coupon")
)

// MaxAmountValue bounds flat-amount coupons, matching the admin form rule.
const MaxAmountValue = 100000

// Service encapsulates coupon operations over the key-value store.
type Service struct {
	Store store.Store
}

// List returns all coupons. A missing store key yields an empty list.
func (s *Service) List(ctx context.Context) ([]pricing.Coupon, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("coupon service not configured")
	}
	var coupons []pricing.Coupon
	if _, err := s.Store.GetJSON(ctx, store.KeyCoupons, &coupons); err != nil {
		return nil, fmt.Errorf("load coupons: %w", err)
	}
	if coupons == nil {
		coupons = []pricing.Coupon{}
	}
	return coupons, nil
}

// Get returns the coupon with the given code.
func (s *Service) Get(ctx context.Context, code string) (pricing.Coupon, error) {
	coupons, err := s.List(ctx)
	if err != nil {
		return pricing.Coupon{}, err
	}
	for _, c := range coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return pricing.Coupon{}, ErrNotFound
}

// Add validates and appends a new coupon. Codes are unique.
func (s *Service) Add(ctx context.Context, coupon pricing.Coupon) (pricing.Coupon, error) {
	if s == nil || s.Store == nil {
		return pricing.Coupon{}, errors.New("coupon service not configured")
	}
	coupon.Code = strings.TrimSpace(coupon.Code)
	coupon.Name = strings.TrimSpace(coupon.Name)
	if err := validate(coupon); err != nil {
		return pricing.Coupon{}, err
	}
	coupons, err := s.List(ctx)
	if err != nil {
		return pricing.Coupon{}, err
	}
	for _, existing := range coupons {
		if existing.Code == coupon.Code {
			return pricing.Coupon{}, ErrDuplicateCode
		}
	}
	coupons = append(coupons, coupon)
	if err := s.Store.SetJSON(ctx, store.KeyCoupons, coupons); err != nil {
		return pricing.Coupon{}, fmt.Errorf("save coupons: %w", err)
	}
	return coupon, nil
}

// Delete removes a coupon by code, clearing the selection when it pointed at
// the deleted coupon.
func (s *Service) Delete(ctx context.Context, code string) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	coupons, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := coupons[:0]
	found := false
	for _, c := range coupons {
		if c.Code == code {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrNotFound
	}
	if err := s.Store.SetJSON(ctx, store.KeyCoupons, kept); err != nil {
		return fmt.Errorf("save coupons: %w", err)
	}
	selected, err := s.Selected(ctx)
	if err != nil {
		return err
	}
	if selected != nil && selected.Code == code {
		return s.ClearSelection(ctx)
	}
	return nil
}

// Selected returns the currently selected coupon, or nil when none is selected.
func (s *Service) Selected(ctx context.Context) (*pricing.Coupon, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("coupon service not configured")
	}
	var coupon pricing.Coupon
	ok, err := s.Store.GetJSON(ctx, store.KeySelectedCoupon, &coupon)
	if err != nil {
		return nil, fmt.Errorf("load selected coupon: %w", err)
	}
	if !ok || coupon.Code == "" {
		return nil, nil
	}
	return &coupon, nil
}

// Select validates eligibility against the cart's discounted subtotal and
// persists the selection. This is the caller-side gate the pricing engine
// expects to have run before CartTotals sees the coupon.
func (s *Service) Select(ctx context.Context, code string, cart pricing.Cart) (pricing.Coupon, error) {
	if s == nil || s.Store == nil {
		return pricing.Coupon{}, errors.New("coupon service not configured")
	}
	coupon, err := s.Get(ctx, code)
	if err != nil {
		return pricing.Coupon{}, err
	}
	subtotal := pricing.SubtotalAfterItemDiscounts(cart)
	if err := pricing.ValidateCoupon(coupon, subtotal); err != nil {
		return pricing.Coupon{}, err
	}
	if err := s.Store.SetJSON(ctx, store.KeySelectedCoupon, coupon); err != nil {
		return pricing.Coupon{}, fmt.Errorf("save selected coupon: %w", err)
	}
	return coupon, nil
}

// ClearSelection removes the current coupon selection.
func (s *Service) ClearSelection(ctx context.Context) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	return s.Store.Delete(ctx, store.KeySelectedCoupon)
}

// Seed writes the default coupons when none exist. It reports whether a write happened.
func (s *Service) Seed(ctx context.Context, force bool) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("coupon service not configured")
	}
	if !force {
		var existing []pricing.Coupon
		ok, err := s.Store.GetJSON(ctx, store.KeyCoupons, &existing)
		if err != nil {
			return false, fmt.Errorf("load coupons: %w", err)
		}
		if ok {
			return false, nil
		}
	}
	if err := s.Store.SetJSON(ctx, store.KeyCoupons, DefaultCoupons()); err != nil {
		return false, fmt.Errorf("seed coupons: %w", err)
	}
	return true, nil
}

// DefaultCoupons returns the two coupons the shop starts with.
func DefaultCoupons() []pricing.Coupon {
	return []pricing.Coupon{
		{Name: "5000 off", Code: "AMOUNT5000", Type: pricing.DiscountAmount, Value: 5000},
		{Name: "10% off", Code: "PERCENT10", Type: pricing.DiscountPercentage, Value: 10},
	}
}

func validate(coupon pricing.Coupon) error {
	if coupon.Code == "" {
		return fmt.Errorf("code is required: %w", ErrInvalidInput)
	}
	if coupon.Name == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if coupon.Value < 0 {
		return fmt.Errorf("discount value must be non-negative: %w", ErrInvalidInput)
	}
	switch coupon.Type {
	case pricing.DiscountPercentage:
		if coupon.Value > 100 {
			return fmt.Errorf("percentage cannot exceed 100: %w", ErrInvalidInput)
		}
	case pricing.DiscountAmount:
		if coupon.Value > MaxAmountValue {
			return fmt.Errorf("amount cannot exceed %d: %w", MaxAmountValue, ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown discount type %q: %w", coupon.Type, ErrInvalidInput)
	}
	return nil
}
