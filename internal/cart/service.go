// Package cart holds the shopping cart operations. Every mutation revalidates
// against stock through the pricing engine and commits a fresh snapshot to the
// store; totals are always recomputed, never cached.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomatopickles404/shop-api/internal/catalog"
	"github.com/tomatopickles404/shop-api/internal/coupon"
	"github.com/tomatopickles404/shop-api/internal/pricing"
	"github.com/tomatopickles404/shop-api/internal/store"
)

// ErrItemNotFound indicates the product has no line item in the cart.
var ErrItemNotFound = errors.New("cart item not found")

// Service encapsulates cart domain operations. Lock, when set, serialises the
// load-modify-save cycle on the cart document across server instances.
type Service struct {
	Store    store.Store
	Catalog  *catalog.Service
	Coupons  *coupon.Service
	Lock     *store.Mutex
	LockTTL  time.Duration
	NewOrder func() string
}

// Snapshot is the cart state returned to callers: line items plus the derived
// figures the shop pages render.
type Snapshot struct {
	Items          []Line         `json:"items"`
	TotalItemCount int            `json:"totalItemCount"`
	Totals         pricing.Totals `json:"totals"`
	SelectedCoupon *pricing.Coupon `json:"selectedCoupon,omitempty"`
}

// Line is a cart line item enriched with display figures.
type Line struct {
	Product         pricing.Product `json:"product"`
	Quantity        int             `json:"quantity"`
	DiscountedTotal pricing.Money   `json:"discountedTotal"`
	DiscountPercent int             `json:"discountPercent"`
	RemainingStock  int             `json:"remainingStock"`
}

func (s *Service) newOrder() string {
	if s != nil && s.NewOrder != nil {
		return s.NewOrder()
	}
	return "ORD-" + uuid.NewString()
}

func (s *Service) load(ctx context.Context) (pricing.Cart, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	var cart pricing.Cart
	if _, err := s.Store.GetJSON(ctx, store.KeyCart, &cart); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func (s *Service) save(ctx context.Context, cart pricing.Cart) error {
	if err := s.Store.SetJSON(ctx, store.KeyCart, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Service) withCartLock(ctx context.Context, fn func(context.Context) error) error {
	if s.Lock == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return s.Lock.WithLock(ctx, store.KeyCartLock, ttl, fn)
}

// Items returns the current cart snapshot with totals for the selected coupon.
func (s *Service) Items(ctx context.Context) (Snapshot, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	selected, err := s.selected(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(cart, selected), nil
}

// AddItem increments the product's line by one, creating the line when absent.
// The stock gate runs on the resulting quantity.
func (s *Service) AddItem(ctx context.Context, productID string) (Snapshot, error) {
	if s == nil || s.Catalog == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	var snap Snapshot
	err := s.withCartLock(ctx, func(ctx context.Context) error {
		var err error
		snap, err = s.addItem(ctx, productID)
		return err
	})
	return snap, err
}

func (s *Service) addItem(ctx context.Context, productID string) (Snapshot, error) {
	product, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	cart, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	updated := false
	for i, item := range cart {
		if item.Product.ID != productID {
			continue
		}
		newQty := item.Quantity + 1
		if err := pricing.ValidateQuantityChange(product, newQty); err != nil {
			return Snapshot{}, err
		}
		cart[i].Quantity = newQty
		updated = true
		break
	}
	if !updated {
		if err := pricing.ValidateQuantityChange(product, 1); err != nil {
			return Snapshot{}, err
		}
		// snapshot the product so later catalog edits do not reprice the cart
		cart = append(cart, pricing.LineItem{Product: product, Quantity: 1})
	}
	if err := s.save(ctx, cart); err != nil {
		return Snapshot{}, err
	}
	return s.withSelection(ctx, cart)
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line,
// mirroring the removal invariant of the cart model.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	if s == nil || s.Catalog == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	var snap Snapshot
	err := s.withCartLock(ctx, func(ctx context.Context) error {
		var err error
		snap, err = s.updateQuantity(ctx, productID, quantity)
		return err
	})
	return snap, err
}

func (s *Service) updateQuantity(ctx context.Context, productID string, quantity int) (Snapshot, error) {
	product, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := pricing.ValidateQuantityChange(product, quantity); err != nil {
		return Snapshot{}, err
	}
	cart, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for i, item := range cart {
		if item.Product.ID != productID {
			continue
		}
		cart[i].Quantity = quantity
		if err := s.save(ctx, cart); err != nil {
			return Snapshot{}, err
		}
		return s.withSelection(ctx, cart)
	}
	return Snapshot{}, ErrItemNotFound
}

// RemoveItem deletes the product's line from the cart.
func (s *Service) RemoveItem(ctx context.Context, productID string) (Snapshot, error) {
	if s == nil || s.Store == nil {
		return Snapshot{}, errors.New("cart service not configured")
	}
	var snap Snapshot
	err := s.withCartLock(ctx, func(ctx context.Context) error {
		var err error
		snap, err = s.removeItem(ctx, productID)
		return err
	})
	return snap, err
}

func (s *Service) removeItem(ctx context.Context, productID string) (Snapshot, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	kept := cart[:0]
	for _, item := range cart {
		if item.Product.ID == productID {
			continue
		}
		kept = append(kept, item)
	}
	if err := s.save(ctx, kept); err != nil {
		return Snapshot{}, err
	}
	return s.withSelection(ctx, kept)
}

// Totals recomputes cart totals for the current selection.
func (s *Service) Totals(ctx context.Context) (pricing.Totals, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return pricing.Totals{}, err
	}
	selected, err := s.selected(ctx)
	if err != nil {
		return pricing.Totals{}, err
	}
	return pricing.CartTotals(cart, selected), nil
}

// RemainingStock reports the units still available for a product given the
// current cart contents.
func (s *Service) RemainingStock(ctx context.Context, productID string) (int, error) {
	if s == nil || s.Catalog == nil {
		return 0, errors.New("cart service not configured")
	}
	product, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	cart, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return pricing.RemainingStock(product, cart), nil
}

// CompleteOrder finalises the purchase: it returns the order number and final
// totals, then clears the cart and the coupon selection.
func (s *Service) CompleteOrder(ctx context.Context) (string, pricing.Totals, error) {
	if s == nil || s.Store == nil {
		return "", pricing.Totals{}, errors.New("cart service not configured")
	}
	var (
		orderNumber string
		totals      pricing.Totals
	)
	err := s.withCartLock(ctx, func(ctx context.Context) error {
		var err error
		orderNumber, totals, err = s.completeOrder(ctx)
		return err
	})
	return orderNumber, totals, err
}

func (s *Service) completeOrder(ctx context.Context) (string, pricing.Totals, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return "", pricing.Totals{}, err
	}
	selected, err := s.selected(ctx)
	if err != nil {
		return "", pricing.Totals{}, err
	}
	totals := pricing.CartTotals(cart, selected)
	orderNumber := s.newOrder()
	if err := s.Store.Delete(ctx, store.KeyCart); err != nil {
		return "", pricing.Totals{}, fmt.Errorf("clear cart: %w", err)
	}
	if s.Coupons != nil {
		if err := s.Coupons.ClearSelection(ctx); err != nil {
			return "", pricing.Totals{}, err
		}
	}
	return orderNumber, totals, nil
}

// SelectCoupon applies the eligibility gate against the current cart and
// persists the selection on success.
func (s *Service) SelectCoupon(ctx context.Context, code string) (pricing.Coupon, error) {
	if s == nil || s.Coupons == nil {
		return pricing.Coupon{}, errors.New("cart service not configured")
	}
	cart, err := s.load(ctx)
	if err != nil {
		return pricing.Coupon{}, err
	}
	return s.Coupons.Select(ctx, code, cart)
}

// ClearCoupon removes the current coupon selection.
func (s *Service) ClearCoupon(ctx context.Context) error {
	if s == nil || s.Coupons == nil {
		return errors.New("cart service not configured")
	}
	return s.Coupons.ClearSelection(ctx)
}

func (s *Service) selected(ctx context.Context) (*pricing.Coupon, error) {
	if s.Coupons == nil {
		return nil, nil
	}
	return s.Coupons.Selected(ctx)
}

func (s *Service) withSelection(ctx context.Context, cart pricing.Cart) (Snapshot, error) {
	selected, err := s.selected(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(cart, selected), nil
}

func (s *Service) snapshot(cart pricing.Cart, selected *pricing.Coupon) Snapshot {
	snap := Snapshot{
		Items:          make([]Line, 0, len(cart)),
		Totals:         pricing.CartTotals(cart, selected),
		SelectedCoupon: selected,
	}
	for _, item := range cart {
		snap.TotalItemCount += item.Quantity
		snap.Items = append(snap.Items, Line{
			Product:         item.Product,
			Quantity:        item.Quantity,
			DiscountedTotal: pricing.ItemDiscountedTotal(item, cart),
			DiscountPercent: pricing.ItemDiscountPercent(item, cart),
			RemainingStock:  pricing.RemainingStock(item.Product, cart),
		})
	}
	return snap
}
