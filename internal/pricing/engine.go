package pricing

import (
	"errors"
	"fmt"
	"math"
)

// Money represents a monetary value in whole currency units.
type Money = int64

const (
	// BulkQuantity is the line-item quantity that activates the cart-wide bulk bonus.
	BulkQuantity = 10
	// BulkBonusRate is the flat rate added to every line when the bulk bonus is active.
	BulkBonusRate = 0.05
	// MaxEffectiveRate caps the combined tier plus bulk discount rate.
	MaxEffectiveRate = 0.5
	// PercentageCouponMinSubtotal is the discounted subtotal a cart must reach
	// before a percentage coupon may be selected.
	PercentageCouponMinSubtotal Money = 10000
)

// ErrPercentageUnderMinTotal is returned when a percentage coupon is selected
// while the discounted subtotal is below PercentageCouponMinSubtotal.
var ErrPercentageUnderMinTotal = errors.New("percentage coupon requires minimum subtotal")

// InsufficientStockError reports a quantity change that exceeds available stock.
type InsufficientStockError struct {
	MaxStock int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d available", e.MaxStock)
}

// DiscountTier grants a rate once a single line item's quantity reaches the threshold.
type DiscountTier struct {
	Quantity int     `json:"quantity" validate:"gte=1"`
	Rate     float64 `json:"rate" validate:"gte=0,lt=1"`
}

// Product is a catalog snapshot used for pricing. The engine never mutates it.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Price       Money          `json:"price"`
	Stock       int            `json:"stock"`
	Tiers       []DiscountTier `json:"discounts"`
	Description string         `json:"description,omitempty"`
}

// LineItem pairs a product snapshot with the quantity in the cart.
// A quantity of zero or less means the line has been removed and must not
// appear in a cart handed to the engine.
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart is an ordered sequence of line items, unique by product id.
type Cart []LineItem

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountAmount subtracts a flat amount from the discounted subtotal.
	DiscountAmount DiscountType = "amount"
	// DiscountPercentage removes a percentage of the discounted subtotal.
	DiscountPercentage DiscountType = "percentage"
)

// Coupon is a cart-level discount applied after per-item discounts.
type Coupon struct {
	Name  string       `json:"name"`
	Code  string       `json:"code"`
	Type  DiscountType `json:"discountType"`
	Value int64        `json:"discountValue"`
}

// Totals aggregates cart totals before and after discounts.
type Totals struct {
	TotalBeforeDiscount Money `json:"totalBeforeDiscount"`
	TotalAfterDiscount  Money `json:"totalAfterDiscount"`
}

// ItemDiscountRate returns the maximum tier rate the line item's quantity
// satisfies, or zero when no tier applies. Tiers need not be sorted; a tier
// with a higher threshold never overrides a satisfied tier with a larger rate.
func ItemDiscountRate(item LineItem) float64 {
	var max float64
	for _, tier := range item.Product.Tiers {
		if item.Quantity >= tier.Quantity && tier.Rate > max {
			max = tier.Rate
		}
	}
	return max
}

// BulkBonusActive reports whether any line in the cart reaches BulkQuantity.
// The signal is cart-wide: one qualifying line grants the bonus to every line.
func BulkBonusActive(cart Cart) bool {
	for _, item := range cart {
		if item.Quantity >= BulkQuantity {
			return true
		}
	}
	return false
}

// ItemDiscountedTotal computes the line total after the tier rate and the
// bulk bonus, rounded to the nearest whole unit.
func ItemDiscountedTotal(item LineItem, cart Cart) Money {
	rate := ItemDiscountRate(item)
	if BulkBonusActive(cart) {
		rate = math.Min(rate+BulkBonusRate, MaxEffectiveRate)
	}
	return round(float64(item.Product.Price) * float64(item.Quantity) * (1 - rate))
}

// ItemDiscountPercent derives the display percentage for a line item. It is
// zero whenever the discounted total equals the undiscounted price.
func ItemDiscountPercent(item LineItem, cart Cart) int {
	original := item.Product.Price * Money(item.Quantity)
	if original <= 0 {
		return 0
	}
	discounted := ItemDiscountedTotal(item, cart)
	if discounted >= original {
		return 0
	}
	return int(round((1 - float64(discounted)/float64(original)) * 100))
}

// SubtotalAfterItemDiscounts sums the discounted line totals without any
// coupon adjustment. This is the amount coupon eligibility is checked against.
func SubtotalAfterItemDiscounts(cart Cart) Money {
	var subtotal Money
	for _, item := range cart {
		subtotal += ItemDiscountedTotal(item, cart)
	}
	return subtotal
}

// CartTotals computes totals for a cart snapshot and an optional coupon.
// A non-nil coupon is applied verbatim: eligibility is a separate check the
// caller runs via ValidateCoupon before selecting the coupon.
func CartTotals(cart Cart, coupon *Coupon) Totals {
	var before Money
	for _, item := range cart {
		before += item.Product.Price * Money(item.Quantity)
	}
	after := SubtotalAfterItemDiscounts(cart)

	if coupon != nil {
		switch coupon.Type {
		case DiscountAmount:
			after -= coupon.Value
			if after < 0 {
				after = 0
			}
		default:
			after = round(float64(after) * (1 - float64(coupon.Value)/100))
		}
	}
	return Totals{TotalBeforeDiscount: before, TotalAfterDiscount: after}
}

// ValidateCoupon checks whether the coupon may be selected against the
// provided discounted subtotal. Amount coupons have no floor.
func ValidateCoupon(coupon Coupon, subtotalAfterItemDiscounts Money) error {
	if coupon.Type == DiscountPercentage && subtotalAfterItemDiscounts < PercentageCouponMinSubtotal {
		return ErrPercentageUnderMinTotal
	}
	return nil
}

// ValidateQuantityChange checks a proposed quantity against product stock.
// Removal of a line (quantity <= 0) is not this validator's concern.
func ValidateQuantityChange(product Product, newQuantity int) error {
	if newQuantity > product.Stock {
		return &InsufficientStockError{MaxStock: product.Stock}
	}
	return nil
}

// RemainingStock returns the units still available for a product given the
// quantity already in the cart. The value is not clamped so a cart that
// violates the stock invariant is visible to the caller.
func RemainingStock(product Product, cart Cart) int {
	for _, item := range cart {
		if item.Product.ID == product.ID {
			return product.Stock - item.Quantity
		}
	}
	return product.Stock
}

// round matches the reference rounding behaviour: halves round up for the
// non-negative values this engine operates on.
func round(v float64) Money {
	return Money(math.Round(v))
}
