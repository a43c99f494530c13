package pricing

import (
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrInvalidPolicy = errors.New("invalid pricing policy")

// DefaultPolicy is the canonical storefront policy: 16% tax, a flat 5.00 shipping
// fee, free shipping above 100.00. Cart display and checkout must both price with
// the same policy value.
func DefaultPolicy() domain.PricingPolicy {
	return domain.PricingPolicy{
		TaxRate:               decimal.RequireFromString("0.16"),
		ShippingFlatFee:       500,
		FreeShippingThreshold: 10000,
	}
}

// ValidatePolicy rejects negative rates and amounts.
func ValidatePolicy(p domain.PricingPolicy) error {
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("%w: tax rate %s is negative", ErrInvalidPolicy, p.TaxRate)
	}
	if p.ShippingFlatFee < 0 {
		return fmt.Errorf("%w: shipping fee %d is negative", ErrInvalidPolicy, p.ShippingFlatFee)
	}
	if p.FreeShippingThreshold < 0 {
		return fmt.Errorf("%w: free shipping threshold %d is negative", ErrInvalidPolicy, p.FreeShippingThreshold)
	}
	return nil
}

// Price derives the breakdown for a cart.
func Price(c domain.Cart, p domain.PricingPolicy) domain.PriceBreakdown {
	return FromSubtotal(c.Subtotal(), p)
}

// PriceLines prices a bare list of lines, as copied into an order.
func PriceLines(lines []domain.CartLine, p domain.PricingPolicy) domain.PriceBreakdown {
	var subtotal domain.Money
	for _, l := range lines {
		subtotal += l.LineTotal()
	}
	return FromSubtotal(subtotal, p)
}

// FromSubtotal applies the policy to a subtotal. Shipping is free only when the
// subtotal is strictly greater than the threshold.
func FromSubtotal(subtotal domain.Money, p domain.PricingPolicy) domain.PriceBreakdown {
	shipping := p.ShippingFlatFee
	if subtotal > p.FreeShippingThreshold {
		shipping = 0
	}
	tax := Tax(subtotal, p.TaxRate)

	return domain.PriceBreakdown{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		TaxAmount:    tax,
		Total:        subtotal + shipping + tax,
	}
}

// Tax is subtotal * rate rounded half away from zero to whole minor units.
func Tax(subtotal domain.Money, rate decimal.Decimal) domain.Money {
	return domain.Money(subtotal.Decimal().Mul(rate).Round(0).IntPart())
}
