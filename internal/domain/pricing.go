package domain

import "github.com/shopspring/decimal"

// PricingPolicy is supplied by the caller; nothing in the pricing engine falls back
// to hidden values.
type PricingPolicy struct {
	TaxRate               decimal.Decimal `json:"tax_rate"`
	ShippingFlatFee       Money           `json:"shipping_flat_fee"`
	FreeShippingThreshold Money           `json:"free_shipping_threshold"`
}

type PriceBreakdown struct {
	Subtotal     Money `json:"subtotal"`
	ShippingCost Money `json:"shipping_cost"`
	TaxAmount    Money `json:"tax_amount"`
	Total        Money `json:"total"`
}
