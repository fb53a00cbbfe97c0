package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

// CheckoutConfig holds the business constants of the checkout page.
type CheckoutConfig struct {
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	// TaxRate is a fraction, e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
}

// DefaultCheckoutConfig returns the storefront's standard rules: free
// shipping over $100, otherwise $10, and 8% tax.
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Checkout is the full order summary shown before placing an order.
type Checkout struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// Calculate derives shipping, tax and the grand total. Tax is charged on the
// pre-discount subtotal and shipping is decided on the same amount.
func Calculate(cfg CheckoutConfig, lines []cart.LineItem, c *coupon.Coupon) Checkout {
	t := Summarize(lines, c)

	shipping := cfg.FlatShippingFee
	if t.Subtotal.GreaterThan(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := t.Subtotal.Mul(cfg.TaxRate)

	return Checkout{
		Subtotal:   t.Subtotal,
		Discount:   t.Discount,
		Shipping:   shipping,
		Tax:        tax,
		GrandTotal: t.Subtotal.Sub(t.Discount).Add(shipping).Add(tax),
	}
}
