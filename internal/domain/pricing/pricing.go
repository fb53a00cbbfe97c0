// Package pricing derives cart and checkout totals from line items and the
// active coupon. Values are exact decimal sums; rounding is left to display.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

// Totals is the cart-level summary.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal returns the sum of unit price * quantity over all lines.
func Subtotal(lines []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Summarize computes subtotal, coupon discount and total. A nil coupon gives
// a zero discount.
func Summarize(lines []cart.LineItem, c *coupon.Coupon) Totals {
	subtotal := Subtotal(lines)
	discount := c.Recompute(subtotal)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

// Round2 rounds v half away from zero to cents for display.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
