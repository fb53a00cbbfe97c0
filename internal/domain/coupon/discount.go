package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Amount computes the discount for the given rule against subtotal. The
// result is clamped to [0, subtotal]. No rounding is applied.
func Amount(t DiscountType, value, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch t {
	case DiscountPercentage:
		amount = subtotal.Mul(value).Div(hundred)
	case DiscountFixed:
		amount = value
	default:
		return decimal.Zero, errors.Wrapf(ErrUnsupportedDiscount, "%q", t)
	}
	return clamp(amount, subtotal), nil
}

// Recompute returns the coupon's discount against a new subtotal. Unknown
// discount types yield zero.
func (c *Coupon) Recompute(subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	amount, err := Amount(c.DiscountType, c.DiscountValue, subtotal)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func clamp(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() || subtotal.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, subtotal)
}
