package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/apperr"
)

// Validator verifies coupon codes remotely and enforces the minimum
// purchase rule locally.
type Validator struct {
	verifier Verifier
}

// NewValidator creates a Validator backed by the given Verifier.
func NewValidator(v Verifier) *Validator {
	return &Validator{verifier: v}
}

// Apply verifies code and computes its discount against subtotal.
//
// Errors:
//   - *apperr.ValidationError when code is blank;
//   - *InvalidCouponError when the promotions service rejects the code;
//   - *MinimumPurchaseError when subtotal is below the coupon minimum;
//   - network and server errors from the Verifier, unchanged.
func (v *Validator) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &apperr.ValidationError{Field: "couponCode", Message: "Please enter a coupon code"}
	}

	terms, err := v.verifier.VerifyCoupon(ctx, code)
	if err != nil {
		var invalid *InvalidCouponError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, errors.Wrap(err, "verify coupon")
	}

	if terms.MinimumPurchase != nil && subtotal.LessThan(*terms.MinimumPurchase) {
		return nil, &MinimumPurchaseError{Code: code, Minimum: *terms.MinimumPurchase}
	}

	amount, err := Amount(terms.DiscountType, terms.DiscountValue, subtotal)
	if err != nil {
		return nil, err
	}

	return &Coupon{
		Code:            code,
		DiscountType:    terms.DiscountType,
		DiscountValue:   terms.DiscountValue,
		MinimumPurchase: terms.MinimumPurchase,
		DiscountAmount:  amount,
	}, nil
}
