package coupon

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrUnsupportedDiscount is returned for discount types other than
// percentage and fixed.
var ErrUnsupportedDiscount = errors.New("unsupported discount type")

// Terms are the discount rules returned by the verification endpoint.
type Terms struct {
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	MinimumPurchase *decimal.Decimal
}

// Coupon is the single active coupon of a cart.
type Coupon struct {
	Code            string           `json:"code"`
	DiscountType    DiscountType     `json:"discountType"`
	DiscountValue   decimal.Decimal  `json:"discountValue"`
	MinimumPurchase *decimal.Decimal `json:"minimumPurchase,omitempty"`
	// DiscountAmount is the discount computed against the subtotal at the
	// time the coupon was applied.
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// Verifier checks a coupon code against the promotions service.
type Verifier interface {
	VerifyCoupon(ctx context.Context, code string) (*Terms, error)
}

// InvalidCouponError carries the promotions service's rejection message.
type InvalidCouponError struct {
	Code    string
	Message string
}

func (e *InvalidCouponError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid coupon code %q", e.Code)
	}
	return fmt.Sprintf("invalid coupon code %q: %s", e.Code, e.Message)
}

// UserMessage implements apperr.Messaged.
func (e *InvalidCouponError) UserMessage() string {
	if e.Message == "" {
		return "Invalid coupon code"
	}
	return e.Message
}

// MinimumPurchaseError is returned when the subtotal is below the coupon's
// minimum purchase amount.
type MinimumPurchaseError struct {
	Code    string
	Minimum decimal.Decimal
}

func (e *MinimumPurchaseError) Error() string {
	return fmt.Sprintf("coupon %q requires a minimum purchase of $%s", e.Code, e.Minimum.StringFixed(2))
}

// UserMessage implements apperr.Messaged.
func (e *MinimumPurchaseError) UserMessage() string {
	return fmt.Sprintf("Minimum purchase of $%s required for this coupon", e.Minimum.StringFixed(2))
}
