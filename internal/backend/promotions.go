package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
)

var _ coupon.Verifier = (*Client)(nil)

// VerifyCoupon checks code with the promotions service. A rejected code is
// reported as *coupon.InvalidCouponError with the server's message; network
// failures pass through unchanged.
func (c *Client) VerifyCoupon(ctx context.Context, code string) (*coupon.Terms, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("couponCode")
	e.Str(code)
	e.ObjEnd()

	raw, err := c.do(ctx, "verify coupon", http.MethodPost, e.Bytes(), "promotions", "verify-coupon")
	if err != nil {
		var srvErr *apperr.ServerError
		if errors.As(err, &srvErr) {
			return nil, &coupon.InvalidCouponError{Code: code, Message: srvErr.Message}
		}
		return nil, err
	}

	terms, err := decodeTerms(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode coupon terms")
	}
	return terms, nil
}

func decodeTerms(raw jx.Raw) (*coupon.Terms, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty coupon payload")
	}
	var t coupon.Terms
	err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "discountType":
			var s string
			s, err = decodeString(d)
			t.DiscountType = coupon.DiscountType(s)
		case "discountValue":
			t.DiscountValue, err = decodeDecimal(d)
		case "minimumPurchase":
			t.MinimumPurchase, err = decodeOptionalDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
