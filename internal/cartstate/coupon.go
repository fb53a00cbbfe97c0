package cartstate

import (
	"context"

	"github.com/xenking/atelier-cart/internal/domain/coupon"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// Coupon returns the active coupon, or nil.
func (c *Container) Coupon() *coupon.Coupon {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coupon == nil {
		return nil
	}
	cp := *c.coupon
	return &cp
}

// ApplyCoupon verifies code against the current subtotal and makes it the
// active coupon. Any failure clears the active coupon.
func (c *Container) ApplyCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	c.mu.Lock()
	subtotal := pricing.Subtotal(c.cart.Items)
	c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "ApplyCoupon")
	cp, err := c.coupons.Apply(ctx, code, subtotal)
	endSpan(span, err)

	c.mu.Lock()
	c.coupon = cp
	c.mu.Unlock()

	if err != nil {
		return nil, c.finish(ctx, ScopeCoupon, "apply", err)
	}
	c.opts.Notify(Notice{Level: NoticeInfo, Scope: ScopeCoupon, Message: "Coupon applied"})
	out := *cp
	return &out, c.finish(ctx, ScopeCoupon, "apply", nil)
}

// RemoveCoupon clears the active coupon and its error.
func (c *Container) RemoveCoupon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = nil
	c.errs.Coupon = ""
}
