package cartstate

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/order"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// ErrSignInRequired is returned when an order is placed while signed out.
var ErrSignInRequired = &apperr.ValidationError{Message: "Please sign in to place an order"}

// PlaceOrder submits the cart with the active coupon. On success the cart and
// coupon are cleared.
func (c *Container) PlaceOrder(ctx context.Context, req order.Request) (*order.Receipt, error) {
	c.mu.Lock()
	if !c.remoteAuthority() {
		c.mu.Unlock()
		return nil, c.finish(ctx, ScopeCheckout, "place_order", ErrSignInRequired)
	}
	lines := c.cart.Clone().Items
	summary := pricing.Calculate(c.opts.Checkout, lines, c.coupon)
	code := ""
	if c.coupon != nil {
		code = c.coupon.Code
	}
	c.mu.Unlock()

	o, err := c.orders.Build(req, lines, summary, code)
	if err != nil {
		return nil, c.finish(ctx, ScopeCheckout, "place_order", err)
	}

	ctx, span := c.startSpan(ctx, "PlaceOrder")
	receipt, err := c.remote.PlaceOrder(ctx, o)
	endSpan(span, err)
	if err != nil {
		return nil, c.finish(ctx, ScopeCheckout, "place_order", err)
	}

	c.mu.Lock()
	c.cart = cart.Cart{Items: []cart.LineItem{}}
	c.coupon = nil
	c.errs.Coupon = ""
	c.mu.Unlock()
	c.persistCart(ctx)

	c.lg.Info("Order placed",
		zap.String("order_id", receipt.ID),
		zap.String("total", receipt.Total.String()),
	)
	c.opts.Notify(Notice{Level: NoticeInfo, Scope: ScopeCheckout, Message: "Order placed"})
	return receipt, c.finish(ctx, ScopeCheckout, "place_order", nil)
}
