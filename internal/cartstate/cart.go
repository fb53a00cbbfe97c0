package cartstate

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/backend"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// Cart returns a copy of the cart.
func (c *Container) Cart() cart.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Clone()
}

// ItemCount returns the total quantity across all lines.
func (c *Container) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cart.ItemCount(c.cart)
}

// Totals prices the cart with the active coupon.
func (c *Container) Totals() pricing.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Summarize(c.cart.Items, c.coupon)
}

// Checkout prices the cart with shipping and tax.
func (c *Container) Checkout() pricing.Checkout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pricing.Calculate(c.opts.Checkout, c.cart.Items, c.coupon)
}

// replaceCart installs the backend's view of the cart.
func (c *Container) replaceCart(ctx context.Context, ct cart.Cart) {
	c.mu.Lock()
	c.cart = ct
	c.mu.Unlock()
	c.persistCart(ctx)
}

// AddToCart adds quantity of p in the given variant. A quantity below 1
// counts as 1. Adding a variant already in the cart raises its quantity.
//
// While signed in, a network failure leaves the cart unchanged unless the cart
// policy is optimistic. Then the line is added locally without a cart entry id
// and the error is still returned.
func (c *Container) AddToCart(ctx context.Context, p cart.Product, quantity int, size, color *string) error {
	quantity = cart.CoerceQuantity(quantity)

	c.mu.Lock()
	if !c.remoteAuthority() {
		c.cart = cart.AddLine(c.cart, p, quantity, size, color, c.opts.Now())
		c.mu.Unlock()
		c.persistCart(ctx)
		return c.finish(ctx, ScopeCart, "add", nil)
	}
	c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "AddCartItem")
	ct, err := c.remote.AddCartItem(ctx, backend.AddCartItem{
		ProductID: p.ID,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
	})
	endSpan(span, err)
	if err != nil {
		if apperr.IsNetwork(err) && c.opts.CartPolicy == PolicyOptimisticLocal {
			c.mu.Lock()
			c.cart = cart.AddLine(c.cart, p, quantity, size, color, c.opts.Now())
			c.mu.Unlock()
			c.persistCart(ctx)
		}
		return c.finish(ctx, ScopeCart, "add", err)
	}
	c.replaceCart(ctx, ct)
	return c.finish(ctx, ScopeCart, "add", nil)
}

// RemoveFromCart removes the lines of productID. A nil size or color matches
// any value, so an unqualified removal drops every variant of the product.
//
// While signed in, every matching line is deleted remotely and
// *apperr.NotFoundError is returned when no local line matches. Lines added
// without the backend are dropped locally. When a delete fails the cart
// reflects the deletes that succeeded before it.
func (c *Container) RemoveFromCart(ctx context.Context, productID string, size, color *string) error {
	c.mu.Lock()
	if !c.remoteAuthority() {
		c.cart = cart.RemoveLine(c.cart, productID, size, color)
		c.mu.Unlock()
		c.persistCart(ctx)
		return c.finish(ctx, ScopeCart, "remove", nil)
	}
	matches := cart.MatchLines(c.cart, productID, size, color)
	c.mu.Unlock()

	if len(matches) == 0 {
		return c.finish(ctx, ScopeCart, "remove", &apperr.NotFoundError{Resource: "cart line", ID: productID})
	}

	var (
		ct     cart.Cart
		synced bool
		err    error
	)
	for _, line := range matches {
		if line.CartEntryID == "" {
			continue
		}
		spanCtx, span := c.startSpan(ctx, "RemoveCartItem")
		next, rerr := c.remote.RemoveCartItem(spanCtx, line.CartEntryID)
		endSpan(span, rerr)
		if rerr != nil {
			err = rerr
			break
		}
		ct, synced = next, true
	}

	// Deletes that went through are kept even when a later one fails.
	c.mu.Lock()
	if synced {
		c.cart = ct
	}
	c.cart = dropLocalLines(c.cart, productID, size, color)
	c.mu.Unlock()
	c.persistCart(ctx)
	return c.finish(ctx, ScopeCart, "remove", err)
}

// dropLocalLines removes matching lines that were never stored remotely.
func dropLocalLines(ct cart.Cart, productID string, size, color *string) cart.Cart {
	out := cart.Cart{Items: make([]cart.LineItem, 0, len(ct.Items))}
	for _, it := range ct.Items {
		if it.CartEntryID == "" && it.Matches(productID, size, color) {
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// UpdateQuantity sets the quantity of the line addressed by key. A quantity
// below 1 removes the line.
//
// While signed in, *apperr.NotFoundError is returned when the line is not in
// the local cart. Lines added without the backend are updated locally.
func (c *Container) UpdateQuantity(ctx context.Context, key cart.Key, quantity int) error {
	c.mu.Lock()
	if !c.remoteAuthority() {
		c.cart = cart.SetQuantity(c.cart, key, quantity)
		c.mu.Unlock()
		c.persistCart(ctx)
		return c.finish(ctx, ScopeCart, "update", nil)
	}
	line, ok := cart.Find(c.cart, key)
	if ok && line.CartEntryID == "" {
		c.cart = cart.SetQuantity(c.cart, key, quantity)
		c.mu.Unlock()
		c.persistCart(ctx)
		return c.finish(ctx, ScopeCart, "update", nil)
	}
	c.mu.Unlock()

	if !ok {
		return c.finish(ctx, ScopeCart, "update", &apperr.NotFoundError{Resource: "cart line", ID: key.ProductID})
	}

	var (
		ct  cart.Cart
		err error
	)
	if quantity < 1 {
		spanCtx, span := c.startSpan(ctx, "RemoveCartItem")
		ct, err = c.remote.RemoveCartItem(spanCtx, line.CartEntryID)
		endSpan(span, err)
	} else {
		spanCtx, span := c.startSpan(ctx, "UpdateCartItem")
		ct, err = c.remote.UpdateCartItem(spanCtx, line.CartEntryID, quantity)
		endSpan(span, err)
	}
	if err != nil {
		return c.finish(ctx, ScopeCart, "update", err)
	}
	c.replaceCart(ctx, ct)
	return c.finish(ctx, ScopeCart, "update", nil)
}

// ClearCart empties the cart. While signed in it tries the bulk delete
// first; if that fails every line is deleted concurrently and individual
// failures are ignored. The local cart is emptied in every case.
func (c *Container) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	remote := c.remoteAuthority()
	lines := c.cart.Clone().Items
	c.mu.Unlock()

	if remote {
		c.clearRemoteCart(ctx, lines)
	}

	c.mu.Lock()
	c.cart = cart.Cart{Items: []cart.LineItem{}}
	c.mu.Unlock()
	c.persistCart(ctx)
	return c.finish(ctx, ScopeCart, "clear", nil)
}

func (c *Container) clearRemoteCart(ctx context.Context, lines []cart.LineItem) {
	ctx, span := c.startSpan(ctx, "ClearCart")
	err := c.remote.ClearCart(ctx)
	endSpan(span, err)
	if err == nil {
		return
	}
	c.lg.Info("Bulk clear failed, deleting lines one by one",
		zap.Int("lines", len(lines)),
		zap.Error(err),
	)

	var g errgroup.Group
	for _, line := range lines {
		if line.CartEntryID == "" {
			continue
		}
		g.Go(func() error {
			if _, err := c.remote.RemoveCartItem(ctx, line.CartEntryID); err != nil {
				c.lg.Warn("Delete cart line",
					zap.String("cart_entry_id", line.CartEntryID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}
