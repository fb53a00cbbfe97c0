package cartstate

import (
	"context"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

// localIDPrefix marks wishlist items created without the backend.
const localIDPrefix = "local-"

// Wishlist returns a copy of the wishlist.
func (c *Container) Wishlist() wishlist.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneList(c.wishlist)
}

// InWishlist reports whether productID is saved.
func (c *Container) InWishlist(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wishlist.Contains(productID)
}

func (c *Container) localItem(p cart.Product) wishlist.Item {
	return wishlist.Item{
		ID:        localIDPrefix + c.opts.NewID(),
		ProductID: p.ID,
		Product: wishlist.ProductSnapshot{
			Name:     p.Name,
			Price:    p.Price,
			ImageRef: p.ImageRef,
		},
		AddedAt: c.opts.Now(),
	}
}

func (c *Container) replaceWishlist(ctx context.Context, l wishlist.List) {
	c.mu.Lock()
	c.wishlist = l
	c.mu.Unlock()
	c.persistWishlist(ctx)
}

// AddToWishlist saves p. Saving a product twice is a no-op.
//
// While signed in the request is retried on network errors. If every attempt
// fails with a network error and the wishlist policy is optimistic, the item
// is saved locally anyway and the error is still returned.
func (c *Container) AddToWishlist(ctx context.Context, p cart.Product) error {
	c.mu.Lock()
	if c.wishlist.Contains(p.ID) {
		c.mu.Unlock()
		return c.finish(ctx, ScopeWishlist, "add", nil)
	}
	if !c.remoteAuthority() {
		c.wishlist = wishlist.Add(c.wishlist, c.localItem(p))
		c.mu.Unlock()
		c.persistWishlist(ctx)
		return c.finish(ctx, ScopeWishlist, "add", nil)
	}
	c.mu.Unlock()

	l, err := retry(ctx, c, "AddWishlistItem", func(ctx context.Context) (wishlist.List, error) {
		return c.remote.AddWishlistItem(ctx, p.ID)
	})
	if err != nil {
		if apperr.IsNetwork(err) && c.opts.WishlistPolicy == PolicyOptimisticLocal {
			c.mu.Lock()
			c.wishlist = wishlist.Add(c.wishlist, c.localItem(p))
			c.mu.Unlock()
			c.persistWishlist(ctx)
		}
		return c.finish(ctx, ScopeWishlist, "add", err)
	}
	c.replaceWishlist(ctx, l)
	return c.finish(ctx, ScopeWishlist, "add", nil)
}

// RemoveFromWishlist drops the item saved for productID. Items saved
// optimistically are removed locally without a request.
func (c *Container) RemoveFromWishlist(ctx context.Context, productID string) error {
	c.mu.Lock()
	item, ok := c.wishlist.Find(productID)
	if !ok {
		c.mu.Unlock()
		return c.finish(ctx, ScopeWishlist, "remove", nil)
	}
	if !c.remoteAuthority() || item.IsLocal() {
		c.wishlist = wishlist.Remove(c.wishlist, productID)
		c.mu.Unlock()
		c.persistWishlist(ctx)
		return c.finish(ctx, ScopeWishlist, "remove", nil)
	}
	c.mu.Unlock()

	l, err := retry(ctx, c, "RemoveWishlistItem", func(ctx context.Context) (wishlist.List, error) {
		return c.remote.RemoveWishlistItem(ctx, item.ID)
	})
	if err != nil {
		return c.finish(ctx, ScopeWishlist, "remove", err)
	}
	c.replaceWishlist(ctx, l)
	return c.finish(ctx, ScopeWishlist, "remove", nil)
}

// ClearWishlist removes every saved item.
func (c *Container) ClearWishlist(ctx context.Context) error {
	if c.State().Authenticated() {
		_, err := retry(ctx, c, "ClearWishlist", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.ClearWishlist(ctx)
		})
		if err != nil {
			return c.finish(ctx, ScopeWishlist, "clear", err)
		}
	}
	c.replaceWishlist(ctx, wishlist.List{})
	return c.finish(ctx, ScopeWishlist, "clear", nil)
}

// MoveToCart adds the saved product to the cart and then removes it from the
// wishlist. The wishlist is left untouched when the cart add fails.
func (c *Container) MoveToCart(ctx context.Context, productID string, quantity int, size, color *string) error {
	c.mu.Lock()
	item, ok := c.wishlist.Find(productID)
	c.mu.Unlock()
	if !ok {
		return c.finish(ctx, ScopeWishlist, "move", &apperr.NotFoundError{Resource: "wishlist item", ID: productID})
	}

	p := cart.Product{
		ID:       item.ProductID,
		Name:     item.Product.Name,
		Price:    item.Product.Price,
		ImageRef: item.Product.ImageRef,
	}
	if err := c.AddToCart(ctx, p, quantity, size, color); err != nil {
		return err
	}
	return c.RemoveFromWishlist(ctx, productID)
}
