package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

func (c *Client) FetchWishlist(ctx context.Context) (wishlist.List, error) {
	raw, err := c.do(ctx, "fetch wishlist", http.MethodGet, nil, "wishlist")
	if err != nil {
		return nil, err
	}
	return decodeWishlist(raw)
}

// AddWishlistItem saves productID and returns the updated remote wishlist.
func (c *Client) AddWishlistItem(ctx context.Context, productID string) (wishlist.List, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(productID)
	e.ObjEnd()

	raw, err := c.do(ctx, "add to wishlist", http.MethodPost, e.Bytes(), "wishlist")
	if err != nil {
		return nil, err
	}
	return decodeWishlist(raw)
}

func (c *Client) RemoveWishlistItem(ctx context.Context, itemID string) (wishlist.List, error) {
	raw, err := c.do(ctx, "remove from wishlist", http.MethodDelete, nil, "wishlist", itemID)
	if err != nil {
		return nil, err
	}
	return decodeWishlist(raw)
}

func (c *Client) ClearWishlist(ctx context.Context) error {
	_, err := c.do(ctx, "clear wishlist", http.MethodDelete, nil, "wishlist")
	return err
}
