package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/cart"
)

// ErrBulkClearUnsupported is returned by ClearCart when the backend has no
// bulk delete endpoint.
var ErrBulkClearUnsupported = errors.New("bulk cart clear is not supported")

// AddCartItem is the body of POST /cart.
type AddCartItem struct {
	ProductID string
	Quantity  int
	Size      *string
	Color     *string
}

func encodeOptional(e *jx.Encoder, v *string) {
	if v == nil {
		e.Null()
		return
	}
	e.Str(*v)
}

// FetchCart returns the remote cart.
func (c *Client) FetchCart(ctx context.Context) (cart.Cart, error) {
	raw, err := c.do(ctx, "fetch cart", http.MethodGet, nil, "cart")
	if err != nil {
		return cart.Cart{}, err
	}
	return decodeCart(raw)
}

// AddCartItem adds a line and returns the updated remote cart.
func (c *Client) AddCartItem(ctx context.Context, item AddCartItem) (cart.Cart, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(item.ProductID)
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.FieldStart("size")
	encodeOptional(&e, item.Size)
	e.FieldStart("color")
	encodeOptional(&e, item.Color)
	e.ObjEnd()

	raw, err := c.do(ctx, "add to cart", http.MethodPost, e.Bytes(), "cart")
	if err != nil {
		return cart.Cart{}, err
	}
	return decodeCart(raw)
}

// UpdateCartItem sets the quantity of a remote cart entry.
func (c *Client) UpdateCartItem(ctx context.Context, entryID string, quantity int) (cart.Cart, error) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("quantity")
	e.Int(quantity)
	e.ObjEnd()

	raw, err := c.do(ctx, "update cart item", http.MethodPatch, e.Bytes(), "cart", entryID)
	if err != nil {
		return cart.Cart{}, err
	}
	return decodeCart(raw)
}

// RemoveCartItem deletes a remote cart entry.
func (c *Client) RemoveCartItem(ctx context.Context, entryID string) (cart.Cart, error) {
	raw, err := c.do(ctx, "remove cart item", http.MethodDelete, nil, "cart", entryID)
	if err != nil {
		return cart.Cart{}, err
	}
	return decodeCart(raw)
}

// ClearCart deletes the whole remote cart in one call. Backends without the
// endpoint yield ErrBulkClearUnsupported.
func (c *Client) ClearCart(ctx context.Context) error {
	_, err := c.do(ctx, "clear cart", http.MethodDelete, nil, "cart")
	var srvErr *apperr.ServerError
	if errors.As(err, &srvErr) {
		switch srvErr.Status {
		case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
			return errors.Wrapf(ErrBulkClearUnsupported, "clear cart: status %d", srvErr.Status)
		}
	}
	return err
}
