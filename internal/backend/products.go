package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/domain/cart"
)

func (p productFields) product() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, ImageRef: p.Image}
}

// FetchProduct returns the catalog entry for productID.
func (c *Client) FetchProduct(ctx context.Context, productID string) (cart.Product, error) {
	raw, err := c.do(ctx, "fetch product", http.MethodGet, nil, "products", productID)
	if err != nil {
		return cart.Product{}, err
	}
	var p productFields
	if err := p.decode(jx.DecodeBytes(raw)); err != nil {
		return cart.Product{}, errors.Wrap(err, "decode product")
	}
	return p.product(), nil
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]cart.Product, error) {
	raw, err := c.do(ctx, "list products", http.MethodGet, nil, "products")
	if err != nil {
		return nil, err
	}
	var out []cart.Product
	if err := jx.DecodeBytes(raw).Arr(func(d *jx.Decoder) error {
		var p productFields
		if err := p.decode(d); err != nil {
			return err
		}
		out = append(out, p.product())
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}
