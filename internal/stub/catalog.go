package stub

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry served by the stub.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Images []string
}

// DefaultCatalog is a small fashion catalog for local runs.
func DefaultCatalog() []Product {
	p := func(id, name, price string) Product {
		return Product{
			ID:     id,
			Name:   name,
			Price:  decimal.RequireFromString(price),
			Images: []string{"/images/" + id + ".jpg"},
		}
	}
	return []Product{
		p("linen-shirt", "Linen Shirt", "29.99"),
		p("silk-scarf", "Silk Scarf", "10.00"),
		p("wool-coat", "Wool Coat", "189.00"),
		p("denim-jacket", "Denim Jacket", "74.50"),
		p("leather-belt", "Leather Belt", "24.95"),
		p("canvas-tote", "Canvas Tote", "15.00"),
	}
}

// ReadCatalog decodes a JSON array of products. Images may be a list of
// URLs or an object of named renditions, whose values are kept in
// document order.
func ReadCatalog(r io.Reader) ([]Product, error) {
	var out []Product
	err := jx.Decode(r, 4096).Arr(func(d *jx.Decoder) error {
		var p Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id", "_id":
				p.ID, err = d.Str()
			case "name":
				p.Name, err = d.Str()
			case "price":
				p.Price, err = readDecimal(d)
			case "images":
				err = d.Arr(func(d *jx.Decoder) error {
					s, err := d.Str()
					p.Images = append(p.Images, s)
					return err
				})
			case "image":
				err = d.Obj(func(d *jx.Decoder, _ string) error {
					s, err := d.Str()
					if s != "" {
						p.Images = append(p.Images, s)
					}
					return err
				})
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		if p.ID == "" {
			return errors.Errorf("product %d: missing id", len(out))
		}
		if p.Price.IsNegative() {
			return errors.Errorf("product %s: negative price", p.ID)
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return out, nil
}
