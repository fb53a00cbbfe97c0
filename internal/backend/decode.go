package backend

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

// decodeDecimal reads a number or a numeric string. Anything else, including
// strings that do not parse, yields zero.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var s string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		s = n.String()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(v)
	default:
		return decimal.Zero, d.Skip()
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, nil
	}
	return v, nil
}

// decodeOptionalDecimal is decodeDecimal with null mapped to nil.
func decodeOptionalDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := decodeDecimal(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeQuantity reads a number or numeric string and applies the cart's
// quantity rules, so the result is always at least 1.
func decodeQuantity(d *jx.Decoder) (int, error) {
	var s string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		s = n.String()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return 0, err
		}
		s = v
	default:
		return 1, d.Skip()
	}
	return cart.CoerceQuantity(cart.ParseQuantity(s)), nil
}

// decodeOptionalString maps null and "" to nil.
func decodeOptionalString(d *jx.Decoder) (*string, error) {
	if d.Next() != jx.String {
		return nil, d.Skip()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return cart.Option(s), nil
}

func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() != jx.String {
		return "", d.Skip()
	}
	return d.Str()
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// productFields is the subset of a product document the client keeps.
type productFields struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	HasPrice bool
	Image    string
}

func (p *productFields) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id", "id":
			p.ID, err = decodeString(d)
		case "name", "title":
			p.Name, err = decodeString(d)
		case "price":
			t := d.Next()
			p.HasPrice = t == jx.Number || t == jx.String
			p.Price, err = decodeDecimal(d)
		case "image", "imageUrl":
			var s string
			s, err = decodeString(d)
			if p.Image == "" {
				p.Image = s
			}
		case "images":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := decodeString(d)
				if p.Image == "" {
					p.Image = s
				}
				return err
			})
		default:
			err = d.Skip()
		}
		return err
	})
}

// decodeProductRef reads either a product id string or a populated product
// document.
func decodeProductRef(d *jx.Decoder) (productFields, error) {
	var p productFields
	switch d.Next() {
	case jx.String:
		id, err := d.Str()
		p.ID = id
		return p, err
	case jx.Object:
		err := p.decode(d)
		return p, err
	default:
		return p, d.Skip()
	}
}

func mergeProduct(primary, fallback productFields) productFields {
	out := primary
	if out.Name == "" {
		out.Name = fallback.Name
	}
	if !out.HasPrice {
		out.Price = fallback.Price
		out.HasPrice = fallback.HasPrice
	}
	if out.Image == "" {
		out.Image = fallback.Image
	}
	if out.ID == "" {
		out.ID = fallback.ID
	}
	return out
}

func decodeLineItem(d *jx.Decoder) (cart.LineItem, error) {
	var (
		line           = cart.LineItem{Quantity: 1}
		product, extra productFields
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id", "id":
			line.CartEntryID, err = decodeString(d)
		case "productId", "product":
			var p productFields
			p, err = decodeProductRef(d)
			product = mergeProduct(product, p)
		case "productDetails":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			err = extra.decode(d)
		case "quantity":
			line.Quantity, err = decodeQuantity(d)
		case "size":
			line.Size, err = decodeOptionalString(d)
		case "color":
			line.Color, err = decodeOptionalString(d)
		case "addedAt", "createdAt":
			var t time.Time
			t, err = decodeTime(d)
			if line.AddedAt.IsZero() {
				line.AddedAt = t
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return cart.LineItem{}, err
	}

	product = mergeProduct(product, extra)
	if product.ID == "" {
		return cart.LineItem{}, errors.New("line item without product id")
	}
	line.ProductID = product.ID
	line.Name = product.Name
	line.UnitPrice = product.Price
	line.ImageRef = product.Image
	return line, nil
}

func decodeLineItems(d *jx.Decoder) ([]cart.LineItem, error) {
	items := []cart.LineItem{}
	err := d.Arr(func(d *jx.Decoder) error {
		line, err := decodeLineItem(d)
		if err != nil {
			return err
		}
		items = append(items, line)
		return nil
	})
	return items, err
}

// decodeCart reads {items:[...]} or a bare items array.
func decodeCart(raw jx.Raw) (cart.Cart, error) {
	if len(raw) == 0 {
		return cart.Cart{Items: []cart.LineItem{}}, nil
	}
	d := jx.DecodeBytes(raw)
	var (
		items []cart.LineItem
		err   error
	)
	switch d.Next() {
	case jx.Array:
		items, err = decodeLineItems(d)
	case jx.Object:
		err = d.Obj(func(d *jx.Decoder, key string) error {
			if key != "items" || d.Next() != jx.Array {
				return d.Skip()
			}
			var err error
			items, err = decodeLineItems(d)
			return err
		})
	case jx.Null:
		err = d.Null()
	default:
		err = errors.Errorf("unexpected cart payload %s", d.Next())
	}
	if err != nil {
		return cart.Cart{}, errors.Wrap(err, "decode cart")
	}
	if items == nil {
		items = []cart.LineItem{}
	}
	return cart.Cart{Items: items}, nil
}

func decodeWishlistItem(d *jx.Decoder) (wishlist.Item, error) {
	var (
		item    wishlist.Item
		product productFields
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id", "id":
			item.ID, err = decodeString(d)
		case "productId", "product", "productDetails":
			var p productFields
			p, err = decodeProductRef(d)
			product = mergeProduct(product, p)
		case "addedAt", "createdAt":
			var t time.Time
			t, err = decodeTime(d)
			if item.AddedAt.IsZero() {
				item.AddedAt = t
			}
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return wishlist.Item{}, err
	}
	if product.ID == "" {
		return wishlist.Item{}, errors.New("wishlist item without product id")
	}
	item.ProductID = product.ID
	item.Product = wishlist.ProductSnapshot{
		Name:     product.Name,
		Price:    product.Price,
		ImageRef: product.Image,
	}
	return item, nil
}

// decodeWishlist reads a bare array or {items:[...]}.
func decodeWishlist(raw jx.Raw) (wishlist.List, error) {
	list := wishlist.List{}
	if len(raw) == 0 {
		return list, nil
	}
	each := func(d *jx.Decoder) error {
		item, err := decodeWishlistItem(d)
		if err != nil {
			return err
		}
		list = append(list, item)
		return nil
	}

	d := jx.DecodeBytes(raw)
	var err error
	switch d.Next() {
	case jx.Array:
		err = d.Arr(each)
	case jx.Object:
		err = d.Obj(func(d *jx.Decoder, key string) error {
			if key != "items" || d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(each)
		})
	case jx.Null:
		err = d.Null()
	default:
		err = errors.Errorf("unexpected wishlist payload %s", d.Next())
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode wishlist")
	}
	return list, nil
}
