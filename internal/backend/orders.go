package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/order"
)

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	a := o.ShippingAddress
	e.ObjStart()

	e.FieldStart("shippingAddress")
	e.ObjStart()
	for _, f := range []struct{ name, value string }{
		{"fullName", a.FullName},
		{"addressLine1", a.Line1},
		{"addressLine2", a.Line2},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	} {
		if f.value == "" {
			continue
		}
		e.FieldStart(f.name)
		e.Str(f.value)
	}
	e.ObjEnd()

	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("price")
		encodeDecimal(e, it.Price)
		e.FieldStart("size")
		encodeOptional(e, it.Size)
		e.FieldStart("color")
		encodeOptional(e, it.Color)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("subtotal")
	encodeDecimal(e, o.Subtotal)
	e.FieldStart("shippingCost")
	encodeDecimal(e, o.ShippingCost)
	e.FieldStart("tax")
	encodeDecimal(e, o.Tax)
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	if o.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(o.CouponCode)
	}

	e.ObjEnd()
}

// PlaceOrder submits o and returns the created order.
func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) (*order.Receipt, error) {
	var e jx.Encoder
	encodeOrder(&e, o)

	raw, err := c.do(ctx, "place order", http.MethodPost, e.Bytes(), "orders")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("place order: empty response")
	}

	var r order.Receipt
	err = jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "_id", "id":
			r.ID, err = decodeString(d)
		case "status":
			r.Status, err = decodeString(d)
		case "total":
			r.Total, err = decodeDecimal(d)
		case "createdAt":
			r.CreatedAt, err = decodeTime(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "place order: decode receipt")
	}
	if r.ID == "" {
		return nil, errors.New("place order: receipt without id")
	}
	return &r, nil
}
