package stub

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(false)
	e.FieldStart("error")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

func writeData(w http.ResponseWriter, status int, data func(e *jx.Encoder)) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("data")
	data(&e)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

func (s *Server) encodeNumber(e *jx.Encoder, v decimal.Decimal) {
	if s.opts.StringNumbers {
		e.Str(v.String())
		return
	}
	e.Raw([]byte(v.String()))
}

func (s *Server) encodeInt(e *jx.Encoder, v int) {
	if s.opts.StringNumbers {
		e.Str(decimal.NewFromInt(int64(v)).String())
		return
	}
	e.Int(v)
}

func encodeOptional(e *jx.Encoder, v *string) {
	if v == nil {
		e.Null()
		return
	}
	e.Str(*v)
}

func (s *Server) encodeProduct(e *jx.Encoder, p Product) {
	e.ObjStart()
	e.FieldStart("_id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	s.encodeNumber(e, p.Price)
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range p.Images {
		e.Str(img)
	}
	e.ArrEnd()
	e.ObjEnd()
}

// productFor prefers the live catalog entry and falls back to the data
// stored with the line.
func (s *Server) productFor(id, name string, price decimal.Decimal, image string) Product {
	if p, ok := s.catalog[id]; ok {
		return p
	}
	p := Product{ID: id, Name: name, Price: price}
	if image != "" {
		p.Images = []string{image}
	}
	return p
}

// encodeProductRef writes "productId" either populated or, in string mode,
// as a bare id followed by a "productDetails" object.
func (s *Server) encodeProductRef(e *jx.Encoder, p Product) {
	e.FieldStart("productId")
	if !s.opts.StringNumbers {
		s.encodeProduct(e, p)
		return
	}
	e.Str(p.ID)
	e.FieldStart("productDetails")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	s.encodeNumber(e, p.Price)
	if len(p.Images) > 0 {
		e.FieldStart("image")
		e.Str(p.Images[0])
	}
	e.ObjEnd()
}

func (s *Server) encodeCart(e *jx.Encoder, c cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range c.Items {
		e.ObjStart()
		e.FieldStart("_id")
		e.Str(l.CartEntryID)
		s.encodeProductRef(e, s.productFor(l.ProductID, l.Name, l.UnitPrice, l.ImageRef))
		e.FieldStart("quantity")
		s.encodeInt(e, l.Quantity)
		e.FieldStart("size")
		encodeOptional(e, l.Size)
		e.FieldStart("color")
		encodeOptional(e, l.Color)
		e.FieldStart("addedAt")
		e.Str(l.AddedAt.UTC().Format(time.RFC3339Nano))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (s *Server) encodeWishlist(e *jx.Encoder, l wishlist.List) {
	e.ArrStart()
	for _, it := range l {
		e.ObjStart()
		e.FieldStart("_id")
		e.Str(it.ID)
		s.encodeProductRef(e, s.productFor(it.ProductID, it.Product.Name, it.Product.Price, it.Product.ImageRef))
		e.FieldStart("addedAt")
		e.Str(it.AddedAt.UTC().Format(time.RFC3339Nano))
		e.ObjEnd()
	}
	e.ArrEnd()
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
}

// readQuantity accepts a number or numeric string.
func readQuantity(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		return cart.ParseQuantity(n.String()), nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return cart.ParseQuantity(s), nil
	default:
		return 1, d.Skip()
	}
}

func readOptional(d *jx.Decoder) (*string, error) {
	if d.Next() != jx.String {
		return nil, d.Skip()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return cart.Option(strings.TrimSpace(s)), nil
}

type shopperKey struct{}

func shopperToken(ctx context.Context) string {
	token, _ := ctx.Value(shopperKey{}).(string)
	return token
}

// requireShopper accepts any non-empty bearer token and keys state by it.
func requireShopper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Please sign in to continue")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), shopperKey{}, token)))
	})
}
