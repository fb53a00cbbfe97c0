package stub

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range s.opts.Catalog {
			s.encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.catalog[chi.URLParam(r, "productID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { s.encodeProduct(e, p) })
}

func (s *Server) verifyCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var code string
	err = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "couponCode" || d.Next() != jx.String {
			return d.Skip()
		}
		var err error
		code, err = d.Str()
		return err
	})
	code = strings.ToUpper(strings.TrimSpace(code))
	if err != nil || code == "" {
		writeError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	rule, ok := s.coupons[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Invalid or expired coupon code")
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(rule.Code)
		e.FieldStart("discountType")
		e.Str(string(rule.DiscountType))
		e.FieldStart("discountValue")
		s.encodeNumber(e, rule.DiscountValue)
		e.FieldStart("minimumPurchase")
		if rule.MinimumPurchase == nil {
			e.Null()
		} else {
			s.encodeNumber(e, *rule.MinimumPurchase)
		}
		e.ObjEnd()
	})
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		items      int
		total      = decimal.Zero
		couponCode string
		hasAddress bool
	)
	err = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "shippingAddress":
			hasAddress = d.Next() == jx.Object
			err = d.Skip()
		case "items":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			err = d.Arr(func(d *jx.Decoder) error {
				items++
				return d.Skip()
			})
		case "total":
			total, err = readDecimal(d)
		case "couponCode":
			if d.Next() != jx.String {
				return d.Skip()
			}
			couponCode, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	switch {
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	case !hasAddress:
		writeError(w, http.StatusBadRequest, "Shipping address is required")
		return
	case items == 0:
		writeError(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}
	if couponCode != "" {
		if _, ok := s.coupons[strings.ToUpper(couponCode)]; !ok {
			writeError(w, http.StatusBadRequest, "Invalid or expired coupon code")
			return
		}
	}

	token := shopperToken(r.Context())
	o := placedOrder{
		ID:         s.opts.NewID(),
		Token:      token,
		Items:      items,
		Total:      total.String(),
		CouponCode: couponCode,
		CreatedAt:  s.opts.Now(),
	}

	s.mu.Lock()
	s.orders = append(s.orders, o)
	delete(s.carts, token)
	s.mu.Unlock()

	s.opts.Logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("items", items),
		zap.String("total", o.Total),
	)

	writeData(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("_id")
		e.Str(o.ID)
		e.FieldStart("status")
		e.Str("pending")
		e.FieldStart("total")
		s.encodeNumber(e, total)
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
		e.ObjEnd()
	})
}
