package stub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/domain/cart"
)

func (s *Server) respondCart(w http.ResponseWriter, c cart.Cart) {
	writeData(w, http.StatusOK, func(e *jx.Encoder) { s.encodeCart(e, c) })
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	token := shopperToken(r.Context())

	s.mu.Lock()
	c := s.carts[token].Clone()
	s.mu.Unlock()

	s.respondCart(w, c)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		productID   string
		quantity    = 1
		size, color *string
	)
	err = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = readQuantity(d)
		case "size":
			size, err = readOptional(d)
		case "color":
			color, err = readOptional(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, ok := s.catalog[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}

	token := shopperToken(r.Context())
	s.mu.Lock()
	c := cart.AddLine(s.carts[token], cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		ImageRef: image,
	}, quantity, size, color, s.opts.Now())
	for i := range c.Items {
		if c.Items[i].CartEntryID == "" {
			c.Items[i].CartEntryID = s.opts.NewID()
		}
	}
	s.carts[token] = c
	s.mu.Unlock()

	s.respondCart(w, c.Clone())
}

func entryIndex(c cart.Cart, entryID string) int {
	for i, l := range c.Items {
		if l.CartEntryID == entryID {
			return i
		}
	}
	return -1
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	quantity := 0
	hasQuantity := false
	err = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		hasQuantity = true
		var err error
		quantity, err = readQuantity(d)
		return err
	})
	if err != nil || !hasQuantity {
		writeError(w, http.StatusBadRequest, "Quantity is required")
		return
	}

	token := shopperToken(r.Context())
	entryID := chi.URLParam(r, "entryID")

	s.mu.Lock()
	c := s.carts[token]
	i := entryIndex(c, entryID)
	if i < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}
	c = cart.SetQuantity(c, c.Items[i].Key(), quantity)
	s.carts[token] = c
	s.mu.Unlock()

	s.respondCart(w, c.Clone())
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	token := shopperToken(r.Context())
	entryID := chi.URLParam(r, "entryID")

	s.mu.Lock()
	c := s.carts[token]
	i := entryIndex(c, entryID)
	if i < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Cart item not found")
		return
	}
	next := cart.Cart{Items: make([]cart.LineItem, 0, len(c.Items)-1)}
	next.Items = append(next.Items, c.Items[:i]...)
	next.Items = append(next.Items, c.Items[i+1:]...)
	s.carts[token] = next
	s.mu.Unlock()

	s.respondCart(w, next.Clone())
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if s.opts.DisableBulkClear {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	token := shopperToken(r.Context())

	s.mu.Lock()
	delete(s.carts, token)
	s.mu.Unlock()

	s.respondCart(w, cart.Cart{})
}
