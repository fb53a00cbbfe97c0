package stub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

func (s *Server) respondWishlist(w http.ResponseWriter, l wishlist.List) {
	writeData(w, http.StatusOK, func(e *jx.Encoder) { s.encodeWishlist(e, l) })
}

func (s *Server) getWishlist(w http.ResponseWriter, r *http.Request) {
	token := shopperToken(r.Context())

	s.mu.Lock()
	l := append(wishlist.List{}, s.wishlists[token]...)
	s.mu.Unlock()

	s.respondWishlist(w, l)
}

func (s *Server) addWishlistItem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var productID string
	err = jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		var err error
		productID, err = d.Str()
		return err
	})
	if err != nil || productID == "" {
		writeError(w, http.StatusBadRequest, "Product id is required")
		return
	}
	p, ok := s.catalog[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	item := wishlist.Item{
		ID:        s.opts.NewID(),
		ProductID: p.ID,
		Product:   wishlist.ProductSnapshot{Name: p.Name, Price: p.Price},
		AddedAt:   s.opts.Now(),
	}
	if len(p.Images) > 0 {
		item.Product.ImageRef = p.Images[0]
	}

	token := shopperToken(r.Context())
	s.mu.Lock()
	l := wishlist.Add(s.wishlists[token], item)
	s.wishlists[token] = l
	s.mu.Unlock()

	s.respondWishlist(w, l)
}

func (s *Server) removeWishlistItem(w http.ResponseWriter, r *http.Request) {
	token := shopperToken(r.Context())
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	l := s.wishlists[token]
	var productID string
	for _, it := range l {
		if it.ID == itemID {
			productID = it.ProductID
			break
		}
	}
	if productID == "" {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Wishlist item not found")
		return
	}
	l = wishlist.Remove(l, productID)
	s.wishlists[token] = l
	s.mu.Unlock()

	s.respondWishlist(w, l)
}

func (s *Server) clearWishlist(w http.ResponseWriter, r *http.Request) {
	token := shopperToken(r.Context())

	s.mu.Lock()
	delete(s.wishlists, token)
	s.mu.Unlock()

	s.respondWishlist(w, wishlist.List{})
}
