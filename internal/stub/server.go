// Package stub is an in-memory implementation of the storefront REST API.
// It backs local development of the cart client and its end-to-end tests.
package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
	"github.com/xenking/atelier-cart/pkg/httpmiddleware"
)

// FaultDropConnection makes a faulted route close the connection without
// a response.
const FaultDropConnection = -1

// Options configures a Server.
type Options struct {
	Catalog []Product
	Coupons []CouponRule
	// DisableBulkClear makes DELETE /cart answer 404, as on backends that
	// never shipped the endpoint.
	DisableBulkClear bool
	// StringNumbers encodes prices and quantities as JSON strings.
	StringNumbers bool

	Now    func() time.Time
	NewID  func() string
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Catalog == nil {
		o.Catalog = DefaultCatalog()
	}
	if o.Coupons == nil {
		o.Coupons = DefaultCoupons()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type placedOrder struct {
	ID         string
	Token      string
	Items      int
	Total      string
	CouponCode string
	CreatedAt  time.Time
}

// Server holds per-shopper state keyed by bearer token.
type Server struct {
	opts Options

	catalog map[string]Product
	coupons map[string]CouponRule

	mu        sync.Mutex
	carts     map[string]cart.Cart
	wishlists map[string]wishlist.List
	orders    []placedOrder
	faults    map[string]int
}

// New returns a Server.
func New(opts Options) *Server {
	opts.setDefaults()

	s := &Server{
		opts:      opts,
		catalog:   make(map[string]Product, len(opts.Catalog)),
		coupons:   make(map[string]CouponRule, len(opts.Coupons)),
		carts:     make(map[string]cart.Cart),
		wishlists: make(map[string]wishlist.List),
		faults:    make(map[string]int),
	}
	for _, p := range opts.Catalog {
		s.catalog[p.ID] = p
	}
	for _, c := range opts.Coupons {
		s.coupons[strings.ToUpper(c.Code)] = c
	}
	return s
}

func faultKey(method, path string) string {
	return method + " " + path
}

// Fail makes every request matching method and path answer with status until
// ClearFaults. Use FaultDropConnection to simulate a network failure.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[faultKey(method, path)] = status
}

// ClearFaults removes all injected failures.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

// Orders returns the number of orders placed.
func (s *Server) Orders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// CartOf returns a copy of the cart held for token.
func (s *Server) CartOf(token string) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[token].Clone()
}

// SeedCart replaces the cart held for token. Lines without an entry id get
// one assigned.
func (s *Server) SeedCart(token string, c cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c = c.Clone()
	for i := range c.Items {
		if c.Items[i].CartEntryID == "" {
			c.Items[i].CartEntryID = s.opts.NewID()
		}
	}
	s.carts[token] = c
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.faults[faultKey(r.Method, r.URL.Path)]
		s.mu.Unlock()

		switch {
		case !ok:
			next.ServeHTTP(w, r)
		case status == FaultDropConnection:
			conn, _, err := http.NewResponseController(w).Hijack()
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "Service unavailable")
				return
			}
			_ = conn.Close()
		default:
			writeError(w, status, http.StatusText(status))
		}
	})
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(labelRoute, s.injectFaults)

	r.Get("/products", s.listProducts)
	r.Get("/products/{productID}", s.getProduct)
	r.Post("/promotions/verify-coupon", s.verifyCoupon)

	r.Group(func(r chi.Router) {
		r.Use(requireShopper)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.getCart)
			r.Post("/", s.addCartItem)
			r.Delete("/", s.clearCart)
			r.Patch("/{entryID}", s.updateCartItem)
			r.Delete("/{entryID}", s.removeCartItem)
		})
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", s.getWishlist)
			r.Post("/", s.addWishlistItem)
			r.Delete("/", s.clearWishlist)
			r.Delete("/{itemID}", s.removeWishlistItem)
		})
		r.Post("/orders", s.placeOrder)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// labelRoute reports the matched chi pattern to the request logger.
func labelRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if rc := chi.RouteContext(r.Context()); rc != nil {
			httpmiddleware.SetRoute(r.Context(), rc.RoutePattern())
		}
	})
}
