// Package cartstate is the client-side state container of the storefront:
// cart, wishlist, active coupon and session, kept in memory, mirrored to a
// snapshot store and synchronised with the backend once the shopper signs in.
//
// While signed out the container is the authority and mutations go through
// the cart merge engine. While signed in every mutation is sent to the
// backend and the response replaces the local collection. Concurrent remote
// mutations are not ordered: the last response to arrive wins.
package cartstate

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
	"github.com/xenking/atelier-cart/internal/domain/order"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
	"github.com/xenking/atelier-cart/internal/snapshot"
)

const instrumentationName = "github.com/xenking/atelier-cart/internal/cartstate"

// Scope names the collection an error or notice belongs to.
type Scope string

const (
	ScopeCart     Scope = "cart"
	ScopeWishlist Scope = "wishlist"
	ScopeCoupon   Scope = "coupon"
	ScopeCheckout Scope = "checkout"
	ScopeSession  Scope = "session"
)

// Errors holds the last user-facing error message per collection. Empty
// means the last operation on that collection succeeded.
type Errors struct {
	Cart     string
	Wishlist string
	Coupon   string
	Checkout string
}

// Container owns the client state. All methods are safe for concurrent use.
type Container struct {
	remote  Remote
	snap    *snapshot.Snapshot
	tokens  *auth.Holder
	coupons *coupon.Validator
	orders  *order.Builder
	opts    Options
	lg      *zap.Logger

	tracer    trace.Tracer
	mutations metric.Int64Counter
	syncFails metric.Int64Counter

	sf singleflight.Group
	// persistMu serialises snapshot writes so the stored value never goes
	// back in time.
	persistMu sync.Mutex

	mu       sync.Mutex
	state    auth.State
	user     *auth.User
	cart     cart.Cart
	wishlist wishlist.List
	coupon   *coupon.Coupon
	errs     Errors
}

// New returns a signed-out Container with empty collections. Call Hydrate to
// restore the previous session.
func New(deps Deps, opts Options) *Container {
	opts.setDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Tokens == nil {
		deps.Tokens = &auth.Holder{}
	}
	if deps.TracerProvider == nil {
		deps.TracerProvider = otel.GetTracerProvider()
	}
	if deps.MeterProvider == nil {
		deps.MeterProvider = otel.GetMeterProvider()
	}

	c := &Container{
		remote:   deps.Remote,
		snap:     deps.Snapshot,
		tokens:   deps.Tokens,
		coupons:  coupon.NewValidator(deps.Remote),
		orders:   order.NewBuilder(),
		opts:     opts,
		lg:       deps.Logger,
		tracer:   deps.TracerProvider.Tracer(instrumentationName),
		cart:     cart.Cart{Items: []cart.LineItem{}},
		wishlist: wishlist.List{},
	}

	meter := deps.MeterProvider.Meter(instrumentationName)
	var err error
	if c.mutations, err = meter.Int64Counter("cartstate.mutations",
		metric.WithDescription("Cart, wishlist and coupon mutations by result"),
	); err != nil {
		c.lg.Warn("Create mutations counter", zap.Error(err))
		c.mutations = metricnoop.Int64Counter{}
	}
	if c.syncFails, err = meter.Int64Counter("cartstate.sync.failures",
		metric.WithDescription("Failed remote cart and wishlist fetches"),
	); err != nil {
		c.lg.Warn("Create sync failures counter", zap.Error(err))
		c.syncFails = metricnoop.Int64Counter{}
	}
	return c
}

// State returns the authentication state.
func (c *Container) State() auth.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the signed-in user, or nil.
func (c *Container) User() *auth.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Errors returns the current error state.
func (c *Container) Errors() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// remoteAuthority reports whether mutations go to the backend.
// Must be called with mu held.
func (c *Container) remoteAuthority() bool {
	return c.state.Authenticated()
}

// setError records msg for scope. Must be called with mu held.
func (c *Container) setError(scope Scope, msg string) {
	switch scope {
	case ScopeCart:
		c.errs.Cart = msg
	case ScopeWishlist:
		c.errs.Wishlist = msg
	case ScopeCoupon:
		c.errs.Coupon = msg
	case ScopeCheckout:
		c.errs.Checkout = msg
	}
}

// finish records the outcome of op on scope, counts it and notifies the
// shopper of failures. It returns err.
func (c *Container) finish(ctx context.Context, scope Scope, op string, err error) error {
	result := "ok"
	msg := ""
	if err != nil {
		result = "error"
		msg = apperr.UserMessage(err)
		if apperr.IsNetwork(err) {
			result = "network_error"
		}
	}
	c.mu.Lock()
	c.setError(scope, msg)
	c.mu.Unlock()

	c.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", string(scope)),
		attribute.String("op", op),
		attribute.String("result", result),
	))
	if err != nil {
		c.lg.Debug("Mutation failed",
			zap.String("scope", string(scope)),
			zap.String("op", op),
			zap.Error(err),
		)
		c.opts.Notify(Notice{Level: NoticeError, Scope: scope, Message: msg})
	}
	return err
}

// startSpan starts a span for a remote call.
func (c *Container) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "cartstate."+name, trace.WithSpanKind(trace.SpanKindClient))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// persistCart writes the current cart to the snapshot. Failures are logged;
// the in-memory state stays authoritative.
func (c *Container) persistCart(ctx context.Context) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	snap := c.cart.Clone()
	c.mu.Unlock()

	if err := c.snap.SaveCart(ctx, snap); err != nil {
		c.lg.Warn("Persist cart", zap.Error(err))
	}
}

func (c *Container) persistWishlist(ctx context.Context) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	snap := cloneList(c.wishlist)
	c.mu.Unlock()

	if err := c.snap.SaveWishlist(ctx, snap); err != nil {
		c.lg.Warn("Persist wishlist", zap.Error(err))
	}
}

func cloneList(l wishlist.List) wishlist.List {
	out := make(wishlist.List, len(l))
	copy(out, l)
	return out
}

// Close flushes the cart and wishlist to the snapshot store.
func (c *Container) Close(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	ct := c.cart.Clone()
	wl := cloneList(c.wishlist)
	c.mu.Unlock()

	if err := c.snap.SaveCart(ctx, ct); err != nil {
		return errors.Wrap(err, "flush cart")
	}
	if err := c.snap.SaveWishlist(ctx, wl); err != nil {
		return errors.Wrap(err, "flush wishlist")
	}
	return nil
}
