package cartstate

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
)

// ErrNoSession is returned by Login when the session carries no access token.
var ErrNoSession = &apperr.ValidationError{Field: "tokens", Message: "Please sign in again"}

// Hydrate restores the cart, wishlist and session from the snapshot store.
// When a session is found the container signs in and syncs with the backend;
// sync failures are recorded in Errors and do not fail Hydrate.
func (c *Container) Hydrate(ctx context.Context) error {
	ct, err := c.snap.LoadCart(ctx)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	wl, err := c.snap.LoadWishlist(ctx)
	if err != nil {
		return errors.Wrap(err, "load wishlist")
	}
	user, err := c.snap.LoadUser(ctx)
	if err != nil {
		return errors.Wrap(err, "load user")
	}
	tokens, err := c.snap.LoadTokens(ctx)
	if err != nil {
		return errors.Wrap(err, "load tokens")
	}

	if ct.Items == nil {
		ct.Items = []cart.LineItem{}
	}
	if wl == nil {
		wl = wishlist.List{}
	}
	c.mu.Lock()
	c.cart = ct
	c.wishlist = wl
	c.mu.Unlock()

	c.lg.Debug("Hydrated",
		zap.Int("cart_lines", len(ct.Items)),
		zap.Int("wishlist_items", len(wl)),
		zap.Bool("session", tokens.Valid()),
	)

	if !tokens.Valid() {
		return nil
	}
	var u auth.User
	if user != nil {
		u = *user
	}
	if err := c.Login(ctx, auth.Session{User: u, Tokens: *tokens}); err != nil && !isSyncError(err) {
		return err
	}
	return nil
}

// SyncError is returned by Login and Refresh when the session was
// established but the remote cart or wishlist could not be fetched.
type SyncError struct {
	Cart     error
	Wishlist error
}

func (e *SyncError) Error() string {
	switch {
	case e.Cart != nil && e.Wishlist != nil:
		return "sync cart: " + e.Cart.Error() + "; sync wishlist: " + e.Wishlist.Error()
	case e.Cart != nil:
		return "sync cart: " + e.Cart.Error()
	default:
		return "sync wishlist: " + e.Wishlist.Error()
	}
}

func (e *SyncError) Unwrap() []error {
	var errs []error
	if e.Cart != nil {
		errs = append(errs, e.Cart)
	}
	if e.Wishlist != nil {
		errs = append(errs, e.Wishlist)
	}
	return errs
}

func isSyncError(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr)
}

// Login makes the backend authoritative. The remote cart and wishlist
// replace the local ones; the cart built while signed out is not merged.
//
// A failed cart fetch keeps the local cart, and a failed wishlist fetch is
// retried on network errors. Either failure leaves the container in
// AuthenticatedSyncing and is returned as *SyncError.
func (c *Container) Login(ctx context.Context, s auth.Session) error {
	if !s.Tokens.Valid() {
		return ErrNoSession
	}
	c.tokens.Set(s.Tokens)

	c.mu.Lock()
	c.state = auth.AuthenticatedSyncing
	u := s.User
	c.user = &u
	c.mu.Unlock()

	if err := c.snap.SaveTokens(ctx, s.Tokens); err != nil {
		c.lg.Warn("Persist tokens", zap.Error(err))
	}
	if err := c.snap.SaveUser(ctx, s.User); err != nil {
		c.lg.Warn("Persist user", zap.Error(err))
	}
	c.lg.Info("Signed in", zap.String("user_id", s.User.ID))

	return c.Refresh(ctx)
}

// Refresh fetches the remote cart and wishlist. It is a no-op while signed
// out. Concurrent cart fetches share one request.
func (c *Container) Refresh(ctx context.Context) error {
	if !c.State().Authenticated() {
		return nil
	}

	cartErr := c.syncCart(ctx)
	wishErr := c.syncWishlist(ctx)

	c.mu.Lock()
	if c.state.Authenticated() && cartErr == nil && wishErr == nil {
		c.state = auth.AuthenticatedSynced
	}
	c.mu.Unlock()

	if cartErr != nil || wishErr != nil {
		return &SyncError{Cart: cartErr, Wishlist: wishErr}
	}
	return nil
}

func (c *Container) syncCart(ctx context.Context) error {
	v, err, shared := c.sf.Do(string(ScopeCart), func() (any, error) {
		ctx, span := c.startSpan(ctx, "FetchCart")
		ct, err := c.remote.FetchCart(ctx)
		endSpan(span, err)
		return ct, err
	})
	if err != nil {
		c.syncFailed(ctx, ScopeCart, err)
		return err
	}

	ct := v.(cart.Cart)
	if shared {
		ct = ct.Clone()
	}
	c.mu.Lock()
	c.cart = ct
	c.errs.Cart = ""
	c.mu.Unlock()
	c.persistCart(ctx)
	return nil
}

func (c *Container) syncWishlist(ctx context.Context) error {
	l, err := retry(ctx, c, "FetchWishlist", func(ctx context.Context) (wishlist.List, error) {
		return c.remote.FetchWishlist(ctx)
	})
	if err != nil {
		c.syncFailed(ctx, ScopeWishlist, err)
		return err
	}

	c.mu.Lock()
	c.wishlist = l
	c.errs.Wishlist = ""
	c.mu.Unlock()
	c.persistWishlist(ctx)
	return nil
}

func (c *Container) syncFailed(ctx context.Context, scope Scope, err error) {
	c.syncFails.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", string(scope))))
	c.lg.Warn("Sync failed, keeping local state",
		zap.String("scope", string(scope)),
		zap.Error(err),
	)
	msg := apperr.UserMessage(err)
	c.mu.Lock()
	c.setError(scope, msg)
	c.mu.Unlock()
	c.opts.Notify(Notice{Level: NoticeError, Scope: scope, Message: msg})
}

// Logout drops the session. The cart and wishlist stay in memory and in the
// snapshot; only ClearCart empties the cart.
func (c *Container) Logout(ctx context.Context) error {
	c.tokens.Clear()

	c.mu.Lock()
	c.state = auth.Unauthenticated
	c.user = nil
	c.mu.Unlock()

	if err := c.snap.ClearSession(ctx); err != nil {
		return errors.Wrap(err, "clear session")
	}
	c.lg.Info("Signed out")
	return nil
}
