// Package snapshot persists the client state (cart, wishlist, signed-in user
// and tokens) as JSON values in a storage.Store.
package snapshot

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
	"github.com/xenking/atelier-cart/internal/storage"
)

// Snapshot keys.
const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyUser     = "user"
	KeyTokens   = "tokens"
)

// Snapshot reads and writes typed values. A value that cannot be decoded is
// deleted and reported as absent.
type Snapshot struct {
	store storage.Store
	lg    *zap.Logger
}

// New returns a Snapshot over store. A nil logger is replaced by zap.NewNop.
func New(store storage.Store, lg *zap.Logger) *Snapshot {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Snapshot{store: store, lg: lg}
}

func load[T any](ctx context.Context, s *Snapshot, key string) (v T, ok bool, err error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return v, false, nil
		}
		return v, false, errors.Wrapf(err, "load %s", key)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		s.lg.Warn("Discarding corrupted snapshot",
			zap.String("key", key),
			zap.Error(err),
		)
		if err := s.store.Delete(ctx, key); err != nil {
			s.lg.Warn("Delete corrupted snapshot", zap.String("key", key), zap.Error(err))
		}
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func (s *Snapshot) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := s.store.Put(ctx, key, data); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}

// LoadCart returns the saved cart, or an empty cart when none is stored.
func (s *Snapshot) LoadCart(ctx context.Context) (cart.Cart, error) {
	items, _, err := load[[]cart.LineItem](ctx, s, KeyCart)
	if err != nil {
		return cart.Cart{}, err
	}
	return cart.Cart{Items: items}, nil
}

// SaveCart stores the ordered line items of c.
func (s *Snapshot) SaveCart(ctx context.Context, c cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return s.save(ctx, KeyCart, items)
}

// LoadWishlist returns nil when no wishlist is stored.
func (s *Snapshot) LoadWishlist(ctx context.Context) (wishlist.List, error) {
	l, _, err := load[wishlist.List](ctx, s, KeyWishlist)
	return l, err
}

// SaveWishlist stores the wishlist in order.
func (s *Snapshot) SaveWishlist(ctx context.Context, l wishlist.List) error {
	if l == nil {
		l = wishlist.List{}
	}
	return s.save(ctx, KeyWishlist, l)
}

// LoadUser returns nil when no user is stored.
func (s *Snapshot) LoadUser(ctx context.Context) (*auth.User, error) {
	u, ok, err := load[auth.User](ctx, s, KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SaveUser stores the signed-in user.
func (s *Snapshot) SaveUser(ctx context.Context, u auth.User) error {
	return s.save(ctx, KeyUser, u)
}

// LoadTokens returns nil when no tokens are stored.
func (s *Snapshot) LoadTokens(ctx context.Context) (*auth.Tokens, error) {
	t, ok, err := load[auth.Tokens](ctx, s, KeyTokens)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

// SaveTokens stores the session tokens.
func (s *Snapshot) SaveTokens(ctx context.Context, t auth.Tokens) error {
	return s.save(ctx, KeyTokens, t)
}

// ClearSession removes the stored user and tokens. Cart and wishlist are kept.
func (s *Snapshot) ClearSession(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyTokens); err != nil {
		return errors.Wrap(err, "delete tokens")
	}
	if err := s.store.Delete(ctx, KeyUser); err != nil {
		return errors.Wrap(err, "delete user")
	}
	return nil
}
