package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
	"github.com/xenking/atelier-cart/internal/storage"
	"github.com/xenking/atelier-cart/internal/storage/memory"
)

func stripPrices(items []cart.LineItem) []cart.LineItem {
	out := make([]cart.LineItem, len(items))
	for i, it := range items {
		it.UnitPrice = decimal.Decimal{}
		out[i] = it
	}
	return out
}

func TestCart_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), nil)
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	want := cart.Cart{Items: []cart.LineItem{
		{ProductID: "p2", Name: "Linen shirt", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 2, Size: cart.Option("M"), AddedAt: at},
		{ProductID: "p1", CartEntryID: "ce-9", Name: "Scarf", UnitPrice: decimal.RequireFromString("10"), Quantity: 1, Color: cart.Option("red"), AddedAt: at.Add(time.Minute)},
		{ProductID: "p2", Name: "Linen shirt", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 1, Size: cart.Option("L"), AddedAt: at.Add(2 * time.Minute)},
	}}

	require.NoError(t, s.SaveCart(ctx, want))
	got, err := s.LoadCart(ctx)
	require.NoError(t, err)

	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.True(t, want.Items[i].UnitPrice.Equal(got.Items[i].UnitPrice), "line %d price", i)
	}
	assert.Equal(t, stripPrices(want.Items), stripPrices(got.Items))
}

func TestCart_EmptyStoresArray(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store, nil)

	require.NoError(t, s.SaveCart(ctx, cart.Cart{}))
	raw, err := store.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestLoad_Absent(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), nil)

	c, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	l, err := s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Empty(t, l)

	u, err := s.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	tok, err := s.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestLoad_CorruptedIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	core, logs := observer.New(zap.WarnLevel)
	s := New(store, zap.New(core))

	for _, key := range []string{KeyCart, KeyWishlist, KeyUser, KeyTokens} {
		require.NoError(t, store.Put(ctx, key, []byte("{not json")))
	}

	c, err := s.LoadCart(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	l, err := s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Empty(t, l)

	u, err := s.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	tok, err := s.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	assert.Zero(t, store.Keys())
	assert.Equal(t, 4, logs.FilterMessage("Discarding corrupted snapshot").Len())
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), nil)

	require.NoError(t, s.SaveUser(ctx, auth.User{ID: "u1", Email: "ada@example.com"}))
	require.NoError(t, s.SaveTokens(ctx, auth.Tokens{AccessToken: "tok"}))
	require.NoError(t, s.SaveWishlist(ctx, wishlist.List{{ID: "w1", ProductID: "p1"}}))

	u, err := s.LoadUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ada@example.com", u.Email)

	tok, err := s.LoadTokens(ctx)
	require.NoError(t, err)
	assert.True(t, tok.Valid())

	require.NoError(t, s.ClearSession(ctx))

	u, err = s.LoadUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
	tok, err = s.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, tok)

	l, err := s.LoadWishlist(ctx)
	require.NoError(t, err)
	assert.Len(t, l, 1)
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Put(context.Context, string, []byte) error  { return f.err }
func (f failingStore) Delete(context.Context, string) error        { return f.err }

var _ storage.Store = failingStore{}

func TestStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	s := New(failingStore{err: boom}, nil)

	_, err := s.LoadCart(ctx)
	require.ErrorIs(t, err, boom)

	err = s.SaveCart(ctx, cart.Cart{})
	require.ErrorIs(t, err, boom)
}
