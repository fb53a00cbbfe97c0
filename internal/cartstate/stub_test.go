package cartstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/atelier-cart/internal/backend"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/order"
	"github.com/xenking/atelier-cart/internal/snapshot"
	"github.com/xenking/atelier-cart/internal/storage/memory"
	"github.com/xenking/atelier-cart/internal/stub"
)

// newStubContainer wires a Container to the in-memory storefront over HTTP.
func newStubContainer(t *testing.T, opts stub.Options) (*Container, *stub.Server) {
	t.Helper()
	lg := zaptest.NewLogger(t)

	opts.Logger = lg
	srv := stub.New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	tokens := &auth.Holder{}
	client, err := backend.New(ts.URL, backend.Options{Tokens: tokens, Logger: lg})
	require.NoError(t, err)

	c := New(Deps{
		Remote:   client,
		Snapshot: snapshot.New(memory.New(), lg),
		Tokens:   tokens,
		Logger:   lg,
	}, Options{Retry: RetryConfig{InitialInterval: 1, Multiplier: 2, MaxRetries: 3}})
	return c, srv
}

func catalogProduct(id string) cart.Product {
	for _, p := range stub.DefaultCatalog() {
		if p.ID == id {
			return cart.Product{ID: p.ID, Name: p.Name, Price: p.Price}
		}
	}
	panic("unknown product " + id)
}

func TestStub_SessionFlow(t *testing.T) {
	for _, stringNumbers := range []bool{false, true} {
		t.Run(map[bool]string{false: "numbers", true: "strings"}[stringNumbers], func(t *testing.T) {
			c, srv := newStubContainer(t, stub.Options{StringNumbers: stringNumbers})
			ctx := context.Background()

			// Built while signed out and dropped on login.
			require.NoError(t, c.AddToCart(ctx, catalogProduct("wool-coat"), 1, nil, nil))

			srv.SeedCart("tok", cart.Cart{Items: []cart.LineItem{
				{ProductID: "linen-shirt", Quantity: 2, Size: cart.Option("M")},
			}})
			require.NoError(t, c.Login(ctx, session))
			assert.Equal(t, auth.AuthenticatedSynced, c.State())

			got := c.Cart()
			require.Len(t, got.Items, 1)
			assert.Equal(t, "linen-shirt", got.Items[0].ProductID)
			assert.Equal(t, "Linen Shirt", got.Items[0].Name)
			assert.Equal(t, "59.98", c.Totals().Subtotal.StringFixed(2))

			require.NoError(t, c.AddToCart(ctx, catalogProduct("silk-scarf"), 1, nil, cart.Option("red")))
			require.NoError(t, c.UpdateQuantity(ctx, cart.Key{ProductID: "linen-shirt", Size: cart.Option("M")}, 3))
			assert.Equal(t, 4, c.ItemCount())
			assert.Equal(t, 4, cart.ItemCount(srv.CartOf("tok")))

			_, err := c.ApplyCoupon(ctx, "welcome10")
			require.NoError(t, err)
			// (89.97 + 10) * 10%
			assert.Equal(t, "10.00", c.Totals().Discount.StringFixed(2))

			require.NoError(t, c.AddToWishlist(ctx, catalogProduct("canvas-tote")))
			assert.True(t, c.InWishlist("canvas-tote"))
			assert.False(t, c.Wishlist()[0].IsLocal())

			r, err := c.PlaceOrder(ctx, order.Request{
				ShippingAddress: order.Address{FullName: "Ada", Line1: "1 Main St", City: "London", State: "LDN", PostalCode: "N1", Country: "GB"},
				PaymentMethod:   order.PaymentPayPal,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, r.ID)
			assert.Equal(t, 1, srv.Orders())
			assert.Empty(t, c.Cart().Items)
			assert.Empty(t, srv.CartOf("tok").Items)
		})
	}
}

func TestStub_ClearFallback(t *testing.T) {
	c, srv := newStubContainer(t, stub.Options{DisableBulkClear: true})
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, session))

	for _, id := range []string{"linen-shirt", "silk-scarf", "leather-belt"} {
		require.NoError(t, c.AddToCart(ctx, catalogProduct(id), 1, nil, nil))
	}
	failing := c.Cart().Items[1].CartEntryID
	srv.Fail(http.MethodDelete, "/cart/"+failing, http.StatusInternalServerError)

	require.NoError(t, c.ClearCart(ctx))
	assert.Empty(t, c.Cart().Items)

	remaining := srv.CartOf("tok").Items
	require.Len(t, remaining, 1)
	assert.Equal(t, failing, remaining[0].CartEntryID)
}

func TestStub_OptimisticWishlist(t *testing.T) {
	c, srv := newStubContainer(t, stub.Options{})
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, session))

	srv.Fail(http.MethodPost, "/wishlist", stub.FaultDropConnection)
	err := c.AddToWishlist(ctx, catalogProduct("wool-coat"))
	require.Error(t, err)

	l := c.Wishlist()
	require.Len(t, l, 1)
	assert.True(t, l[0].IsLocal())
	assert.NotEmpty(t, c.Errors().Wishlist)

	srv.ClearFaults()
	require.NoError(t, c.Refresh(ctx))
	assert.Empty(t, c.Wishlist())
}
