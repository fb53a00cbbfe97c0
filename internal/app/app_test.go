package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/domain/coupon"
	"github.com/xenking/atelier-cart/internal/stub"
	"github.com/xenking/atelier-cart/pkg/health"
)

func testConfig() *Config {
	return &Config{
		Addr:      defaultAddr,
		RateLimit: RateLimitConfig{Max: 100, Window: time.Minute},
		CORS:      CORSConfig{Origins: []string{"*"}},
	}
}

func TestLoadCoupons(t *testing.T) {
	t.Run("empty path uses built-in book", func(t *testing.T) {
		rules, err := LoadCoupons("")
		require.NoError(t, err)
		assert.Equal(t, stub.DefaultCoupons(), rules)
	})

	t.Run("reads gzip book", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, stub.WriteCouponBook(&buf, []stub.CouponRule{
			{Code: "SPRING5", DiscountType: coupon.DiscountFixed, DiscountValue: decimal.NewFromInt(5)},
		}))
		path := filepath.Join(t.TempDir(), "coupons.jsonl.gz")
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

		rules, err := LoadCoupons(path)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "SPRING5", rules[0].Code)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCoupons(filepath.Join(t.TempDir(), "absent.gz"))
		require.Error(t, err)
	})
}

func TestLoadCatalog(t *testing.T) {
	products, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, products, len(stub.DefaultCatalog()))

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"tee","name":"Tee","price":12}]`), 0o600))
	products, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "tee", products[0].ID)
}

func TestHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hs := health.New()
	hs.SetReady(true)
	h := Handler(ctx, zap.NewNop(), nil, testConfig(), stub.New(stub.Options{}), hs)

	tests := []struct {
		name   string
		method string
		path   string
		auth   bool
		want   int
	}{
		{name: "liveness", method: http.MethodGet, path: "/livez", want: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/readyz", want: http.StatusOK},
		{name: "catalog", method: http.MethodGet, path: "/products", want: http.StatusOK},
		{name: "cart needs a shopper", method: http.MethodGet, path: "/cart", want: http.StatusUnauthorized},
		{name: "cart", method: http.MethodGet, path: "/cart", auth: true, want: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer shopper-1")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestHandler_NotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hs := health.New()
	h := Handler(ctx, zap.NewNop(), nil, testConfig(), stub.New(stub.Options{}), hs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApplyPlatformDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := testConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg.Addr = "127.0.0.1:7000"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}
