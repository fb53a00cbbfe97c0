// Package app wires the storefront stub server.
package app

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/stub"
	"github.com/xenking/atelier-cart/pkg/health"
	"github.com/xenking/atelier-cart/pkg/httpmiddleware"
)

// LoadCoupons reads the coupon book at path. An empty path yields the
// built-in coupons.
func LoadCoupons(path string) ([]stub.CouponRule, error) {
	if path == "" {
		return stub.DefaultCoupons(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open coupon book")
	}
	defer func() { _ = f.Close() }()

	rules, err := stub.ReadCouponBook(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read coupon book %s", path)
	}
	return rules, nil
}

// LoadCatalog reads the product list at path. An empty path yields the
// built-in catalog.
func LoadCatalog(path string) ([]stub.Product, error) {
	if path == "" {
		return stub.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	products, err := stub.ReadCatalog(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	return products, nil
}

// Handler builds the stub routes behind the health probes and the
// middleware chain.
func Handler(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config, srv *stub.Server, hs *health.Health) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", hs.LiveEndpoint)
	mux.HandleFunc("/readyz", hs.ReadyEndpoint)

	var api http.Handler = srv.Handler()
	if m != nil {
		api = otelhttp.NewHandler(api, "storefront-stub",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		)
	}
	mux.Handle("/", api)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.ShopperKey,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(),
	)
}

// Run serves the stub until ctx is done, then drains and shuts down.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	var seeded atomic.Bool
	hs := health.New()
	hs.Add(health.Readiness, "seed", time.Second, health.FlagCheck(&seeded, "seed data not loaded"))
	hs.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))

	catalog, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	coupons, err := LoadCoupons(cfg.CouponBook)
	if err != nil {
		return err
	}
	seeded.Store(true)
	lg.Info("Seed data loaded",
		zap.Int("products", len(catalog)),
		zap.Int("coupons", len(coupons)),
	)

	srv := stub.New(stub.Options{
		Catalog:          catalog,
		Coupons:          coupons,
		DisableBulkClear: cfg.DisableBulkClear,
		StringNumbers:    cfg.StringNumbers,
		Logger:           lg.Named("stub"),
	})

	hs.Start(ctx, 10*time.Second)
	hs.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           Handler(ctx, zctx.From(ctx), m, cfg, srv, hs),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		hs.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		hs.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
