package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/atelier-cart/internal/cartstate"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
)

// config is loaded from ATELIER_ environment variables, flags, and
// cartctl.yaml.
type config struct {
	BaseURL  string        `default:"http://localhost:8080" usage:"Storefront API base URL" flag:"base-url"`
	Timeout  time.Duration `default:"10s" usage:"Backend request timeout"`
	LogLevel string        `default:"warn" usage:"Log level: debug, info, warn, error" flag:"log-level"`
	Store    storeConfig
	Policy   policyConfig
	Retry    retryConfig
	Checkout checkoutConfig
}

type storeConfig struct {
	Kind        string `default:"file" usage:"Snapshot store: file, memory, redis or postgres" flag:"store"`
	Dir         string `default:".atelier" usage:"Snapshot directory for the file store" flag:"state-dir"`
	RedisAddr   string `default:"localhost:6379" usage:"Redis address for the redis store" flag:"redis-addr"`
	DatabaseURL string `usage:"PostgreSQL URL for the postgres store" flag:"database-url"`
	Namespace   string `default:"default" usage:"Profile name in shared stores" flag:"namespace"`
}

type policyConfig struct {
	Cart     string `default:"fail" usage:"Cart network error policy: fail or optimistic-local" flag:"cart-policy"`
	Wishlist string `default:"optimistic-local" usage:"Wishlist network error policy: fail or optimistic-local" flag:"wishlist-policy"`
}

type retryConfig struct {
	Initial    time.Duration `default:"500ms" usage:"First wishlist retry delay" flag:"retry-initial"`
	Multiplier float64       `default:"2" usage:"Wishlist retry backoff multiplier" flag:"retry-multiplier"`
	Max        uint          `default:"3" usage:"Wishlist retries after the first attempt" flag:"retry-max"`
}

type checkoutConfig struct {
	FreeShipping string `default:"100" usage:"Subtotal above which shipping is free" flag:"free-shipping"`
	ShippingFee  string `default:"10" usage:"Flat shipping fee" flag:"shipping-fee"`
	TaxRate      string `default:"0.08" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
}

func (c checkoutConfig) pricing() (pricing.CheckoutConfig, error) {
	var (
		out pricing.CheckoutConfig
		err error
	)
	if out.FreeShippingThreshold, err = decimal.NewFromString(c.FreeShipping); err != nil {
		return out, errors.Wrap(err, "free shipping threshold")
	}
	if out.FlatShippingFee, err = decimal.NewFromString(c.ShippingFee); err != nil {
		return out, errors.Wrap(err, "shipping fee")
	}
	if out.TaxRate, err = decimal.NewFromString(c.TaxRate); err != nil {
		return out, errors.Wrap(err, "tax rate")
	}
	return out, nil
}

func (c *config) options() (cartstate.Options, error) {
	checkout, err := c.Checkout.pricing()
	if err != nil {
		return cartstate.Options{}, err
	}
	return cartstate.Options{
		CartPolicy:     cartstate.ParsePolicy(c.Policy.Cart),
		WishlistPolicy: cartstate.ParsePolicy(c.Policy.Wishlist),
		Retry: cartstate.RetryConfig{
			InitialInterval: c.Retry.Initial,
			Multiplier:      c.Retry.Multiplier,
			MaxRetries:      c.Retry.Max,
		},
		Checkout: checkout,
	}, nil
}

// loadConfig returns the config and the positional arguments left after
// flag parsing.
func loadConfig() (*config, []string, error) {
	files := []string{"cartctl.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "atelier", "cartctl.yaml"))
	}

	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ATELIER",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}
	return &cfg, loader.Flags().Args(), nil
}
