package cartstate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/backend"
	"github.com/xenking/atelier-cart/internal/domain/auth"
	"github.com/xenking/atelier-cart/internal/domain/cart"
	"github.com/xenking/atelier-cart/internal/domain/coupon"
	"github.com/xenking/atelier-cart/internal/domain/order"
	"github.com/xenking/atelier-cart/internal/domain/pricing"
	"github.com/xenking/atelier-cart/internal/domain/wishlist"
	"github.com/xenking/atelier-cart/internal/snapshot"
)

// Remote is the storefront backend as seen by the container.
// *backend.Client implements it.
type Remote interface {
	coupon.Verifier

	FetchCart(ctx context.Context) (cart.Cart, error)
	AddCartItem(ctx context.Context, item backend.AddCartItem) (cart.Cart, error)
	UpdateCartItem(ctx context.Context, entryID string, quantity int) (cart.Cart, error)
	RemoveCartItem(ctx context.Context, entryID string) (cart.Cart, error)
	ClearCart(ctx context.Context) error

	FetchWishlist(ctx context.Context) (wishlist.List, error)
	AddWishlistItem(ctx context.Context, productID string) (wishlist.List, error)
	RemoveWishlistItem(ctx context.Context, itemID string) (wishlist.List, error)
	ClearWishlist(ctx context.Context) error

	PlaceOrder(ctx context.Context, o *order.Order) (*order.Receipt, error)
}

// NetworkErrorPolicy decides what a collection does when a remote mutation
// fails with a connection or timeout error.
type NetworkErrorPolicy int

const (
	policyDefault NetworkErrorPolicy = iota
	// PolicyFail leaves local state unchanged and reports the error.
	PolicyFail
	// PolicyOptimisticLocal applies the mutation locally and reports the
	// error. Only wishlist additions honour it.
	PolicyOptimisticLocal
)

func (p NetworkErrorPolicy) String() string {
	switch p {
	case PolicyFail:
		return "fail"
	case PolicyOptimisticLocal:
		return "optimistic-local"
	default:
		return "default"
	}
}

// ParsePolicy maps "fail" and "optimistic-local" to a policy. Anything else
// yields the collection default.
func ParsePolicy(s string) NetworkErrorPolicy {
	switch s {
	case "fail":
		return PolicyFail
	case "optimistic-local", "optimisticLocal":
		return PolicyOptimisticLocal
	default:
		return policyDefault
	}
}

// RetryConfig is the wishlist retry schedule for network errors.
type RetryConfig struct {
	InitialInterval time.Duration
	Multiplier      float64
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint
}

// DefaultRetryConfig retries three times after 500ms, 1s and 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 500 * time.Millisecond,
		Multiplier:      2,
		MaxRetries:      3,
	}
}

// Deps are the collaborators of a Container.
type Deps struct {
	// Remote is required.
	Remote Remote
	// Snapshot is required.
	Snapshot *snapshot.Snapshot
	// Tokens is shared with the backend client so requests carry the
	// current bearer token. A private holder is used when nil.
	Tokens *auth.Holder
	Logger *zap.Logger

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// NoticeLevel classifies a Notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a transient message for the shopper.
type Notice struct {
	Level   NoticeLevel
	Scope   Scope
	Message string
}

// Options tune a Container.
type Options struct {
	CartPolicy     NetworkErrorPolicy
	WishlistPolicy NetworkErrorPolicy
	Retry          RetryConfig
	Checkout       pricing.CheckoutConfig
	// Notify receives transient notifications. It is called without the
	// container lock held.
	Notify func(Notice)

	Now   func() time.Time
	NewID func() string
}

func (o *Options) setDefaults() {
	if o.CartPolicy == policyDefault {
		o.CartPolicy = PolicyFail
	}
	if o.WishlistPolicy == policyDefault {
		o.WishlistPolicy = PolicyOptimisticLocal
	}
	if o.Retry == (RetryConfig{}) {
		o.Retry = DefaultRetryConfig()
	}
	if o.Checkout == (pricing.CheckoutConfig{}) {
		o.Checkout = pricing.DefaultCheckoutConfig()
	}
	if o.Notify == nil {
		o.Notify = func(Notice) {}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.New().String() }
	}
}
