package cartstate

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/apperr"
)

// retry runs op, retrying network errors on the configured exponential
// schedule. Each call starts a fresh schedule. Other errors are returned
// after the first attempt.
func retry[T any](ctx context.Context, c *Container, name string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := c.startSpan(ctx, name)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.Retry.InitialInterval
	b.Multiplier = c.opts.Retry.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute

	attempt := 0
	v, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && !apperr.IsNetwork(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.opts.Retry.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.lg.Debug("Retrying",
				zap.String("op", name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	endSpan(span, err)
	return v, err
}
