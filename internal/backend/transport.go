package backend

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/domain/auth"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// requestID stamps a fresh UUID on requests that do not carry one.
func requestID(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(r)
		}
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, uuid.New().String())
		return next.RoundTrip(r)
	})
}

// bearer attaches the current access token. Requests go out unauthenticated
// when the source has no token.
func bearer(tokens auth.TokenSource, next http.RoundTripper) http.RoundTripper {
	if tokens == nil {
		return next
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		token := tokens.AccessToken(r.Context())
		if token == "" {
			return next.RoundTrip(r)
		}
		r = r.Clone(r.Context())
		r.Header.Set("Authorization", "Bearer "+token)
		return next.RoundTrip(r)
	})
}

// logRequests logs every round trip at debug level and transport failures
// at warn.
func logRequests(lg *zap.Logger, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		l := lg.With(
			zap.String("http.method", r.Method),
			zap.String("http.path", r.URL.Path),
			zap.String("request_id", r.Header.Get(RequestIDHeader)),
		)

		resp, err := next.RoundTrip(r)
		if err != nil {
			l.Warn("Backend request failed",
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return nil, err
		}
		l.Debug("Backend request",
			zap.Int("http.status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, nil
	})
}
