// Package backend is the REST client for the storefront API: cart, wishlist,
// promotions and orders.
//
// Responses are decoded once into the strict domain types. Prices and
// quantities that arrive as JSON strings are coerced here and nowhere else.
package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/atelier-cart/internal/apperr"
	"github.com/xenking/atelier-cart/internal/domain/auth"
)

const maxResponseBody = 4 << 20

// Options configures a Client.
type Options struct {
	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Tokens supplies the bearer token for authenticated endpoints.
	Tokens  auth.TokenSource
	Timeout time.Duration
	Logger  *zap.Logger

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Client talks to the storefront backend.
type Client struct {
	base *url.URL
	http *http.Client
	lg   *zap.Logger
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	opts.setDefaults()

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}

	rt := logRequests(opts.Logger, opts.Transport)
	rt = bearer(opts.Tokens, rt)
	rt = requestID(rt)
	rt = otelhttp.NewTransport(rt, otelOpts...)

	return &Client{
		base: u,
		http: &http.Client{Transport: rt, Timeout: opts.Timeout},
		lg:   opts.Logger,
	}, nil
}

// envelope is the common {success, data, error} response wrapper.
type envelope struct {
	success bool
	data    jx.Raw
	message string
}

func decodeEnvelope(data []byte) (envelope, error) {
	env := envelope{success: true}
	if len(bytes.TrimSpace(data)) == 0 {
		return env, nil
	}
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			if d.Next() != jx.Bool {
				return d.Skip()
			}
			v, err := d.Bool()
			env.success = v
			return err
		case "data":
			raw, err := d.Raw()
			env.data = raw
			return err
		case "error", "message":
			msg, err := decodeMessage(d)
			if env.message == "" {
				env.message = msg
			}
			return err
		default:
			return d.Skip()
		}
	})
	return env, err
}

// decodeMessage accepts "text" or {"message": "text"}.
func decodeMessage(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Object:
		var msg string
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "message" || d.Next() != jx.String {
				return d.Skip()
			}
			s, err := d.Str()
			msg = s
			return err
		})
		return msg, err
	default:
		return "", d.Skip()
	}
}

// do performs the request and returns the raw "data" member of a successful
// response. Transport failures are classified into apperr network errors;
// non-2xx responses and {success:false} become *apperr.ServerError.
func (c *Client) do(ctx context.Context, op, method string, body []byte, path ...string) (jx.Raw, error) {
	u := c.base.JoinPath(path...)

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: build request", op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Classify(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, apperr.Classify(op, err)
	}

	env, decodeErr := decodeEnvelope(data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: env.message}
	}
	if decodeErr != nil {
		return nil, errors.Wrapf(decodeErr, "%s: decode response", op)
	}
	if !env.success {
		return nil, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: env.message}
	}
	return env.data, nil
}
