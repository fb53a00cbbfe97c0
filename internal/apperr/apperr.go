// Package apperr defines the error taxonomy shared by the cart container and
// the backend client, and the mapping from errors to user-facing messages.
package apperr

import (
	"context"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/go-faster/errors"
)

// ConnectionError is a network failure before a response was received.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError is a request that did not complete in time.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response that carried a body.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server responded %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.Status, e.Message)
}

// ValidationError is a failed client-side precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a local entity that had to exist before a remote call.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsNetwork reports whether err is a connection or timeout failure.
func IsNetwork(err error) bool {
	var (
		connErr    *ConnectionError
		timeoutErr *TimeoutError
	)
	return errors.As(err, &connErr) || errors.As(err, &timeoutErr)
}

// Classify wraps transport-level errors from net/http into ConnectionError or
// TimeoutError. Cancellation, errors already in the taxonomy and unrelated
// errors are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNetwork(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, Err: err}
	}
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	// EOF before a complete response means the peer dropped the connection.
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ConnectionError{Op: op, Err: err}
	}
	return err
}
