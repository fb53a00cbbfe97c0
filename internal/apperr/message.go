package apperr

import (
	"context"

	"github.com/go-faster/errors"
)

// Messaged is implemented by errors that carry text safe to show to shoppers.
type Messaged interface {
	UserMessage() string
}

// UserMessage returns a short message suitable for a transient notification.
// Internal details are never included for unclassified errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var m Messaged
	if errors.As(err, &m) {
		return m.UserMessage()
	}

	var (
		timeoutErr *TimeoutError
		connErr    *ConnectionError
		serverErr  *ServerError
		validErr   *ValidationError
		notFound   *NotFoundError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return "The request timed out. Please try again."
	case errors.As(err, &connErr):
		return "Unable to reach the store. Check your connection and try again."
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return "The store could not complete the request."
	case errors.As(err, &validErr):
		return validErr.Message
	case errors.As(err, &notFound):
		return "That item is no longer in your cart."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	}
	return "Something went wrong. Please try again."
}
