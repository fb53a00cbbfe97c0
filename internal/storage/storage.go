// Package storage defines the durable key-value contract used for client
// snapshots and its implementations.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Store.Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable string-keyed blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
