// Package store defines the durable key-value interface that persisted
// workspace state is written to.
//
// A BlobStore maps string keys to opaque byte values. It knows nothing of
// the blob contents: framing, checksums and encoding live in the
// persistence layer. Implementations live in subpackages (memory, badger,
// fs, s3) and are selected through configuration.
package store

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by Get when the key does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is durable key-value storage for serialized blobs.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
//
// Context Cancellation:
// All operations check the context before doing work. Backends that talk
// to the network also pass the context through to their client.
type BlobStore interface {
	// Get returns a copy of the value stored at key.
	//
	// Returns:
	//   - []byte: The stored value (never aliased with internal storage)
	//   - error: ErrBlobNotFound if the key does not exist, or an
	//     infrastructure error wrapped with context
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value at key, replacing any previous value.
	// The store keeps its own copy of value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
