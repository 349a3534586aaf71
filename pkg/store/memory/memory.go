package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/marmos91/dittows/pkg/store"
)

// MemoryBlobStore implements store.BlobStore using an in-memory map.
//
// Designed for tests and ephemeral runs: all data is lost when the
// process exits.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Values are copied on
// read and write so callers never share buffers with the store.
type MemoryBlobStore struct {
	// data stores blob values keyed by blob key
	data map[string][]byte

	// mu protects concurrent access to data
	mu sync.RWMutex
}

var _ store.BlobStore = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value at key.
func (s *MemoryBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, store.ErrBlobNotFound
	}
	return slices.Clone(value), nil
}

// Put stores a copy of value at key.
func (s *MemoryBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone of an empty slice is still non-nil so Get reports it as present.
	s.data[key] = append(make([]byte, 0, len(value)), value...)
	return nil
}

// Delete removes key.
func (s *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Keys lists the keys starting with prefix in ascending order.
func (s *MemoryBlobStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryBlobStore) Close() error {
	return nil
}
