// Package memory provides an in-memory storage.Backend for tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/backupd/backupd/pkg/apperr"
)

// Backend is an in-memory implementation of storage.Backend for testing.
type Backend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{blobs: make(map[string][]byte)}
}

// Put writes data under key, copying it so later mutation by the caller
// does not affect the stored value.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	b.blobs[key] = copied
	return nil
}

// Get reads the bytes stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.blobs[key]
	if !ok {
		return nil, apperr.NotFound(key)
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Delete removes key. Not an error if key does not exist.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.blobs, key)
	return nil
}

// List returns a lazy iterator over keys with the given prefix, sorted
// for deterministic iteration order.
func (b *Backend) List(ctx context.Context, prefix string) func(yield func(string, error) bool) {
	return func(yield func(string, error) bool) {
		b.mu.RLock()
		var keys []string
		for key := range b.blobs {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		b.mu.RUnlock()

		sort.Strings(keys)
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				yield("", apperr.Cancelled())
				return
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}

// Len reports the number of stored keys, for test assertions.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
