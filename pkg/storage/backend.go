// Package storage defines the Backend capability interface that every
// remote object store driver implements, plus local-directory, S3-
// compatible, and in-memory drivers.
//
// Keys are opaque strings. The engine writes every object under
// "objects/<hex OID>" and stores no other keys in the backend: snapshot
// records live in the local object cache, and the key file is read from a
// local path. The core never interprets a key's structure beyond using it
// as a lookup and, for List, a prefix filter.
package storage

import "context"

// Backend is the capability interface every storage driver satisfies:
// opaque blob put/get/delete/list keyed by string. The core requires only
// these four operations; a local-directory driver, an S3-compatible
// driver, and an in-memory driver for tests all satisfy this contract
// with no other surface.
type Backend interface {
	// Put writes data under key. Idempotent: a Put of an existing key
	// with identical bytes succeeds silently; a Put with different bytes
	// for an existing key is undefined behavior (a caller-side invariant
	// violation, since object keys are content-addressed).
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the bytes stored under key. Returns an *apperr.Error with
	// code ErrNotFound if the key does not exist, or ErrIO on a transport
	// failure.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Idempotent: deleting a key that does not exist
	// is not an error.
	Delete(ctx context.Context, key string) error

	// List returns a lazy iterator over keys with the given prefix. The
	// iterator yields (key, nil) for each entry and should stop and
	// yield (_, err) once on any enumeration failure.
	List(ctx context.Context, prefix string) func(yield func(string, error) bool)
}
