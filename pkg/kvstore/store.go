// Package kvstore provides the opaque persistence boundary for the pipeline:
// a key-value blob store with per-collection namespaces. Every record is a
// single JSON blob and every operation is a single atomic read or write;
// there are no transactions. SetNX is the one concurrency primitive the rest
// of the system builds on (immutable template version records).
package kvstore

import "context"

// Store is implemented by each storage driver (postgres, redis, memory) and
// by the retrying decorator that wraps them.
//
// Get and Delete return apperrors.ErrNotFound for absent keys. SetNX returns
// apperrors.ErrConflict when the key already exists. Drivers return all
// other failures verbatim; classification and retries happen in the
// decorator, not the drivers.
type Store interface {
	// Get returns the blob stored under (collection, key).
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Set writes the blob under (collection, key), overwriting any existing
	// value. Last writer wins.
	Set(ctx context.Context, collection, key string, value []byte) error

	// SetNX writes the blob only if (collection, key) is absent.
	SetNX(ctx context.Context, collection, key string, value []byte) error

	// Delete removes (collection, key).
	Delete(ctx context.Context, collection, key string) error

	// List returns every blob in the collection keyed by record key. Order
	// is unspecified; callers sort.
	List(ctx context.Context, collection string) (map[string][]byte, error)
}
