// Package blobstore implements the asynchronous content-addressed
// persistence backend: the "cold" tier beneath
// internal/contentstore's synchronous LRU cache. Every method must
// tolerate being called before Open's returned error has resolved.
package blobstore

import "context"

// BlobStore is the pluggable async CAS backend. Implementations must be
// safe to call before Open completes (no-op or return nil/false), and
// Put must be idempotent: storing the same hash twice keeps the first
// payload.
type BlobStore interface {
	Open(ctx context.Context) error
	Get(ctx context.Context, hash string) ([]byte, error)
	Put(ctx context.Context, hash string, data []byte) error
	Has(ctx context.Context, hash string) (bool, error)
	Delete(ctx context.Context, hash string) error
	Close(ctx context.Context) error
}

// TreeStore is the persistence-manager side of a BlobStore backend: it
// additionally knows how to save/load the single serialized VFS tree
// snapshot that backend instance is responsible for. Both
// reference implementations (Memory, Durable) satisfy it.
type TreeStore interface {
	BlobStore
	SaveTree(ctx context.Context, serialized []byte) error
	LoadTree(ctx context.Context) ([]byte, error)
}
