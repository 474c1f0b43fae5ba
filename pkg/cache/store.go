package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")

	errNilEntry = errors.New("cache entry cannot be nil")
)

// Store is the edge cache: a key-value store of responses keyed by request
// identity. Implementations must be safe for concurrent use; concurrent Puts
// to one key are last-write-wins.
type Store interface {
	// Match returns the entry for key or ErrCacheMiss.
	Match(ctx context.Context, key Key) (*Entry, error)

	// Put stores entry until entry.Expires. Expired entries are ignored.
	Put(ctx context.Context, key Key, entry *Entry) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
