package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired in-memory entries are purged.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryStore is a process-local Store built on patrickmn/go-cache.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Match returns a copy of the entry for key.
func (s *MemoryStore) Match(ctx context.Context, key Key) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := s.items.Get(key.String())
	if !ok {
		CacheMisses.WithLabelValues(backendMemory).Inc()
		return nil, ErrCacheMiss
	}

	entry, ok := value.(*Entry)
	if !ok {
		CacheErrors.WithLabelValues(backendMemory, "match").Inc()
		return nil, ErrInvalidEntry
	}
	if entry.IsExpired() {
		s.items.Delete(key.String())
		CacheMisses.WithLabelValues(backendMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(backendMemory).Inc()
	return entry.clone(), nil
}

// Put stores a copy of entry until it expires.
func (s *MemoryStore) Put(ctx context.Context, key Key, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return errNilEntry
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	s.items.Set(key.String(), entry.clone(), ttl)
	CacheStores.WithLabelValues(backendMemory).Inc()
	CacheStoredBytes.WithLabelValues(backendMemory).Observe(float64(len(entry.Data)))
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.items.Delete(key.String())
	CacheDeletes.WithLabelValues(backendMemory).Inc()
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

var _ Store = (*MemoryStore)(nil)
