// Package cache provides the edge response cache: an injected key-value
// store of HTTP responses keyed by request identity.
//
// Two backends implement Store:
//
//   - MemoryStore, process-local, built on patrickmn/go-cache
//   - RedisStore, shared between instances, built on go-redis
//
// # Basic Usage
//
//	store := cache.NewMemoryStore(cache.DefaultCleanupInterval)
//
//	key := cache.KeyFromRequest(r)
//
//	entry, err := store.Match(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) || !entry.IsFresh(time.Now()) {
//		// compute the response
//	}
//
//	entry = cache.NewEntry(http.StatusOK, headers, body, cache.DefaultLifetime)
//	if err := store.Put(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Freshness
//
// Entries record when they were computed (CachedAt) and carry the
// Cache-Control header they were served with. IsFresh compares the entry's
// age against the declared max-age. Callers check it even though both
// backends also expire entries on their own.
//
// # Metrics
//
//   - portfolio_cache_hits_total{backend}
//   - portfolio_cache_misses_total{backend}
//   - portfolio_cache_stores_total{backend}
//   - portfolio_cache_deletes_total{backend}
//   - portfolio_cache_entry_bytes{backend}
//   - portfolio_cache_errors_total{backend,operation}
package cache
