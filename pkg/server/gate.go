package server

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
)

// DefaultStoreTimeout bounds one asynchronous cache write.
const DefaultStoreTimeout = 5 * time.Second

const keyLockStripes = 64

// Gate sits in front of the aggregate handler. It serves fresh stored
// responses, stores new ones asynchronously and invalidates on DELETE.
//
// Keys hash onto a fixed set of stripes. Every Invalidate bumps the
// generation of its key's stripe. A Store carries the generation observed
// before its response was computed and is dropped if the stripe has been
// bumped since, so a GET issued after a DELETE never sees the body computed
// before it. Two keys sharing a stripe only cost each other a skipped store.
//
// The guarantee holds within one process. With a shared store such as redis
// and several replicas, a put in flight on another instance can still write
// the old body back after a DELETE handled here.
type Gate struct {
	store        cache.Store
	lifetime     time.Duration
	storeTimeout time.Duration
	now          func() time.Time

	generations [keyLockStripes]atomic.Uint64

	// Serializes check-and-put against bump-and-delete for one stripe.
	locks [keyLockStripes]sync.Mutex

	pending sync.WaitGroup
}

// NewGate creates a gate over store. A non-positive lifetime selects
// cache.DefaultLifetime.
func NewGate(store cache.Store, lifetime time.Duration) *Gate {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if lifetime <= 0 {
		lifetime = cache.DefaultLifetime
	}
	return &Gate{
		store:        store,
		lifetime:     lifetime,
		storeTimeout: DefaultStoreTimeout,
		now:          time.Now,
	}
}

// Lifetime returns the freshness lifetime stamped on stored responses.
func (g *Gate) Lifetime() time.Duration {
	return g.lifetime
}

// Lookup returns a stored response that is still fresh. Store errors are
// logged and treated as a miss.
func (g *Gate) Lookup(ctx context.Context, key cache.Key) (*cache.Entry, bool) {
	entry, err := g.store.Match(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logging.FromContext(ctx).Warn().Err(err).Str("cache_key", key.String()).Msg("Cache lookup failed")
		}
		return nil, false
	}

	if !entry.IsFresh(g.now()) {
		logging.FromContext(ctx).Debug().
			Str("cache_key", key.String()).
			Dur("age", entry.Age(g.now())).
			Msg("Stored response is stale")
		return nil, false
	}
	return entry, true
}

// Generation returns the current generation of key's stripe.
func (g *Gate) Generation(key cache.Key) uint64 {
	return g.generations[stripe(key)].Load()
}

// Store writes entry in the background unless key's stripe was bumped after
// generation was observed. Only 200 responses are stored.
func (g *Gate) Store(ctx context.Context, key cache.Key, generation uint64, entry *cache.Entry) {
	if entry == nil || entry.StatusCode != http.StatusOK {
		return
	}

	logger := logging.FromContext(ctx)
	g.pending.Add(1)
	go func() {
		defer g.pending.Done()

		putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.storeTimeout)
		defer cancel()

		i := stripe(key)
		g.locks[i].Lock()
		defer g.locks[i].Unlock()

		if g.generations[i].Load() != generation {
			logger.Debug().Str("cache_key", key.String()).Msg("Key invalidated while computing, not storing")
			return
		}
		if err := g.store.Put(putCtx, key, entry); err != nil {
			logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache store failed")
			return
		}
		logger.Debug().Str("cache_key", key.String()).Int("bytes", len(entry.Data)).Msg("Response stored")
	}()
}

// Invalidate removes the stored response for key and discards any pending
// store computed before this call.
func (g *Gate) Invalidate(ctx context.Context, key cache.Key) error {
	i := stripe(key)
	g.locks[i].Lock()
	defer g.locks[i].Unlock()

	g.generations[i].Add(1)
	return g.store.Delete(ctx, key)
}

// Wait blocks until every pending store has finished.
func (g *Gate) Wait() {
	g.pending.Wait()
}

func stripe(key cache.Key) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key.String()))
	return h.Sum32() % keyLockStripes
}
