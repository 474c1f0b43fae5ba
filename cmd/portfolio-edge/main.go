package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/portfolio-edge/pkg/aggregate"
	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
	"github.com/Sternrassler/portfolio-edge/pkg/metrics"
	"github.com/Sternrassler/portfolio-edge/pkg/server"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

const (
	shutdownTimeout = 15 * time.Second
	readyTimeout    = 2 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger("main")

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info().Str("backend", cfg.CacheBackend).Msg("Cache store ready")

	client, err := upstream.New(upstream.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		return fmt.Errorf("create upstream client: %w", err)
	}

	policy, err := aggregate.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return err
	}
	agg, err := aggregate.New(aggregate.Config{
		Fetcher:        client,
		DribbbleURL:    cfg.DribbbleURL,
		YouTubeFeedURL: cfg.YouTubeFeedURL,
		Policy:         policy,
	})
	if err != nil {
		return fmt.Errorf("create aggregator: %w", err)
	}

	// Requests will answer 500 until this is fixed; the process keeps serving.
	if missing := cfg.Credentials.Missing(); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("Upstream credentials incomplete")
	}

	srv, err := server.New(server.Config{
		Aggregator:  agg,
		Credentials: cfg.Credentials,
		Store:       store,
		Lifetime:    cfg.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	public := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ops := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           opsMux(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	for _, s := range []*http.Server{public, ops} {
		go func(s *http.Server) {
			logger.Info().Str("addr", s.Addr).Msg("Listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen on %s: %w", s.Addr, err)
			}
		}(s)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := public.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Public listener shutdown failed")
	}
	// Let responses computed before shutdown reach the cache.
	srv.Wait()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Operational listener shutdown failed")
	}

	return serveErr
}

// newStore builds the configured cache backend. The returned func releases it.
func newStore(ctx context.Context, cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisURL,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisURL, err)
		}
		return cache.NewRedisStore(redisClient), redisClient.Close, nil
	case config.BackendMemory:
		return cache.NewMemoryStore(cache.DefaultCleanupInterval), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func opsMux(store cache.Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(store))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// readyHandler reports ready once the cache store answers a ping.
func readyHandler(store cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Readiness check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "NOT READY: %v", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}
