// Package server is the public HTTP surface of portfolio-edge. It routes on
// method only: OPTIONS answers the CORS table, GET serves the aggregate
// through the cache gate, DELETE invalidates it and everything else is 405.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/portfolio-edge/pkg/aggregate"
	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
)

// CacheStatusHeader reports whether a GET was served from the cache.
const CacheStatusHeader = "X-Cache"

// Response messages.
const (
	MessageOK               = "Data fetched successfully"
	MessageMethodNotAllowed = "Method not allowed"
	MessageAllFailed        = "Failed to fetch all data"
)

// Aggregator produces the combined result. *aggregate.Aggregator
// implements it.
type Aggregator interface {
	Aggregate(ctx context.Context, creds config.Credentials) (*aggregate.Result, error)
}

// Config wires a Server.
type Config struct {
	Aggregator  Aggregator
	Credentials config.Credentials
	Store       cache.Store

	// Lifetime is the freshness lifetime of stored responses
	// (default cache.DefaultLifetime).
	Lifetime time.Duration

	// CORS defaults to DefaultCORSPolicy.
	CORS *CORSPolicy
}

// Server handles every public request.
type Server struct {
	aggregator Aggregator
	creds      config.Credentials
	gate       *Gate
	cors       CORSPolicy
	handler    http.Handler
}

// Envelope is the JSON body of every GET success.
type Envelope struct {
	Message string            `json:"message"`
	Data    *aggregate.Result `json:"data"`
}

type messageBody struct {
	Message string `json:"message"`
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is required")
	}

	policy := DefaultCORSPolicy()
	if cfg.CORS != nil {
		policy = *cfg.CORS
	}

	s := &Server{
		aggregator: cfg.Aggregator,
		creds:      cfg.Credentials,
		gate:       NewGate(cfg.Store, cfg.Lifetime),
		cors:       policy,
	}
	s.handler = withRequestLogging(withRecovery(policy.Handler(http.HandlerFunc(s.route))))
	return s, nil
}

// ServeHTTP implements http.Handler with the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Wait blocks until pending cache stores have finished.
func (s *Server) Wait() {
	s.gate.Wait()
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		s.cors.writePreflight(w)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, MessageMethodNotAllowed)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	key := cache.KeyFromRequest(r)

	if entry, ok := s.gate.Lookup(ctx, key); ok {
		logger.Debug().Str("cache_key", key.String()).Msg("Serving stored response")
		w.Header().Set(CacheStatusHeader, "HIT")
		if err := cache.WriteEntry(w, entry, time.Now()); err != nil {
			logger.Warn().Err(err).Msg("Failed to write stored response")
		}
		return
	}

	generation := s.gate.Generation(key)

	result, err := s.aggregator.Aggregate(ctx, s.creds)
	if err != nil {
		s.writeAggregateError(w, r, err)
		return
	}

	body, err := json.Marshal(Envelope{Message: MessageOK, Data: result})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry := cache.NewEntry(http.StatusOK,
		http.Header{"Content-Type": []string{"application/json"}},
		body, s.gate.Lifetime())

	for k, values := range entry.Headers {
		w.Header()[k] = append([]string(nil), values...)
	}
	w.Header().Set(CacheStatusHeader, "MISS")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Warn().Err(err).Msg("Failed to write response")
	}

	s.gate.Store(ctx, key, generation, entry)
}

func (s *Server) writeAggregateError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	var missing *config.MissingError
	switch {
	case errors.As(err, &missing):
		logger.Warn().Strs("missing", missing.Names).Msg("Credentials incomplete, no upstream contacted")
		writeMessage(w, http.StatusInternalServerError, missing.Error())
	case errors.Is(err, aggregate.ErrAllSourcesFailed):
		writeMessage(w, http.StatusInternalServerError, MessageAllFailed)
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := cache.KeyFromRequest(r)
	if err := s.gate.Invalidate(r.Context(), key); err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Str("cache_key", key.String()).Msg("Cache invalidation failed")
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeMessage writes a {"message": ...} JSON body.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(messageBody{Message: message})
}
