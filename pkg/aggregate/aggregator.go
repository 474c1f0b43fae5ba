// Package aggregate fans out to the three portfolio upstreams, normalizes
// their payloads into FeedItems and assembles the combined Result.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/portfolio-edge/pkg/config"
	"github.com/Sternrassler/portfolio-edge/pkg/upstream"
)

var (
	sourceFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_source_fetch_total",
		Help: "Source fetches by outcome (ok, failed)",
	}, []string{"source", "outcome"})

	sourceItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portfolio_source_items",
		Help: "Number of items returned by the last successful fetch of a source",
	}, []string{"source"})

	aggregateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portfolio_aggregate_duration_seconds",
		Help:    "Time to settle all three sources",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// ErrAllSourcesFailed is returned under PolicyFailOnTotal when no source
// produced a result.
var ErrAllSourcesFailed = errors.New("failed to fetch all data")

// FailurePolicy decides when upstream failures fail the whole request.
type FailurePolicy int

const (
	// PolicyFailOnTotal fails only when every source failed.
	PolicyFailOnTotal FailurePolicy = iota

	// PolicyNeverFail always returns the sources that succeeded.
	PolicyNeverFail
)

// ParseFailurePolicy maps the configuration value ("total", "never").
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "total":
		return PolicyFailOnTotal, nil
	case "never":
		return PolicyNeverFail, nil
	default:
		return 0, fmt.Errorf("unknown failure policy %q", s)
	}
}

// Aggregator combines the three sources.
type Aggregator struct {
	behance  Source
	dribbble Source
	youtube  Source
	policy   FailurePolicy
}

// Config wires an Aggregator to its upstream endpoints.
type Config struct {
	Fetcher        upstream.Fetcher
	DribbbleURL    string
	YouTubeFeedURL string
	Policy         FailurePolicy
}

// New creates an aggregator with the production sources.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.DribbbleURL == "" {
		cfg.DribbbleURL = config.DefaultDribbbleURL
	}
	if cfg.YouTubeFeedURL == "" {
		cfg.YouTubeFeedURL = config.DefaultYouTubeFeedURL
	}

	return NewWithSources(
		NewBehanceSource(cfg.Fetcher),
		NewDribbbleSource(cfg.Fetcher, cfg.DribbbleURL),
		NewYouTubeSource(cfg.Fetcher, cfg.YouTubeFeedURL),
		cfg.Policy,
	), nil
}

// NewWithSources creates an aggregator from explicit sources.
func NewWithSources(behance, dribbble, youtube Source, policy FailurePolicy) *Aggregator {
	return &Aggregator{
		behance:  behance,
		dribbble: dribbble,
		youtube:  youtube,
		policy:   policy,
	}
}

// Aggregate validates creds, then fetches all sources concurrently and
// waits for every one of them to settle. A failed source is logged and
// contributes an empty list. Missing credentials return a
// *config.MissingError before any upstream is contacted.
func (a *Aggregator) Aggregate(ctx context.Context, creds config.Credentials) (*Result, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		aggregateDuration.Observe(time.Since(start).Seconds())
	}()

	sources := [...]Source{a.behance, a.dribbble, a.youtube}
	var outcomes [len(sources)]outcome

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			items, err := source.Fetch(ctx, creds)
			outcomes[i] = outcome{items: items, err: err}
		}(i, source)
	}
	wg.Wait()

	logger := zerolog.Ctx(ctx)
	result := NewResult()
	lists := [...]*[]FeedItem{&result.Behance, &result.Dribbble, &result.YouTube}

	failed := 0
	for i, o := range outcomes {
		name := sources[i].Name()
		if o.err != nil {
			failed++
			sourceFetchTotal.WithLabelValues(name, "failed").Inc()
			event := logger.Warn().Err(o.err).Str("source", name)
			var upErr *upstream.Error
			if errors.As(o.err, &upErr) {
				event = event.Int("status", upErr.StatusCode).
					Str("error_class", string(upErr.ErrorClass)).
					Str("body", upErr.Body)
			}
			event.Msg("Source failed, returning empty list")
			continue
		}

		sourceFetchTotal.WithLabelValues(name, "ok").Inc()
		sourceItems.WithLabelValues(name).Set(float64(len(o.items)))
		if o.items != nil {
			*lists[i] = o.items
		}
		logger.Debug().Str("source", name).Int("count", len(o.items)).Msg("Source fetched")
	}

	if failed == len(sources) && a.policy == PolicyFailOnTotal {
		return nil, ErrAllSourcesFailed
	}
	return result, nil
}
