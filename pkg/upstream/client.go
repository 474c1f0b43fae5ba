// Package upstream is the outbound HTTP client used to reach the portfolio,
// shot and video-feed services. It adds a fixed browser-like header set to
// every request and records per-source metrics. It never retries.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for upstream calls.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_upstream_requests_total",
		Help: "Total upstream requests by source and status",
	}, []string{"source", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by source",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_upstream_errors_total",
		Help: "Total upstream errors by source and class",
	}, []string{"source", "class"})
)

// Fetcher issues outbound requests. *Client implements it; tests may
// substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*http.Response, error)
}

// Options describe one outbound request.
type Options struct {
	// Method defaults to GET.
	Method string

	// Headers override the client's default headers on key collision.
	Headers http.Header

	// Body is sent as the request body when non-nil.
	Body io.Reader

	// Source labels metrics and logs ("behance", "dribbble", "youtube").
	Source string
}

// Config holds the client configuration.
type Config struct {
	// UserAgent is sent on every request unless overridden.
	UserAgent string

	// Timeout bounds each request. Zero leaves it to the transport.
	Timeout time.Duration

	// Transport is the underlying round tripper (nil: http.DefaultTransport).
	Transport http.RoundTripper
}

// Client performs upstream requests with the default header set applied.
type Client struct {
	httpClient *http.Client
	defaults   http.Header
	logger     zerolog.Logger
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative (got %s)", cfg.Timeout)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		defaults: DefaultHeaders(cfg.UserAgent),
		logger:   log.With().Str("component", "upstream").Logger(),
	}, nil
}

// Fetch performs one request and returns whatever status the upstream
// answered with; callers check it (see CheckStatus). Transport-level
// failures are returned as *Error with ErrorClassNetwork.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	source := opts.Source
	if source == "" {
		source = "unknown"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, opts.Body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = MergeHeaders(c.defaults, opts.Headers)

	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(source).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("source", source).
		Str("method", method).
		Str("host", req.URL.Host).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(source, string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues(source, "network_error").Inc()
		return nil, &Error{
			Source:     source,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}

	upstreamRequestsTotal.WithLabelValues(source, strconv.Itoa(resp.StatusCode)).Inc()
	if class := classifyStatus(resp.StatusCode); class != "" {
		upstreamErrorsTotal.WithLabelValues(source, string(class)).Inc()
	}

	return resp, nil
}

// DefaultHeaders returns the header set injected into every request.
func DefaultHeaders(userAgent string) http.Header {
	return http.Header{
		"User-Agent": []string{userAgent},
		"Accept":     []string{"application/json"},
	}
}

// MergeHeaders returns a new header set containing defaults overlaid by
// overrides. An override replaces every default value of the same
// (canonicalized) key. Neither input is modified.
func MergeHeaders(defaults, overrides http.Header) http.Header {
	merged := make(http.Header, len(defaults)+len(overrides))
	for key, values := range defaults {
		merged[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	for key, values := range overrides {
		merged[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return merged
}
