// Package metrics exposes the Prometheus registry used by portfolio-edge.
// All metrics are defined in their respective packages (server, aggregate,
// upstream, cache) and registered via promauto; this package serves them
// and documents what exists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the counterpart of Registry that Handler reads from.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// HTTP Metrics (pkg/server):
//   - portfolio_http_requests_total{method, status} (Counter): Inbound requests by method and status
//   - portfolio_http_request_duration_seconds{method} (Histogram): Inbound request duration
//
// Aggregate Metrics (pkg/aggregate):
//   - portfolio_source_fetch_total{source, outcome} (Counter): Source fetches by outcome (ok, failed)
//   - portfolio_source_items{source} (Gauge): Items returned by the last successful fetch
//   - portfolio_aggregate_duration_seconds (Histogram): Time to settle all three sources
//
// Upstream Metrics (pkg/upstream):
//   - portfolio_upstream_requests_total{source, status} (Counter): Upstream requests by source and HTTP status
//   - portfolio_upstream_request_duration_seconds{source} (Histogram): Upstream request duration
//   - portfolio_upstream_errors_total{source, class} (Counter): Errors by class (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - portfolio_cache_hits_total{backend} (Counter): Edge cache hits by backend
//   - portfolio_cache_misses_total{backend} (Counter): Edge cache misses
//   - portfolio_cache_stores_total{backend} (Counter): Responses written to the cache
//   - portfolio_cache_deletes_total{backend} (Counter): Invalidations
//   - portfolio_cache_entry_bytes{backend} (Histogram): Size of stored entries
//   - portfolio_cache_errors_total{backend, operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(portfolio_cache_hits_total[5m])) /
//   (sum(rate(portfolio_cache_hits_total[5m])) + sum(rate(portfolio_cache_misses_total[5m])))
//
//   # Degraded sources
//   sum by (source) (rate(portfolio_source_fetch_total{outcome="failed"}[5m]))
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(portfolio_upstream_request_duration_seconds_bucket[5m]))
//
//   # 5xx Rate
//   sum(rate(portfolio_http_requests_total{status=~"5.."}[5m]))
