// Package metrics exposes the Prometheus metrics of seafood-terminal.
// The metrics themselves live in the packages that record them (storage,
// cache, client, pagination, pipeline, ratelimit) and register through
// promauto on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package's promauto metrics use.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Names lists every metric family recorded by the module.
var Names = []string{
	"seafood_store_operations_total",
	"seafood_store_errors_total",
	"seafood_cache_hits_total",
	"seafood_cache_misses_total",
	"seafood_cache_expired_total",
	"seafood_cache_writes_total",
	"seafood_cache_payload_bytes",
	"seafood_cache_errors_total",
	"seafood_api_requests_total",
	"seafood_api_request_duration_seconds",
	"seafood_api_errors_total",
	"seafood_api_retries_total",
	"seafood_api_retry_backoff_seconds",
	"seafood_api_retry_exhausted_total",
	"seafood_pages_fetched_total",
	"seafood_batch_fetch_duration_seconds",
	"seafood_pipeline_fetches_total",
	"seafood_pipeline_stale_responses_total",
	"seafood_pipeline_fetch_duration_seconds",
	"seafood_pipeline_dataset_records",
	"seafood_rate_limit_remaining",
	"seafood_rate_limit_blocks_total",
	"seafood_rate_limit_throttles_total",
}

// Metrics Documentation
//
// Storage (pkg/storage):
//   - seafood_store_operations_total{backend, operation} (Counter)
//   - seafood_store_errors_total{backend, operation} (Counter)
//
// Cache (pkg/cache):
//   - seafood_cache_hits_total{dataset} / seafood_cache_misses_total{dataset} (Counter)
//   - seafood_cache_expired_total{dataset} (Counter): entries older than their TTL
//   - seafood_cache_writes_total{dataset} (Counter)
//   - seafood_cache_payload_bytes{dataset} (Gauge): size of the last written payload
//   - seafood_cache_errors_total{operation} (Counter)
//
// API client (pkg/client):
//   - seafood_api_requests_total{endpoint, status} (Counter)
//   - seafood_api_request_duration_seconds{endpoint} (Histogram)
//   - seafood_api_errors_total{class} (Counter): client, server, rate_limit, network
//   - seafood_api_retries_total{error_class} (Counter)
//   - seafood_api_retry_backoff_seconds{error_class} (Histogram)
//   - seafood_api_retry_exhausted_total{error_class} (Counter)
//
// Pagination (pkg/pagination):
//   - seafood_pages_fetched_total{endpoint, result} (Counter)
//   - seafood_batch_fetch_duration_seconds{endpoint} (Histogram)
//
// Pipeline (pkg/pipeline):
//   - seafood_pipeline_fetches_total{dataset, result} (Counter): ok, error, cache_hit
//   - seafood_pipeline_stale_responses_total{dataset} (Counter)
//   - seafood_pipeline_fetch_duration_seconds{dataset} (Histogram)
//   - seafood_pipeline_dataset_records{dataset} (Gauge)
//
// Rate limit (pkg/ratelimit):
//   - seafood_rate_limit_remaining (Gauge)
//   - seafood_rate_limit_blocks_total (Counter)
//   - seafood_rate_limit_throttles_total (Counter)
//
// Example Prometheus Queries:
//
//	# Cache hit rate
//	sum(rate(seafood_cache_hits_total[5m])) /
//	(sum(rate(seafood_cache_hits_total[5m])) + sum(rate(seafood_cache_misses_total[5m])))
//
//	# Failing datasets
//	sum by (dataset) (rate(seafood_pipeline_fetches_total{result="error"}[15m])) > 0
//
//	# P95 API latency
//	histogram_quantile(0.95, rate(seafood_api_request_duration_seconds_bucket[5m]))
