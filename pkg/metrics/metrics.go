// Package metrics documents the Prometheus metrics exposed by the catalog
// scraper. All metrics are defined in their respective packages (client,
// scraper, cache, failures) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the scraper.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - catalog_requests_total{status} (Counter): Requests by HTTP status or "network_error"
//   - catalog_request_duration_seconds (Histogram): Request latency
//   - catalog_fetch_errors_total{kind} (Counter): Failed attempts by error kind
//
// Retry Metrics (pkg/client):
//   - catalog_retries_total{kind} (Counter): Retry attempts by error kind
//   - catalog_retry_backoff_seconds (Histogram): Backoff duration before retries
//   - catalog_retry_exhausted_total (Counter): Pages that exhausted all attempts
//
// Scrape Metrics (pkg/scraper):
//   - catalog_pages_in_flight (Gauge): Pages currently holding an admission slot
//   - catalog_pages_fetched_total{result} (Counter): Terminal page outcomes (success, failure)
//   - catalog_scrape_duration_seconds (Histogram): Full run duration
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Failure Tracking Metrics (pkg/failures):
//   - catalog_failed_pages{category} (Gauge): Failed pages recorded for the last run
//   - catalog_failed_pages_saved_total (Counter): Failed-page sets persisted
//
// Example Prometheus Queries:
//
//   # Fetch error rate
//   rate(catalog_fetch_errors_total[5m]) / rate(catalog_requests_total[5m])
//
//   # Concurrency utilisation
//   catalog_pages_in_flight
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
//
//   # Cache hit rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + rate(catalog_cache_misses_total[5m]))
