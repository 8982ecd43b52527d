// Package metrics documents the Prometheus metrics exported by the
// inventory client. Metrics are defined next to the code they
// instrument (client, ratelimit, cache, pagination) to keep the
// packages self-contained; this package is the central reference.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the Prometheus registry used by the client. All metrics
// register automatically via promauto in their owning packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Reference
//
// Request metrics (pkg/client):
//   - inventory_requests_total{endpoint, status} (Counter): requests by endpoint and outcome
//   - inventory_request_duration_seconds{endpoint} (Histogram): request duration
//   - inventory_retries_total (Counter): retries after 429 rejections
//   - inventory_retry_wait_seconds (Histogram): backoff before each retry
//   - inventory_retry_exhausted_total (Counter): requests that exhausted all retries
//
// Throttle metrics (pkg/ratelimit):
//   - inventory_rate_limit_remaining (Gauge): remaining quota from the last response
//   - inventory_rate_limit_pauses_total (Counter): proactive pauses triggered
//   - inventory_rate_limit_pause_seconds (Histogram): proactive pause durations
//
// Cache metrics (pkg/cache):
//   - inventory_cache_hits_total (Counter)
//   - inventory_cache_misses_total (Counter)
//   - inventory_cache_size_bytes (Gauge)
//   - inventory_not_modified_total (Counter): 304 revalidations served from cache
//   - inventory_cache_errors_total{operation} (Counter)
//
// Pagination metrics (pkg/pagination):
//   - inventory_pages_fetched_total{endpoint} (Counter)
//
// Example queries:
//
//   # Share of requests spent rate limited
//   rate(inventory_requests_total{status="429"}[5m]) / rate(inventory_requests_total[5m])
//
//   # Quota headroom
//   inventory_rate_limit_remaining < 50
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(inventory_request_duration_seconds_bucket[5m]))
