package client

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry handling.
var (
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_retries_total",
		Help: "Total number of retry attempts after rate-limit rejections",
	})

	retryWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_retry_wait_seconds",
		Help:    "Wait duration before retrying a rejected request",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_retry_exhausted_total",
		Help: "Total number of requests that exhausted all retry attempts",
	})
)

// RetryPolicy governs handling of explicit rate-limit rejections
// (HTTP 429). Immutable after client construction.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the initial request.
	// Once reached, the final rejection is surfaced to the caller.
	MaxRetries int

	// DefaultDelay is the wait applied when the rejection carries no
	// usable retry hint.
	DefaultDelay time.Duration
}

// DefaultRetryPolicy returns the default rejection handling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		DefaultDelay: 5 * time.Second,
	}
}

// retryDelay computes the wait before re-attempting a rejected
// request. The Retry-After hint is tried first as delta-seconds, then
// as an HTTP-date whose difference from now is floored at zero. An
// absent or unparseable hint falls back to the policy default.
func retryDelay(hint string, now time.Time, fallback time.Duration) time.Duration {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return fallback
	}

	if secs, err := strconv.Atoi(hint); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(hint); err == nil {
		delay := at.Sub(now)
		if delay < 0 {
			return 0
		}
		return delay
	}

	return fallback
}
