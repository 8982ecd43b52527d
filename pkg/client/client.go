// Package client provides the core inventory API HTTP client with
// adaptive throttling, bounded retry on rate-limit rejections and
// optional Redis-backed response caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stocktide/inventory-client/pkg/cache"
	"github.com/stocktide/inventory-client/pkg/ratelimit"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_requests_total",
		Help: "Total inventory API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_request_duration_seconds",
		Help:    "Inventory API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})
)

const (
	// APIVersion is the inventory API version this client speaks. It is
	// pinned via the Accept header on every request.
	APIVersion = "2024-10"

	// TenantHeader carries the tenant scope identifier.
	TenantHeader = "X-Tenant-ID"

	acceptValue = "application/json;api-version=" + APIVersion

	defaultBaseURL = "https://api.stocktide.io"
)

// Config holds the client configuration. Immutable after construction.
type Config struct {
	// BaseURL of the inventory API. Defaults to the hosted service.
	BaseURL string

	// Token is the bearer token used for authorization (REQUIRED).
	Token string

	// Tenant is the tenant scope identifier (REQUIRED).
	Tenant string

	// Redis enables the response cache when set. The throttle state is
	// always in-process and never persisted.
	Redis *redis.Client

	// Throttle tunes the sliding-window gate (thresholds, spacing,
	// recovery buffer, pause hook).
	Throttle ratelimit.Config

	// Retry governs handling of explicit 429 rejections.
	Retry RetryPolicy

	// Timeout for a single transport attempt.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration for the given
// credentials.
func DefaultConfig(token, tenant string) Config {
	return Config{
		BaseURL:  defaultBaseURL,
		Token:    token,
		Tenant:   tenant,
		Throttle: ratelimit.DefaultConfig(),
		Retry:    DefaultRetryPolicy(),
		Timeout:  30 * time.Second,
	}
}

// Client is the inventory API client. A client instance dispatches one
// request at a time; callers sharing an instance across goroutines
// must serialize access to preserve the throttle invariants.
type Client struct {
	httpClient *http.Client
	gate       *ratelimit.Gate
	retry      RetryPolicy
	cache      *cache.Manager
	config     Config
	baseURL    string
	logger     zerolog.Logger
}

// New creates a new inventory API client. It fails synchronously,
// before any network activity, when required credentials are absent.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.Tenant == "" {
		return nil, ErrMissingTenant
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if cfg.Retry.DefaultDelay <= 0 {
		cfg.Retry.DefaultDelay = DefaultRetryPolicy().DefaultDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "inventory-client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		gate:       ratelimit.NewGate(cfg.Throttle, logger),
		retry:      cfg.Retry,
		cache:      cacheManager,
		config:     cfg,
		baseURL:    baseURL,
		logger:     logger,
	}, nil
}

// Do performs one logical request/response exchange: throttle gate
// pre-hook, a single transport attempt, gate post-hook, then status
// dispatch. Explicit 429 rejections are retried up to the policy
// bound; the final rejection is surfaced as *RateLimitError. Any other
// non-success status is surfaced immediately as *APIError and never
// retried here. On success the raw body bytes are returned.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, body any) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	// Cache lookup for GET requests; a hit turns the dispatch into a
	// conditional request.
	var cached *cache.Entry
	var cacheKey cache.Key
	if c.cache != nil && method == http.MethodGet {
		cacheKey = cache.Key{
			Tenant:   c.config.Tenant,
			Endpoint: endpoint,
			Query:    query,
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cached = entry
	}

	for attempt := 0; ; attempt++ {
		if err := c.gate.BeforeRequest(ctx); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, method, reqURL, payload)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			cache.AddConditionalHeader(req, cached)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return nil, fmt.Errorf("dispatch %s %s: %w", method, endpoint, err)
		}

		c.gate.AfterResponse(resp.Header, time.Now())

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read response body: %w", readErr)
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.retry.MaxRetries {
				retryExhaustedTotal.Inc()
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int("attempts", attempt+1).
					Msg("Retry attempts exhausted")
				return nil, &RateLimitError{
					StatusCode: resp.StatusCode,
					Body:       string(respBody),
					Attempts:   attempt + 1,
				}
			}

			delay := retryDelay(resp.Header.Get("Retry-After"), time.Now(), c.retry.DefaultDelay)
			retriesTotal.Inc()
			retryWaitSeconds.Observe(delay.Seconds())

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("wait", delay).
				Msg("Rate limited - retrying after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			continue

		case resp.StatusCode == http.StatusNotModified && cached != nil:
			c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - serving cached body")
			if err := c.cache.Refresh(ctx, cacheKey, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to refresh cache TTL")
			}
			return cached.Data, nil

		case resp.StatusCode >= 400:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if c.cache != nil && method == http.MethodGet && resp.StatusCode == http.StatusOK {
			entry := cache.NewEntry(respBody, resp.Header)
			if entry.TTL() > 0 {
				if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to cache response")
				} else {
					c.logger.Debug().
						Str("endpoint", endpoint).
						Dur("ttl", entry.TTL()).
						Msg("Cached response")
				}
			}
		}

		return respBody, nil
	}
}

// newRequest builds a single transport attempt with the standard
// headers. The payload is re-read from the buffered bytes so a retry
// re-sends an identical body.
func (c *Client) newRequest(ctx context.Context, method, reqURL string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", acceptValue)
	req.Header.Set(TenantHeader, c.config.Tenant)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Get performs a GET request and returns the raw body.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, endpoint, query, nil)
}

// GetJSON performs a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	body, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	return c.decode(endpoint, body, out)
}

// Post performs a POST request with a JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) Post(ctx context.Context, endpoint string, in, out any) error {
	body, err := c.Do(ctx, http.MethodPost, endpoint, nil, in)
	if err != nil {
		return err
	}
	return c.decode(endpoint, body, out)
}

// Patch performs a PATCH request with a JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) Patch(ctx context.Context, endpoint string, in, out any) error {
	body, err := c.Do(ctx, http.MethodPatch, endpoint, nil, in)
	if err != nil {
		return err
	}
	return c.decode(endpoint, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	_, err := c.Do(ctx, http.MethodDelete, endpoint, nil, nil)
	return err
}

// decode unmarshals a successful response body, reporting contract
// violations as *DecodeError.
func (c *Client) decode(endpoint string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Gate returns the throttle gate (for observability).
func (c *Client) Gate() *ratelimit.Gate {
	return c.gate
}
