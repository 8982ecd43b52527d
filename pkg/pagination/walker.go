package pagination

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/stocktide/inventory-client/pkg/client"
)

// Prometheus metrics for pagination.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_pages_fetched_total",
		Help: "Total collection pages fetched by endpoint",
	}, []string{"endpoint"})
)

// DefaultPageSize is the $top value used when none is configured.
const DefaultPageSize = 100

// Fetcher is the request surface the walker needs from the client.
type Fetcher interface {
	// Get performs a throttled GET and returns the raw response body.
	Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error)
}

// Walker drains paginated collection endpoints into a deduplicated,
// order-stable item sequence.
type Walker struct {
	client   Fetcher
	pageSize int
	logger   zerolog.Logger
}

// NewWalker creates a walker issuing pages of pageSize items through
// client. A non-positive pageSize falls back to DefaultPageSize.
func NewWalker(client Fetcher, pageSize int, logger zerolog.Logger) *Walker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Walker{
		client:   client,
		pageSize: pageSize,
		logger:   logger.With().Str("component", "pagination").Logger(),
	}
}

// FetchAll walks endpoint to completion, merging pages into a
// deduplicated result in original order. The walker's $top/$skip
// parameters always win over caller-supplied params. Items are
// deduplicated by their extracted identifier; items without one are
// always appended. A body that fits none of the collection shapes
// surfaces as *client.DecodeError. Termination: a single-object
// response (endpoint not paginated), an empty page, or a page
// contributing zero new items; the latter guards against servers that
// echo the last page when the offset runs past the true collection
// size.
func (w *Walker) FetchAll(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, error) {
	start := time.Now()

	offset := 0
	seen := make(map[string]struct{})
	var items []json.RawMessage

	for fetches := 1; ; fetches++ {
		query := url.Values{}
		for name, values := range params {
			query[name] = values
		}
		query.Set("$top", strconv.Itoa(w.pageSize))
		query.Set("$skip", strconv.Itoa(offset))

		body, err := w.client.Get(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}
		pagesFetchedTotal.WithLabelValues(endpoint).Inc()

		page, err := DecodePage(body)
		if err != nil {
			return nil, &client.DecodeError{Endpoint: endpoint, Err: err}
		}

		if page.Shape == ShapeSingle {
			w.logger.Debug().
				Str("endpoint", endpoint).
				Msg("Single object response - endpoint is not paginated")
			return page.Items, nil
		}

		if len(page.Items) == 0 {
			w.logger.Info().
				Str("endpoint", endpoint).
				Int("items", len(items)).
				Int("pages", fetches).
				Dur("duration", time.Since(start)).
				Msg("Collection drained")
			return items, nil
		}

		fresh := 0
		for _, item := range page.Items {
			if id, ok := itemID(item); ok {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			items = append(items, item)
			fresh++
		}

		w.logger.Debug().
			Str("endpoint", endpoint).
			Int("offset", offset).
			Int("received", len(page.Items)).
			Int("new", fresh).
			Msg("Page merged")

		if fresh == 0 {
			// Every item was a duplicate: the server is echoing a page.
			w.logger.Warn().
				Str("endpoint", endpoint).
				Int("offset", offset).
				Msg("Page contributed no new items - stopping walk")
			return items, nil
		}

		// Advance by items received, not page size, so short pages keep
		// the offset honest.
		offset += len(page.Items)
	}
}
