// Package testutil provides testing utilities for the inventory client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// MockInventory is a configurable mock inventory API server. It
// understands $top/$skip paging, can report quota usage headers and
// script rate-limit rejections.
type MockInventory struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	usage    string // X-RateLimit-Usage value attached to every response

	// Tracking
	RequestCount int
	LastHeader   http.Header
}

// NewMockInventory creates a new mock API server.
func NewMockInventory() *MockInventory {
	mock := &MockInventory{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastHeader = r.Header.Clone()
		usage := mock.usage
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if usage != "" {
			w.Header().Set("X-RateLimit-Usage", usage)
		}

		if exists {
			handler(w, r)
			return
		}

		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockInventory) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockInventory) Close() {
	m.server.Close()
}

// Reset clears tracking counters and handlers.
func (m *MockInventory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastHeader = nil
	m.usage = ""
	m.handlers = make(map[string]http.HandlerFunc)
}

// SetUsage attaches an X-RateLimit-Usage header to every response.
func (m *MockInventory) SetUsage(used, max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = fmt.Sprintf("%d/%d", used, max)
}

// Handle registers a custom handler for a path.
func (m *MockInventory) Handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// ServeCollection serves items (each a JSON object literal) as a
// paginated collection honoring $top/$skip, wrapped in the standard
// value envelope.
func (m *MockInventory) ServeCollection(path string, items []string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		top, err := strconv.Atoi(r.URL.Query().Get("$top"))
		if err != nil || top <= 0 {
			top = len(items)
		}
		skip, err := strconv.Atoi(r.URL.Query().Get("$skip"))
		if err != nil || skip < 0 {
			skip = 0
		}

		if skip > len(items) {
			skip = len(items)
		}
		end := skip + top
		if end > len(items) {
			end = len(items)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"value":[%s]}`, strings.Join(items[skip:end], ","))
	})
}

// ServeRejections answers a path with count 429 responses carrying the
// given Retry-After hint, then succeeds with body.
func (m *MockInventory) ServeRejections(path string, count int, retryAfter, body string) {
	var mu sync.Mutex
	served := 0

	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served++
		rejected := served <= count
		mu.Unlock()

		if rejected {
			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}
