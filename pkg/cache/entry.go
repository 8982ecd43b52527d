// Package cache provides an optional Redis-backed response cache for
// the inventory API client, with ETag revalidation via conditional
// requests.
package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is the fallback lifetime when a response carries no
// usable freshness header.
const DefaultTTL = 5 * time.Minute

// Entry is a cached inventory API response body.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag enables conditional revalidation via If-None-Match.
	ETag string `json:"etag"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the response was stored.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds a cache entry from a response body and its headers.
// Freshness comes from the Expires header, falling back to DefaultTTL.
func NewEntry(body []byte, header http.Header) *Entry {
	return &Entry{
		Data:     body,
		ETag:     header.Get("ETag"),
		Expires:  parseExpires(header, time.Now()),
		CachedAt: time.Now(),
	}
}

// IsExpired reports whether the entry has gone stale.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// AddConditionalHeader attaches If-None-Match to the request when the
// entry carries an ETag, so the server can answer 304 Not Modified.
func AddConditionalHeader(req *http.Request, entry *Entry) {
	if req == nil || entry == nil || entry.ETag == "" {
		return
	}
	req.Header.Set("If-None-Match", entry.ETag)
}

// parseExpires reads the Expires header, falling back to now+DefaultTTL
// when the header is absent or unparseable, and to now when the
// reported instant already passed.
func parseExpires(header http.Header, now time.Time) time.Time {
	value := header.Get("Expires")
	if value == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(value)
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}
