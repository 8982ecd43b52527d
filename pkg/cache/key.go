package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached inventory API response. Entries are scoped
// per tenant so two tenants never see each other's data.
type Key struct {
	// Tenant is the tenant scope identifier.
	Tenant string

	// Endpoint is the API endpoint path (e.g. "/v1/assets").
	Endpoint string

	// Query holds the request query parameters.
	Query url.Values
}

// String generates a deterministic Redis key.
// Format: inv:<tenant>:<endpoint>:query1=val1:query2=val2
func (k Key) String() string {
	parts := []string{"inv", k.Tenant}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
