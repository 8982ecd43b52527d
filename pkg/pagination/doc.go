// Package pagination drains paginated inventory API collection
// endpoints into flat, deduplicated item sequences.
//
// The API pages collections with $top/$skip query parameters and is
// inconsistent about response shape: most endpoints wrap items in a
// {"value": [...]} envelope, some return a bare array, and a few
// "get all" endpoints are not paginated at all and return one object.
// The walker handles all three.
//
// Example usage:
//
//	walker := pagination.NewWalker(apiClient, 100, logger)
//	items, err := walker.FetchAll(ctx, "/v1/assets", url.Values{"status": {"active"}})
//
// Items are deduplicated by identifier across pages, which also bounds
// the walk: each iteration either grows the seen set or terminates, so
// a server echoing the same page forever cannot loop the walker.
package pagination
