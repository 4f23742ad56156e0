// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
)

// PageSize is the standard number of items per page for list endpoints.
const PageSize = 50

// MaxPageSize caps a caller-supplied limit so a single request cannot
// pull an unbounded result set.
const MaxPageSize = 200

// Window holds the limit/offset pair applied to a list query.
type Window struct {
	Limit  int64
	Offset int64
}

// Parse reads "limit" and "offset" query parameters from the request and
// returns a clamped Window. Missing or malformed values fall back to the
// defaults (PageSize, 0).
func Parse(r *http.Request) Window {
	w := Window{Limit: PageSize}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			if n > MaxPageSize {
				n = MaxPageSize
			}
			w.Limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			w.Offset = n
		}
	}
	return w
}

// Meta describes the window of a list response so clients can build
// next/previous links.
type Meta struct {
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	Count   int   `json:"count"`
	HasNext bool  `json:"has_next"`
}

// MetaFor builds the response metadata for a page of count items fetched
// with the given window. HasNext is a heuristic: a full page suggests more
// rows may follow.
func MetaFor(w Window, count int) Meta {
	return Meta{
		Limit:   w.Limit,
		Offset:  w.Offset,
		Count:   count,
		HasNext: int64(count) >= w.Limit,
	}
}
