package common

import (
	"net/http"
	"strconv"
)

// ListParams carries the query-string knobs of the list endpoints.
// Listings in this service are limit-windowed, newest first; there is no
// offset paging because the backing queries read a single partition in
// sort order.
type ListParams struct {
	Limit  int    `json:"limit"`
	Period string `json:"period,omitempty"`
}

// ExtractListParams extracts list parameters from the request. A missing
// or invalid limit falls back to defaultLimit, and maxLimit caps what a
// client may ask for.
func ExtractListParams(r *http.Request, defaultLimit, maxLimit int) ListParams {
	params := ListParams{Limit: defaultLimit}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			if maxLimit > 0 && n > maxLimit {
				n = maxLimit
			}
			params.Limit = n
		}
	}

	params.Period = r.URL.Query().Get("period")

	return params
}
