package queries

import "errors"

// SearchTopicsQuery searches the user's saved trees by topic substring,
// case-insensitively.
type SearchTopicsQuery struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

// Validate validates the query
func (q SearchTopicsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Query == "" {
		return errors.New("search query is required")
	}
	return nil
}

// SearchTopicsResult lists the matching trees.
type SearchTopicsResult struct {
	Query string         `json:"query"`
	Trees []TreeListItem `json:"trees"`
	Count int            `json:"count"`
}
