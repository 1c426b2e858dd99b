package queries

import "errors"

// DefaultListLimit caps listings when the client does not ask for a
// specific page size.
const DefaultListLimit = 20

// ListTreesQuery asks for the user's saved trees, newest first.
type ListTreesQuery struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// Validate validates the query
func (q ListTreesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// ListTreesResult lists saved trees.
type ListTreesResult struct {
	Trees []TreeListItem `json:"trees"`
	Count int            `json:"count"`
}

// TreeListItem is one saved tree in a listing.
type TreeListItem struct {
	TreeID    string `json:"tree_id"`
	Topic     string `json:"topic"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	UpdatedAt string `json:"updated_at"`
}
