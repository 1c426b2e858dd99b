package queries

import "errors"

// GetTreeQuery asks for one saved tree by id, full document included.
type GetTreeQuery struct {
	UserID string `json:"user_id"`
	TreeID string `json:"tree_id"`
}

// Validate validates the query
func (q GetTreeQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.TreeID == "" {
		return errors.New("tree ID is required")
	}
	return nil
}

// GetTreeResult is a saved tree as stored, projected for the client.
// Nodes carry no dwell or expansion state; those exist only on a live
// session.
type GetTreeResult struct {
	TreeID    string      `json:"tree_id"`
	Topic     string      `json:"topic"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
	Version   int         `json:"version"`
	NodeCount int         `json:"node_count"`
	EdgeCount int         `json:"edge_count"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}
