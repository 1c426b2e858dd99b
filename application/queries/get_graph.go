package queries

import "errors"

// GetGraphQuery asks for the current graph snapshot of a live session.
type GetGraphQuery struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// Validate validates the query
func (q GetGraphQuery) Validate() error {
	if q.SessionID == "" {
		return errors.New("session ID is required")
	}
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// GetGraphResult is the visualization-ready snapshot of a session graph.
type GetGraphResult struct {
	SessionID string      `json:"session_id"`
	TreeID    string      `json:"tree_id"`
	Topic     string      `json:"topic"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
	Stats     GraphStats  `json:"stats"`
}

// GraphNode is one concept as the client renders it.
type GraphNode struct {
	NodeID       string  `json:"node_id"`
	Label        string  `json:"label"`
	Kind         string  `json:"type"`
	Level        int     `json:"level"`
	Parent       string  `json:"parent,omitempty"`
	Summary      string  `json:"summary,omitempty"`
	Size         int     `json:"size"`
	Color        string  `json:"color"`
	Expanded     bool    `json:"expanded"`
	SecondsSpent float64 `json:"seconds_spent,omitempty"`
}

// GraphEdge is one link as the client renders it.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Title  string `json:"title,omitempty"`
	Weight int    `json:"weight"`
}

// GraphStats summarizes the session state alongside the graph.
type GraphStats struct {
	NodeCount     int    `json:"node_count"`
	EdgeCount     int    `json:"edge_count"`
	ExpandedCount int    `json:"expanded_count"`
	QueueLength   int    `json:"queue_length"`
	TimeSpentSecs int64  `json:"time_spent_secs"`
	ActiveLabel   string `json:"active_label,omitempty"`
	AutoExpand    bool   `json:"auto_expand"`
	Dirty         bool   `json:"dirty"`
}
