package commands

import "errors"

// RemoveConceptCommand removes a concept and its whole descendant
// subtree from a live session. Addressing works by label or node id.
type RemoveConceptCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Label     string `json:"label,omitempty"`
	NodeID    string `json:"node_id,omitempty"`

	Result *RemoveConceptResult `json:"-"`
}

// RemoveConceptResult lists every label the cascade removed.
type RemoveConceptResult struct {
	RemovedLabels []string `json:"removed_labels"`
	NodeCount     int      `json:"node_count"`
	EdgeCount     int      `json:"edge_count"`
}

// Validate validates the command
func (c *RemoveConceptCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Label == "" && c.NodeID == "" {
		return errors.New("either label or node ID is required")
	}
	return nil
}
