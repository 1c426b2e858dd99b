package commands

import "errors"

// ExpandConceptCommand expands one concept of a live session by label.
// Expanding a label that was already expanded is a no-op with an empty
// delta.
type ExpandConceptCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Label     string `json:"label" validate:"required,max=100"`

	Result *ExpandConceptResult `json:"-"`
}

// ExpandConceptResult reports the labels the expansion added.
type ExpandConceptResult struct {
	Expanded  string   `json:"expanded"`
	NewLabels []string `json:"new_labels"`
	NodeCount int      `json:"node_count"`
	EdgeCount int      `json:"edge_count"`
}

// Validate validates the command
func (c *ExpandConceptCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Label == "" {
		return errors.New("label is required")
	}
	return nil
}
