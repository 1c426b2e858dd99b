package commands

import "errors"

// FocusConceptCommand moves the user's attention to a concept and
// switches the time accounting to it. Click payloads may carry the node
// id instead of the label; exactly one of the two must be set.
type FocusConceptCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Label     string `json:"label,omitempty"`
	NodeID    string `json:"node_id,omitempty"`

	Result *FocusConceptResult `json:"-"`
}

// FocusConceptResult reports which label holds the focus now.
type FocusConceptResult struct {
	ActiveLabel string `json:"active_label"`
}

// Validate validates the command
func (c *FocusConceptCommand) Validate() error {
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
