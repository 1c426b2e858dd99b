package commands

import "errors"

// ResumeExplorationCommand rebuilds a live session from a saved tree,
// addressed either by topic or by tree id. Exactly one of the two must
// be set.
type ResumeExplorationCommand struct {
	UserID string `json:"user_id" validate:"required"`
	Topic  string `json:"topic,omitempty"`
	TreeID string `json:"tree_id,omitempty"`

	Result *ResumeExplorationResult `json:"-"`
}

// ResumeExplorationResult reports the rebuilt session.
type ResumeExplorationResult struct {
	SessionID string `json:"session_id"`
	TreeID    string `json:"tree_id"`
	Topic     string `json:"topic"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// Validate validates the command
func (c *ResumeExplorationCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Topic == "" && c.TreeID == "" {
		return errors.New("either topic or tree ID is required")
	}
	if c.Topic != "" && c.TreeID != "" {
		return errors.New("topic and tree ID are mutually exclusive")
	}
	return nil
}
