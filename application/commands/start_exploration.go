package commands

import "errors"

// StartExplorationCommand creates a new exploration session for a topic.
// Depth 1 fetches the root concepts only; depth 2 and above also merges
// subtopic branches. Handlers write the outcome into Result, so the
// command must travel through the bus as a pointer.
type StartExplorationCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	Topic      string `json:"topic" validate:"required,min=1,max=100"`
	Depth      int    `json:"depth" validate:"min=0,max=3"`
	AutoExpand bool   `json:"auto_expand"`

	Result *StartExplorationResult `json:"-"`
}

// StartExplorationResult reports the freshly created session and the
// labels the initial expansion added.
type StartExplorationResult struct {
	SessionID string   `json:"session_id"`
	TreeID    string   `json:"tree_id"`
	Topic     string   `json:"topic"`
	NewLabels []string `json:"new_labels"`
	KeyPoints []string `json:"key_points,omitempty"`
	NodeCount int      `json:"node_count"`
	EdgeCount int      `json:"edge_count"`
}

// Validate validates the command
func (c *StartExplorationCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Topic == "" {
		return errors.New("topic is required")
	}
	if c.Depth < 0 || c.Depth > MaxExplorationDepth {
		return errors.New("depth must be between 0 and 3")
	}
	return nil
}

// MaxExplorationDepth bounds how deep a single start may explore. Deeper
// levels are reached incrementally through expansion, not in one call.
const MaxExplorationDepth = 3
