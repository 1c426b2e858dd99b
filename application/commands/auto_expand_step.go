package commands

import "errors"

// AutoExpandStepCommand runs one step of the breadth-first auto
// expansion on a live session. Clients call it in a loop until Done.
type AutoExpandStepCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`

	Result *AutoExpandStepResult `json:"-"`
}

// AutoExpandStepResult reports one auto-expansion step. When Done is
// set, Reason names the stop condition and no label was expanded.
type AutoExpandStepResult struct {
	Expanded  string   `json:"expanded,omitempty"`
	NewLabels []string `json:"new_labels,omitempty"`
	Remaining int      `json:"remaining"`
	Done      bool     `json:"done"`
	Reason    string   `json:"reason,omitempty"`
}

// Validate validates the command
func (c *AutoExpandStepCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
