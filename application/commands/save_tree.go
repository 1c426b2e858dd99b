package commands

import "errors"

// SaveTreeCommand persists the session's current graph under its
// (user, topic) key. Saving an unchanged graph is a cheap no-op.
type SaveTreeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`

	Result *SaveTreeResult `json:"-"`
}

// SaveTreeResult reports what the save did.
type SaveTreeResult struct {
	TreeID    string `json:"tree_id"`
	Version   int    `json:"version"`
	Checksum  string `json:"checksum,omitempty"`
	Inserted  bool   `json:"inserted"`
	Unchanged bool   `json:"unchanged"`
}

// Validate validates the command
func (c *SaveTreeCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
