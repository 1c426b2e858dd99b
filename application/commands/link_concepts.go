package commands

import "errors"

// LinkConceptsCommand connects two existing concepts by hand. A
// non-positive weight falls back to the configured default, and linking
// an already-linked pair overwrites the edge's title and weight.
type LinkConceptsCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	Source    string `json:"source" validate:"required,max=100"`
	Target    string `json:"target" validate:"required,max=100"`
	Title     string `json:"title,omitempty" validate:"max=100"`
	Weight    int    `json:"weight,omitempty"`

	Result *LinkConceptsResult `json:"-"`
}

// LinkConceptsResult reports the stored edge.
type LinkConceptsResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Title  string `json:"title,omitempty"`
	Weight int    `json:"weight"`
}

// Validate validates the command
func (c *LinkConceptsCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	if c.Source == "" {
		return errors.New("source label is required")
	}
	if c.Target == "" {
		return errors.New("target label is required")
	}
	return nil
}
