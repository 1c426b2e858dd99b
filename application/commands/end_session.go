package commands

import "errors"

// EndSessionCommand closes a live session: the tracker is flushed, a
// learning-session record is written if the dwell threshold was crossed,
// and the session leaves the registry. The graph is not saved here;
// saving stays an explicit action.
type EndSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`

	Result *EndSessionResult `json:"-"`
}

// EndSessionResult reports how the session closed. Dirty warns the
// caller that unsaved graph changes were discarded with the session.
type EndSessionResult struct {
	Recorded      bool  `json:"recorded"`
	TimeSpentSecs int64 `json:"time_spent_secs"`
	Dirty         bool  `json:"dirty"`
}

// Validate validates the command
func (c *EndSessionCommand) Validate() error {
	if c.SessionID == "" {
		return errors.New("session ID is required")
	}
	if c.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}
