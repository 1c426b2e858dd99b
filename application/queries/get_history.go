package queries

import "errors"

// History periods. Empty means no period filter.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// GetHistoryQuery asks for the user's learning-session history, newest
// first, optionally narrowed to a recent period.
type GetHistoryQuery struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
	Period string `json:"period,omitempty"`
}

// Validate validates the query
func (q GetHistoryQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	switch q.Period {
	case "", PeriodToday, PeriodWeek, PeriodMonth:
		return nil
	default:
		return errors.New("period must be today, week, or month")
	}
}

// GetHistoryResult lists session records with their period totals.
type GetHistoryResult struct {
	Sessions      []SessionEntry `json:"sessions"`
	Count         int            `json:"count"`
	TotalTimeSecs int64          `json:"total_time_secs"`
}

// SessionEntry is one learning-session record.
type SessionEntry struct {
	SessionID     string   `json:"session_id"`
	Topic         string   `json:"topic"`
	TreeID        string   `json:"tree_id,omitempty"`
	NodesExplored []string `json:"nodes_explored"`
	NodeCount     int      `json:"node_count"`
	TimeSpentSecs int64    `json:"time_spent_secs"`
	Timestamp     string   `json:"timestamp"`
}
