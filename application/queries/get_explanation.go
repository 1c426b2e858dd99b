package queries

import "errors"

// GetExplanationQuery asks for a detailed explanation of a topic.
type GetExplanationQuery struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`
}

// Validate validates the query
func (q GetExplanationQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

// GetExplanationResult carries the explanation text.
type GetExplanationResult struct {
	Topic       string `json:"topic"`
	Explanation string `json:"explanation"`
}
