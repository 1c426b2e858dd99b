package queries

import "errors"

// GetDashboardStatsQuery asks for the user's aggregated learning stats.
type GetDashboardStatsQuery struct {
	UserID string `json:"user_id"`
}

// Validate validates the query
func (q GetDashboardStatsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// GetDashboardStatsResult aggregates saved trees and session history
// into the dashboard numbers. The knowledge score weighs nodes at 10,
// connections at 5, and learning hours at 20 points.
type GetDashboardStatsResult struct {
	TotalTrees        int           `json:"total_trees"`
	TotalNodes        int           `json:"total_nodes"`
	TotalConnections  int           `json:"total_connections"`
	LearningHours     float64       `json:"learning_hours"`
	KnowledgeScore    int           `json:"knowledge_score"`
	WeeklyScoreDelta  int           `json:"weekly_score_delta"`
	StreakDays        int           `json:"streak_days"`
	FavoriteTopics    []string      `json:"favorite_topics"`
	DailyActivity     []DayActivity `json:"daily_activity"`
	TopicDistribution []TopicShare  `json:"topic_distribution"`
}

// DayActivity is one day of the activity series, oldest first.
type DayActivity struct {
	Date    string  `json:"date"`
	Minutes float64 `json:"minutes"`
}

// TopicShare is one topic's slice of the learning time, largest first.
type TopicShare struct {
	Topic string  `json:"topic"`
	Hours float64 `json:"hours"`
}
