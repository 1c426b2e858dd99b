package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
)

const (
	favoriteTopicCount = 3
	activityDays       = 14
	streakWindowDays   = 30
)

// GetDashboardStatsHandler aggregates the user's saved trees and session
// history into dashboard numbers: totals, knowledge score, daily streak,
// favorite topics, the recent activity series, and the topic
// distribution.
type GetDashboardStatsHandler struct {
	trees    ports.TreeRepository
	sessions ports.SessionRepository
	logger   *zap.Logger
}

// NewGetDashboardStatsHandler creates a new handler instance
func NewGetDashboardStatsHandler(
	trees ports.TreeRepository,
	sessions ports.SessionRepository,
	logger *zap.Logger,
) *GetDashboardStatsHandler {
	return &GetDashboardStatsHandler{
		trees:    trees,
		sessions: sessions,
		logger:   logger,
	}
}

// Handle executes the dashboard stats query
func (h *GetDashboardStatsHandler) Handle(ctx context.Context, query queries.GetDashboardStatsQuery) (*queries.GetDashboardStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	trees, err := h.trees.ListTrees(ctx, query.UserID, 0)
	if err != nil {
		return nil, err
	}
	sessions, err := h.sessions.ListSessions(ctx, query.UserID, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	result := &queries.GetDashboardStatsResult{TotalTrees: len(trees)}

	var weeklyNodes, weeklyConnections int
	for _, tree := range trees {
		result.TotalNodes += tree.NodeCount
		result.TotalConnections += tree.EdgeCount
		if tree.CreatedAt.After(weekAgo) {
			weeklyNodes += tree.NodeCount
			weeklyConnections += tree.EdgeCount
		}
	}

	var totalSecs, weeklySecs int64
	for _, session := range sessions {
		totalSecs += session.TimeSpentSecs
		if session.Timestamp.After(weekAgo) {
			weeklySecs += session.TimeSpentSecs
		}
	}
	result.LearningHours = float64(totalSecs) / 3600

	// Nodes weigh 10, connections 5, learning hours 20.
	weeklyHours := float64(weeklySecs) / 3600
	result.KnowledgeScore = int(float64(result.TotalNodes)*10 + float64(result.TotalConnections)*5 + result.LearningHours*20)
	result.WeeklyScoreDelta = int(float64(weeklyNodes)*10 + float64(weeklyConnections)*5 + weeklyHours*20)

	result.StreakDays = streakDays(sessions, now)
	result.FavoriteTopics = favoriteTopics(sessions, trees)
	result.DailyActivity = dailyActivity(sessions, now)
	result.TopicDistribution = topicDistribution(sessions, trees)

	h.logger.Debug("Dashboard stats computed",
		zap.String("userID", query.UserID),
		zap.Int("trees", result.TotalTrees),
		zap.Int("score", result.KnowledgeScore),
	)
	return result, nil
}

// streakDays counts consecutive days with at least one session, anchored
// at today. A day without a session today means the streak is zero, even
// when yesterday had one.
func streakDays(sessions []*ports.SessionRecord, now time.Time) int {
	dates := make(map[string]bool)
	cutoff := now.AddDate(0, 0, -streakWindowDays)
	for _, session := range sessions {
		if session.Timestamp.Before(cutoff) {
			continue
		}
		dates[session.Timestamp.Format("2006-01-02")] = true
	}

	streak := 0
	day := now
	for dates[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// favoriteTopics ranks topics by accumulated session time. Without any
// session history the most recently updated trees stand in.
func favoriteTopics(sessions []*ports.SessionRecord, trees []*ports.TreeSummary) []string {
	if len(sessions) == 0 {
		topics := make([]string, 0, favoriteTopicCount)
		for _, tree := range trees {
			topics = append(topics, tree.Topic)
			if len(topics) == favoriteTopicCount {
				break
			}
		}
		return topics
	}

	secs := make(map[string]int64)
	for _, session := range sessions {
		secs[session.Topic] += session.TimeSpentSecs
	}

	topics := make([]string, 0, len(secs))
	for topic := range secs {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if secs[topics[i]] != secs[topics[j]] {
			return secs[topics[i]] > secs[topics[j]]
		}
		return topics[i] < topics[j]
	})

	if len(topics) > favoriteTopicCount {
		topics = topics[:favoriteTopicCount]
	}
	return topics
}

// dailyActivity builds the minutes-per-day series for the trailing
// activity window, oldest day first, with zero entries for idle days.
func dailyActivity(sessions []*ports.SessionRecord, now time.Time) []queries.DayActivity {
	minutes := make(map[string]float64, activityDays)
	order := make([]string, 0, activityDays)
	for i := activityDays - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format("2006-01-02")
		order = append(order, key)
		minutes[key] = 0
	}

	for _, session := range sessions {
		key := session.Timestamp.Format("2006-01-02")
		if _, ok := minutes[key]; ok {
			minutes[key] += float64(session.TimeSpentSecs) / 60
		}
	}

	series := make([]queries.DayActivity, 0, activityDays)
	for _, key := range order {
		series = append(series, queries.DayActivity{Date: key, Minutes: minutes[key]})
	}
	return series
}

// topicDistribution shares out learning hours per topic, largest first.
// Without session history, tree counts stand in for hours so the chart
// still shows something.
func topicDistribution(sessions []*ports.SessionRecord, trees []*ports.TreeSummary) []queries.TopicShare {
	hours := make(map[string]float64)
	for _, session := range sessions {
		hours[session.Topic] += float64(session.TimeSpentSecs) / 3600
	}
	if len(hours) == 0 {
		for _, tree := range trees {
			hours[tree.Topic]++
		}
	}

	shares := make([]queries.TopicShare, 0, len(hours))
	for topic, value := range hours {
		shares = append(shares, queries.TopicShare{Topic: topic, Hours: value})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Hours != shares[j].Hours {
			return shares[i].Hours > shares[j].Hours
		}
		return shares[i].Topic < shares[j].Topic
	})
	return shares
}
