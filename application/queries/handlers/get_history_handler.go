package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
)

// GetHistoryHandler lists learning-session records, newest first. Period
// filtering happens here after the repository read; the store orders by
// time already, so the filter is a cheap cut of an already-sorted page.
type GetHistoryHandler struct {
	sessions ports.SessionRepository
	logger   *zap.Logger
}

// NewGetHistoryHandler creates a new handler instance
func NewGetHistoryHandler(sessions ports.SessionRepository, logger *zap.Logger) *GetHistoryHandler {
	return &GetHistoryHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Handle executes the history query
func (h *GetHistoryHandler) Handle(ctx context.Context, query queries.GetHistoryQuery) (*queries.GetHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	limit := query.Limit
	if limit == 0 {
		limit = queries.DefaultListLimit
	}

	records, err := h.sessions.ListSessions(ctx, query.UserID, limit)
	if err != nil {
		return nil, err
	}

	cutoff, filtered := periodCutoff(query.Period, time.Now())

	result := &queries.GetHistoryResult{
		Sessions: make([]queries.SessionEntry, 0, len(records)),
	}
	for _, record := range records {
		if filtered && record.Timestamp.Before(cutoff) {
			continue
		}
		result.Sessions = append(result.Sessions, queries.SessionEntry{
			SessionID:     record.SessionID,
			Topic:         record.Topic,
			TreeID:        record.TreeID,
			NodesExplored: record.NodesExplored,
			NodeCount:     len(record.NodesExplored),
			TimeSpentSecs: record.TimeSpentSecs,
			Timestamp:     record.Timestamp.Format(time.RFC3339),
		})
		result.TotalTimeSecs += record.TimeSpentSecs
	}
	result.Count = len(result.Sessions)
	return result, nil
}

// periodCutoff translates a period name into the earliest timestamp
// still inside it. Today starts at local midnight; week and month are
// rolling windows.
func periodCutoff(period string, now time.Time) (time.Time, bool) {
	switch period {
	case queries.PeriodToday:
		year, month, day := now.Date()
		return time.Date(year, month, day, 0, 0, 0, 0, now.Location()), true
	case queries.PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case queries.PeriodMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}
