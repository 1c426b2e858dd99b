package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// SessionRecorder derives learning-session records from a session's time
// tracker and hands them to the session log. Records are cumulative
// snapshots keyed by session id: recording again later in the same
// session re-submits larger totals under the same key, and the log
// upserts on it. The tracker is never reset by recording.
type SessionRecorder struct {
	sessions ports.SessionRepository
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewSessionRecorder creates the recorder.
func NewSessionRecorder(sessions ports.SessionRepository, cfg *config.DomainConfig, logger *zap.Logger) *SessionRecorder {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SessionRecorder{sessions: sessions, cfg: cfg, logger: logger}
}

// BuildRecord snapshots the session's cumulative activity at now.
// NodesExplored lists only the concepts the user actually dwelt on;
// TimeSpentSecs is the floored total across all of them.
func (r *SessionRecorder) BuildRecord(session *aggregates.Session, now time.Time) *ports.SessionRecord {
	tracker := session.Tracker()
	return &ports.SessionRecord{
		SessionID:     session.ID(),
		UserID:        session.UserID(),
		Topic:         session.Topic(),
		TreeID:        session.TreeID(),
		NodesExplored: tracker.ExploredLabels(),
		TimeSpentSecs: int64(tracker.TotalElapsed() / time.Second),
		Timestamp:     now,
	}
}

// RecordIfEligible logs a record once the session has crossed the dwell
// threshold. Below it nothing is logged and no error is returned; a
// short session is noise, not a failure.
func (r *SessionRecorder) RecordIfEligible(ctx context.Context, session *aggregates.Session) (bool, error) {
	total := session.TimeSpent()
	if total < r.cfg.MinSessionDuration {
		r.logger.Debug("Session below dwell threshold, not recorded",
			zap.String("sessionID", session.ID()),
			zap.Duration("timeSpent", total),
			zap.Duration("threshold", r.cfg.MinSessionDuration),
		)
		return false, nil
	}

	record := r.BuildRecord(session, time.Now())
	if err := r.sessions.LogSession(ctx, record); err != nil {
		return false, persistenceWrap("log_session", err)
	}

	session.MarkRecorded()
	r.logger.Info("Session recorded",
		zap.String("sessionID", session.ID()),
		zap.String("topic", record.Topic),
		zap.Int("nodesExplored", len(record.NodesExplored)),
		zap.Int64("timeSpentSecs", record.TimeSpentSecs),
	)
	return true, nil
}
