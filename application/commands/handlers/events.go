package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// publishEvents drains the session's uncommitted events to the
// publisher. Events are best-effort notifications for listeners such as
// metric emitters and the WebSocket push; a publish failure is logged
// and the batch is dropped, not retried.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, session *aggregates.Session, logger *zap.Logger) {
	events := session.GetUncommittedEvents()
	if len(events) == 0 {
		return
	}

	if publisher != nil {
		if err := publisher.PublishBatch(ctx, events); err != nil {
			logger.Warn("Failed to publish domain events",
				zap.String("sessionID", session.ID()),
				zap.Int("eventCount", len(events)),
				zap.Error(err),
			)
		}
	}
	session.MarkEventsAsCommitted()
}
