package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/services"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// EndSessionHandler closes a live session: flush the tracker, write the
// learning-session record when the dwell threshold was crossed, then
// drop the session from the registry. A record failure still ends the
// session; losing one history entry beats trapping the user in it.
type EndSessionHandler struct {
	recorder  *services.SessionRecorder
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewEndSessionHandler creates a new handler instance
func NewEndSessionHandler(
	recorder *services.SessionRecorder,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *EndSessionHandler {
	return &EndSessionHandler{
		recorder:  recorder,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the end session command
func (h *EndSessionHandler) Handle(ctx context.Context, cmd *commands.EndSessionCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	err := h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		session.End()

		recorded, recordErr := h.recorder.RecordIfEligible(ctx, session)
		if recordErr != nil {
			h.logger.Error("Failed to record session on end",
				zap.String("sessionID", session.ID()),
				zap.Error(recordErr),
			)
		}

		if session.Dirty() {
			h.logger.Warn("Session ended with unsaved changes",
				zap.String("sessionID", session.ID()),
				zap.String("topic", session.Topic()),
			)
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.EndSessionResult{
			Recorded:      recorded,
			TimeSpentSecs: int64(session.TimeSpent() / time.Second),
			Dirty:         session.Dirty(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.registry.Remove(cmd.SessionID)
	return nil
}
