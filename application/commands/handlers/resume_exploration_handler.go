package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/services"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// ResumeExplorationHandler rebuilds a live session from a saved tree and
// registers it. The rebuilt session starts a fresh time-tracking visit;
// stored dwell totals live in the session history, not the tree.
type ResumeExplorationHandler struct {
	persistence *services.PersistenceService
	registry    *services.SessionRegistry
	publisher   ports.EventPublisher
	logger      *zap.Logger
}

// NewResumeExplorationHandler creates a new handler instance
func NewResumeExplorationHandler(
	persistence *services.PersistenceService,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ResumeExplorationHandler {
	return &ResumeExplorationHandler{
		persistence: persistence,
		registry:    registry,
		publisher:   publisher,
		logger:      logger,
	}
}

// Handle executes the resume exploration command
func (h *ResumeExplorationHandler) Handle(ctx context.Context, cmd *commands.ResumeExplorationCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	session, err := h.resolve(ctx, cmd)
	if err != nil {
		return err
	}

	if err := session.Focus(session.Topic()); err != nil {
		h.logger.Warn("Failed to focus root after resume",
			zap.String("sessionID", session.ID()),
			zap.Error(err),
		)
	}

	h.registry.Put(session)
	publishEvents(ctx, h.publisher, session, h.logger)

	cmd.Result = &commands.ResumeExplorationResult{
		SessionID: session.ID(),
		TreeID:    session.TreeID(),
		Topic:     session.Topic(),
		NodeCount: session.Graph().NodeCount(),
		EdgeCount: session.Graph().EdgeCount(),
	}
	return nil
}

func (h *ResumeExplorationHandler) resolve(ctx context.Context, cmd *commands.ResumeExplorationCommand) (*aggregates.Session, error) {
	if cmd.TreeID != "" {
		return h.persistence.ResumeByID(ctx, cmd.UserID, cmd.TreeID)
	}
	return h.persistence.ResumeByTopic(ctx, cmd.UserID, cmd.Topic)
}
