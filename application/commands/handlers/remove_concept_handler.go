package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/services"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
)

// RemoveConceptHandler removes a concept subtree from a live session.
// Removing by label is a silent no-op when the label is absent; removing
// by node id reports an unknown id as not found.
type RemoveConceptHandler struct {
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewRemoveConceptHandler creates a new handler instance
func NewRemoveConceptHandler(
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *RemoveConceptHandler {
	return &RemoveConceptHandler{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the remove concept command
func (h *RemoveConceptHandler) Handle(ctx context.Context, cmd *commands.RemoveConceptCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		var removed []string
		if cmd.Label != "" {
			removed = session.RemoveConcept(cmd.Label)
		} else {
			nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
			if err != nil {
				return err
			}
			removed, err = session.RemoveConceptByNodeID(nodeID)
			if err != nil {
				return err
			}
		}

		if len(removed) > 0 {
			h.logger.Info("Concept subtree removed",
				zap.String("sessionID", session.ID()),
				zap.Int("removedCount", len(removed)),
			)
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.RemoveConceptResult{
			RemovedLabels: removed,
			NodeCount:     session.Graph().NodeCount(),
			EdgeCount:     session.Graph().EdgeCount(),
		}
		return nil
	})
}
