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

// ExpandConceptHandler expands one concept of a live session. The
// registry serializes the operation against other requests for the same
// session.
type ExpandConceptHandler struct {
	expansion *services.ExpansionService
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewExpandConceptHandler creates a new handler instance
func NewExpandConceptHandler(
	expansion *services.ExpansionService,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ExpandConceptHandler {
	return &ExpandConceptHandler{
		expansion: expansion,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the expand concept command
func (h *ExpandConceptHandler) Handle(ctx context.Context, cmd *commands.ExpandConceptCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		newLabels, err := h.expansion.ExpandConcept(ctx, session, cmd.Label)
		if err != nil {
			return err
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.ExpandConceptResult{
			Expanded:  cmd.Label,
			NewLabels: newLabels,
			NodeCount: session.Graph().NodeCount(),
			EdgeCount: session.Graph().EdgeCount(),
		}
		return nil
	})
}
