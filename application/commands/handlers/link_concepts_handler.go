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

// LinkConceptsHandler connects two existing concepts of a live session.
type LinkConceptsHandler struct {
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewLinkConceptsHandler creates a new handler instance
func NewLinkConceptsHandler(
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *LinkConceptsHandler {
	return &LinkConceptsHandler{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the link concepts command
func (h *LinkConceptsHandler) Handle(ctx context.Context, cmd *commands.LinkConceptsCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		edge, err := session.Link(cmd.Source, cmd.Target, cmd.Title, cmd.Weight)
		if err != nil {
			return err
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.LinkConceptsResult{
			Source: edge.Source(),
			Target: edge.Target(),
			Title:  edge.Title(),
			Weight: edge.Weight(),
		}
		return nil
	})
}
