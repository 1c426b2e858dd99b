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

// FocusConceptHandler switches the session's attention, and with it the
// per-concept time accounting, to another concept.
type FocusConceptHandler struct {
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewFocusConceptHandler creates a new handler instance
func NewFocusConceptHandler(
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *FocusConceptHandler {
	return &FocusConceptHandler{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the focus concept command
func (h *FocusConceptHandler) Handle(ctx context.Context, cmd *commands.FocusConceptCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		label := cmd.Label
		if label == "" {
			nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
			if err != nil {
				return err
			}
			resolved, err := session.FocusByNodeID(nodeID)
			if err != nil {
				return err
			}
			label = resolved
		} else if err := session.Focus(label); err != nil {
			return err
		}

		publishEvents(ctx, h.publisher, session, h.logger)
		cmd.Result = &commands.FocusConceptResult{ActiveLabel: label}
		return nil
	})
}
