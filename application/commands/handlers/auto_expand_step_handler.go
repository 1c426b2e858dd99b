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

// AutoExpandStepHandler runs one breadth-first auto-expansion step on a
// live session.
type AutoExpandStepHandler struct {
	expansion *services.ExpansionService
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewAutoExpandStepHandler creates a new handler instance
func NewAutoExpandStepHandler(
	expansion *services.ExpansionService,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *AutoExpandStepHandler {
	return &AutoExpandStepHandler{
		expansion: expansion,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the auto-expand step command
func (h *AutoExpandStepHandler) Handle(ctx context.Context, cmd *commands.AutoExpandStepCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		step, err := h.expansion.AutoExpandStep(ctx, session)
		if err != nil {
			return err
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.AutoExpandStepResult{
			Expanded:  step.Expanded,
			NewLabels: step.NewLabels,
			Remaining: step.Remaining,
			Done:      step.Done,
			Reason:    step.Reason,
		}
		return nil
	})
}
