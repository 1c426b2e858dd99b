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

// SaveTreeHandler persists the session's current graph.
type SaveTreeHandler struct {
	persistence *services.PersistenceService
	registry    *services.SessionRegistry
	publisher   ports.EventPublisher
	logger      *zap.Logger
}

// NewSaveTreeHandler creates a new handler instance
func NewSaveTreeHandler(
	persistence *services.PersistenceService,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *SaveTreeHandler {
	return &SaveTreeHandler{
		persistence: persistence,
		registry:    registry,
		publisher:   publisher,
		logger:      logger,
	}
}

// Handle executes the save tree command
func (h *SaveTreeHandler) Handle(ctx context.Context, cmd *commands.SaveTreeCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	return h.registry.With(cmd.SessionID, cmd.UserID, func(session *aggregates.Session) error {
		result, err := h.persistence.SaveTree(ctx, session)
		if err != nil {
			return err
		}

		publishEvents(ctx, h.publisher, session, h.logger)

		cmd.Result = &commands.SaveTreeResult{
			TreeID:    result.TreeID,
			Version:   result.Version,
			Checksum:  result.Checksum,
			Inserted:  result.Inserted,
			Unchanged: result.Unchanged,
		}
		return nil
	})
}
