package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/services"
)

// StartExplorationHandler creates a session, runs the initial
// exploration, and registers the session for follow-up requests. Nothing
// is registered when the exploration fails, so a failed start leaves no
// half-seeded session behind.
type StartExplorationHandler struct {
	expansion *services.ExpansionService
	registry  *services.SessionRegistry
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewStartExplorationHandler creates a new handler instance
func NewStartExplorationHandler(
	expansion *services.ExpansionService,
	registry *services.SessionRegistry,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *StartExplorationHandler {
	return &StartExplorationHandler{
		expansion: expansion,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the start exploration command
func (h *StartExplorationHandler) Handle(ctx context.Context, cmd *commands.StartExplorationCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	depth := cmd.Depth
	if depth == 0 {
		depth = 1
	}

	result, err := h.expansion.StartExploration(ctx, cmd.UserID, cmd.Topic, depth)
	if err != nil {
		return err
	}

	session := result.Session
	session.SetAutoExpand(cmd.AutoExpand)

	// Attention starts on the root, the way a reader lands on the topic
	// they just searched for.
	if err := session.Focus(session.Topic()); err != nil {
		h.logger.Warn("Failed to focus root after start",
			zap.String("sessionID", session.ID()),
			zap.Error(err),
		)
	}

	h.registry.Put(session)
	publishEvents(ctx, h.publisher, session, h.logger)

	cmd.Result = &commands.StartExplorationResult{
		SessionID: session.ID(),
		TreeID:    session.TreeID(),
		Topic:     session.Topic(),
		NewLabels: result.NewLabels,
		KeyPoints: result.KeyPoints,
		NodeCount: session.Graph().NodeCount(),
		EdgeCount: session.Graph().EdgeCount(),
	}
	return nil
}
