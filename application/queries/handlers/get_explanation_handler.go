package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/queries"
	"github.com/Anidipta/Node-Learner/application/services"
)

// GetExplanationHandler fetches a detailed explanation for a topic. The
// explanation service caches per topic, so repeated reads are cheap.
type GetExplanationHandler struct {
	explanations *services.ExplanationService
	logger       *zap.Logger
}

// NewGetExplanationHandler creates a new handler instance
func NewGetExplanationHandler(explanations *services.ExplanationService, logger *zap.Logger) *GetExplanationHandler {
	return &GetExplanationHandler{
		explanations: explanations,
		logger:       logger,
	}
}

// Handle executes the explanation query
func (h *GetExplanationHandler) Handle(ctx context.Context, query queries.GetExplanationQuery) (*queries.GetExplanationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	text, err := h.explanations.Explain(ctx, query.Topic)
	if err != nil {
		return nil, err
	}

	return &queries.GetExplanationResult{
		Topic:       query.Topic,
		Explanation: text,
	}, nil
}
