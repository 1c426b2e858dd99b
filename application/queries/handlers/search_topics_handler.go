package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
)

// SearchTopicsHandler searches the user's saved trees by topic.
type SearchTopicsHandler struct {
	trees  ports.TreeRepository
	logger *zap.Logger
}

// NewSearchTopicsHandler creates a new handler instance
func NewSearchTopicsHandler(trees ports.TreeRepository, logger *zap.Logger) *SearchTopicsHandler {
	return &SearchTopicsHandler{
		trees:  trees,
		logger: logger,
	}
}

// Handle executes the search topics query
func (h *SearchTopicsHandler) Handle(ctx context.Context, query queries.SearchTopicsQuery) (*queries.SearchTopicsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	term := strings.TrimSpace(query.Query)
	summaries, err := h.trees.SearchTopics(ctx, query.UserID, term)
	if err != nil {
		return nil, err
	}

	result := &queries.SearchTopicsResult{
		Query: term,
		Trees: make([]queries.TreeListItem, 0, len(summaries)),
	}
	for _, summary := range summaries {
		result.Trees = append(result.Trees, treeListItem(summary))
	}
	result.Count = len(result.Trees)
	return result, nil
}
