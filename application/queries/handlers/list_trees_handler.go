package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
)

// ListTreesHandler lists the user's saved trees, newest first.
type ListTreesHandler struct {
	trees  ports.TreeRepository
	logger *zap.Logger
}

// NewListTreesHandler creates a new handler instance
func NewListTreesHandler(trees ports.TreeRepository, logger *zap.Logger) *ListTreesHandler {
	return &ListTreesHandler{
		trees:  trees,
		logger: logger,
	}
}

// Handle executes the list trees query
func (h *ListTreesHandler) Handle(ctx context.Context, query queries.ListTreesQuery) (*queries.ListTreesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	limit := query.Limit
	if limit == 0 {
		limit = queries.DefaultListLimit
	}

	summaries, err := h.trees.ListTrees(ctx, query.UserID, limit)
	if err != nil {
		return nil, err
	}

	result := &queries.ListTreesResult{
		Trees: make([]queries.TreeListItem, 0, len(summaries)),
	}
	for _, summary := range summaries {
		result.Trees = append(result.Trees, treeListItem(summary))
	}
	result.Count = len(result.Trees)
	return result, nil
}

func treeListItem(summary *ports.TreeSummary) queries.TreeListItem {
	return queries.TreeListItem{
		TreeID:    summary.TreeID,
		Topic:     summary.Topic,
		NodeCount: summary.NodeCount,
		EdgeCount: summary.EdgeCount,
		UpdatedAt: summary.UpdatedAt.Format(time.RFC3339),
	}
}
