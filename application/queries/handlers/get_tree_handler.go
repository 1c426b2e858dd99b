package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
	"github.com/Anidipta/Node-Learner/application/services"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// GetTreeHandler returns one saved tree, full document included. The
// document is decoded through the same codec the resume path uses, so
// the projection matches what a resumed session would contain. A tree
// belonging to a different user reads as not found.
type GetTreeHandler struct {
	trees  ports.TreeRepository
	codec  *services.TreeCodec
	logger *zap.Logger
}

// NewGetTreeHandler creates a new handler instance
func NewGetTreeHandler(trees ports.TreeRepository, codec *services.TreeCodec, logger *zap.Logger) *GetTreeHandler {
	return &GetTreeHandler{
		trees:  trees,
		codec:  codec,
		logger: logger,
	}
}

// Handle executes the get tree query
func (h *GetTreeHandler) Handle(ctx context.Context, query queries.GetTreeQuery) (*queries.GetTreeResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	doc, err := h.trees.GetTreeByID(ctx, query.TreeID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != query.UserID {
		return nil, pkgerrors.NewNotFoundError("tree")
	}

	graph, err := h.codec.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	result := &queries.GetTreeResult{
		TreeID:    doc.TreeID,
		Topic:     doc.Topic,
		Nodes:     make([]queries.GraphNode, 0, graph.NodeCount()),
		Edges:     make([]queries.GraphEdge, 0, graph.EdgeCount()),
		Version:   doc.Version,
		NodeCount: graph.NodeCount(),
		EdgeCount: graph.EdgeCount(),
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
	}

	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Level() != nodes[j].Level() {
			return nodes[i].Level() < nodes[j].Level()
		}
		return nodes[i].Label() < nodes[j].Label()
	})
	for _, node := range nodes {
		result.Nodes = append(result.Nodes, queries.GraphNode{
			NodeID:  node.ID().String(),
			Label:   node.Label(),
			Kind:    string(node.Kind()),
			Level:   node.Level(),
			Parent:  node.Parent(),
			Summary: node.Summary(),
			Size:    node.Size(),
			Color:   node.Color(),
		})
	}

	edges := graph.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source() != edges[j].Source() {
			return edges[i].Source() < edges[j].Source()
		}
		return edges[i].Target() < edges[j].Target()
	})
	for _, edge := range edges {
		result.Edges = append(result.Edges, queries.GraphEdge{
			Source: edge.Source(),
			Target: edge.Target(),
			Title:  edge.Title(),
			Weight: edge.Weight(),
		})
	}

	return result, nil
}
