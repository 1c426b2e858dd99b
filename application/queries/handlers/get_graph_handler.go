package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/queries"
	"github.com/Anidipta/Node-Learner/application/services"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// GetGraphHandler snapshots a live session's graph for rendering. The
// snapshot is taken under the session's lock, so it is internally
// consistent even while other requests mutate the session.
type GetGraphHandler struct {
	registry *services.SessionRegistry
	logger   *zap.Logger
}

// NewGetGraphHandler creates a new handler instance
func NewGetGraphHandler(registry *services.SessionRegistry, logger *zap.Logger) *GetGraphHandler {
	return &GetGraphHandler{
		registry: registry,
		logger:   logger,
	}
}

// Handle executes the graph snapshot query
func (h *GetGraphHandler) Handle(ctx context.Context, query queries.GetGraphQuery) (*queries.GetGraphResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	var result *queries.GetGraphResult
	err := h.registry.With(query.SessionID, query.UserID, func(session *aggregates.Session) error {
		result = snapshot(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Graph snapshot taken",
		zap.String("sessionID", query.SessionID),
		zap.Int("nodeCount", result.Stats.NodeCount),
		zap.Int("edgeCount", result.Stats.EdgeCount),
	)
	return result, nil
}

func snapshot(session *aggregates.Session) *queries.GetGraphResult {
	graph := session.Graph()
	tracker := session.Tracker()
	expansion := session.Expansion()

	nodes := graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Level() != nodes[j].Level() {
			return nodes[i].Level() < nodes[j].Level()
		}
		return nodes[i].Label() < nodes[j].Label()
	})

	out := &queries.GetGraphResult{
		SessionID: session.ID(),
		TreeID:    session.TreeID(),
		Topic:     session.Topic(),
		Nodes:     make([]queries.GraphNode, 0, len(nodes)),
		Edges:     make([]queries.GraphEdge, 0, graph.EdgeCount()),
	}

	for _, node := range nodes {
		out.Nodes = append(out.Nodes, queries.GraphNode{
			NodeID:       node.ID().String(),
			Label:        node.Label(),
			Kind:         string(node.Kind()),
			Level:        node.Level(),
			Parent:       node.Parent(),
			Summary:      node.Summary(),
			Size:         node.Size(),
			Color:        node.Color(),
			Expanded:     expansion.IsExpanded(node.Label()),
			SecondsSpent: tracker.Elapsed(node.Label()).Seconds(),
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
		out.Edges = append(out.Edges, queries.GraphEdge{
			Source: edge.Source(),
			Target: edge.Target(),
			Title:  edge.Title(),
			Weight: edge.Weight(),
		})
	}

	active, _ := tracker.ActiveLabel()
	out.Stats = queries.GraphStats{
		NodeCount:     graph.NodeCount(),
		EdgeCount:     graph.EdgeCount(),
		ExpandedCount: expansion.ExpandedCount(),
		QueueLength:   expansion.QueueLen(),
		TimeSpentSecs: int64(session.TimeSpent() / time.Second),
		ActiveLabel:   active,
		AutoExpand:    session.AutoExpand(),
		Dirty:         session.Dirty(),
	}
	return out
}
