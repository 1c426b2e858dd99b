package services

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	"github.com/Anidipta/Node-Learner/domain/versioning"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// TreeCodec converts between the in-memory graph and the flat persisted
// document. The document keys edges as "{source}_{target}"; labels may
// themselves contain underscores, so decoding tries every underscore
// boundary and prefers the split where both sides are known labels.
type TreeCodec struct {
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewTreeCodec creates a codec with the given domain configuration.
func NewTreeCodec(cfg *config.DomainConfig, logger *zap.Logger) *TreeCodec {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &TreeCodec{cfg: cfg, logger: logger}
}

// ToDocument flattens a graph into its persisted form. The document's
// Version field is left at zero; the persistence service assigns it from
// the stored revision counter.
func (c *TreeCodec) ToDocument(graph *aggregates.Graph) (*ports.TreeDocument, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError("graph cannot be nil")
	}

	checksum, err := versioning.Checksum(graph)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to checksum graph")
	}

	nodes := make(map[string]ports.NodeAttrs, graph.NodeCount())
	for _, node := range graph.Nodes() {
		nodes[node.Label()] = ports.NodeAttrs{
			NodeID:  node.ID().String(),
			Kind:    node.Kind().String(),
			Level:   node.Level(),
			Parent:  node.Parent(),
			Summary: node.Summary(),
			Size:    node.Size(),
			Color:   node.Color(),
		}
	}

	edges := make(map[string]ports.EdgeAttrs, graph.EdgeCount())
	for _, edge := range graph.Edges() {
		edges[edge.Key().String()] = ports.EdgeAttrs{
			Title:  edge.Title(),
			Weight: edge.Weight(),
		}
	}

	return &ports.TreeDocument{
		TreeID:        graph.ID().String(),
		UserID:        graph.UserID(),
		Topic:         graph.Topic(),
		Nodes:         nodes,
		Edges:         edges,
		SchemaVersion: ports.CurrentSchemaVersion,
		Checksum:      checksum,
		CreatedAt:     graph.CreatedAt(),
		UpdatedAt:     graph.UpdatedAt(),
	}, nil
}

// FromDocument rebuilds a graph from its persisted form. Nodes are
// restored first so edge endpoints can resolve; edges whose key cannot be
// split into two known labels are skipped rather than failing the whole
// load.
func (c *TreeCodec) FromDocument(doc *ports.TreeDocument) (*aggregates.Graph, error) {
	if doc == nil {
		return nil, pkgerrors.NewValidationError("document cannot be nil")
	}

	graph, err := aggregates.ReconstructGraph(
		doc.TreeID, doc.UserID, doc.Topic,
		doc.CreatedAt, doc.UpdatedAt, c.cfg,
	)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]bool, len(doc.Nodes))
	for label := range doc.Nodes {
		labels[label] = true
	}

	nodes := make([]*entities.Node, 0, len(doc.Nodes))
	for label, attrs := range doc.Nodes {
		node, err := c.decodeNode(label, attrs, doc.CreatedAt, doc.UpdatedAt)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to decode node '"+label+"'")
		}
		nodes = append(nodes, node)
	}

	edges := make([]*entities.Edge, 0, len(doc.Edges))
	for key, attrs := range doc.Edges {
		source, target, ok := splitEdgeKey(key, labels)
		if !ok {
			c.logger.Warn("Skipping stored edge with unresolvable endpoints",
				zap.String("treeID", doc.TreeID),
				zap.String("edgeKey", key),
			)
			continue
		}

		edge, err := entities.ReconstructEdge(
			valueobjects.NewEdgeKey(source, target),
			attrs.Title, attrs.Weight,
			doc.CreatedAt, doc.UpdatedAt,
		)
		if err != nil {
			c.logger.Warn("Skipping stored edge that failed reconstruction",
				zap.String("treeID", doc.TreeID),
				zap.String("edgeKey", key),
				zap.Error(err),
			)
			continue
		}
		edges = append(edges, edge)
	}

	if err := graph.Load(nodes, edges); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load stored tree")
	}
	return graph, nil
}

// decodeNode rebuilds one node from stored attributes. A missing or
// malformed node_id gets a fresh one; the id only matters for click
// correlation within a live session.
func (c *TreeCodec) decodeNode(label string, attrs ports.NodeAttrs, createdAt, updatedAt time.Time) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(attrs.NodeID)
	if err != nil {
		id = valueobjects.NewNodeID()
	}

	kind, err := valueobjects.ParseNodeKind(attrs.Kind)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructNode(
		id, label, kind,
		attrs.Level, attrs.Parent, attrs.Summary,
		attrs.Size, attrs.Color,
		createdAt, updatedAt,
	)
}

// splitEdgeKey resolves an underscore-joined edge key against the set of
// known labels. Every underscore is a candidate boundary; the leftmost
// split where both sides are known labels wins. Keys that resolve no
// boundary report false.
func splitEdgeKey(key string, labels map[string]bool) (string, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != '_' {
			continue
		}
		source, target := key[:i], key[i+1:]
		if labels[source] && labels[target] {
			return source, target, true
		}
	}

	// No boundary resolves to two known labels. Fall back to the first
	// underscore so the skip log names the endpoints it tried.
	if i := strings.Index(key, "_"); i >= 0 {
		return key[:i], key[i+1:], false
	}
	return key, "", false
}
