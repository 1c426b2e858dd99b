package entities

import (
	"time"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// Node is a single concept in an exploration graph. Its identity is the
// label: no two nodes in one graph share a label, and comparisons are
// case-sensitive ("Graph" and "graph" are distinct concepts). The NodeID
// exists alongside the label for external click/selection correlation and
// stays stable for the node's lifetime.
type Node struct {
	id        valueobjects.NodeID
	label     string
	kind      valueobjects.NodeKind
	level     int
	parent    string
	summary   string
	size      int
	color     string
	createdAt time.Time
	updatedAt time.Time
}

// NewNode creates a concept node with validated attributes. The size is
// derived from the kind and the color from the level, both via cfg, so
// display attributes stay consistent across expansions.
func NewNode(label string, kind valueobjects.NodeKind, level int, parent, summary string, cfg *config.DomainConfig) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if label == "" {
		return nil, pkgerrors.NewEmptyLabelError()
	}
	if len(label) > cfg.MaxLabelLength {
		return nil, pkgerrors.NewLabelTooLongError(label, cfg.MaxLabelLength)
	}
	if _, err := valueobjects.ParseNodeKind(string(kind)); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if level < 0 {
		return nil, pkgerrors.NewValidationError("node level must not be negative")
	}
	if kind == valueobjects.KindRoot && level != 0 {
		return nil, pkgerrors.NewValidationError("root node must be at level 0")
	}
	if parent == label {
		return nil, pkgerrors.NewValidationError("node cannot be its own parent")
	}

	now := time.Now()
	return &Node{
		id:        valueobjects.NewNodeID(),
		label:     label,
		kind:      kind,
		level:     level,
		parent:    parent,
		summary:   summary,
		size:      sizeForKind(kind, cfg),
		color:     valueobjects.NewPalette(cfg.Palette).ColorFor(level),
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewRootNode creates the level-0 node an exploration session starts from.
func NewRootNode(topic, summary string, cfg *config.DomainConfig) (*Node, error) {
	return NewNode(topic, valueobjects.KindRoot, 0, "", summary, cfg)
}

// ReconstructNode rebuilds a node from persisted attributes. Stored values
// are taken verbatim; no size/color derivation happens on this path, so a
// tree saved under an older palette renders the way it was saved.
func ReconstructNode(
	id valueobjects.NodeID,
	label string,
	kind valueobjects.NodeKind,
	level int,
	parent, summary string,
	size int,
	color string,
	createdAt, updatedAt time.Time,
) (*Node, error) {
	if label == "" {
		return nil, pkgerrors.NewEmptyLabelError()
	}
	if level < 0 {
		return nil, pkgerrors.NewValidationError("node level must not be negative")
	}

	return &Node{
		id:        id,
		label:     label,
		kind:      kind,
		level:     level,
		parent:    parent,
		summary:   summary,
		size:      size,
		color:     color,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// ID returns the node's stable identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Label returns the node's identity label
func (n *Node) Label() string {
	return n.label
}

// Kind returns how the node entered the graph
func (n *Node) Kind() valueobjects.NodeKind {
	return n.kind
}

// Level returns the node's depth, with the root at 0
func (n *Node) Level() int {
	return n.level
}

// Parent returns the label of the node that produced this one,
// empty for the root
func (n *Node) Parent() string {
	return n.parent
}

// Summary returns the node's descriptive text
func (n *Node) Summary() string {
	return n.summary
}

// Size returns the node's visual weight
func (n *Node) Size() int {
	return n.size
}

// Color returns the node's display color
func (n *Node) Color() string {
	return n.color
}

// IsRoot reports whether this node is the session's root topic
func (n *Node) IsRoot() bool {
	return n.kind.IsRoot()
}

// CreatedAt returns when the node was first added
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node's attributes last changed
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// Merge applies incoming attributes onto this node, last write wins per
// attribute. Identity and creation time are preserved: the id never
// changes once assigned. An empty incoming summary or parent is treated
// as "not provided" and leaves the existing value in place.
func (n *Node) Merge(incoming *Node) {
	if incoming == nil {
		return
	}

	n.kind = incoming.kind
	n.level = incoming.level
	n.size = incoming.size
	n.color = incoming.color
	if incoming.summary != "" {
		n.summary = incoming.summary
	}
	if incoming.parent != "" {
		n.parent = incoming.parent
	}
	n.updatedAt = time.Now()
}

// UpdateSummary replaces the node's descriptive text
func (n *Node) UpdateSummary(summary string) {
	if summary == "" || summary == n.summary {
		return
	}
	n.summary = summary
	n.updatedAt = time.Now()
}

// sizeForKind maps a node kind to its configured visual weight
func sizeForKind(kind valueobjects.NodeKind, cfg *config.DomainConfig) int {
	switch kind {
	case valueobjects.KindRoot:
		return cfg.RootNodeSize
	case valueobjects.KindSubtopic:
		return cfg.SubtopicNodeSize
	default:
		return cfg.ConceptNodeSize
	}
}
