package valueobjects

import "fmt"

// NodeKind classifies how a node entered the graph. The kind never changes
// after creation, even when later expansions cross-link the node elsewhere.
type NodeKind string

const (
	// KindRoot is the topic the exploration session was started with.
	KindRoot NodeKind = "root"
	// KindConcept is a related concept produced by expanding the root.
	KindConcept NodeKind = "concept"
	// KindSubtopic is a named subdivision of the root topic.
	KindSubtopic NodeKind = "subtopic"
	// KindSubConcept is a concept produced by expanding any non-root node.
	KindSubConcept NodeKind = "sub-concept"
)

// ParseNodeKind validates a stored kind string.
func ParseNodeKind(s string) (NodeKind, error) {
	switch NodeKind(s) {
	case KindRoot, KindConcept, KindSubtopic, KindSubConcept:
		return NodeKind(s), nil
	default:
		return "", fmt.Errorf("unknown node kind %q", s)
	}
}

// String returns the wire form of the kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsRoot reports whether the kind is the session root.
func (k NodeKind) IsRoot() bool {
	return k == KindRoot
}

// ChildKind returns the kind assigned to nodes created by expanding a node
// of this kind. Root expansions produce concepts; everything deeper is a
// sub-concept.
func (k NodeKind) ChildKind() NodeKind {
	if k == KindRoot {
		return KindConcept
	}
	return KindSubConcept
}
