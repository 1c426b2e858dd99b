package valueobjects

import "fmt"

// EdgeKey identifies a link between two concepts by their labels. The key
// keeps the direction it was first created with (source produced target in
// a tree expansion), but a graph holds at most one edge per label pair in
// either direction, so lookups should also consult Reverse().
type EdgeKey struct {
	source string
	target string
}

// NewEdgeKey creates a key from the two endpoint labels
func NewEdgeKey(source, target string) EdgeKey {
	return EdgeKey{source: source, target: target}
}

// Source returns the label the link originates from
func (k EdgeKey) Source() string {
	return k.source
}

// Target returns the label the link points at
func (k EdgeKey) Target() string {
	return k.target
}

// Reverse returns the key with the endpoints swapped
func (k EdgeKey) Reverse() EdgeKey {
	return EdgeKey{source: k.target, target: k.source}
}

// Touches reports whether either endpoint is label
func (k EdgeKey) Touches(label string) bool {
	return k.source == label || k.target == label
}

// String renders the key in its persisted "source_target" form. Labels may
// themselves contain underscores, so parsing this form back needs the label
// set for disambiguation; that lives with the tree codec, not here.
func (k EdgeKey) String() string {
	return fmt.Sprintf("%s_%s", k.source, k.target)
}
