package aggregates

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// GraphID represents a unique graph identifier. It doubles as the tree_id
// of the persisted document, so a resumed session keeps the identifier the
// graph was first saved under.
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// Graph owns the full set of concepts and links for one exploration
// session. Nodes are keyed by their label, which is the identity within a
// graph; edges are keyed by their endpoint label pair. The graph holds at
// most one edge per pair regardless of direction.
//
// Graph mutations change internal state only. Persistence and event
// publication are driven by the session that owns the graph.
type Graph struct {
	id        GraphID
	userID    string
	topic     string
	cfg       *config.DomainConfig
	nodes     map[string]*entities.Node
	edges     map[valueobjects.EdgeKey]*entities.Edge
	createdAt time.Time
	updatedAt time.Time
	version   int
}

// NewGraph creates an empty graph for one exploration of topic
func NewGraph(userID, topic string, cfg *config.DomainConfig) (*Graph, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID required")
	}
	if topic == "" {
		return nil, pkgerrors.NewEmptyLabelError()
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	now := time.Now()
	return &Graph{
		id:        NewGraphID(),
		userID:    userID,
		topic:     topic,
		cfg:       cfg,
		nodes:     make(map[string]*entities.Node),
		edges:     make(map[valueobjects.EdgeKey]*entities.Edge),
		createdAt: now,
		updatedAt: now,
		version:   1,
	}, nil
}

// ReconstructGraph recreates an empty graph shell from stored metadata.
// Nodes and edges are restored afterwards with Load.
func ReconstructGraph(id, userID, topic string, createdAt, updatedAt time.Time, cfg *config.DomainConfig) (*Graph, error) {
	if id == "" || userID == "" || topic == "" {
		return nil, pkgerrors.NewValidationError("required fields missing for graph reconstruction")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	return &Graph{
		id:        GraphID(id),
		userID:    userID,
		topic:     topic,
		cfg:       cfg,
		nodes:     make(map[string]*entities.Node),
		edges:     make(map[valueobjects.EdgeKey]*entities.Edge),
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   1,
	}, nil
}

// ID returns the graph's unique identifier
func (g *Graph) ID() GraphID {
	return g.id
}

// BindID adopts a stored identifier. When a save lands on a (user, topic)
// pair that already has a document, the stored tree_id wins and the
// in-memory graph takes it over. Content and version are unaffected.
func (g *Graph) BindID(id GraphID) error {
	if id == "" {
		return pkgerrors.NewValidationError("graph id cannot be empty")
	}
	g.id = id
	return nil
}

// UserID returns the owner's ID
func (g *Graph) UserID() string {
	return g.userID
}

// Topic returns the root topic this graph explores
func (g *Graph) Topic() string {
	return g.topic
}

// Root returns the root node, or nil if it has been removed
func (g *Graph) Root() *entities.Node {
	return g.nodes[g.topic]
}

// CreatedAt returns when the graph was created
func (g *Graph) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt returns when the graph was last mutated
func (g *Graph) UpdatedAt() time.Time {
	return g.updatedAt
}

// Version returns the mutation counter, used to detect unsaved changes
func (g *Graph) Version() int {
	return g.version
}

// NodeCount returns the number of concepts in the graph
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of links in the graph
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AddNode inserts a concept, or merges attributes into the existing node
// when the label is already present (last write wins per attribute, see
// entities.Node.Merge). Re-adding is not an error; that is what makes
// re-expansion safe. The level/parent invariant is checked before any
// state changes, so a rejected add leaves the graph untouched.
func (g *Graph) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}

	existing, exists := g.nodes[node.Label()]

	parent := node.Parent()
	if exists && parent == "" {
		parent = existing.Parent()
	}
	if parent != "" {
		parentNode, ok := g.nodes[parent]
		if !ok {
			return pkgerrors.NewValidationError("parent '" + parent + "' does not exist in graph")
		}
		if node.Level() != parentNode.Level()+1 {
			return pkgerrors.NewValidationError("node level must be exactly one below its parent")
		}
	}

	if exists {
		if node.Level() != existing.Level() && len(g.Children(existing.Label())) > 0 {
			return pkgerrors.NewValidationError("cannot change the level of a node that has children")
		}
		existing.Merge(node)
	} else {
		if len(g.nodes) >= g.cfg.MaxNodesPerGraph {
			return pkgerrors.NewGraphLimitError("node", g.cfg.MaxNodesPerGraph)
		}
		g.nodes[node.Label()] = node
	}

	g.touch()
	return nil
}

// AddEdge links two existing concepts. Both endpoints must already be in
// the graph; otherwise the call fails with a missing endpoint error naming
// every absent label. Re-adding an edge, in either direction, merges its
// attributes into the existing one: the weight is overwritten, not summed.
func (g *Graph) AddEdge(source, target, title string, weight int) (*entities.Edge, error) {
	var missing []string
	if _, ok := g.nodes[source]; !ok {
		missing = append(missing, source)
	}
	if _, ok := g.nodes[target]; !ok {
		missing = append(missing, target)
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NewMissingEndpointError(missing...)
	}

	if source == target && !g.cfg.AllowSelfLinks {
		return nil, pkgerrors.NewSelfLinkError(source)
	}

	key := valueobjects.NewEdgeKey(source, target)
	if edge, ok := g.edges[key]; ok {
		edge.Merge(title, weight)
		g.touch()
		return edge, nil
	}
	if edge, ok := g.edges[key.Reverse()]; ok {
		edge.Merge(title, weight)
		g.touch()
		return edge, nil
	}

	if len(g.edges) >= g.cfg.MaxEdgesPerGraph {
		return nil, pkgerrors.NewGraphLimitError("edge", g.cfg.MaxEdgesPerGraph)
	}

	edge, err := entities.NewEdge(source, target, title, weight, g.cfg)
	if err != nil {
		return nil, err
	}

	g.edges[key] = edge
	g.touch()
	return edge, nil
}

// RemoveNode removes a concept plus, recursively, every descendant whose
// parent chain leads to it, along with all incident edges. It returns the
// removed labels so the caller can purge time accounts and notify
// listeners. Removing an absent label is a silent no-op.
func (g *Graph) RemoveNode(label string) []string {
	if _, ok := g.nodes[label]; !ok {
		return nil
	}

	removed := g.Descendants(label)
	removed = append([]string{label}, removed...)

	inRemoved := make(map[string]bool, len(removed))
	for _, l := range removed {
		inRemoved[l] = true
	}

	for key, edge := range g.edges {
		if inRemoved[edge.Source()] || inRemoved[edge.Target()] {
			delete(g.edges, key)
		}
	}
	for _, l := range removed {
		delete(g.nodes, l)
	}

	g.touch()
	return removed
}

// Descendants returns every label reachable from label by following parent
// links downward, in breadth-first order with siblings sorted. The label
// itself is not included.
func (g *Graph) Descendants(label string) []string {
	childrenOf := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		if p := node.Parent(); p != "" {
			childrenOf[p] = append(childrenOf[p], node.Label())
		}
	}
	for _, siblings := range childrenOf {
		sort.Strings(siblings)
	}

	var descendants []string
	queue := []string{label}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range childrenOf[current] {
			descendants = append(descendants, child)
			queue = append(queue, child)
		}
	}
	return descendants
}

// GetNode retrieves a concept by label
func (g *Graph) GetNode(label string) (*entities.Node, error) {
	node, exists := g.nodes[label]
	if !exists {
		return nil, pkgerrors.NewConceptNotFoundError(label)
	}
	return node, nil
}

// HasNode checks whether a label exists in the graph
func (g *Graph) HasNode(label string) bool {
	_, exists := g.nodes[label]
	return exists
}

// FindByNodeID retrieves a concept by its stable identifier. Click and
// selection payloads from the UI carry node ids rather than labels.
func (g *Graph) FindByNodeID(id valueobjects.NodeID) (*entities.Node, error) {
	for _, node := range g.nodes {
		if node.ID().Equals(id) {
			return node, nil
		}
	}
	return nil, pkgerrors.NewConceptNotFoundError(id.String())
}

// GetEdge retrieves the link between two labels, in either direction
func (g *Graph) GetEdge(source, target string) (*entities.Edge, error) {
	key := valueobjects.NewEdgeKey(source, target)
	if edge, ok := g.edges[key]; ok {
		return edge, nil
	}
	if edge, ok := g.edges[key.Reverse()]; ok {
		return edge, nil
	}
	return nil, pkgerrors.NewNotFoundError("edge").
		WithDetails(map[string]interface{}{"source": source, "target": target})
}

// Nodes returns all concepts in the graph
func (g *Graph) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// Edges returns all links in the graph
func (g *Graph) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	return edges
}

// Neighbors returns every concept sharing a link with label
func (g *Graph) Neighbors(label string) []*entities.Node {
	var neighbors []*entities.Node
	for _, edge := range g.edges {
		var other string
		switch {
		case edge.Source() == label:
			other = edge.Target()
		case edge.Target() == label:
			other = edge.Source()
		default:
			continue
		}
		if node, ok := g.nodes[other]; ok {
			neighbors = append(neighbors, node)
		}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Label() < neighbors[j].Label()
	})
	return neighbors
}

// Children returns the concepts whose parent is label
func (g *Graph) Children(label string) []*entities.Node {
	var children []*entities.Node
	for _, node := range g.nodes {
		if node.Parent() == label {
			children = append(children, node)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Label() < children[j].Label()
	})
	return children
}

// Load restores persisted nodes and edges into an empty graph. Nodes are
// inserted in level order so parent links always resolve; edges keep their
// stored direction and attributes. Load does not bump the version or the
// update time, so a freshly loaded graph reports no unsaved changes.
func (g *Graph) Load(nodes []*entities.Node, edges []*entities.Edge) error {
	if len(g.nodes) > 0 || len(g.edges) > 0 {
		return pkgerrors.NewValidationError("graph already holds data")
	}

	ordered := make([]*entities.Node, len(nodes))
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Level() < ordered[j].Level()
	})

	for _, node := range ordered {
		if node == nil {
			continue
		}
		if _, dup := g.nodes[node.Label()]; dup {
			return pkgerrors.NewValidationError("duplicate label '" + node.Label() + "' in stored tree")
		}
		g.nodes[node.Label()] = node
	}

	for _, edge := range edges {
		if edge == nil {
			continue
		}
		if !g.HasNode(edge.Source()) || !g.HasNode(edge.Target()) {
			return pkgerrors.NewMissingEndpointError(edge.Source(), edge.Target())
		}
		g.edges[edge.Key()] = edge
	}

	return g.Validate()
}

// Validate ensures graph invariants hold: edges reference existing nodes,
// parent links resolve, and each child sits exactly one level below its
// parent.
func (g *Graph) Validate() error {
	for _, edge := range g.edges {
		if !g.HasNode(edge.Source()) {
			return pkgerrors.NewValidationError("edge references missing source '" + edge.Source() + "'")
		}
		if !g.HasNode(edge.Target()) {
			return pkgerrors.NewValidationError("edge references missing target '" + edge.Target() + "'")
		}
	}

	for _, node := range g.nodes {
		parent := node.Parent()
		if parent == "" {
			continue
		}
		parentNode, ok := g.nodes[parent]
		if !ok {
			return pkgerrors.NewValidationError("node '" + node.Label() + "' references missing parent '" + parent + "'")
		}
		if node.Level() != parentNode.Level()+1 {
			return pkgerrors.NewValidationError("node '" + node.Label() + "' level does not follow its parent")
		}
	}

	return nil
}

func (g *Graph) touch() {
	g.updatedAt = time.Now()
	g.version++
}
