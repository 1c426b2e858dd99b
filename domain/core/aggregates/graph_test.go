package aggregates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	graph, err := NewGraph("user-1", "Graph Theory", config.DefaultDomainConfig())
	require.NoError(t, err)
	return graph
}

func addTestNode(t *testing.T, g *Graph, label string, kind valueobjects.NodeKind, level int, parent string) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(label, kind, level, parent, "", config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, g.AddNode(node))
	return node
}

func addTestRoot(t *testing.T, g *Graph) *entities.Node {
	t.Helper()
	root, err := entities.NewRootNode(g.Topic(), "about "+g.Topic(), config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, g.AddNode(root))
	return root
}

func TestNewGraph(t *testing.T) {
	graph := newTestGraph(t)

	assert.NotEmpty(t, graph.ID().String())
	assert.Equal(t, "user-1", graph.UserID())
	assert.Equal(t, "Graph Theory", graph.Topic())
	assert.Equal(t, 0, graph.NodeCount())
	assert.Equal(t, 0, graph.EdgeCount())
}

func TestGraph_AddNode_MergesOnDuplicateLabel(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	first := addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	firstID := first.ID()

	incoming, err := entities.NewNode("Trees", valueobjects.KindConcept, 1, "Graph Theory", "acyclic connected graphs", cfg)
	require.NoError(t, err)

	// Re-adding the label is not an error; attributes merge in.
	require.NoError(t, graph.AddNode(incoming))

	assert.Equal(t, 2, graph.NodeCount())
	merged, err := graph.GetNode("Trees")
	require.NoError(t, err)
	assert.Equal(t, "acyclic connected graphs", merged.Summary())
	assert.True(t, merged.ID().Equals(firstID))
}

func TestGraph_AddNode_LabelsAreCaseSensitive(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "trees", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")

	assert.Equal(t, 3, graph.NodeCount())
	assert.True(t, graph.HasNode("trees"))
	assert.True(t, graph.HasNode("Trees"))
}

func TestGraph_AddNode_RejectsMissingParent(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	graph := newTestGraph(t)
	addTestRoot(t, graph)

	orphan, err := entities.NewNode("Orphan", valueobjects.KindConcept, 1, "Nowhere", "", cfg)
	require.NoError(t, err)

	err = graph.AddNode(orphan)

	assert.Error(t, err)
	assert.False(t, graph.HasNode("Orphan"))
}

func TestGraph_AddNode_RejectsLevelSkip(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	graph := newTestGraph(t)
	addTestRoot(t, graph)

	skipped, err := entities.NewNode("Deep", valueobjects.KindSubConcept, 3, "Graph Theory", "", cfg)
	require.NoError(t, err)

	err = graph.AddNode(skipped)

	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGraph_AddNode_RejectsLevelChangeWithChildren(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Spanning Trees", valueobjects.KindSubConcept, 2, "Trees")
	addTestNode(t, graph, "Connectivity", valueobjects.KindConcept, 1, "Graph Theory")

	moved, err := entities.NewNode("Trees", valueobjects.KindSubConcept, 2, "Connectivity", "", cfg)
	require.NoError(t, err)

	err = graph.AddNode(moved)

	assert.Error(t, err)
	unchanged, getErr := graph.GetNode("Trees")
	require.NoError(t, getErr)
	assert.Equal(t, 1, unchanged.Level())
}

func TestGraph_AddNode_EnforcesNodeLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxNodesPerGraph = 2
	graph, err := NewGraph("user-1", "Topic", cfg)
	require.NoError(t, err)

	root, err := entities.NewRootNode("Topic", "", cfg)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(root))

	child, err := entities.NewNode("Child", valueobjects.KindConcept, 1, "Topic", "", cfg)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(child))

	over, err := entities.NewNode("Over", valueobjects.KindConcept, 1, "Topic", "", cfg)
	require.NoError(t, err)
	err = graph.AddNode(over)

	assert.Error(t, err)
	assert.Equal(t, 2, graph.NodeCount())
}

func TestGraph_AddEdge_FailsWithMissingEndpoints(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)

	_, err := graph.AddEdge("Graph Theory", "Ghost", "related to", 1)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsMissingEndpoint(err))

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, []string{"Ghost"}, appErr.Details["missing_labels"])
	assert.Equal(t, 0, graph.EdgeCount())
}

func TestGraph_AddEdge_ReportsBothMissingEndpoints(t *testing.T) {
	graph := newTestGraph(t)

	_, err := graph.AddEdge("Nope", "Ghost", "related to", 1)

	require.Error(t, err)
	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, []string{"Nope", "Ghost"}, appErr.Details["missing_labels"])
}

func TestGraph_AddEdge_ReaddOverwritesWeight(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")

	first, err := graph.AddEdge("Graph Theory", "Trees", "contains", 2)
	require.NoError(t, err)

	second, err := graph.AddEdge("Graph Theory", "Trees", "includes", 5)
	require.NoError(t, err)

	// Same edge, updated in place; weight overwritten, never summed.
	assert.Same(t, first, second)
	assert.Equal(t, 1, graph.EdgeCount())
	assert.Equal(t, "includes", second.Title())
	assert.Equal(t, 5, second.Weight())
}

func TestGraph_AddEdge_ReverseDirectionMergesExisting(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")

	_, err := graph.AddEdge("Graph Theory", "Trees", "contains", 1)
	require.NoError(t, err)

	// At most one edge per label pair, whichever direction it arrives in.
	edge, err := graph.AddEdge("Trees", "Graph Theory", "part of", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, graph.EdgeCount())
	assert.Equal(t, "Graph Theory", edge.Source())
	assert.Equal(t, "part of", edge.Title())
	assert.Equal(t, 3, edge.Weight())
}

func TestGraph_AddEdge_RejectsSelfLink(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)

	_, err := graph.AddEdge("Graph Theory", "Graph Theory", "is", 1)

	assert.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGraph_RemoveNode_CascadesThroughDescendants(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Connectivity", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Spanning Trees", valueobjects.KindSubConcept, 2, "Trees")
	addTestNode(t, graph, "Binary Trees", valueobjects.KindSubConcept, 2, "Trees")
	addTestNode(t, graph, "AVL Trees", valueobjects.KindSubConcept, 3, "Binary Trees")

	for _, pair := range [][2]string{
		{"Graph Theory", "Trees"},
		{"Graph Theory", "Connectivity"},
		{"Trees", "Spanning Trees"},
		{"Trees", "Binary Trees"},
		{"Binary Trees", "AVL Trees"},
	} {
		_, err := graph.AddEdge(pair[0], pair[1], "contains", 1)
		require.NoError(t, err)
	}

	removed := graph.RemoveNode("Trees")

	// Two descendant levels go with the node itself.
	assert.Equal(t, []string{"Trees", "Binary Trees", "Spanning Trees", "AVL Trees"}, removed)
	assert.Equal(t, 2, graph.NodeCount())
	assert.Equal(t, 1, graph.EdgeCount())
	assert.True(t, graph.HasNode("Graph Theory"))
	assert.True(t, graph.HasNode("Connectivity"))
	assert.NoError(t, graph.Validate())
}

func TestGraph_RemoveNode_AbsentLabelIsSilentNoop(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)

	removed := graph.RemoveNode("Never Added")

	assert.Nil(t, removed)
	assert.Equal(t, 1, graph.NodeCount())
}

func TestGraph_RemoveNode_AlsoRemovesCrossLinkEdges(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Connectivity", valueobjects.KindConcept, 1, "Graph Theory")

	_, err := graph.AddEdge("Connectivity", "Trees", "relates to", 1)
	require.NoError(t, err)

	graph.RemoveNode("Trees")

	assert.False(t, graph.HasNode("Trees"))
	_, err = graph.GetEdge("Connectivity", "Trees")
	assert.Error(t, err)
}

func TestGraph_NeighborsAndChildren(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Connectivity", valueobjects.KindConcept, 1, "Graph Theory")
	addTestNode(t, graph, "Spanning Trees", valueobjects.KindSubConcept, 2, "Trees")

	_, err := graph.AddEdge("Graph Theory", "Trees", "contains", 1)
	require.NoError(t, err)
	_, err = graph.AddEdge("Graph Theory", "Connectivity", "contains", 1)
	require.NoError(t, err)
	_, err = graph.AddEdge("Trees", "Spanning Trees", "contains", 1)
	require.NoError(t, err)

	neighbors := graph.Neighbors("Trees")
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Graph Theory", neighbors[0].Label())
	assert.Equal(t, "Spanning Trees", neighbors[1].Label())

	children := graph.Children("Graph Theory")
	require.Len(t, children, 2)
	assert.Equal(t, "Connectivity", children[0].Label())
	assert.Equal(t, "Trees", children[1].Label())
}

func TestGraph_FindByNodeID(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	trees := addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")

	found, err := graph.FindByNodeID(trees.ID())
	require.NoError(t, err)
	assert.Equal(t, "Trees", found.Label())

	_, err = graph.FindByNodeID(valueobjects.NewNodeID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGraph_Load(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	shell, err := ReconstructGraph("tree-1", "user-1", "Physics", created, created, cfg)
	require.NoError(t, err)

	// Nodes arrive in no particular order; Load sorts by level so parent
	// links always resolve.
	child, err := entities.NewNode("Mechanics", valueobjects.KindSubtopic, 1, "Physics", "", cfg)
	require.NoError(t, err)
	grandchild, err := entities.NewNode("Kinematics", valueobjects.KindSubConcept, 2, "Mechanics", "", cfg)
	require.NoError(t, err)
	root, err := entities.NewRootNode("Physics", "", cfg)
	require.NoError(t, err)

	edge, err := entities.NewEdge("Physics", "Mechanics", "subtopic", 1, cfg)
	require.NoError(t, err)

	err = shell.Load([]*entities.Node{grandchild, child, root}, []*entities.Edge{edge})

	require.NoError(t, err)
	assert.Equal(t, 3, shell.NodeCount())
	assert.Equal(t, 1, shell.EdgeCount())
	assert.Equal(t, "tree-1", shell.ID().String())
	assert.NoError(t, shell.Validate())
}

func TestGraph_Load_SkipsVersionBump(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	shell, err := ReconstructGraph("tree-1", "user-1", "Physics", time.Now(), time.Now(), cfg)
	require.NoError(t, err)
	before := shell.Version()

	root, err := entities.NewRootNode("Physics", "", cfg)
	require.NoError(t, err)
	require.NoError(t, shell.Load([]*entities.Node{root}, nil))

	assert.Equal(t, before, shell.Version())
}

func TestGraph_Load_RejectsEdgeWithUnknownEndpoint(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	shell, err := ReconstructGraph("tree-1", "user-1", "Physics", time.Now(), time.Now(), cfg)
	require.NoError(t, err)

	root, err := entities.NewRootNode("Physics", "", cfg)
	require.NoError(t, err)
	edge, err := entities.NewEdge("Physics", "Ghost", "related to", 1, cfg)
	require.NoError(t, err)

	err = shell.Load([]*entities.Node{root}, []*entities.Edge{edge})

	assert.True(t, pkgerrors.IsMissingEndpoint(err))
}

func TestGraph_Validate_CatchesBrokenParentChain(t *testing.T) {
	graph := newTestGraph(t)
	addTestRoot(t, graph)
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")

	assert.NoError(t, graph.Validate())
}

func TestGraph_VersionTracksMutations(t *testing.T) {
	graph := newTestGraph(t)
	v0 := graph.Version()

	addTestRoot(t, graph)
	assert.Greater(t, graph.Version(), v0)

	v1 := graph.Version()
	addTestNode(t, graph, "Trees", valueobjects.KindConcept, 1, "Graph Theory")
	assert.Greater(t, graph.Version(), v1)
}
