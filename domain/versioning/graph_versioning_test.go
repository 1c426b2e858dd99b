package versioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
	"github.com/Anidipta/Node-Learner/domain/core/entities"
)

func buildGraph(t *testing.T, labels ...string) *aggregates.Graph {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	graph, err := aggregates.NewGraph("user-1", "Graph Theory", cfg)
	require.NoError(t, err)

	root, err := entities.NewRootNode("Graph Theory", "the study of graphs", cfg)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(root))

	for _, label := range labels {
		node, err := entities.NewNode(label, "concept", 1, "Graph Theory", "", cfg)
		require.NoError(t, err)
		require.NoError(t, graph.AddNode(node))
		_, err = graph.AddEdge("Graph Theory", label, "related to", 1)
		require.NoError(t, err)
	}
	return graph
}

func TestChecksum_IgnoresInsertionOrder(t *testing.T) {
	first := buildGraph(t, "Trees", "Paths", "Cycles")
	second := buildGraph(t, "Cycles", "Trees", "Paths")

	a, err := Checksum(first)
	require.NoError(t, err)
	b, err := Checksum(second)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestChecksum_ChangesWithContent(t *testing.T) {
	graph := buildGraph(t, "Trees")
	before, err := Checksum(graph)
	require.NoError(t, err)

	node, err := entities.NewNode("Paths", "concept", 1, "Graph Theory", "", config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(node))

	after, err := Checksum(graph)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestChecksum_ChangesWithEdgeAttributes(t *testing.T) {
	graph := buildGraph(t, "Trees")
	before, err := Checksum(graph)
	require.NoError(t, err)

	_, err = graph.AddEdge("Graph Theory", "Trees", "foundation of", 3)
	require.NoError(t, err)

	after, err := Checksum(graph)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestSnapshot(t *testing.T) {
	graph := buildGraph(t, "Trees", "Paths")

	snap, err := Snapshot(graph, 4)

	require.NoError(t, err)
	assert.Equal(t, graph.ID().String(), snap.TreeID)
	assert.Equal(t, 4, snap.Version)
	assert.Equal(t, 3, snap.NodeCount)
	assert.Equal(t, 2, snap.EdgeCount)
	assert.Equal(t, "user-1", snap.CreatedBy)
	assert.NotEmpty(t, snap.Checksum)
}

func TestSnapshot_NilGraph(t *testing.T) {
	_, err := Snapshot(nil, 1)

	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	graph := buildGraph(t, "Trees")

	first, err := Snapshot(graph, 1)
	require.NoError(t, err)
	second, err := Snapshot(graph, 2)
	require.NoError(t, err)

	assert.True(t, first.Matches(second))

	node, err := entities.NewNode("Paths", "concept", 1, "Graph Theory", "", config.DefaultDomainConfig())
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(node))

	third, err := Snapshot(graph, 3)
	require.NoError(t, err)

	assert.False(t, first.Matches(third))
	assert.False(t, first.Matches(nil))
}

func TestDiffFrom(t *testing.T) {
	prev := &TreeVersion{Version: 1, NodeCount: 4, EdgeCount: 3, CreatedAt: time.Now().Add(-time.Minute)}
	next := &TreeVersion{Version: 2, NodeCount: 7, EdgeCount: 6, CreatedAt: time.Now()}

	diff := next.DiffFrom(prev)

	assert.Equal(t, 1, diff.FromVersion)
	assert.Equal(t, 2, diff.ToVersion)
	assert.Equal(t, 3, diff.NodesAdded)
	assert.Equal(t, 3, diff.EdgesAdded)
	assert.InDelta(t, time.Minute.Seconds(), diff.Elapsed.Seconds(), 1.0)
}

func TestDiffFrom_NoPrevious(t *testing.T) {
	next := &TreeVersion{Version: 1, NodeCount: 5, EdgeCount: 4}

	diff := next.DiffFrom(nil)

	assert.Equal(t, 0, diff.FromVersion)
	assert.Equal(t, 5, diff.NodesAdded)
	assert.Equal(t, 4, diff.EdgesAdded)
}
