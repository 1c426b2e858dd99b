package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
)

// storedDoc handcrafts a persisted document the way the table returns it.
func storedDoc(topic string, nodes map[string]ports.NodeAttrs, edges map[string]ports.EdgeAttrs) *ports.TreeDocument {
	now := time.Now()
	return &ports.TreeDocument{
		TreeID:        "5cbd174a-9917-4b43-b7ae-e834ff71cd3a",
		UserID:        "user-1",
		Topic:         topic,
		Nodes:         nodes,
		Edges:         edges,
		SchemaVersion: ports.CurrentSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTreeCodec_RoundTripPreservesGraph(t *testing.T) {
	// Arrange
	codec := NewTreeCodec(nil, zap.NewNop())
	session := savableSession(t, "Vertices")
	expandExtraChild(t, session, "Vertices", "Degree")
	original := session.Graph()

	// Act
	doc, err := codec.ToDocument(original)
	require.NoError(t, err)
	rebuilt, err := codec.FromDocument(doc)
	require.NoError(t, err)

	// Assert: document metadata
	assert.Contains(t, doc.Edges, "Graph Theory_Vertices")
	assert.Equal(t, ports.CurrentSchemaVersion, doc.SchemaVersion)
	assert.Zero(t, doc.Version)
	assert.NotEmpty(t, doc.Checksum)

	// Assert: the rebuilt graph is the original, attribute for attribute
	assert.Equal(t, original.ID(), rebuilt.ID())
	assert.Equal(t, original.UserID(), rebuilt.UserID())
	assert.Equal(t, original.Topic(), rebuilt.Topic())
	require.Equal(t, original.NodeCount(), rebuilt.NodeCount())
	require.Equal(t, original.EdgeCount(), rebuilt.EdgeCount())

	for _, want := range original.Nodes() {
		got, err := rebuilt.GetNode(want.Label())
		require.NoError(t, err)
		assert.True(t, want.ID().Equals(got.ID()))
		assert.Equal(t, want.Kind(), got.Kind())
		assert.Equal(t, want.Level(), got.Level())
		assert.Equal(t, want.Parent(), got.Parent())
		assert.Equal(t, want.Summary(), got.Summary())
		assert.Equal(t, want.Size(), got.Size())
		assert.Equal(t, want.Color(), got.Color())
	}

	for _, want := range original.Edges() {
		got, err := rebuilt.GetEdge(want.Source(), want.Target())
		require.NoError(t, err)
		assert.Equal(t, want.Title(), got.Title())
		assert.Equal(t, want.Weight(), got.Weight())
	}
}

func TestFromDocument_SkipsEdgeWithUnknownEndpoint(t *testing.T) {
	codec := NewTreeCodec(nil, zap.NewNop())
	doc := storedDoc("Graphs",
		map[string]ports.NodeAttrs{
			"Graphs": {Kind: "root", Level: 0},
			"Trees":  {Kind: "concept", Level: 1, Parent: "Graphs"},
		},
		map[string]ports.EdgeAttrs{
			"Graphs_Trees":  {Title: "related to", Weight: 1},
			"Graphs_Cycles": {Title: "related to", Weight: 1},
		},
	)

	rebuilt, err := codec.FromDocument(doc)

	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt.NodeCount())
	assert.Equal(t, 1, rebuilt.EdgeCount())
	_, err = rebuilt.GetEdge("Graphs", "Trees")
	assert.NoError(t, err)
}

func TestFromDocument_PrefersSplitOnKnownLabels(t *testing.T) {
	// The stored key has two underscores; only the second splits it into
	// two labels that exist in the document.
	codec := NewTreeCodec(nil, zap.NewNop())
	doc := storedDoc("snake_case",
		map[string]ports.NodeAttrs{
			"snake_case": {Kind: "root", Level: 0},
			"naming":     {Kind: "concept", Level: 1, Parent: "snake_case"},
		},
		map[string]ports.EdgeAttrs{
			"snake_case_naming": {Title: "convention for", Weight: 1},
		},
	)

	rebuilt, err := codec.FromDocument(doc)

	require.NoError(t, err)
	require.Equal(t, 1, rebuilt.EdgeCount())
	edge, err := rebuilt.GetEdge("snake_case", "naming")
	require.NoError(t, err)
	assert.Equal(t, "convention for", edge.Title())
}

func TestFromDocument_LeftmostKnownSplitWins(t *testing.T) {
	// "a_b_c" could decode as a->b_c or a_b->c; both pairs exist. The
	// leftmost qualifying boundary decides.
	codec := NewTreeCodec(nil, zap.NewNop())
	doc := storedDoc("a",
		map[string]ports.NodeAttrs{
			"a":   {Kind: "root", Level: 0},
			"b_c": {Kind: "concept", Level: 1, Parent: "a"},
			"a_b": {Kind: "concept", Level: 1, Parent: "a"},
			"c":   {Kind: "concept", Level: 1, Parent: "a"},
		},
		map[string]ports.EdgeAttrs{
			"a_b_c": {Title: "related to", Weight: 1},
		},
	)

	rebuilt, err := codec.FromDocument(doc)

	require.NoError(t, err)
	_, err = rebuilt.GetEdge("a", "b_c")
	assert.NoError(t, err)
	_, err = rebuilt.GetEdge("a_b", "c")
	assert.Error(t, err)
}

func TestFromDocument_RegeneratesMalformedNodeID(t *testing.T) {
	codec := NewTreeCodec(nil, zap.NewNop())
	doc := storedDoc("Graphs",
		map[string]ports.NodeAttrs{
			"Graphs": {NodeID: "not-a-uuid", Kind: "root", Level: 0},
		},
		nil,
	)

	rebuilt, err := codec.FromDocument(doc)

	require.NoError(t, err)
	node, err := rebuilt.GetNode("Graphs")
	require.NoError(t, err)
	assert.False(t, node.ID().IsZero())
	assert.NotEqual(t, "not-a-uuid", node.ID().String())
}

func TestFromDocument_RejectsUnknownNodeKind(t *testing.T) {
	codec := NewTreeCodec(nil, zap.NewNop())
	doc := storedDoc("Graphs",
		map[string]ports.NodeAttrs{
			"Graphs": {Kind: "branch", Level: 0},
		},
		nil,
	)

	_, err := codec.FromDocument(doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Graphs")
}
