package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
)

// v1Doc builds a document the original exporter wrote: nodes carry only
// level, parent and summary.
func v1Doc() *ports.TreeDocument {
	now := time.Now()
	return &ports.TreeDocument{
		TreeID:        "95ff6beb-a8c1-4a39-9474-20ec52f0864b",
		UserID:        "user-1",
		Topic:         "Graphs",
		SchemaVersion: 1,
		Nodes: map[string]ports.NodeAttrs{
			"Graphs":   {Level: 0, Summary: "The study of graphs"},
			"Trees":    {Level: 1, Parent: "Graphs"},
			"AVL Tree": {Level: 2, Parent: "Trees"},
		},
		Edges: map[string]ports.EdgeAttrs{
			"Graphs_Trees":   {Title: "related to"},
			"Trees_AVL Tree": {Title: "example of", Weight: 3},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMigrate_BackfillsV1Document(t *testing.T) {
	// Arrange
	migrator := NewMigrator(zap.NewNop())
	cfg := config.DefaultDomainConfig()
	doc := v1Doc()

	// Act
	changed, err := migrator.Migrate(doc)

	// Assert
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ports.CurrentSchemaVersion, doc.SchemaVersion)

	root := doc.Nodes["Graphs"]
	_, err = valueobjects.NewNodeIDFromString(root.NodeID)
	assert.NoError(t, err)
	assert.Equal(t, "root", root.Kind)
	assert.Equal(t, cfg.RootNodeSize, root.Size)
	assert.Equal(t, valueobjects.DefaultPaletteColors[0], root.Color)

	child := doc.Nodes["Trees"]
	assert.Equal(t, "concept", child.Kind)
	assert.Equal(t, cfg.ConceptNodeSize, child.Size)
	assert.Equal(t, valueobjects.DefaultPaletteColors[1], child.Color)

	grandchild := doc.Nodes["AVL Tree"]
	assert.Equal(t, "sub-concept", grandchild.Kind)

	// Weight backfills to the minimum; explicit weights survive.
	assert.Equal(t, 1, doc.Edges["Graphs_Trees"].Weight)
	assert.Equal(t, 3, doc.Edges["Trees_AVL Tree"].Weight)
}

func TestMigrate_UnversionedDocumentCountsAsV1(t *testing.T) {
	migrator := NewMigrator(zap.NewNop())
	doc := v1Doc()
	doc.SchemaVersion = 0

	changed, err := migrator.Migrate(doc)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ports.CurrentSchemaVersion, doc.SchemaVersion)
}

func TestMigrate_BackfillPreservesExistingAttributes(t *testing.T) {
	migrator := NewMigrator(zap.NewNop())
	doc := v1Doc()
	doc.Nodes["Trees"] = ports.NodeAttrs{
		NodeID: "31b1cf3e-92dd-44ad-ba26-e4b22ac1dcd0",
		Kind:   "subtopic",
		Level:  1,
		Parent: "Graphs",
		Size:   42,
		Color:  "#ABCDEF",
	}

	_, err := migrator.Migrate(doc)

	require.NoError(t, err)
	child := doc.Nodes["Trees"]
	assert.Equal(t, "31b1cf3e-92dd-44ad-ba26-e4b22ac1dcd0", child.NodeID)
	assert.Equal(t, "subtopic", child.Kind)
	assert.Equal(t, 42, child.Size)
	assert.Equal(t, "#ABCDEF", child.Color)
}

func TestMigrate_CurrentDocumentUntouched(t *testing.T) {
	migrator := NewMigrator(zap.NewNop())
	doc := v1Doc()
	doc.SchemaVersion = ports.CurrentSchemaVersion
	before := doc.Nodes["Trees"]

	changed, err := migrator.Migrate(doc)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, doc.Nodes["Trees"])
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	migrator := NewMigrator(zap.NewNop())
	doc := v1Doc()
	doc.SchemaVersion = ports.CurrentSchemaVersion + 1

	_, err := migrator.Migrate(doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
