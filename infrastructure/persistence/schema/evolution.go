// Package schema upgrades stored tree documents to the current layout.
// Documents are migrated in memory when loaded; the upgraded form reaches
// storage on the next save, which always writes the whole document.
package schema

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
)

// migration upgrades a document by exactly one schema version.
type migration struct {
	from        int
	to          int
	description string
	apply       func(doc *ports.TreeDocument) error
}

// Migrator applies the registered migrations in sequence until a document
// reaches ports.CurrentSchemaVersion.
type Migrator struct {
	migrations []migration
	logger     *zap.Logger
}

// NewMigrator creates a migrator with every known migration registered.
func NewMigrator(logger *zap.Logger) *Migrator {
	m := &Migrator{logger: logger}
	m.register(migration{
		from:        1,
		to:          2,
		description: "backfill node identity and display attributes",
		apply:       backfillNodeIdentity,
	})
	return m
}

func (m *Migrator) register(mig migration) {
	m.migrations = append(m.migrations, mig)
}

// Migrate upgrades doc in place and reports whether anything changed.
// A document written by a newer deployment is rejected rather than
// reinterpreted.
func (m *Migrator) Migrate(doc *ports.TreeDocument) (bool, error) {
	if doc.SchemaVersion <= 0 {
		// Documents written before versioning existed count as v1.
		doc.SchemaVersion = 1
	}

	if doc.SchemaVersion > ports.CurrentSchemaVersion {
		return false, fmt.Errorf("document schema v%d is newer than supported v%d",
			doc.SchemaVersion, ports.CurrentSchemaVersion)
	}

	changed := false
	for doc.SchemaVersion < ports.CurrentSchemaVersion {
		mig := m.find(doc.SchemaVersion, doc.SchemaVersion+1)
		if mig == nil {
			return changed, fmt.Errorf("no migration from schema v%d to v%d",
				doc.SchemaVersion, doc.SchemaVersion+1)
		}

		if err := mig.apply(doc); err != nil {
			return changed, fmt.Errorf("migration v%d to v%d failed: %w", mig.from, mig.to, err)
		}

		m.logger.Info("Migrated tree document",
			zap.String("treeID", doc.TreeID),
			zap.Int("fromVersion", mig.from),
			zap.Int("toVersion", mig.to),
			zap.String("description", mig.description),
		)

		doc.SchemaVersion = mig.to
		changed = true
	}

	return changed, nil
}

func (m *Migrator) find(from, to int) *migration {
	for i := range m.migrations {
		if m.migrations[i].from == from && m.migrations[i].to == to {
			return &m.migrations[i]
		}
	}
	return nil
}

// backfillNodeIdentity is the v1 to v2 upgrade. Version 1 documents,
// imported from the original exporter, stored nodes keyed by label with
// only level, parent and summary. Version 2 requires a stable node_id and
// a type on every node, plus the display attributes the renderer needs.
func backfillNodeIdentity(doc *ports.TreeDocument) error {
	cfg := config.DefaultDomainConfig()
	palette := valueobjects.NewPalette(nil)

	for label, attrs := range doc.Nodes {
		if attrs.NodeID == "" {
			attrs.NodeID = valueobjects.NewNodeID().String()
		}
		if attrs.Kind == "" {
			attrs.Kind = kindForLevel(attrs.Level).String()
		}
		if attrs.Size == 0 {
			attrs.Size = sizeForKind(valueobjects.NodeKind(attrs.Kind), cfg)
		}
		if attrs.Color == "" {
			attrs.Color = palette.ColorFor(attrs.Level)
		}
		doc.Nodes[label] = attrs
	}

	for key, attrs := range doc.Edges {
		if attrs.Weight == 0 {
			attrs.Weight = 1
		}
		doc.Edges[key] = attrs
	}

	return nil
}

// kindForLevel infers a kind for pre-v2 nodes, which recorded depth but
// not provenance. Level 0 is always the session root; level 1 nodes came
// from expanding the root; anything deeper came from expanding a concept.
func kindForLevel(level int) valueobjects.NodeKind {
	switch {
	case level <= 0:
		return valueobjects.KindRoot
	case level == 1:
		return valueobjects.KindConcept
	default:
		return valueobjects.KindSubConcept
	}
}

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
