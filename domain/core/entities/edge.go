package entities

import (
	"time"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// Edge is a link between two concepts, identified by its endpoint labels.
// The title describes the relation ("prerequisite of", "subtopic") and the
// weight is a visual emphasis hint, never less than 1.
type Edge struct {
	key       valueobjects.EdgeKey
	title     string
	weight    int
	createdAt time.Time
	updatedAt time.Time
}

// NewEdge creates a link from source to target. A weight of 0 means "not
// provided" and falls back to the configured default; negative weights are
// rejected.
func NewEdge(source, target, title string, weight int, cfg *config.DomainConfig) (*Edge, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if source == "" || target == "" {
		return nil, pkgerrors.NewEmptyLabelError()
	}
	if source == target && !cfg.AllowSelfLinks {
		return nil, pkgerrors.NewSelfLinkError(source)
	}
	if weight < 0 {
		return nil, pkgerrors.NewValidationError("edge weight must be at least 1")
	}
	if weight == 0 {
		weight = cfg.DefaultEdgeWeight
	}

	now := time.Now()
	return &Edge{
		key:       valueobjects.NewEdgeKey(source, target),
		title:     title,
		weight:    weight,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructEdge rebuilds an edge from persisted attributes
func ReconstructEdge(key valueobjects.EdgeKey, title string, weight int, createdAt, updatedAt time.Time) (*Edge, error) {
	if key.Source() == "" || key.Target() == "" {
		return nil, pkgerrors.NewEmptyLabelError()
	}
	if weight < 1 {
		weight = 1
	}

	return &Edge{
		key:       key,
		title:     title,
		weight:    weight,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// Key returns the edge's identity pair
func (e *Edge) Key() valueobjects.EdgeKey {
	return e.key
}

// Source returns the label the link originates from
func (e *Edge) Source() string {
	return e.key.Source()
}

// Target returns the label the link points at
func (e *Edge) Target() string {
	return e.key.Target()
}

// Title returns the relation description
func (e *Edge) Title() string {
	return e.title
}

// Weight returns the visual emphasis weight
func (e *Edge) Weight() int {
	return e.weight
}

// CreatedAt returns when the link was first added
func (e *Edge) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the link's attributes last changed
func (e *Edge) UpdatedAt() time.Time {
	return e.updatedAt
}

// Touches reports whether either endpoint is label
func (e *Edge) Touches(label string) bool {
	return e.key.Touches(label)
}

// Merge applies incoming attributes onto this edge. The weight is
// overwritten, not summed, and a zero weight leaves the current value. An
// empty incoming title keeps the existing one.
func (e *Edge) Merge(title string, weight int) {
	if title != "" {
		e.title = title
	}
	if weight >= 1 {
		e.weight = weight
	}
	e.updatedAt = time.Now()
}
