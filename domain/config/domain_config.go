package config

import "time"

// DomainConfig holds all configurable exploration rules and constraints.
// Everything here is a business rule knob, not deployment wiring; transport
// and storage settings live in infrastructure/config.
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int
	MaxLabelLength   int

	// Node display attributes. Sizes are visual weights keyed by how the
	// node entered the graph; colors cycle by depth.
	RootNodeSize     int
	SubtopicNodeSize int
	ConceptNodeSize  int
	Palette          []string

	// Expansion bounds. The counts mirror what the explorer is asked for
	// at each depth; the caps are the external stop conditions that keep
	// auto-expand from growing without bound.
	ShallowConceptLimit  int
	DeepConceptLimit     int
	SubtopicLimit        int
	SubtopicConceptLimit int
	AutoExpandMaxLevel   int
	AutoExpandMaxSteps   int

	// Edge attributes
	DefaultEdgeWeight int
	SubtopicRelation  string

	// Time accounting
	MinSessionDuration time.Duration
	SessionIdleTimeout time.Duration

	// FlushBeforeDiscard controls whether removing the active node flushes
	// its accrued time before the entry is dropped. The historical behavior
	// discards silently, so this defaults to false.
	FlushBeforeDiscard bool

	// Validation settings
	AllowSelfLinks bool
}

// DefaultDomainConfig returns the default exploration configuration.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 10000,
		MaxEdgesPerGraph: 50000,
		MaxLabelLength:   200,

		RootNodeSize:     25,
		SubtopicNodeSize: 20,
		ConceptNodeSize:  15,
		Palette:          []string{"#6200EA", "#7C4DFF", "#3949AB"},

		ShallowConceptLimit:  3,
		DeepConceptLimit:     7,
		SubtopicLimit:        5,
		SubtopicConceptLimit: 4,
		AutoExpandMaxLevel:   4,
		AutoExpandMaxSteps:   25,

		DefaultEdgeWeight: 1,
		SubtopicRelation:  "subtopic",

		MinSessionDuration: 30 * time.Second,
		SessionIdleTimeout: 2 * time.Hour,

		FlushBeforeDiscard: false,

		AllowSelfLinks: false,
	}
}

// ProductionDomainConfig returns production-specific configuration.
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter growth limits where AI spend is real money
	config.MaxNodesPerGraph = 5000
	config.MaxEdgesPerGraph = 25000
	config.AutoExpandMaxLevel = 3
	config.AutoExpandMaxSteps = 15

	return config
}

// DevelopmentDomainConfig returns development-specific configuration.
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Permissive limits and a short dwell threshold so session records
	// show up without waiting half a minute
	config.MaxNodesPerGraph = 100000
	config.MaxEdgesPerGraph = 500000
	config.AutoExpandMaxLevel = 6
	config.AutoExpandMaxSteps = 100
	config.MinSessionDuration = 5 * time.Second
	config.AllowSelfLinks = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment.
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid.
func (c *DomainConfig) Validate() error {
	if len(c.Palette) == 0 {
		return ErrEmptyPalette
	}
	if c.DefaultEdgeWeight < 1 {
		return ErrInvalidEdgeWeight
	}
	if c.AutoExpandMaxLevel < 0 || c.AutoExpandMaxSteps < 0 {
		return ErrInvalidExpandCap
	}
	return nil
}
