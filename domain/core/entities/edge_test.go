package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/core/valueobjects"
)

func TestNewEdge(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	tests := []struct {
		name       string
		source     string
		target     string
		weight     int
		wantErr    bool
		wantWeight int
	}{
		{
			name:   "defaults weight when not provided",
			source: "Mathematics", target: "Calculus",
			weight: 0, wantWeight: cfg.DefaultEdgeWeight,
		},
		{
			name:   "keeps explicit weight",
			source: "Mathematics", target: "Calculus",
			weight: 4, wantWeight: 4,
		},
		{
			name:   "rejects negative weight",
			source: "Mathematics", target: "Calculus",
			weight: -1, wantErr: true,
		},
		{
			name:   "rejects empty source",
			source: "", target: "Calculus",
			wantErr: true,
		},
		{
			name:   "rejects empty target",
			source: "Mathematics", target: "",
			wantErr: true,
		},
		{
			name:   "rejects self link",
			source: "Mathematics", target: "Mathematics",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge, err := NewEdge(tt.source, tt.target, "related to", tt.weight, cfg)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.source, edge.Source())
			assert.Equal(t, tt.target, edge.Target())
			assert.Equal(t, "related to", edge.Title())
			assert.Equal(t, tt.wantWeight, edge.Weight())
		})
	}
}

func TestNewEdge_SelfLinkAllowedByConfig(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.AllowSelfLinks = true

	edge, err := NewEdge("Recursion", "Recursion", "defined by", 1, cfg)

	require.NoError(t, err)
	assert.Equal(t, "Recursion", edge.Source())
	assert.Equal(t, "Recursion", edge.Target())
}

func TestEdge_Merge(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	edge, err := NewEdge("Physics", "Mechanics", "subtopic", 1, cfg)
	require.NoError(t, err)

	// Weight is overwritten, not summed.
	edge.Merge("branch of", 3)
	assert.Equal(t, "branch of", edge.Title())
	assert.Equal(t, 3, edge.Weight())

	edge.Merge("branch of", 2)
	assert.Equal(t, 2, edge.Weight())

	// Zero values leave current attributes alone.
	edge.Merge("", 0)
	assert.Equal(t, "branch of", edge.Title())
	assert.Equal(t, 2, edge.Weight())
}

func TestEdge_Touches(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	edge, err := NewEdge("Physics", "Mechanics", "subtopic", 1, cfg)
	require.NoError(t, err)

	assert.True(t, edge.Touches("Physics"))
	assert.True(t, edge.Touches("Mechanics"))
	assert.False(t, edge.Touches("Optics"))
}

func TestReconstructEdge_ClampsWeight(t *testing.T) {
	key := valueobjects.NewEdgeKey("A", "B")

	edge, err := ReconstructEdge(key, "related to", 0, time.Now(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, edge.Weight())
}

func TestEdgeKey_Reverse(t *testing.T) {
	key := valueobjects.NewEdgeKey("A", "B")

	reversed := key.Reverse()

	assert.Equal(t, "B", reversed.Source())
	assert.Equal(t, "A", reversed.Target())
	assert.Equal(t, "A_B", key.String())
	assert.Equal(t, "B_A", reversed.String())
}
