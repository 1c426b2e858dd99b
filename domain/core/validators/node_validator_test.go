package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/pkg/errors"
)

func TestConceptValidator_ValidateLabel(t *testing.T) {
	v := NewConceptValidator(config.DefaultDomainConfig())

	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{name: "valid label", label: "Graph Theory", wantErr: false},
		{name: "empty", label: "", wantErr: true},
		{name: "whitespace only", label: "   ", wantErr: true},
		{name: "leading whitespace", label: " Trees", wantErr: true},
		{name: "trailing whitespace", label: "Trees ", wantErr: true},
		{name: "too long", label: strings.Repeat("a", 201), wantErr: true},
		{name: "newline", label: "Graph\nTheory", wantErr: true},
		{name: "tab", label: "Graph\tTheory", wantErr: true},
		{name: "underscore allowed", label: "max_flow", wantErr: false},
		{name: "unicode allowed", label: "Théorie des graphes", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateLabel(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConceptValidator_ValidateRecord_CollectsAllViolations(t *testing.T) {
	v := NewConceptValidator(config.DefaultDomainConfig())

	err := v.ValidateRecord("", strings.Repeat("s", 2001), "")

	var validationErrors *errors.ValidationErrors
	assert.ErrorAs(t, err, &validationErrors)
	assert.Len(t, validationErrors.Errors, 2)
}

func TestConceptValidator_ValidateRecord_SelfParent(t *testing.T) {
	v := NewConceptValidator(config.DefaultDomainConfig())

	err := v.ValidateRecord("Trees", "", "Trees")

	assert.Error(t, err)
}

func TestConceptValidator_ValidateRecord_Valid(t *testing.T) {
	v := NewConceptValidator(config.DefaultDomainConfig())

	err := v.ValidateRecord("Trees", "connected acyclic graphs", "Graph Theory")

	assert.NoError(t, err)
}

func TestLinkValidator_ValidateRecord(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	v := NewLinkValidator(cfg)

	tests := []struct {
		name    string
		source  string
		target  string
		title   string
		weight  int
		wantErr bool
	}{
		{name: "valid", source: "Graph Theory", target: "Trees", title: "related to", weight: 1, wantErr: false},
		{name: "empty source", source: "", target: "Trees", wantErr: true},
		{name: "empty target", source: "Graph Theory", target: "", wantErr: true},
		{name: "self link", source: "Trees", target: "Trees", wantErr: true},
		{name: "negative weight", source: "A", target: "B", weight: -1, wantErr: true},
		{name: "zero weight means default", source: "A", target: "B", weight: 0, wantErr: false},
		{name: "title too long", source: "A", target: "B", title: strings.Repeat("t", 201), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRecord(tt.source, tt.target, tt.title, tt.weight)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLinkValidator_SelfLinksConfigurable(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.AllowSelfLinks = true
	v := NewLinkValidator(cfg)

	err := v.ValidateRecord("Trees", "Trees", "", 1)

	assert.NoError(t, err)
}

func TestTopicValidator_Normalize(t *testing.T) {
	v := NewTopicValidator(config.DefaultDomainConfig())

	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{name: "clean", topic: "Graph Theory", want: "Graph Theory"},
		{name: "trims whitespace", topic: "  Graph Theory  ", want: "Graph Theory"},
		{name: "empty", topic: "", wantErr: true},
		{name: "whitespace only", topic: "   ", wantErr: true},
		{name: "too long", topic: strings.Repeat("a", 201), wantErr: true},
		{name: "control characters", topic: "Graph\x00Theory", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Normalize(tt.topic)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
