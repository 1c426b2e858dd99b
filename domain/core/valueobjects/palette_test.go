package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_ColorForCyclesByLevel(t *testing.T) {
	palette := NewPalette([]string{"#111111", "#222222", "#333333"})

	tests := []struct {
		name  string
		level int
		want  string
	}{
		{name: "root level", level: 0, want: "#111111"},
		{name: "first child level", level: 1, want: "#222222"},
		{name: "second child level", level: 2, want: "#333333"},
		{name: "wraps back to the first color", level: 3, want: "#111111"},
		{name: "keeps cycling", level: 7, want: "#222222"},
		{name: "negative level clamps to root", level: -2, want: "#111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, palette.ColorFor(tt.level))
		})
	}
}

func TestNewPalette_EmptyFallsBackToDefaults(t *testing.T) {
	palette := NewPalette(nil)

	assert.Equal(t, len(DefaultPaletteColors), palette.Size())
	assert.Equal(t, DefaultPaletteColors[0], palette.ColorFor(0))
}

func TestNewPalette_CopiesInput(t *testing.T) {
	colors := []string{"#AAAAAA", "#BBBBBB"}
	palette := NewPalette(colors)

	colors[0] = "#000000"

	assert.Equal(t, "#AAAAAA", palette.ColorFor(0))
}
