package valueobjects

// Palette is the ordered set of display colors assigned to nodes by depth.
// Colors repeat as the graph grows: a node at level L gets color
// palette[L mod len(palette)]. The repetition is a deliberate visual depth
// cue, so the palette is configuration rather than a per-kind constant.
type Palette struct {
	colors []string
}

// DefaultPaletteColors matches the colors the exploration UI has always
// used: deep purple for the root level, lighter purple one level down,
// indigo below that.
var DefaultPaletteColors = []string{"#6200EA", "#7C4DFF", "#3949AB"}

// NewPalette builds a palette from the given colors. An empty slice falls
// back to the default colors so ColorFor never has to guess.
func NewPalette(colors []string) Palette {
	if len(colors) == 0 {
		colors = DefaultPaletteColors
	}
	owned := make([]string, len(colors))
	copy(owned, colors)
	return Palette{colors: owned}
}

// ColorFor returns the display color for a node at the given level.
// Negative levels are clamped to the root color.
func (p Palette) ColorFor(level int) string {
	if level < 0 {
		level = 0
	}
	return p.colors[level%len(p.colors)]
}

// Size returns the number of colors before the cycle repeats.
func (p Palette) Size() int {
	return len(p.colors)
}

// Colors returns a copy of the palette colors in cycle order.
func (p Palette) Colors() []string {
	out := make([]string, len(p.colors))
	copy(out, p.colors)
	return out
}
