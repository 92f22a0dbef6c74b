package task

import "image"

// GradientStopsPerRun is the maximum number of stops one cached gradient
// strip can hold. Longer gradients are split into multiple runs.
const GradientStopsPerRun = 4

// LineOrientation distinguishes horizontal from vertical cached strips.
type LineOrientation uint8

const (
	Horizontal LineOrientation = iota
	Vertical
)

// String returns the name of the orientation.
func (o LineOrientation) String() string {
	switch o {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

// LineStyle is the rendering style of a line decoration.
type LineStyle uint8

const (
	LineSolid LineStyle = iota
	LineDotted
	LineDashed
	LineWavy
)

// String returns the name of the style.
func (s LineStyle) String() string {
	switch s {
	case LineSolid:
		return "Solid"
	case LineDotted:
		return "Dotted"
	case LineDashed:
		return "Dashed"
	case LineWavy:
		return "Wavy"
	default:
		return "Unknown"
	}
}

// CacheKey addresses one cached render task: a kind-specific content
// descriptor plus the target pixel size. Identical keys share one task per
// frame generation, so keys must be derived deterministically: callers
// quantize scales and sizes before constructing a key.
type CacheKey struct {
	Size image.Point
	Kind KeyKind
}

// KeyKind is the kind-specific payload of a CacheKey. Implementations must
// be comparable structs so keys can index a map directly.
type KeyKind interface {
	cacheKeyKind()
}

// GradientStopKey is one color stop in a gradient cache key. The color is
// quantized to 8-bit channels so visually identical gradients collapse to
// one key.
type GradientStopKey struct {
	Offset float64
	Color  [4]uint8
}

// GradientKey addresses a cached gradient strip: the run's orientation, its
// start/end offsets in stop space, and the contributing stops.
type GradientKey struct {
	Orientation LineOrientation
	StartOffset float64
	EndOffset   float64
	Stops       [GradientStopsPerRun]GradientStopKey
}

func (GradientKey) cacheKeyKind() {}

// LineDecorationKey addresses a cached dotted/dashed/wavy line pattern.
type LineDecorationKey struct {
	Style         LineStyle
	Orientation   LineOrientation
	WavyThickness float64
	// LocalSize is the pattern period in layout units, quantized to
	// 1/16 px so continuous zoom does not generate unbounded keys.
	LocalSize image.Point
}

func (LineDecorationKey) cacheKeyKind() {}

// BorderSegmentKind identifies which part of a border a segment renders.
type BorderSegmentKind uint8

const (
	BorderEdgeTop BorderSegmentKind = iota
	BorderEdgeRight
	BorderEdgeBottom
	BorderEdgeLeft
	BorderCornerTopLeft
	BorderCornerTopRight
	BorderCornerBottomRight
	BorderCornerBottomLeft
)

// BorderSegmentKey addresses a cached border edge or corner.
type BorderSegmentKey struct {
	Kind BorderSegmentKind
	// Style and Color of the two edges meeting at a corner; edges use
	// only the first entry.
	Styles [2]uint8
	Colors [2][4]uint8
	Widths [2]float64
	// Radius of the corner, zero for edges.
	Radius [2]float64
}

func (BorderSegmentKey) cacheKeyKind() {}
