package sceneprep

import (
	"github.com/go-text/typesetting/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/segment"
	"github.com/gogpu/sceneprep/task"
)

// CommonData is the template state shared by every primitive kind.
type CommonData struct {
	// PrimRect is the primitive's rect in its local space.
	PrimRect geom.Rect

	// MayNeedRepetition is true while the primitive might tile in the
	// shader; preparation clears it when tiling is resolved on the CPU.
	MayNeedRepetition bool

	// GPUHandle tracks the template's GPU data blocks.
	GPUHandle gpucache.Handle

	// Opaque is true when the primitive is known fully opaque.
	Opaque bool
}

// ColorBinding is a possibly-animated color property.
type ColorBinding struct {
	Animated bool
	Color    [4]float32
}

// RectangleData is the template of a solid rectangle.
type RectangleData struct {
	Common CommonData
	Color  [4]float32
}

// ImageKey identifies an image resource in the external resource cache.
type ImageKey uint64

// ImageData is the template of an image primitive.
type ImageData struct {
	Common      CommonData
	Key         ImageKey
	StretchSize geom.Point
	TileSpacing geom.Point
}

// ImageInstance is the per-instance state of an image primitive.
type ImageInstance struct {
	Segments SegmentState
}

// YuvImageData is the template of a planar YUV image primitive.
type YuvImageData struct {
	Common CommonData
	Keys   [3]ImageKey
	Format uint8
}

// FontKey identifies a sized font face in the external font system.
type FontKey struct {
	// ID is the stable identity assigned by the font loader.
	ID uint64
	// Size is the nominal font size in 26.6 fixed-point pixels.
	Size fixed.Int26_6
}

// GlyphInstance is one positioned glyph of a text run.
type GlyphInstance struct {
	GID   font.GID
	Point geom.Point
}

// TextRunData is the template of a text run primitive.
type TextRunData struct {
	Common CommonData
	Font   FontKey
	Glyphs []GlyphInstance
	// Direction orders glyph GPU data; right-to-left runs are emitted in
	// reverse so the shader walks them in visual order.
	Direction bidi.Direction
	// ReferenceFrameOffset relates the run's glyph origins to the
	// primitive rect origin.
	ReferenceFrameOffset geom.Point
	Color                [4]float32
}

// LineDecorationCacheKey describes a non-solid line decoration pattern.
// Solid lines have no key and skip the cached path entirely.
type LineDecorationCacheKey struct {
	Style         task.LineStyle
	Orientation   task.LineOrientation
	WavyThickness float64
	// Size is the pattern size in layout units.
	Size geom.Point
}

// LineDecorationData is the template of a line decoration primitive.
type LineDecorationData struct {
	Common CommonData
	Color  [4]float32
	// CacheKey is nil for solid lines.
	CacheKey *LineDecorationCacheKey
}

// BorderStyle is the CSS-style rendering of one border edge.
type BorderStyle uint8

const (
	BorderSolid BorderStyle = iota
	BorderDouble
	BorderDotted
	BorderDashed
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

// BorderEdge is one edge of a normal border.
type BorderEdge struct {
	Style BorderStyle
	Width float64
	Color [4]uint8
}

// BorderSegmentTemplate is one edge or corner of a border prepared during
// scene building: the key identifying its rendering and the local size its
// cached task covers.
type BorderSegmentTemplate struct {
	CacheKey      task.BorderSegmentKey
	LocalTaskSize geom.Point
}

// BrushSegment is one clip-aligned sub-rectangle of a primitive, written to
// the GPU alongside the primitive so partial clip masks can be applied per
// segment.
type BrushSegment struct {
	LocalRect       geom.Rect
	MayNeedClipMask bool
	Edges           segment.EdgeFlags
	Extra           [4]float32
}

// NormalBorderData is the template of a normal (non-image) border.
type NormalBorderData struct {
	Common CommonData
	// Edges are in top, right, bottom, left order.
	Edges         [4]BorderEdge
	Segments      []BorderSegmentTemplate
	BrushSegments []BrushSegment
}

// ImageBorderData is the template of a nine-patch image border.
type ImageBorderData struct {
	Common        CommonData
	Key           ImageKey
	BrushSegments []BrushSegment
}

// ExtendMode controls how a gradient extends beyond its defined range.
type ExtendMode uint8

const (
	ExtendClamp ExtendMode = iota
	ExtendRepeat
)

// GradientStop is one color stop of a gradient template.
type GradientStop struct {
	Offset float64
	Color  [4]uint8
}

// LinearGradientData is the template of a linear gradient primitive.
type LinearGradientData struct {
	Common     CommonData
	StartPoint geom.Point
	EndPoint   geom.Point
	Stops      []GradientStop
	ExtendMode ExtendMode
	// StretchSize and TileSpacing control spatial repetition.
	StretchSize geom.Point
	TileSpacing geom.Point
	// ReverseStops mirrors the stop list, as the scene builder does for
	// gradients specified end-to-start.
	ReverseStops bool
	// SupportsCaching is true when the gradient's configuration can be
	// rendered from cached horizontal strips.
	SupportsCaching bool
	// StopsOpaque is true when every stop color is fully opaque.
	StopsOpaque   bool
	BrushSegments []BrushSegment
}

// RadialGradientData is the template of a radial gradient primitive.
type RadialGradientData struct {
	Common      CommonData
	Center      geom.Point
	StartRadius float64
	EndRadius   float64
	RatioXY     float64
	ExtendMode  ExtendMode
	StretchSize geom.Point
	TileSpacing geom.Point
	BrushSegments []BrushSegment
}

// ConicGradientData is the template of a conic gradient primitive.
type ConicGradientData struct {
	Common      CommonData
	Center      geom.Point
	Angle       float64
	StartOffset float64
	EndOffset   float64
	ExtendMode  ExtendMode
	StretchSize geom.Point
	TileSpacing geom.Point
	BrushSegments []BrushSegment
}

// GradientCacheSegment is one cached sub-range of a gradient mapped to a
// local rect. Rebuilt every frame; stop data can change between frames.
type GradientCacheSegment struct {
	Handle    task.Handle
	LocalRect geom.Rect
}

// LinearGradientInstance is the per-instance state of a linear gradient.
type LinearGradientInstance struct {
	CacheSegments []GradientCacheSegment
	VisibleTiles  TileRange
}

// ClearData is the template of a clear primitive.
type ClearData struct {
	Common CommonData
}

// BackdropData is the template of a backdrop-filter read primitive.
type BackdropData struct {
	Common CommonData
	// PictureIndex is the backdrop picture whose output this primitive
	// samples.
	PictureIndex int32
}

// Store owns the primitive templates and per-instance runtime state for one
// scene. Templates are built during scene flattening; preparation reads
// them and mutates the runtime entries.
type Store struct {
	Rectangles      []RectangleData
	Images          []ImageData
	ImageInstances  []ImageInstance
	YuvImages       []YuvImageData
	TextRuns        []TextRunData
	LineDecorations []LineDecorationData
	NormalBorders   []NormalBorderData
	ImageBorders    []ImageBorderData

	LinearGradients         []LinearGradientData
	LinearGradientInstances []LinearGradientInstance
	RadialGradients         []RadialGradientData
	ConicGradients          []ConicGradientData

	Clears    []ClearData
	Backdrops []BackdropData
	Pictures  []Picture

	ColorBindings []ColorBinding
}

// LocalRect returns the primitive's rect in its local space. This is the
// single dispatch point for rect lookup across all kinds.
func (s *Store) LocalRect(inst *Instance) geom.Rect {
	return s.common(inst).PrimRect
}

// common returns the template common data for an instance.
func (s *Store) common(inst *Instance) *CommonData {
	switch inst.Kind {
	case KindRectangle:
		return &s.Rectangles[inst.Data].Common
	case KindImage:
		return &s.Images[inst.Data].Common
	case KindYuvImage:
		return &s.YuvImages[inst.Data].Common
	case KindTextRun:
		return &s.TextRuns[inst.Data].Common
	case KindLineDecoration:
		return &s.LineDecorations[inst.Data].Common
	case KindNormalBorder:
		return &s.NormalBorders[inst.Data].Common
	case KindImageBorder:
		return &s.ImageBorders[inst.Data].Common
	case KindLinearGradient:
		return &s.LinearGradients[inst.Data].Common
	case KindRadialGradient:
		return &s.RadialGradients[inst.Data].Common
	case KindConicGradient:
		return &s.ConicGradients[inst.Data].Common
	case KindPicture:
		return &s.Pictures[inst.PictureIndex].Common
	case KindClear:
		return &s.Clears[inst.Data].Common
	case KindBackdrop:
		return &s.Backdrops[inst.Data].Common
	default:
		panic("sceneprep: unknown primitive kind")
	}
}
