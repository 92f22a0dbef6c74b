package sceneprep

import (
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/task"
)

// SegmentRange addresses a run of brush segments in the scratch buffer.
type SegmentRange struct {
	First int32
	Count int32
}

// SegmentInstance is an owned range of segments plus the GPU handle for
// their serialized form.
type SegmentInstance struct {
	Segments  SegmentRange
	GPUHandle gpucache.Handle
}

// TileRange addresses a run of visible gradient tiles in the scratch
// buffer. The zero value is the empty range.
type TileRange struct {
	First int32
	Count int32
}

// IsEmpty returns true when the range holds no tiles.
func (r TileRange) IsEmpty() bool {
	return r.Count == 0
}

// VisibleGradientTile is one spatially repeated gradient tile that survived
// visibility.
type VisibleGradientTile struct {
	LocalRect     geom.Rect
	LocalClipRect geom.Rect
	Handle        gpucache.Handle
}

// Scratch is the per-frame scratch buffer: visibility info, segment
// storage, clip-mask instances, and decomposition output. It is owned
// exclusively by the frame-building context and reset at frame start;
// nothing in it survives across frames.
type Scratch struct {
	PrimInfo          []VisibilityInfo
	Segments          []BrushSegment
	SegmentInstances  []SegmentInstance
	ClipMaskInstances []ClipMask
	GradientTiles     []VisibleGradientTile
	BorderHandles     []task.Handle
}

// BeginFrame clears all scratch state, retaining capacity.
func (s *Scratch) BeginFrame() {
	s.PrimInfo = s.PrimInfo[:0]
	s.Segments = s.Segments[:0]
	s.SegmentInstances = s.SegmentInstances[:0]
	s.ClipMaskInstances = s.ClipMaskInstances[:0]
	s.GradientTiles = s.GradientTiles[:0]
	s.BorderHandles = s.BorderHandles[:0]
}

// AddVisibility appends a visibility info entry and returns its index.
// Entries are always referenced by index, never by pointer, so the table
// can grow during recursion.
func (s *Scratch) AddVisibility(info VisibilityInfo) VisibilityIndex {
	s.PrimInfo = append(s.PrimInfo, info)
	return VisibilityIndex(len(s.PrimInfo) - 1)
}

// Visibility returns the entry at the given index. It panics on the
// reserved invalid index: that lookup means a culled primitive is being
// prepared, which would render a corrupt frame.
func (s *Scratch) Visibility(idx VisibilityIndex) *VisibilityInfo {
	if idx == InvalidVisibility {
		panic("sceneprep: visibility lookup on invalid index")
	}
	return &s.PrimInfo[idx]
}

// extendSegments stores a run of brush segments and returns its range.
func (s *Scratch) extendSegments(segs []BrushSegment) SegmentRange {
	first := int32(len(s.Segments))
	s.Segments = append(s.Segments, segs...)
	return SegmentRange{First: first, Count: int32(len(segs))}
}

// segmentsIn returns the segments of a range.
func (s *Scratch) segmentsIn(r SegmentRange) []BrushSegment {
	return s.Segments[r.First : r.First+r.Count]
}

// extendGradientTiles stores visible tiles and returns their range.
func (s *Scratch) extendGradientTiles(tiles []VisibleGradientTile) TileRange {
	first := int32(len(s.GradientTiles))
	s.GradientTiles = append(s.GradientTiles, tiles...)
	return TileRange{First: first, Count: int32(len(tiles))}
}

// extendBorderHandles stores border cache handles and returns their range.
func (s *Scratch) extendBorderHandles(handles []task.Handle) HandleRange {
	first := int32(len(s.BorderHandles))
	s.BorderHandles = append(s.BorderHandles, handles...)
	return HandleRange{First: first, Count: int32(len(handles))}
}
