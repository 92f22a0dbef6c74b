package sceneprep

import (
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/spatial"
)

// Picture is a composited subtree of primitives. Its list is traversed
// depth-first before the picture's own instance is prepared, so a picture
// instance always sees its children's render tasks already registered.
type Picture struct {
	Common CommonData

	// List is the picture's ordered primitive content.
	List PrimitiveList

	SpatialNode spatial.NodeIndex
	RasterNode  spatial.NodeIndex

	// SurfaceIndex is the surface the picture composites into, or the
	// parent's surface for passthrough pictures.
	SurfaceIndex int32

	// IsPassthrough pictures apply no composite effect. Their children
	// draw directly into the parent surface and the picture itself emits
	// no drawing.
	IsPassthrough bool

	// CompositeInvisible is true for composite effects that produce
	// output even from fully transparent content, such as color inverts.
	// Such pictures survive preparation even when nothing inside them is
	// visible.
	CompositeInvisible bool

	// PreciseLocalRect is the unsnapped bounding rect of the picture's
	// content, refreshed during preparation.
	PreciseLocalRect geom.Rect

	// UseSegments is true when the composite mode draws the picture as a
	// brush that can be split into clip-aligned segments.
	UseSegments bool

	// SegmentsValid is false when the clip state changed and any built
	// segments must be discarded and rebuilt.
	SegmentsValid bool
}

// childContext returns the traversal context and mapper state for
// preparing this picture's own list. It returns ok=false for pictures
// whose surface transform is degenerate this frame; their content cannot
// be meaningfully prepared and the instance is culled by the caller.
func (p *Picture) childContext(picIndex int32, fc *FrameContext) (PictureContext, *PictureState, bool) {
	state := NewPictureState(p.SpatialNode, p.RasterNode, fc)
	if _, ok := fc.SpatialTree.RelativeTransform(spatial.RootNodeIndex, p.SpatialNode); !ok {
		return PictureContext{}, nil, false
	}
	ctx := PictureContext{
		PicIndex:           picIndex,
		SurfaceIndex:       p.SurfaceIndex,
		SurfaceSpatialNode: p.SpatialNode,
		RasterSpatialNode:  p.RasterNode,
		IsPassthrough:      p.IsPassthrough,
	}
	return ctx, state, true
}

// PrepareForRender decides whether the picture instance draws anything
// itself after its children were prepared. Passthrough pictures draw
// nothing; composited pictures draw unless their content rect collapsed
// and the composite effect cannot produce output from emptiness.
func (p *Picture) PrepareForRender() bool {
	if p.IsPassthrough {
		return false
	}
	if p.PreciseLocalRect.IsEmpty() && !p.CompositeInvisible {
		return false
	}
	return true
}
