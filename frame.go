package sceneprep

import (
	"fmt"

	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/segment"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// FrameContext is the read-only configuration of one frame build.
type FrameContext struct {
	SpatialTree spatial.Tree

	// GlobalWorldRect is the world-space rect of the whole screen, used
	// as conservative bounds for coordinate mappers.
	GlobalWorldRect geom.Rect
}

// Surface is one composite target of the frame. Every visible picture
// renders into a surface; masks and cached artifacts consumed by a surface
// register dependency edges against its render task.
type Surface struct {
	// DeviceScale is the device pixels per layout unit of the surface.
	DeviceScale float64

	// RasterNode is the spatial node rasterization is aligned to.
	RasterNode spatial.NodeIndex

	// Task is the surface's render task, or task.InvalidID when the
	// surface was not assigned one.
	Task task.ID
}

// ResourceSource is the contract to the external resource cache for the
// queries preparation needs: image tiling and glyph rasterization.
type ResourceSource interface {
	// ImageIsTiled reports whether the image is stored as tiles. Tiled
	// images produce one segment per visible tile elsewhere and skip
	// automatic segmentation.
	ImageIsTiled(key ImageKey) bool

	// RequestGlyphs asks for the given glyphs to be rasterized and
	// resident before the frame draws.
	RequestGlyphs(font FontKey, keys []GlyphKey)
}

// FrameState bundles the mutable per-frame stores. It is owned exclusively
// by the frame-building context for the duration of one frame; the
// traversal threads it through the recursion by pointer.
type FrameState struct {
	Graph     *task.Graph
	TaskCache *task.Cache
	GPUCache  *gpucache.Cache
	ClipStore clip.Store
	Segments  *segment.Builder
	Scratch   *Scratch
	Dirty     *DirtyRegion
	Surfaces  []Surface
	Resources ResourceSource
}

// SurfaceTask returns the render task of a surface. A surface without a
// task cannot consume masks; requesting one is a fatal bug, not a culling
// outcome.
func (s *FrameState) SurfaceTask(surface int32) task.ID {
	id := s.Surfaces[surface].Task
	if id == task.InvalidID {
		panic(fmt.Sprintf("sceneprep: no render task for surface %d", surface))
	}
	return id
}

// PictureContext is the read-only state of the picture whose primitive list
// is being prepared.
type PictureContext struct {
	PicIndex     int32
	SurfaceIndex int32

	SurfaceSpatialNode spatial.NodeIndex
	RasterSpatialNode  spatial.NodeIndex

	// IsPassthrough pictures composite nothing themselves; their children
	// draw directly into the parent surface and the picture itself needs
	// no clip task.
	IsPassthrough bool
}

// PictureState holds the coordinate mappers of the picture being prepared.
// MapLocalToPic is retargeted per cluster; the others are fixed for the
// picture.
type PictureState struct {
	MapLocalToPic    *spatial.SpaceMapper
	MapPicToWorld    *spatial.SpaceMapper
	MapPicToRaster   *spatial.SpaceMapper
	MapRasterToWorld *spatial.SpaceMapper
}

// NewPictureState builds the mapper set for preparing a picture's list.
func NewPictureState(surfaceNode, rasterNode spatial.NodeIndex, fc *FrameContext) *PictureState {
	tree := fc.SpatialTree
	bounds := fc.GlobalWorldRect
	return &PictureState{
		MapLocalToPic:    spatial.NewSpaceMapper(surfaceNode, surfaceNode, bounds, tree),
		MapPicToWorld:    spatial.NewSpaceMapper(spatial.RootNodeIndex, surfaceNode, bounds, tree),
		MapPicToRaster:   spatial.NewSpaceMapper(rasterNode, surfaceNode, bounds, tree),
		MapRasterToWorld: spatial.NewSpaceMapper(spatial.RootNodeIndex, rasterNode, bounds, tree),
	}
}
