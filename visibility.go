package sceneprep

import (
	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/task"
)

// VisibilityIndex indexes the per-frame visibility info table.
type VisibilityIndex int32

// InvalidVisibility marks a culled instance.
const InvalidVisibility VisibilityIndex = -1

// VisibilityMask is a bitmask of the dirty-region rects a primitive
// overlaps. An empty mask means the primitive contributes nothing to the
// frame.
type VisibilityMask uint16

// Include adds the bits of another mask.
func (m *VisibilityMask) Include(o VisibilityMask) {
	*m |= o
}

// IsEmpty returns true when no bits are set.
func (m VisibilityMask) IsEmpty() bool {
	return m == 0
}

// ClipTaskIndex indexes the frame's clip-mask instance list.
type ClipTaskIndex int32

// InvalidClipTask marks a primitive with no clip mask built.
const InvalidClipTask ClipTaskIndex = -1

// MaskState is the outcome of clip-task synthesis for one primitive or
// segment.
type MaskState uint8

const (
	// MaskNone means no mask is required; plain rect clipping suffices.
	MaskNone MaskState = iota
	// MaskClipped means the primitive or segment is fully clipped out.
	MaskClipped
	// MaskTask means a mask render task was created.
	MaskTask
)

// ClipMask is one entry of the frame's clip-mask instance list.
type ClipMask struct {
	State MaskState
	// Task is set when State is MaskTask.
	Task task.ID
}

// VisibilityInfo is the per-frame visibility state of one visible
// primitive. Entries live in the frame scratch buffer and are referenced by
// index so they can be re-borrowed freely during recursion.
type VisibilityInfo struct {
	// ClippedWorldRect is the primitive's world-space bounding rect after
	// the coarse visibility pass.
	ClippedWorldRect geom.Rect

	// Mask records which dirty rects the primitive overlaps.
	Mask VisibilityMask

	// ClipChain is the resolved clip chain instance.
	ClipChain clip.ChainInstance

	// ClipTask indexes the first clip-mask instance for this primitive,
	// or InvalidClipTask until a mask is built.
	ClipTask ClipTaskIndex
}

// DirtyRect is one world-space rect of the dirty region, tagged with its
// visibility bit.
type DirtyRect struct {
	WorldRect geom.Rect
	Mask      VisibilityMask
}

// DirtyRegion is the ordered set of world-space rects that must be redrawn
// this frame.
type DirtyRegion struct {
	Rects []DirtyRect
}

// Combined returns the union of all dirty rects.
func (d *DirtyRegion) Combined() geom.Rect {
	var u geom.Rect
	for _, r := range d.Rects {
		u = u.Union(r.WorldRect)
	}
	return u
}
