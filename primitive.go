package sceneprep

import (
	"fmt"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// Kind identifies the primitive variant an Instance places. The set is
// closed: every dispatch over Kind switches exhaustively.
type Kind uint8

const (
	KindRectangle Kind = iota
	KindImage
	KindYuvImage
	KindTextRun
	KindLineDecoration
	KindNormalBorder
	KindImageBorder
	KindLinearGradient
	KindRadialGradient
	KindConicGradient
	KindPicture
	KindClear
	KindBackdrop
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "Rectangle"
	case KindImage:
		return "Image"
	case KindYuvImage:
		return "YuvImage"
	case KindTextRun:
		return "TextRun"
	case KindLineDecoration:
		return "LineDecoration"
	case KindNormalBorder:
		return "NormalBorder"
	case KindImageBorder:
		return "ImageBorder"
	case KindLinearGradient:
		return "LinearGradient"
	case KindRadialGradient:
		return "RadialGradient"
	case KindConicGradient:
		return "ConicGradient"
	case KindPicture:
		return "Picture"
	case KindClear:
		return "Clear"
	case KindBackdrop:
		return "Backdrop"
	default:
		return "Unknown"
	}
}

// SegmentStatus is the state of a primitive's segment decomposition.
type SegmentStatus uint8

const (
	// SegmentsUnbuilt means no build has been attempted this frame.
	// Looking up segments in this state is a fatal bug.
	SegmentsUnbuilt SegmentStatus = iota
	// SegmentsNotWorth means a build was attempted and produced one or
	// fewer segments, so the split is not worth the indirection.
	SegmentsNotWorth
	// SegmentsBuilt means a segment instance was stored.
	SegmentsBuilt
)

// String returns the name of the status.
func (s SegmentStatus) String() string {
	switch s {
	case SegmentsUnbuilt:
		return "Unbuilt"
	case SegmentsNotWorth:
		return "NotWorth"
	case SegmentsBuilt:
		return "Built"
	default:
		return "Unknown"
	}
}

// SegmentState is the tri-state segment reference of a primitive: unbuilt,
// not worth building, or built with an index into the frame's segment
// instance storage.
type SegmentState struct {
	Status SegmentStatus
	// Index into Scratch.SegmentInstances; meaningful only when Status is
	// SegmentsBuilt.
	Index int32
}

// BuiltSegments returns a state referencing a stored segment instance.
func BuiltSegments(index int32) SegmentState {
	return SegmentState{Status: SegmentsBuilt, Index: index}
}

// HandleRange addresses a run of cache handles in the frame scratch buffer.
type HandleRange struct {
	First int32
	Count int32
}

// Instance is one placed occurrence of a primitive. Instances are created
// during scene flattening, possibly invalidated during preparation, and
// discarded at end of frame.
type Instance struct {
	Kind Kind

	// Data indexes the Store's per-kind template slice.
	Data int32

	// Kind-specific instance indices. PictureIndex is set for KindPicture,
	// ImageInstance for KindImage, GradientInstance for KindLinearGradient.
	PictureIndex     int32
	ImageInstance    int32
	GradientInstance int32

	// ColorBinding indexes Store.ColorBindings for animated rectangle
	// colors, or InvalidColorBinding.
	ColorBinding int32

	// LocalClipRect is the instance's clip rect in its local space.
	LocalClipRect geom.Rect

	// Visibility indexes the per-frame visibility info table, or
	// InvalidVisibility when the instance has been culled.
	Visibility VisibilityIndex

	// Segments is the segment decomposition state for kinds that support
	// it directly (rectangles, YUV images, pictures).
	Segments SegmentState

	// LineCacheHandle holds the cached line-decoration task for
	// KindLineDecoration.
	LineCacheHandle task.Handle

	// BorderHandles addresses the border segment cache handles in scratch
	// for KindNormalBorder.
	BorderHandles HandleRange

	// VisibleTiles addresses decomposed repeat tiles in scratch for
	// radial and conic gradients.
	VisibleTiles TileRange

	// Chased enables per-primitive diagnostic tracing.
	Chased bool
}

// InvalidColorBinding marks an instance without an animated color binding.
const InvalidColorBinding int32 = -1

// Cluster is a contiguous range of instances sharing one spatial node.
// Grouping by node lets the traversal retarget its coordinate mappers once
// per cluster instead of once per instance.
type Cluster struct {
	SpatialNode spatial.NodeIndex
	First       int32
	Count       int32
}

// PrimitiveList is the ordered set of primitives of one picture.
type PrimitiveList struct {
	Clusters  []Cluster
	Instances []Instance
}

// chase logs one diagnostic trace line for a chased primitive. It is a
// side channel only and never affects control flow.
func chase(inst *Instance, msg string, args ...any) {
	if !inst.Chased {
		return
	}
	args = append([]any{"kind", inst.Kind.String()}, args...)
	Logger().Debug(fmt.Sprintf("chase: %s", msg), args...)
}
