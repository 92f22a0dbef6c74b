package sceneprep

import (
	"image"
	"math"

	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// updateClipTask builds the clip-mask state for one visible instance. It
// first tries the segment path, where each segment gets its own (usually
// cheaper, often absent) mask; if the kind has no segments it falls back
// to a single mask covering the whole primitive. Every mask task created
// here becomes a dependency of the owning surface's render task.
func updateClipTask(
	store *Store,
	inst *Instance,
	primNode spatial.NodeIndex,
	picCtx *PictureContext,
	picState *PictureState,
	fc *FrameContext,
	fs *FrameState,
) {
	info := fs.Scratch.Visibility(inst.Visibility)
	deviceScale := fs.Surfaces[picCtx.SurfaceIndex].DeviceScale

	chase(inst, "updating clip task", "picRect", info.ClipChain.PicClipRect)

	// Device rect of the primitive as if nothing clipped it. A degenerate
	// picture-to-raster mapping means no meaningful mask can be built.
	unclipped, ok := unclippedDeviceRect(info.ClipChain.PicClipRect, picState.MapPicToRaster, deviceScale)
	if !ok {
		return
	}

	buildSegmentsIfNeeded(store, inst, info, fc, fs)

	if updateClipTaskForBrush(store, inst, info, primNode, picCtx, picState, fc, fs, unclipped, deviceScale) {
		chase(inst, "segment tasks have been created for clipping")
		return
	}

	if !info.ClipChain.NeedsMask {
		return
	}

	deviceRect, ok := clippedDeviceRect(unclipped, picState.MapRasterToWorld, info.ClippedWorldRect, deviceScale)
	if !ok {
		return
	}
	intRect, maskScale := adjustMaskScaleForMaxSize(deviceRect, deviceScale)

	taskID := fs.Graph.Add(task.Mask{
		DeviceRect:  intRect,
		DeviceScale: maskScale,
		Clips:       info.ClipChain.ClipsRange,
		Root:        picCtx.RasterSpatialNode,
	})
	chase(inst, "created mask task", "task", taskID, "deviceRect", intRect)

	info.ClipTask = ClipTaskIndex(len(fs.Scratch.ClipMaskInstances))
	fs.Scratch.ClipMaskInstances = append(fs.Scratch.ClipMaskInstances, ClipMask{
		State: MaskTask,
		Task:  taskID,
	})
	fs.Graph.AddDependency(fs.SurfaceTask(picCtx.SurfaceIndex), taskID)
}

// updateBrushSegmentClipTask resolves the clip-mask outcome for one
// segment: no mask needed, fully clipped out, or a freshly allocated mask
// task wired to the consuming surface.
func updateBrushSegmentClipTask(
	seg *BrushSegment,
	chain *clip.ChainInstance,
	boundingWorldRect geom.Rect,
	rasterNode spatial.NodeIndex,
	surfaceIndex int32,
	picState *PictureState,
	fs *FrameState,
	unclipped geom.Rect,
	deviceScale float64,
) ClipMask {
	if chain == nil {
		return ClipMask{State: MaskClipped}
	}
	if !chain.NeedsMask || (!seg.MayNeedClipMask && !chain.HasNonLocalClips) {
		return ClipMask{State: MaskNone}
	}

	segWorldRect, ok := picState.MapPicToWorld.MapRect(chain.PicClipRect)
	if !ok {
		return ClipMask{State: MaskClipped}
	}
	segWorldRect, ok = segWorldRect.Intersect(boundingWorldRect)
	if !ok {
		return ClipMask{State: MaskClipped}
	}

	deviceRect, ok := clippedDeviceRect(unclipped, picState.MapRasterToWorld, segWorldRect, deviceScale)
	if !ok {
		return ClipMask{State: MaskClipped}
	}
	intRect, maskScale := adjustMaskScaleForMaxSize(deviceRect, deviceScale)

	taskID := fs.Graph.Add(task.Mask{
		DeviceRect:  intRect,
		DeviceScale: maskScale,
		Clips:       chain.ClipsRange,
		Root:        rasterNode,
	})
	fs.Graph.AddDependency(fs.SurfaceTask(surfaceIndex), taskID)
	return ClipMask{State: MaskTask, Task: taskID}
}

// unclippedDeviceRect maps a picture-space rect through the raster space
// into device pixels, ignoring any clipping.
func unclippedDeviceRect(picRect geom.Rect, mapPicToRaster *spatial.SpaceMapper, deviceScale float64) (geom.Rect, bool) {
	rasterRect, ok := mapPicToRaster.MapRect(picRect)
	if !ok {
		return geom.Rect{}, false
	}
	return rasterRect.Scale(deviceScale), true
}

// clippedDeviceRect shrinks an unclipped device rect to the minimal
// allocation needed: it clips the rect against the primitive's world
// bounding rect and maps the result back to device pixels. A degenerate
// mapping or an empty result means nothing needs to be allocated.
func clippedDeviceRect(
	unclipped geom.Rect,
	mapRasterToWorld *spatial.SpaceMapper,
	boundingWorldRect geom.Rect,
	deviceScale float64,
) (geom.Rect, bool) {
	rasterRect := unclipped.Scale(1 / deviceScale)

	worldRect, ok := mapRasterToWorld.MapRect(rasterRect)
	if !ok {
		return geom.Rect{}, false
	}
	clippedWorld, ok := worldRect.Intersect(boundingWorldRect)
	if !ok {
		return geom.Rect{}, false
	}
	clippedRaster, ok := mapRasterToWorld.UnmapRect(clippedWorld)
	if !ok {
		return geom.Rect{}, false
	}
	clippedRaster, ok = clippedRaster.Intersect(rasterRect)
	if !ok || clippedRaster.IsEmpty() {
		return geom.Rect{}, false
	}
	return clippedRaster.Scale(deviceScale), true
}

// adjustMaskScaleForMaxSize keeps mask allocations within MaxMaskSize by
// shrinking both the rect and the rasterization scale uniformly. The
// round-out can grow the rect by one pixel on fractional origins, so the
// shrink targets one pixel under the limit.
func adjustMaskScaleForMaxSize(deviceRect geom.Rect, deviceScale float64) (image.Rectangle, float64) {
	if deviceRect.W <= MaxMaskSize && deviceRect.H <= MaxMaskSize {
		return deviceRect.RoundOut(), deviceScale
	}
	scale := (MaxMaskSize - 1) / math.Max(deviceRect.W, deviceRect.H)
	return deviceRect.Scale(scale).RoundOut(), deviceScale * scale
}
