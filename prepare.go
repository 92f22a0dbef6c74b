// Package sceneprep implements the frame-preparation stage of a retained
// scene renderer: the pass between visibility culling and batching that
// walks the visible primitive tree, refines visibility against the frame's
// dirty region, synthesizes clip-mask render tasks, decomposes primitives
// into segments and repeat tiles, and requests the cached artifacts
// (border segments, dashed lines, gradient strips) the frame will sample.
package sceneprep

import (
	"image"
	"math"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

const (
	// MaxMaskSize is the largest dimension a clip-mask render task may
	// have. Oversized masks are rasterized at a reduced scale instead.
	MaxMaskSize = 4096.0

	// MinBrushSplitArea is the local-space area below which segment
	// decomposition is not worth its overhead.
	MinBrushSplitArea = 128.0 * 128.0

	// MaxLineDecorationResolution caps the device size of cached line
	// decoration patterns.
	MaxLineDecorationResolution = 4096

	// TextureRegionDimensions is the length of a texture cache region.
	// Cached gradient strips use it as their long axis for maximum
	// sampling accuracy.
	TextureRegionDimensions = 512

	// maxBorderResolution caps the device size of cached border segments.
	maxBorderResolution = 2048
)

// PreparePrimitives runs the preparation pass over one picture's primitive
// list. For every still-visible instance it refines the visibility mask
// against the current dirty region, recurses into child pictures, builds
// clip tasks, and requests kind-specific resources. Instances that turn
// out to contribute nothing are marked invisible in place.
func PreparePrimitives(
	store *Store,
	list *PrimitiveList,
	picCtx *PictureContext,
	picState *PictureState,
	fc *FrameContext,
	fs *FrameState,
) {
	for ci := range list.Clusters {
		cluster := &list.Clusters[ci]
		picState.MapLocalToPic.SetTarget(cluster.SpatialNode, fc.SpatialTree)

		for i := cluster.First; i < cluster.First+cluster.Count; i++ {
			inst := &list.Instances[i]
			if inst.Visibility == InvalidVisibility {
				continue
			}

			// The clipped world rect was computed during the initial
			// visibility pass, against the whole screen. The dirty
			// region can be smaller; intersecting here drops primitives
			// that only touch clean tiles and shrinks any off-screen
			// allocations made for them.
			info := fs.Scratch.Visibility(inst.Visibility)
			for _, dirty := range fs.Dirty.Rects {
				if info.ClippedWorldRect.Intersects(dirty.WorldRect) {
					info.Mask.Include(dirty.Mask)
				}
			}
			if info.Mask.IsEmpty() {
				chase(inst, "culled by dirty region")
				inst.Visibility = InvalidVisibility
				continue
			}

			preparePrimForRender(store, inst, cluster.SpatialNode, picCtx, picState, fc, fs)
		}
	}
}

// preparePrimForRender prepares a single instance. Child pictures are
// prepared first: their content determines the rect and render tasks the
// parent depends on. It reports whether the instance stayed visible.
func preparePrimForRender(
	store *Store,
	inst *Instance,
	primNode spatial.NodeIndex,
	picCtx *PictureContext,
	picState *PictureState,
	fc *FrameContext,
	fs *FrameState,
) bool {
	isPassthrough := false
	if inst.Kind == KindPicture {
		pic := &store.Pictures[inst.PictureIndex]
		childCtx, childState, ok := pic.childContext(inst.PictureIndex, fc)
		if !ok {
			chase(inst, "culled for carrying an invisible composite filter")
			inst.Visibility = InvalidVisibility
			return false
		}
		PreparePrimitives(store, &pic.List, &childCtx, childState, fc, fs)
		isPassthrough = pic.IsPassthrough
	}

	if !isPassthrough {
		updateClipTask(store, inst, primNode, picCtx, picState, fc, fs)
		chase(inst, "considered visible and ready",
			"local", store.LocalRect(inst).Origin())
	}

	prepareInternedPrim(store, inst, primNode, picCtx, picState, fc, fs)

	return inst.Visibility != InvalidVisibility
}

// prepareInternedPrim requests the resources and render tasks each kind
// needs: cached artifacts, GPU data blocks, repeat decomposition, glyphs.
func prepareInternedPrim(
	store *Store,
	inst *Instance,
	primNode spatial.NodeIndex,
	picCtx *PictureContext,
	picState *PictureState,
	fc *FrameContext,
	fs *FrameState,
) {
	deviceScale := fs.Surfaces[picCtx.SurfaceIndex].DeviceScale

	switch inst.Kind {
	case KindLineDecoration:
		data := &store.LineDecorations[inst.Data]
		updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
			req.Push(data.Color)
		})
		chase(inst, "line decoration", "cached", data.CacheKey != nil)

		// A cache key means a wavy, dashed, or dotted pattern. Solid
		// lines draw directly and skip the cached path.
		if data.CacheKey != nil {
			inst.LineCacheHandle = requestLineDecorationTask(
				data.CacheKey, deviceScale, fs.SurfaceTask(picCtx.SurfaceIndex), fs)
		}

	case KindTextRun:
		data := &store.TextRuns[inst.Data]
		data.Common.MayNeedRepetition = false
		prepareTextRun(data, inst, primNode, picCtx, fc, fs, deviceScale)

	case KindClear:
		data := &store.Clears[inst.Data]
		data.Common.MayNeedRepetition = false
		updateTemplate(&data.Common, fs.GPUCache, nil)

	case KindNormalBorder:
		prepareNormalBorder(store, inst, primNode, fs.SurfaceTask(picCtx.SurfaceIndex), fc, fs, deviceScale)

	case KindImageBorder:
		data := &store.ImageBorders[inst.Data]
		updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
			req.Push([4]float32{float32(data.Key), 0, 0, 0})
		})

	case KindRectangle:
		data := &store.Rectangles[inst.Data]
		data.Common.MayNeedRepetition = false

		if inst.ColorBinding != InvalidColorBinding &&
			store.ColorBindings[inst.ColorBinding].Animated {
			invalidateForColorBinding(data, inst, fs)
		}

		color := rectangleColor(store, data, inst)
		data.Common.Opaque = color[3] >= 1
		updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
			req.Push(color)
		})
		writeSegmentGPUData(inst.Segments, fs, func(req *gpucache.Request) {
			req.Push(color)
		})

	case KindYuvImage:
		data := &store.YuvImages[inst.Data]
		data.Common.MayNeedRepetition = false
		// Planar YUV carries no alpha channel.
		data.Common.Opaque = true
		updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
			req.Push([4]float32{float32(data.Format), 0, 0, 0})
		})
		writeSegmentGPUData(inst.Segments, fs, func(req *gpucache.Request) {
			req.Push([4]float32{float32(data.Format), 0, 0, 0})
		})

	case KindImage:
		data := &store.Images[inst.Data]
		if data.StretchSize.X >= data.Common.PrimRect.W &&
			data.StretchSize.Y >= data.Common.PrimRect.H {
			data.Common.MayNeedRepetition = false
		}
		write := func(req *gpucache.Request) {
			req.Push([4]float32{
				float32(data.StretchSize.X),
				float32(data.StretchSize.Y),
				float32(data.TileSpacing.X),
				float32(data.TileSpacing.Y),
			})
		}
		updateTemplate(&data.Common, fs.GPUCache, write)
		ii := &store.ImageInstances[inst.ImageInstance]
		writeSegmentGPUData(ii.Segments, fs, write)

	case KindLinearGradient:
		prepareLinearGradient(store, inst, primNode, picCtx, fc, fs)

	case KindRadialGradient:
		prepareRadialGradient(store, inst, primNode, fc, fs)

	case KindConicGradient:
		prepareConicGradient(store, inst, primNode, fc, fs)

	case KindPicture:
		pic := &store.Pictures[inst.PictureIndex]
		if !pic.PrepareForRender() {
			chase(inst, "picture produced no output")
			inst.Visibility = InvalidVisibility
			return
		}
		if pic.UseSegments {
			writeSegmentGPUData(inst.Segments, fs, func(req *gpucache.Request) {
				req.Push([4]float32{1, 1, 1, 1})
				req.Push([4]float32{1, 1, 1, 1})
				// Negative stretch width means "use the prim rect".
				req.Push([4]float32{-1, 0, 0, 0})
			})
		}

	case KindBackdrop:
		data := &store.Backdrops[inst.Data]
		backdropSurface := store.Pictures[data.PictureIndex].SurfaceIndex
		if fs.Surfaces[backdropSurface].Task == task.InvalidID {
			chase(inst, "culled because backdrop surface has no render task")
			inst.Visibility = InvalidVisibility
			return
		}
		// The backdrop must be rendered before this primitive samples it.
		fs.Graph.AddDependency(
			fs.SurfaceTask(picCtx.SurfaceIndex),
			fs.Surfaces[backdropSurface].Task,
		)
	}
}

// updateTemplate refreshes the common GPU blocks of a template if its
// handle went stale. A nil write still marks the handle current.
func updateTemplate(common *CommonData, g *gpucache.Cache, write func(*gpucache.Request)) {
	req := g.Request(&common.GPUHandle)
	if req == nil {
		return
	}
	if write != nil {
		write(req)
	}
	req.PushRect(common.PrimRect)
}

// writeSegmentGPUData pushes a primitive's GPU blocks followed by one block
// per segment local rect, for primitives that carry a built segment
// instance. Primitives in the not-worth state use the template blocks
// instead and need nothing here. A lookup in the unbuilt state is a fatal
// bug: segment building must run before GPU data is written.
func writeSegmentGPUData(state SegmentState, fs *FrameState, write func(*gpucache.Request)) {
	switch state.Status {
	case SegmentsUnbuilt:
		panic("sceneprep: writing GPU data for unbuilt segments")
	case SegmentsNotWorth:
		return
	case SegmentsBuilt:
		si := &fs.Scratch.SegmentInstances[state.Index]
		req := fs.GPUCache.Request(&si.GPUHandle)
		if req == nil {
			return
		}
		write(req)
		for _, seg := range fs.Scratch.segmentsIn(si.Segments) {
			req.WriteSegment(seg.LocalRect, seg.Extra)
		}
	}
}

// rectangleColor resolves a rectangle's color through its binding.
func rectangleColor(store *Store, data *RectangleData, inst *Instance) [4]float32 {
	if inst.ColorBinding != InvalidColorBinding {
		return store.ColorBindings[inst.ColorBinding].Color
	}
	return data.Color
}

// invalidateForColorBinding drops the GPU blocks holding an animating
// color so they are re-serialized this frame even if already written.
func invalidateForColorBinding(data *RectangleData, inst *Instance, fs *FrameState) {
	switch inst.Segments.Status {
	case SegmentsUnbuilt:
		// No GPU data written yet, nothing to drop.
	case SegmentsNotWorth:
		fs.GPUCache.Invalidate(&data.Common.GPUHandle)
	case SegmentsBuilt:
		si := &fs.Scratch.SegmentInstances[inst.Segments.Index]
		fs.GPUCache.Invalidate(&si.GPUHandle)
	}
}

// attachCachedTask registers the consuming surface's dependency on a cached
// task. A cache hit whose artifact is still resident from an earlier frame
// has no task this frame and needs no edge; a task shared by several
// requests on one surface gets a single edge.
func attachCachedTask(h task.Handle, surfaceTask task.ID, fs *FrameState) {
	id := fs.TaskCache.TaskID(h)
	if id == task.InvalidID {
		return
	}
	for _, dep := range fs.Graph.Dependencies(surfaceTask) {
		if dep == id {
			return
		}
	}
	fs.Graph.AddDependency(surfaceTask, id)
}

// requestLineDecorationTask caches the pattern tile of a non-solid line at
// a device size derived from the surface scale, clamped to the maximum
// line decoration resolution.
func requestLineDecorationTask(key *LineDecorationCacheKey, deviceScale float64, surfaceTask task.ID, fs *FrameState) task.Handle {
	taskSize := image.Pt(
		int(math.Ceil(key.Size.X*deviceScale)),
		int(math.Ceil(key.Size.Y*deviceScale)),
	)
	if taskSize.X > MaxLineDecorationResolution || taskSize.Y > MaxLineDecorationResolution {
		maxExtent := taskSize.X
		if taskSize.Y > maxExtent {
			maxExtent = taskSize.Y
		}
		factor := float64(MaxLineDecorationResolution) / float64(maxExtent)
		taskSize = image.Pt(
			int(math.Ceil(key.Size.X*deviceScale*factor)),
			int(math.Ceil(key.Size.Y*deviceScale*factor)),
		)
	}

	cacheKey := task.CacheKey{
		Size: taskSize,
		Kind: task.LineDecorationKey{
			Style:         key.Style,
			Orientation:   key.Orientation,
			WavyThickness: key.WavyThickness,
			LocalSize:     quantizeSize(key.Size),
		},
	}
	h := fs.TaskCache.RequestRenderTask(cacheKey, fs.Graph, func(g *task.Graph) task.ID {
		return g.Add(task.LineDecoration{
			TaskSize:      taskSize,
			Style:         key.Style,
			Orientation:   key.Orientation,
			WavyThickness: key.WavyThickness,
			LocalSize:     quantizeSize(key.Size),
		})
	})
	attachCachedTask(h, surfaceTask, fs)
	return h
}

// quantizeSize converts a layout size to 1/16 px units for cache keys.
func quantizeSize(p geom.Point) image.Point {
	return image.Pt(
		int(math.Round(p.X*16)),
		int(math.Round(p.Y*16)),
	)
}
