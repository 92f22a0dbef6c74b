package sceneprep

import (
	"image"
	"math"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// prepareLinearGradient requests the cached gradient strips covering the
// primitive and, for spatially repeated gradients, decomposes the
// primitive into visible tiles on the CPU.
func prepareLinearGradient(store *Store, inst *Instance, primNode spatial.NodeIndex, picCtx *PictureContext, fc *FrameContext, fs *FrameState) {
	data := &store.LinearGradients[inst.Data]
	gi := &store.LinearGradientInstances[inst.GradientInstance]

	updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
		req.Push([4]float32{
			float32(data.StartPoint.X), float32(data.StartPoint.Y),
			float32(data.EndPoint.X), float32(data.EndPoint.Y),
		})
	})

	if data.StretchSize.X >= data.Common.PrimRect.W &&
		data.StretchSize.Y >= data.Common.PrimRect.H {
		data.Common.MayNeedRepetition = false
	}

	if data.SupportsCaching {
		gi.CacheSegments = buildGradientCacheSegments(
			data, gi.CacheSegments[:0], fs.SurfaceTask(picCtx.SurfaceIndex), fs)
	}

	if data.TileSpacing != (geom.Point{}) {
		// The decomposition happens here on the CPU; the shader no
		// longer needs to repeat.
		data.Common.MayNeedRepetition = false

		info := fs.Scratch.Visibility(inst.Visibility)
		mapLocalToWorld := spatial.NewSpaceMapper(
			spatial.RootNodeIndex, primNode, fc.GlobalWorldRect, fc.SpatialTree)

		gi.VisibleTiles = decomposeRepeatedPrimitive(
			info.ClipChain.CombinedLocalClipRect,
			data.Common.PrimRect,
			info.ClippedWorldRect,
			data.StretchSize,
			data.TileSpacing,
			fs,
			mapLocalToWorld,
			func(req *gpucache.Request) {
				req.Push([4]float32{
					float32(data.StartPoint.X), float32(data.StartPoint.Y),
					float32(data.EndPoint.X), float32(data.EndPoint.Y),
				})
				req.Push([4]float32{
					float32(data.ExtendMode),
					float32(data.StretchSize.X), float32(data.StretchSize.Y),
					0,
				})
			},
		)
		if gi.VisibleTiles.IsEmpty() {
			chase(inst, "culled: no visible gradient tiles")
			inst.Visibility = InvalidVisibility
		}
	}
}

func prepareRadialGradient(store *Store, inst *Instance, primNode spatial.NodeIndex, fc *FrameContext, fs *FrameState) {
	data := &store.RadialGradients[inst.Data]

	if data.StretchSize.X >= data.Common.PrimRect.W &&
		data.StretchSize.Y >= data.Common.PrimRect.H {
		data.Common.MayNeedRepetition = false
	}

	updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
		req.Push([4]float32{
			float32(data.Center.X), float32(data.Center.Y),
			float32(data.StartRadius), float32(data.EndRadius),
		})
	})

	if data.TileSpacing != (geom.Point{}) {
		data.Common.MayNeedRepetition = false
		info := fs.Scratch.Visibility(inst.Visibility)
		mapLocalToWorld := spatial.NewSpaceMapper(
			spatial.RootNodeIndex, primNode, fc.GlobalWorldRect, fc.SpatialTree)

		inst.VisibleTiles = decomposeRepeatedPrimitive(
			info.ClipChain.CombinedLocalClipRect,
			data.Common.PrimRect,
			info.ClippedWorldRect,
			data.StretchSize,
			data.TileSpacing,
			fs,
			mapLocalToWorld,
			func(req *gpucache.Request) {
				req.Push([4]float32{
					float32(data.Center.X), float32(data.Center.Y),
					float32(data.StartRadius), float32(data.EndRadius),
				})
				req.Push([4]float32{
					float32(data.RatioXY),
					float32(data.ExtendMode),
					float32(data.StretchSize.X), float32(data.StretchSize.Y),
				})
			},
		)
		if inst.VisibleTiles.IsEmpty() {
			chase(inst, "culled: no visible gradient tiles")
			inst.Visibility = InvalidVisibility
		}
	}
}

func prepareConicGradient(store *Store, inst *Instance, primNode spatial.NodeIndex, fc *FrameContext, fs *FrameState) {
	data := &store.ConicGradients[inst.Data]

	if data.StretchSize.X >= data.Common.PrimRect.W &&
		data.StretchSize.Y >= data.Common.PrimRect.H {
		data.Common.MayNeedRepetition = false
	}

	updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
		req.Push([4]float32{
			float32(data.Center.X), float32(data.Center.Y),
			float32(data.StartOffset), float32(data.EndOffset),
		})
	})

	if data.TileSpacing != (geom.Point{}) {
		data.Common.MayNeedRepetition = false
		info := fs.Scratch.Visibility(inst.Visibility)
		mapLocalToWorld := spatial.NewSpaceMapper(
			spatial.RootNodeIndex, primNode, fc.GlobalWorldRect, fc.SpatialTree)

		inst.VisibleTiles = decomposeRepeatedPrimitive(
			info.ClipChain.CombinedLocalClipRect,
			data.Common.PrimRect,
			info.ClippedWorldRect,
			data.StretchSize,
			data.TileSpacing,
			fs,
			mapLocalToWorld,
			func(req *gpucache.Request) {
				req.Push([4]float32{
					float32(data.Center.X), float32(data.Center.Y),
					float32(data.StartOffset), float32(data.EndOffset),
				})
				req.Push([4]float32{
					float32(data.Angle),
					float32(data.ExtendMode),
					float32(data.StretchSize.X), float32(data.StretchSize.Y),
				})
			},
		)
		if inst.VisibleTiles.IsEmpty() {
			chase(inst, "culled: no visible gradient tiles")
			inst.Visibility = InvalidVisibility
		}
	}
}

// buildGradientCacheSegments maps the gradient onto cached strips. The
// stops covering the primitive are walked in runs of at most
// GradientStopsPerRun, splitting at hard stops (two stops sharing one
// offset); each run becomes one cached render task plus the local rect it
// is blitted to. Clamped gradients gain synthetic boundary stops so the
// regions before 0 and after 1 are covered; repeated gradients march the
// unit gradient across the primitive one window at a time.
func buildGradientCacheSegments(data *LinearGradientData, out []GradientCacheSegment, surfaceTask task.ID, fs *FrameState) []GradientCacheSegment {
	gradientSize := data.EndPoint.Sub(data.StartPoint)

	// The strip's long axis follows the gradient; the other axis carries
	// no information and stays minimal.
	var (
		taskSize        image.Point
		orientation     task.LineOrientation
		primStartOffset float64
		primEndOffset   float64
	)
	if approxEq(data.StartPoint.X, data.EndPoint.X) {
		primStartOffset = -data.StartPoint.Y / gradientSize.Y
		primEndOffset = (data.Common.PrimRect.H - data.StartPoint.Y) / gradientSize.Y
		taskSize = image.Pt(16, TextureRegionDimensions)
		orientation = task.Vertical
	} else {
		primStartOffset = -data.StartPoint.X / gradientSize.X
		primEndOffset = (data.Common.PrimRect.W - data.StartPoint.X) / gradientSize.X
		taskSize = image.Pt(TextureRegionDimensions, 16)
		orientation = task.Horizontal
	}

	stops := make([]task.GradientStopKey, 0, len(data.Stops)+2)
	if data.ReverseStops {
		for i := len(data.Stops) - 1; i >= 0; i-- {
			src := data.Stops[i]
			stops = append(stops, task.GradientStopKey{
				Offset: 1 - src.Offset,
				Color:  src.Color,
			})
		}
	} else {
		for _, src := range data.Stops {
			stops = append(stops, task.GradientStopKey{
				Offset: src.Offset,
				Color:  src.Color,
			})
		}
	}

	emit := func(startOffset, endOffset, offsetBase float64) {
		out = emitGradientRuns(
			startOffset, endOffset, offsetBase,
			primStartOffset, primEndOffset,
			data.Common.PrimRect,
			taskSize, stops, orientation, data.StopsOpaque,
			surfaceTask, out, fs,
		)
	}

	if data.ExtendMode == ExtendClamp ||
		(primStartOffset >= 0 && primEndOffset <= 1) {
		// Duplicate the boundary stops so the clamped regions outside
		// 0..1 are emitted too.
		if primStartOffset < 0 {
			first := task.GradientStopKey{Offset: primStartOffset, Color: stops[0].Color}
			stops = append([]task.GradientStopKey{first}, stops...)
		}
		if primEndOffset > 1 {
			stops = append(stops, task.GradientStopKey{
				Offset: primEndOffset,
				Color:  stops[len(stops)-1].Color,
			})
		}
		emit(primStartOffset, primEndOffset, 0)
	} else {
		// March integer windows of the unit gradient across the
		// primitive's offset range.
		start := primStartOffset
		for start < primEndOffset {
			offsetBase := math.Floor(start)
			repeatStart := start - offsetBase
			repeatEnd := math.Min(offsetBase+1, primEndOffset) - offsetBase
			emit(repeatStart, repeatEnd, offsetBase)
			start = repeatEnd + offsetBase
		}
	}
	return out
}

// emitGradientRuns walks stops from startOffset to endOffset in runs of at
// most GradientStopsPerRun, requesting one cached strip per run. A run
// ends early at a hard stop; the hard stop's duplicate offset starts the
// next run. Runs that land outside the window or collapse to zero area are
// skipped.
func emitGradientRuns(
	startOffset, endOffset, offsetBase float64,
	primStartOffset, primEndOffset float64,
	primRect geom.Rect,
	taskSize image.Point,
	stops []task.GradientStopKey,
	orientation task.LineOrientation,
	opaque bool,
	surfaceTask task.ID,
	out []GradientCacheSegment,
	fs *FrameState,
) []GradientCacheSegment {
	first := 0
	for first < len(stops)-1 {
		if stops[first].Offset > endOffset {
			return out
		}

		// Accumulate stops until the run is full or a hard stop is hit.
		last := first
		hardStop := false
		for last < len(stops)-1 && last-first+1 < task.GradientStopsPerRun {
			if stops[last+1].Offset == stops[last].Offset {
				hardStop = true
				break
			}
			last++
		}

		// Run entirely before the window: skip ahead.
		if stops[last].Offset < startOffset {
			if hardStop {
				first = last + 1
			} else {
				first = last
			}
			continue
		}

		runStart := math.Max(startOffset, stops[first].Offset)
		runEnd := math.Min(endOffset, stops[last].Offset)

		var runStops [task.GradientStopsPerRun]task.GradientStopKey
		copy(runStops[:], stops[first:last+1])
		stopCount := last - first + 1

		// Scale and shift the primitive rect to the slice of it this
		// run covers.
		rect := primRect
		invLength := 1 / (primEndOffset - primStartOffset)
		if orientation == task.Horizontal {
			rect.X += (runStart + offsetBase - primStartOffset) * invLength * rect.W
			rect.W *= (runEnd - runStart) * invLength
		} else {
			rect.Y += (runStart + offsetBase - primStartOffset) * invLength * rect.H
			rect.H *= (runEnd - runStart) * invLength
		}

		// A hard stop landing exactly on an edge produces a zero-area
		// slice.
		if rect.Area() > 0 {
			key := task.CacheKey{
				Size: taskSize,
				Kind: task.GradientKey{
					Orientation: orientation,
					StartOffset: runStart,
					EndOffset:   runEnd,
					Stops:       runStops,
				},
			}
			handle := fs.TaskCache.RequestRenderTask(key, fs.Graph, func(g *task.Graph) task.ID {
				return g.Add(task.Gradient{
					TaskSize:    taskSize,
					Stops:       runStops,
					StopCount:   stopCount,
					Orientation: orientation,
					StartOffset: runStart,
					EndOffset:   runEnd,
					Opaque:      opaque,
				})
			})
			attachCachedTask(handle, surfaceTask, fs)
			out = append(out, GradientCacheSegment{
				Handle:    handle,
				LocalRect: rect,
			})
		}

		if hardStop {
			first = last + 1
		} else {
			first = last
		}
	}
	return out
}

// decomposeRepeatedPrimitive expands a spatially repeated primitive into
// the tiles that intersect its visible rect, writing GPU data for each.
// An empty result means earlier culling was too coarse; the caller marks
// the primitive invisible so no draw is batched for it.
//
// The combined local clip rect must intersect the primitive rect: callers
// reach here only for primitives that passed visibility.
func decomposeRepeatedPrimitive(
	combinedLocalClipRect geom.Rect,
	primLocalRect geom.Rect,
	primWorldRect geom.Rect,
	stretchSize geom.Point,
	tileSpacing geom.Point,
	fs *FrameState,
	mapLocalToWorld *spatial.SpaceMapper,
	write func(*gpucache.Request),
) TileRange {
	// Tighten the clip so parts of tiles hanging over the primitive rect
	// are clipped out.
	tightClipRect, ok := combinedLocalClipRect.Intersect(primLocalRect)
	if !ok {
		panic("sceneprep: repeated primitive with disjoint clip and prim rects")
	}

	visibleRect := conservativeVisibleRect(tightClipRect, primWorldRect, mapLocalToWorld)
	stride := stretchSize.Add(tileSpacing)

	var tiles []VisibleGradientTile
	for _, origin := range repeatOrigins(primLocalRect, visibleRect, stride) {
		var handle gpucache.Handle
		if req := fs.GPUCache.Request(&handle); req != nil {
			write(req)
		}
		tiles = append(tiles, VisibleGradientTile{
			LocalRect:     geom.Rect{X: origin.X, Y: origin.Y, W: stretchSize.X, H: stretchSize.Y},
			LocalClipRect: tightClipRect,
			Handle:        handle,
		})
	}

	if len(tiles) == 0 {
		return TileRange{}
	}
	return fs.Scratch.extendGradientTiles(tiles)
}

// conservativeVisibleRect bounds the visible part of a primitive in local
// space. When mapping through the transform fails, the tight clip rect is
// the conservative answer; a clip that misses the visible world entirely
// collapses to the empty rect so nothing downstream tiles it.
func conservativeVisibleRect(tightClipRect, primWorldRect geom.Rect, mapLocalToWorld *spatial.SpaceMapper) geom.Rect {
	worldClip, ok := mapLocalToWorld.MapRect(tightClipRect)
	if !ok {
		return tightClipRect
	}
	visibleWorld, ok := worldClip.Intersect(primWorldRect)
	if !ok {
		return geom.Rect{}
	}
	local, ok := mapLocalToWorld.VisibleRect(visibleWorld)
	if !ok {
		return tightClipRect
	}
	if local, ok = local.Intersect(tightClipRect); ok {
		return local
	}
	return geom.Rect{}
}

// repeatOrigins yields the origins of the repeat tiles of a primitive that
// intersect the visible rect. A non-positive stride cannot tile anything
// and yields no origins.
func repeatOrigins(primRect, visibleRect geom.Rect, stride geom.Point) []geom.Point {
	if stride.X <= 0 || stride.Y <= 0 {
		return nil
	}
	visible, ok := primRect.Intersect(visibleRect)
	if !ok {
		return nil
	}

	// Start at the first tile that reaches into the visible rect.
	startX := primRect.X
	if visible.X > primRect.X {
		n := math.Floor((visible.X - primRect.X) / stride.X)
		startX = primRect.X + n*stride.X
	}
	startY := primRect.Y
	if visible.Y > primRect.Y {
		n := math.Floor((visible.Y - primRect.Y) / stride.Y)
		startY = primRect.Y + n*stride.Y
	}

	var origins []geom.Point
	for y := startY; y < visible.Bottom(); y += stride.Y {
		for x := startX; x < visible.Right(); x += stride.X {
			origins = append(origins, geom.Pt(x, y))
		}
	}
	return origins
}

func approxEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
