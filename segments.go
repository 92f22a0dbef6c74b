package sceneprep

import (
	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/segment"
	"github.com/gogpu/sceneprep/spatial"
)

// updateClipTaskForBrush builds per-segment clip masks for kinds that carry
// segments. It reports false when the kind has no segment path at all, in
// which case the caller falls back to a single whole-primitive mask.
func updateClipTaskForBrush(
	store *Store,
	inst *Instance,
	info *VisibilityInfo,
	primNode spatial.NodeIndex,
	picCtx *PictureContext,
	picState *PictureState,
	fc *FrameContext,
	fs *FrameState,
	unclipped geom.Rect,
	deviceScale float64,
) bool {
	var segments []BrushSegment

	switch inst.Kind {
	case KindTextRun, KindClear, KindLineDecoration, KindBackdrop:
		return false

	case KindImage:
		ii := &store.ImageInstances[inst.ImageInstance]
		if ii.Segments.Status != SegmentsBuilt {
			return false
		}
		segments = builtSegments(fs, ii.Segments)

	case KindPicture:
		// Pictures either do not support segments at all (unbuilt) or
		// declined to build them (not worth).
		if inst.Segments.Status != SegmentsBuilt {
			return false
		}
		segments = builtSegments(fs, inst.Segments)

	case KindRectangle, KindYuvImage:
		if inst.Segments.Status != SegmentsBuilt {
			return false
		}
		segments = builtSegments(fs, inst.Segments)

	case KindNormalBorder:
		segments = store.NormalBorders[inst.Data].BrushSegments

	case KindImageBorder:
		segments = store.ImageBorders[inst.Data].BrushSegments

	case KindLinearGradient:
		segments = store.LinearGradients[inst.Data].BrushSegments
		if len(segments) == 0 {
			return false
		}

	case KindRadialGradient:
		segments = store.RadialGradients[inst.Data].BrushSegments
		if len(segments) == 0 {
			return false
		}

	case KindConicGradient:
		segments = store.ConicGradients[inst.Data].BrushSegments
		if len(segments) == 0 {
			return false
		}
	}

	// No segments: report handled so that no whole-primitive mask is
	// allocated either.
	if len(segments) == 0 {
		return true
	}

	info.ClipTask = ClipTaskIndex(len(fs.Scratch.ClipMaskInstances))

	// With a single segment the chain built for the whole primitive is
	// exact; skip the per-segment chain rebuild.
	if len(segments) == 1 {
		mask := updateBrushSegmentClipTask(
			&segments[0], &info.ClipChain, info.ClippedWorldRect,
			picCtx.RasterSpatialNode, picCtx.SurfaceIndex,
			picState, fs, unclipped, deviceScale,
		)
		fs.Scratch.ClipMaskInstances = append(fs.Scratch.ClipMaskInstances, mask)
		return true
	}

	primOrigin := store.LocalRect(inst).Origin()
	dirtyWorldRect := fs.Dirty.Combined()

	for i := range segments {
		seg := &segments[i]

		// Rebuilding the chain against the smaller segment rect often
		// eliminates most clips and sometimes the whole segment.
		fs.ClipStore.SetActiveClips(&info.ClipChain, primNode, fc.SpatialTree)
		segChain := fs.ClipStore.BuildClipChainInstance(
			seg.LocalRect.Translate(primOrigin),
			picState.MapLocalToPic,
			picState.MapPicToWorld,
			dirtyWorldRect,
			deviceScale,
		)

		mask := updateBrushSegmentClipTask(
			seg, segChain, info.ClippedWorldRect,
			picCtx.RasterSpatialNode, picCtx.SurfaceIndex,
			picState, fs, unclipped, deviceScale,
		)
		fs.Scratch.ClipMaskInstances = append(fs.Scratch.ClipMaskInstances, mask)
	}
	return true
}

func builtSegments(fs *FrameState, state SegmentState) []BrushSegment {
	si := &fs.Scratch.SegmentInstances[state.Index]
	return fs.Scratch.segmentsIn(si.Segments)
}

// buildSegmentsIfNeeded runs segment decomposition for kinds that support
// it and have not decided yet this scene. The outcome is sticky until the
// clip state changes: either a stored segment instance or the not-worth
// marker.
func buildSegmentsIfNeeded(
	store *Store,
	inst *Instance,
	info *VisibilityInfo,
	fc *FrameContext,
	fs *FrameState,
) {
	localRect := store.LocalRect(inst)

	var state *SegmentState
	switch inst.Kind {
	case KindRectangle, KindYuvImage:
		state = &inst.Segments

	case KindImage:
		data := &store.Images[inst.Data]
		ii := &store.ImageInstances[inst.ImageInstance]
		// Tiled images produce one segment per visible tile elsewhere
		// and do not support automatic segmentation.
		if fs.Resources.ImageIsTiled(data.Key) {
			ii.Segments = SegmentState{Status: SegmentsNotWorth}
			return
		}
		state = &ii.Segments

	case KindPicture:
		pic := &store.Pictures[inst.PictureIndex]
		if !pic.UseSegments {
			return
		}
		// A clip change invalidates previously built segments; reset to
		// unbuilt so the build below runs again.
		if !pic.SegmentsValid {
			inst.Segments = SegmentState{Status: SegmentsUnbuilt}
			pic.SegmentsValid = true
		}
		state = &inst.Segments

	default:
		return
	}

	if state.Status != SegmentsUnbuilt {
		return
	}

	var segments []BrushSegment
	if describeBrushSegments(localRect, inst.LocalClipRect, &info.ClipChain, fs) {
		origin := localRect.Origin()
		fs.Segments.Build(func(s segment.Segment) {
			segments = append(segments, BrushSegment{
				LocalRect:       s.Rect.Translate(geom.Pt(-origin.X, -origin.Y)),
				MayNeedClipMask: s.HasMask,
				Edges:           s.Edges,
			})
		})
	}

	// A single segment has no advantage over the plain primitive rect.
	if len(segments) <= 1 {
		*state = SegmentState{Status: SegmentsNotWorth}
		return
	}

	rng := fs.Scratch.extendSegments(segments)
	fs.Scratch.SegmentInstances = append(fs.Scratch.SegmentInstances, SegmentInstance{
		Segments: rng,
	})
	*state = BuiltSegments(int32(len(fs.Scratch.SegmentInstances) - 1))
}

// describeBrushSegments feeds the primitive's local clips into the segment
// builder. It reports false when segmentation should not happen: the
// primitive is too small, or an image mask makes the affected region
// unknowable without reading pixels.
func describeBrushSegments(
	localRect geom.Rect,
	localClipRect geom.Rect,
	chain *clip.ChainInstance,
	fs *FrameState,
) bool {
	if localRect.Area() < MinBrushSplitArea {
		return false
	}

	fs.Segments.Initialize(localRect, localClipRect)

	for i := int32(0); i < chain.ClipsRange.Count; i++ {
		ci := fs.ClipStore.Instance(chain.ClipsRange, i)

		// A clip positioned by another node can move relative to the
		// primitive while scrolling, which would force re-segmentation.
		// Only segment on clips that share the primitive's node.
		if ci.Flags&clip.FlagSameSpatialNode == 0 {
			continue
		}

		switch ci.Item.Kind {
		case clip.KindRectangle:
			fs.Segments.PushClipRect(ci.Item.Rect, clip.BorderRadius{}, ci.Item.Mode)

		case clip.KindRoundedRectangle:
			fs.Segments.PushClipRect(ci.Item.Rect, ci.Item.Radius, ci.Item.Mode)

		case clip.KindBoxShadow:
			// Force mask allocation where the shadow can affect the
			// result. For inset shadows, pixels inside the inner rect
			// are beyond the blur's reach and can be clipped out.
			innerOut := ci.Item.ShadowMode == clip.ShadowInset
			fs.Segments.PushMaskRegion(
				ci.Item.ShadowRect,
				ci.Item.ShadowRect.Inflate(
					-0.5*ci.Item.ShadowAllocSize.X,
					-0.5*ci.Item.ShadowAllocSize.Y,
				),
				innerOut,
			)

		case clip.KindImageMask:
			return false
		}
	}
	return true
}
