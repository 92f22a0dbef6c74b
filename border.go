package sceneprep

import (
	"image"
	"math"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// prepareNormalBorder requests the cached render task for every edge and
// corner of a border, so the tasks are available when batching samples
// them later in the frame.
func prepareNormalBorder(store *Store, inst *Instance, primNode spatial.NodeIndex, surfaceTask task.ID, fc *FrameContext, fs *FrameState, deviceScale float64) {
	data := &store.NormalBorders[inst.Data]

	data.Common.MayNeedRepetition = borderMayNeedRepetition(data.Edges)

	updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
		req.Push([4]float32{
			float32(data.Edges[0].Width),
			float32(data.Edges[1].Width),
			float32(data.Edges[2].Width),
			float32(data.Edges[3].Width),
		})
	})

	// Rasterization scale comes from the primitive's world transform,
	// rounded up to a power of two so continuous zoom does not thrash the
	// cache: content only ever downscales, never upscales, and never by
	// more than a factor of two.
	sx, sy := fc.SpatialTree.WorldTransform(primNode).ScaleFactors()
	worldScale := math.Max(roundUpToPowerOfTwo(sx), roundUpToPowerOfTwo(sy))
	scale := worldScale * deviceScale
	scale = math.Min(scale, maxBorderScale(data))

	handles := make([]task.Handle, 0, len(data.Segments))
	for i := range data.Segments {
		seg := &data.Segments[i]
		cacheSize, segScale := borderCacheSize(seg.LocalTaskSize, scale)

		key := task.CacheKey{
			Size: cacheSize,
			Kind: seg.CacheKey,
		}
		h := fs.TaskCache.RequestRenderTask(key, fs.Graph, func(g *task.Graph) task.ID {
			return g.Add(task.BorderSegment{
				TaskSize:    cacheSize,
				Key:         seg.CacheKey,
				DeviceScale: segScale,
			})
		})
		attachCachedTask(h, surfaceTask, fs)
		handles = append(handles, h)
	}

	inst.BorderHandles = fs.Scratch.extendBorderHandles(handles)
}

// borderMayNeedRepetition reports whether any edge style repeats a pattern
// along its length.
func borderMayNeedRepetition(edges [4]BorderEdge) bool {
	for _, e := range edges {
		if e.Style == BorderDotted || e.Style == BorderDashed {
			return true
		}
	}
	return false
}

// maxBorderScale bounds the raster scale so no segment task exceeds the
// border resolution cap.
func maxBorderScale(data *NormalBorderData) float64 {
	maxDim := 1.0
	for i := range data.Segments {
		sz := data.Segments[i].LocalTaskSize
		maxDim = math.Max(maxDim, math.Max(sz.X, sz.Y))
	}
	return maxBorderResolution / maxDim
}

// borderCacheSize converts a segment's local task size to device pixels,
// reducing the scale if the result would exceed the resolution cap.
func borderCacheSize(local geom.Point, scale float64) (image.Point, float64) {
	w := math.Ceil(local.X * scale)
	h := math.Ceil(local.Y * scale)
	if w > maxBorderResolution || h > maxBorderResolution {
		scale *= maxBorderResolution / math.Max(w, h)
		w = math.Ceil(local.X * scale)
		h = math.Ceil(local.Y * scale)
	}
	return image.Pt(int(w), int(h)), scale
}

// roundUpToPowerOfTwo rounds a positive scale factor up to the nearest
// power-of-two boundary.
func roundUpToPowerOfTwo(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return math.Exp2(math.Ceil(math.Log2(v)))
}
