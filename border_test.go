package sceneprep

import (
	"testing"

	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

func TestRoundUpToPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-3, 1},
		{0.3, 0.5},
		{0.5, 0.5},
		{1, 1},
		{1.1, 2},
		{2, 2},
		{3, 4},
		{5, 8},
	}
	for _, tt := range tests {
		if got := roundUpToPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("roundUpToPowerOfTwo(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBorderCacheSize(t *testing.T) {
	sz, scale := borderCacheSize(geom.Pt(100, 40), 1.5)
	if sz.X != 150 || sz.Y != 60 {
		t.Errorf("cache size = %v, want 150x60", sz)
	}
	if scale != 1.5 {
		t.Errorf("scale = %v, want 1.5 unchanged", scale)
	}

	sz, scale = borderCacheSize(geom.Pt(3000, 40), 1)
	if sz.X > maxBorderResolution || sz.Y > maxBorderResolution {
		t.Errorf("cache size %v exceeds the border resolution cap", sz)
	}
	if scale >= 1 {
		t.Errorf("scale = %v, want reduced below 1", scale)
	}
}

func cornerTemplate(kind task.BorderSegmentKind, size float64) BorderSegmentTemplate {
	return BorderSegmentTemplate{
		CacheKey:      task.BorderSegmentKey{Kind: kind},
		LocalTaskSize: geom.Pt(size, size),
	}
}

func TestPrepareNormalBorder(t *testing.T) {
	fc, fs := newTestFrame()

	var store Store
	segments := []BorderSegmentTemplate{
		cornerTemplate(task.BorderCornerTopLeft, 20),
		cornerTemplate(task.BorderCornerTopRight, 20),
		cornerTemplate(task.BorderCornerBottomLeft, 20),
		cornerTemplate(task.BorderCornerBottomRight, 20),
		{CacheKey: task.BorderSegmentKey{Kind: task.BorderEdgeTop}, LocalTaskSize: geom.Pt(60, 10)},
		{CacheKey: task.BorderSegmentKey{Kind: task.BorderEdgeRight}, LocalTaskSize: geom.Pt(10, 60)},
		{CacheKey: task.BorderSegmentKey{Kind: task.BorderEdgeBottom}, LocalTaskSize: geom.Pt(60, 10)},
		{CacheKey: task.BorderSegmentKey{Kind: task.BorderEdgeLeft}, LocalTaskSize: geom.Pt(10, 60)},
	}
	store.NormalBorders = append(store.NormalBorders, NormalBorderData{
		Common: CommonData{PrimRect: geom.NewRect(0, 0, 100, 100)},
		Edges: [4]BorderEdge{
			{Style: BorderSolid, Width: 10},
			{Style: BorderSolid, Width: 10},
			{Style: BorderSolid, Width: 10},
			{Style: BorderSolid, Width: 10},
		},
		Segments: segments,
	})

	vis := fs.Scratch.AddVisibility(VisibilityInfo{
		ClippedWorldRect: geom.NewRect(0, 0, 100, 100),
		ClipChain: clip.ChainInstance{
			PicClipRect:           geom.NewRect(0, 0, 100, 100),
			CombinedLocalClipRect: geom.NewRect(0, 0, 100, 100),
		},
		ClipTask: InvalidClipTask,
	})
	list := singleClusterList(Instance{
		Kind:          KindNormalBorder,
		ColorBinding:  InvalidColorBinding,
		LocalClipRect: geom.NewRect(0, 0, 100, 100),
		Visibility:    vis,
	})

	prepareList(t, &store, &list, fc, fs)

	got := &list.Instances[0]
	if got.BorderHandles.Count != 8 {
		t.Fatalf("border handles = %d, want one per segment", got.BorderHandles.Count)
	}
	for _, h := range fs.Scratch.BorderHandles[got.BorderHandles.First : got.BorderHandles.First+got.BorderHandles.Count] {
		id := fs.TaskCache.TaskID(h)
		if id == task.InvalidID {
			t.Fatal("border handle has no task")
		}
		seg := fs.Graph.Task(id).(task.BorderSegment)
		if seg.DeviceScale != 1 {
			t.Errorf("segment scale = %v, want 1 at identity transform", seg.DeviceScale)
		}
		if fs.Graph.ConsumerCount(id) == 0 {
			t.Errorf("segment task %d has no consumer edge to the surface task", id)
		}
	}
	deps := fs.Graph.Dependencies(fs.Surfaces[0].Task)
	if len(deps) != 8 {
		t.Errorf("surface dependencies = %d, want one per segment task", len(deps))
	}
	if store.NormalBorders[0].Common.MayNeedRepetition {
		t.Error("solid border flagged as repeating")
	}
}

func TestBorderScaleRoundsZoomUp(t *testing.T) {
	fc, fs := newTestFrame()
	tree := fc.SpatialTree.(*testTree)
	tree.world = map[spatial.NodeIndex]geom.Matrix{
		5: geom.Scale(1.3, 1.3),
	}

	var store Store
	store.NormalBorders = append(store.NormalBorders, NormalBorderData{
		Common: CommonData{PrimRect: geom.NewRect(0, 0, 100, 100)},
		Edges: [4]BorderEdge{
			{Style: BorderDashed, Width: 4}, {}, {}, {},
		},
		Segments: []BorderSegmentTemplate{cornerTemplate(task.BorderCornerTopLeft, 20)},
	})

	vis := fs.Scratch.AddVisibility(VisibilityInfo{
		ClippedWorldRect: geom.NewRect(0, 0, 130, 130),
		ClipChain: clip.ChainInstance{
			PicClipRect:           geom.NewRect(0, 0, 100, 100),
			CombinedLocalClipRect: geom.NewRect(0, 0, 100, 100),
		},
		ClipTask: InvalidClipTask,
	})
	list := PrimitiveList{
		Clusters: []Cluster{{SpatialNode: 5, First: 0, Count: 1}},
		Instances: []Instance{{
			Kind:          KindNormalBorder,
			ColorBinding:  InvalidColorBinding,
			LocalClipRect: geom.NewRect(0, 0, 100, 100),
			Visibility:    vis,
		}},
	}

	prepareList(t, &store, &list, fc, fs)

	got := &list.Instances[0]
	if got.BorderHandles.Count != 1 {
		t.Fatal("no border handle")
	}
	h := fs.Scratch.BorderHandles[got.BorderHandles.First]
	seg := fs.Graph.Task(fs.TaskCache.TaskID(h)).(task.BorderSegment)
	// 1.3x zoom rasterizes at the next power of two so small zoom changes
	// reuse the same cached task.
	if seg.DeviceScale != 2 {
		t.Errorf("segment scale = %v, want 2", seg.DeviceScale)
	}
	if !store.NormalBorders[0].Common.MayNeedRepetition {
		t.Error("dashed border not flagged as repeating")
	}
}

func TestBorderMayNeedRepetition(t *testing.T) {
	solid := [4]BorderEdge{{Style: BorderSolid}, {Style: BorderDouble}, {Style: BorderGroove}, {Style: BorderInset}}
	if borderMayNeedRepetition(solid) {
		t.Error("continuous styles flagged as repeating")
	}
	dotted := solid
	dotted[2] = BorderEdge{Style: BorderDotted}
	if !borderMayNeedRepetition(dotted) {
		t.Error("dotted edge not flagged as repeating")
	}
}
