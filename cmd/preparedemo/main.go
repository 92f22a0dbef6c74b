// Command preparedemo builds a small scene and runs the frame-preparation
// pass over it, printing the render tasks and cached artifacts the frame
// would produce.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/sceneprep"
	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/segment"
	"github.com/gogpu/sceneprep/spatial"
	"github.com/gogpu/sceneprep/task"
)

// identityTree is a one-node spatial tree: everything lives in world space.
type identityTree struct{}

func (identityTree) RelativeTransform(from, to spatial.NodeIndex) (geom.Matrix, bool) {
	return geom.Identity(), true
}

func (identityTree) WorldTransform(spatial.NodeIndex) geom.Matrix {
	return geom.Identity()
}

// demoClipStore serves one fixed clip chain: a rounded rectangle positioned
// by the primitive's own node.
type demoClipStore struct {
	items []clip.ItemInstance
}

func (s *demoClipStore) SetActiveClips(*clip.ChainInstance, spatial.NodeIndex, spatial.Tree) {}

func (s *demoClipStore) BuildClipChainInstance(
	localRect geom.Rect,
	mapLocalToPic, mapPicToWorld *spatial.SpaceMapper,
	dirtyWorldRect geom.Rect,
	deviceScale float64,
) *clip.ChainInstance {
	return &clip.ChainInstance{
		ClipsRange:            clip.Range{Index: 0, Count: int32(len(s.items))},
		PicClipRect:           localRect,
		CombinedLocalClipRect: localRect,
		NeedsMask:             true,
	}
}

func (s *demoClipStore) Instance(rng clip.Range, i int32) clip.ItemInstance {
	return s.items[rng.Index+i]
}

type demoResources struct{}

func (demoResources) ImageIsTiled(sceneprep.ImageKey) bool { return false }

func (demoResources) RequestGlyphs(f sceneprep.FontKey, keys []sceneprep.GlyphKey) {
	fmt.Printf("  glyphs: %d requested from font %d\n", len(keys), f.ID)
}

func main() {
	var (
		scale   = flag.Float64("scale", 1, "device pixels per layout unit")
		verbose = flag.Bool("v", false, "log chase tracing to stderr")
	)
	flag.Parse()

	if *verbose {
		sceneprep.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	screen := geom.NewRect(0, 0, 800, 600)
	clipRect := geom.NewRect(40, 40, 400, 300)

	store, list, fs := buildScene(clipRect, screen, *scale)
	fc := &sceneprep.FrameContext{
		SpatialTree:     identityTree{},
		GlobalWorldRect: screen,
	}

	picCtx := &sceneprep.PictureContext{
		PicIndex:           -1,
		SurfaceIndex:       0,
		SurfaceSpatialNode: spatial.RootNodeIndex,
		RasterSpatialNode:  spatial.RootNodeIndex,
	}
	picState := sceneprep.NewPictureState(spatial.RootNodeIndex, spatial.RootNodeIndex, fc)

	sceneprep.PreparePrimitives(store, list, picCtx, picState, fc, fs)

	if err := fs.Graph.Validate(); err != nil {
		log.Fatalf("task graph invalid: %v", err)
	}

	fmt.Printf("prepared %d primitives at scale %g\n", len(list.Instances), *scale)
	visible := 0
	for i := range list.Instances {
		if list.Instances[i].Visibility != sceneprep.InvalidVisibility {
			visible++
		}
	}
	fmt.Printf("  visible:        %d\n", visible)
	fmt.Printf("  render tasks:   %d\n", fs.Graph.Len())
	fmt.Printf("  cached tasks:   %d (%d built this frame)\n", fs.TaskCache.Len(), fs.TaskCache.Builds())
	fmt.Printf("  clip masks:     %d\n", len(fs.Scratch.ClipMaskInstances))
	fmt.Printf("  segments:       %d\n", len(fs.Scratch.Segments))
	fmt.Printf("  gpu blocks:     %d\n", fs.GPUCache.Len())
}

// buildScene assembles a rounded-clipped rectangle, a dashed underline, and
// a repeating linear gradient over a single root surface.
func buildScene(clipRect, screen geom.Rect, scale float64) (*sceneprep.Store, *sceneprep.PrimitiveList, *sceneprep.FrameState) {
	graph := task.NewGraph()
	rootTask := graph.Add(task.Picture{TaskSize: screen.RoundOut().Size()})

	corner := geom.Pt(24, 24)
	fs := &sceneprep.FrameState{
		Graph:     graph,
		TaskCache: task.NewCache(),
		GPUCache:  gpucache.New(),
		ClipStore: &demoClipStore{
			items: []clip.ItemInstance{{
				Item: clip.Item{
					Kind: clip.KindRoundedRectangle,
					Rect: clipRect,
					Radius: clip.BorderRadius{
						TopLeft: corner, TopRight: corner,
						BottomLeft: corner, BottomRight: corner,
					},
				},
				Flags: clip.FlagSameSpatialNode,
			}},
		},
		Segments: segment.NewBuilder(),
		Scratch:  &sceneprep.Scratch{},
		Dirty: &sceneprep.DirtyRegion{Rects: []sceneprep.DirtyRect{
			{WorldRect: screen, Mask: 1},
		}},
		Surfaces: []sceneprep.Surface{
			{DeviceScale: scale, RasterNode: spatial.RootNodeIndex, Task: rootTask},
		},
		Resources: demoResources{},
	}

	var store sceneprep.Store
	var instances []sceneprep.Instance

	add := func(inst sceneprep.Instance, rect geom.Rect) {
		inst.ColorBinding = sceneprep.InvalidColorBinding
		inst.LocalClipRect = rect
		inst.Visibility = fs.Scratch.AddVisibility(sceneprep.VisibilityInfo{
			ClippedWorldRect: rect,
			ClipChain: clip.ChainInstance{
				ClipsRange:            clip.Range{Index: 0, Count: 1},
				PicClipRect:           rect,
				CombinedLocalClipRect: rect,
				NeedsMask:             true,
			},
			ClipTask: sceneprep.InvalidClipTask,
		})
		instances = append(instances, inst)
	}

	store.Rectangles = append(store.Rectangles, sceneprep.RectangleData{
		Common: sceneprep.CommonData{PrimRect: clipRect},
		Color:  [4]float32{0.2, 0.4, 0.9, 1},
	})
	add(sceneprep.Instance{Kind: sceneprep.KindRectangle}, clipRect)

	underline := geom.NewRect(clipRect.X, clipRect.Bottom()+8, clipRect.W, 4)
	store.LineDecorations = append(store.LineDecorations, sceneprep.LineDecorationData{
		Common: sceneprep.CommonData{PrimRect: underline},
		Color:  [4]float32{1, 1, 1, 1},
		CacheKey: &sceneprep.LineDecorationCacheKey{
			Style:       task.LineDashed,
			Orientation: task.Horizontal,
			Size:        geom.Pt(underline.W, underline.H),
		},
	})
	add(sceneprep.Instance{
		Kind:            sceneprep.KindLineDecoration,
		LineCacheHandle: task.InvalidHandle,
	}, underline)

	gradRect := geom.NewRect(480, 40, 280, 520)
	store.LinearGradients = append(store.LinearGradients, sceneprep.LinearGradientData{
		Common:     sceneprep.CommonData{PrimRect: gradRect},
		StartPoint: geom.Pt(0, 0),
		EndPoint:   geom.Pt(0, 130),
		Stops: []sceneprep.GradientStop{
			{Offset: 0, Color: [4]uint8{250, 80, 40, 255}},
			{Offset: 1, Color: [4]uint8{40, 80, 250, 255}},
		},
		ExtendMode:      sceneprep.ExtendRepeat,
		SupportsCaching: true,
	})
	store.LinearGradientInstances = append(store.LinearGradientInstances, sceneprep.LinearGradientInstance{})
	add(sceneprep.Instance{Kind: sceneprep.KindLinearGradient}, gradRect)

	list := &sceneprep.PrimitiveList{
		Clusters: []sceneprep.Cluster{{
			SpatialNode: spatial.RootNodeIndex,
			First:       0,
			Count:       int32(len(instances)),
		}},
		Instances: instances,
	}
	return &store, list, fs
}
