package task

import (
	"image"
	"testing"
)

func lineKey(w, h int) CacheKey {
	return CacheKey{
		Size: image.Pt(w, h),
		Kind: LineDecorationKey{
			Style:       LineDashed,
			Orientation: Horizontal,
			LocalSize:   image.Pt(w*16, h*16),
		},
	}
}

func buildLine(w, h int) func(*Graph) ID {
	return func(g *Graph) ID {
		return g.Add(LineDecoration{
			TaskSize:    image.Pt(w, h),
			Style:       LineDashed,
			Orientation: Horizontal,
		})
	}
}

func TestCacheRequestIdempotent(t *testing.T) {
	c := NewCache()
	g := NewGraph()

	h1 := c.RequestRenderTask(lineKey(64, 4), g, buildLine(64, 4))
	h2 := c.RequestRenderTask(lineKey(64, 4), g, buildLine(64, 4))

	if h1 != h2 {
		t.Errorf("same key gave different handles: %d, %d", h1, h2)
	}
	if c.Builds() != 1 {
		t.Errorf("Builds = %d, want 1 (second request must not rebuild)", c.Builds())
	}
	if g.Len() != 1 {
		t.Errorf("graph has %d tasks, want 1", g.Len())
	}
	if c.TaskID(h1) != c.TaskID(h2) {
		t.Error("handles resolve to different tasks")
	}
}

func TestCacheDistinctKeys(t *testing.T) {
	c := NewCache()
	g := NewGraph()

	h1 := c.RequestRenderTask(lineKey(64, 4), g, buildLine(64, 4))
	h2 := c.RequestRenderTask(lineKey(128, 4), g, buildLine(128, 4))

	if h1 == h2 {
		t.Error("distinct keys shared a handle")
	}
	if c.Builds() != 2 {
		t.Errorf("Builds = %d, want 2", c.Builds())
	}
}

func TestCacheTaskIDStaleAcrossFrames(t *testing.T) {
	c := NewCache()
	g := NewGraph()

	h := c.RequestRenderTask(lineKey(64, 4), g, buildLine(64, 4))
	if c.TaskID(h) == InvalidID {
		t.Fatal("fresh entry has no task id")
	}

	// Next frame: the cached artifact is resident but no task was built.
	c.BeginFrame()
	if c.TaskID(h) != InvalidID {
		t.Error("TaskID from a previous frame should be invalid")
	}

	// Re-requesting returns the same handle without a rebuild.
	h2 := c.RequestRenderTask(lineKey(64, 4), NewGraph(), buildLine(64, 4))
	if h2 != h {
		t.Errorf("handle changed across frames: %d -> %d", h, h2)
	}
	if c.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", c.Builds())
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache()
	g := NewGraph()

	c.RequestRenderTask(lineKey(64, 4), g, buildLine(64, 4))
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}

	// Entry survives as long as the retention window allows, then goes.
	for i := 0; i < 4; i++ {
		c.BeginFrame()
	}
	if c.Len() != 0 {
		t.Errorf("Len after idle frames = %d, want 0", c.Len())
	}

	// A new request for the same key rebuilds.
	c.RequestRenderTask(lineKey(64, 4), NewGraph(), buildLine(64, 4))
	if c.Builds() != 2 {
		t.Errorf("Builds = %d, want 2", c.Builds())
	}
}

func TestCacheKeepAliveResetsEviction(t *testing.T) {
	c := NewCache()

	c.RequestRenderTask(lineKey(64, 4), NewGraph(), buildLine(64, 4))
	for i := 0; i < 6; i++ {
		c.BeginFrame()
		// Touching the entry every frame keeps it alive indefinitely.
		c.RequestRenderTask(lineKey(64, 4), NewGraph(), buildLine(64, 4))
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if c.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", c.Builds())
	}
}

func TestCacheInvalidHandlePanics(t *testing.T) {
	c := NewCache()
	defer func() {
		if recover() == nil {
			t.Error("no panic on invalid handle")
		}
	}()
	c.TaskID(InvalidHandle)
}

func TestGradientKeyEquality(t *testing.T) {
	stops := [GradientStopsPerRun]GradientStopKey{
		{Offset: 0, Color: [4]uint8{255, 0, 0, 255}},
		{Offset: 1, Color: [4]uint8{0, 0, 255, 255}},
	}
	a := CacheKey{Size: image.Pt(512, 16), Kind: GradientKey{Orientation: Horizontal, StartOffset: 0, EndOffset: 1, Stops: stops}}
	b := CacheKey{Size: image.Pt(512, 16), Kind: GradientKey{Orientation: Horizontal, StartOffset: 0, EndOffset: 1, Stops: stops}}
	if a != b {
		t.Error("identical gradient keys compare unequal")
	}

	stops[1].Color = [4]uint8{0, 255, 0, 255}
	cKey := CacheKey{Size: image.Pt(512, 16), Kind: GradientKey{Orientation: Horizontal, StartOffset: 0, EndOffset: 1, Stops: stops}}
	if a == cKey {
		t.Error("different stop colors compare equal")
	}
}
