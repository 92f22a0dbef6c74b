package gpucache

import (
	"testing"

	"github.com/gogpu/sceneprep/geom"
)

func TestRequestOncePerFrame(t *testing.T) {
	c := New()
	var h Handle

	req := c.Request(&h)
	if req == nil {
		t.Fatal("first request returned nil")
	}
	req.Push([4]float32{1, 2, 3, 4})

	if c.Request(&h) != nil {
		t.Error("second request in the same frame should return nil")
	}

	blocks := c.Blocks(h)
	if len(blocks) != 1 || blocks[0] != [4]float32{1, 2, 3, 4} {
		t.Errorf("Blocks = %v", blocks)
	}
}

func TestZeroHandleIsStale(t *testing.T) {
	c := New()
	var h Handle
	if c.Request(&h) == nil {
		t.Error("zero handle should need a write")
	}
}

func TestBeginFrameInvalidatesAll(t *testing.T) {
	c := New()
	var h Handle
	c.Request(&h).Push([4]float32{1, 0, 0, 0})

	c.BeginFrame()
	if c.Len() != 0 {
		t.Errorf("Len after BeginFrame = %d, want 0", c.Len())
	}
	req := c.Request(&h)
	if req == nil {
		t.Fatal("handle should be stale after BeginFrame")
	}
	req.Push([4]float32{2, 0, 0, 0})
	if got := c.Blocks(h); got[0] != [4]float32{2, 0, 0, 0} {
		t.Errorf("Blocks = %v", got)
	}
}

func TestInvalidateForcesRewrite(t *testing.T) {
	c := New()
	var h Handle
	c.Request(&h).Push([4]float32{1, 0, 0, 0})

	c.Invalidate(&h)
	req := c.Request(&h)
	if req == nil {
		t.Fatal("invalidated handle should accept a new write")
	}
	req.Push([4]float32{9, 0, 0, 0})
	if got := c.Blocks(h); got[0] != [4]float32{9, 0, 0, 0} {
		t.Errorf("Blocks after invalidate = %v", got)
	}
}

func TestBlocksStalePanics(t *testing.T) {
	c := New()
	var h Handle
	c.Request(&h).Push([4]float32{1, 0, 0, 0})
	c.BeginFrame()

	defer func() {
		if recover() == nil {
			t.Error("no panic reading stale handle")
		}
	}()
	c.Blocks(h)
}

func TestWriteSegment(t *testing.T) {
	c := New()
	var h Handle
	req := c.Request(&h)
	req.WriteSegment(geom.NewRect(1, 2, 3, 4), [4]float32{5, 6, 7, 8})

	blocks := c.Blocks(h)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0] != [4]float32{1, 2, 3, 4} {
		t.Errorf("rect block = %v", blocks[0])
	}
	if blocks[1] != [4]float32{5, 6, 7, 8} {
		t.Errorf("extra block = %v", blocks[1])
	}
}

func TestIndependentHandles(t *testing.T) {
	c := New()
	var a, b Handle
	c.Request(&a).Push([4]float32{1, 0, 0, 0})
	c.Request(&b).Push([4]float32{2, 0, 0, 0})

	if got := c.Blocks(a); got[0][0] != 1 {
		t.Errorf("handle a blocks = %v", got)
	}
	if got := c.Blocks(b); got[0][0] != 2 {
		t.Errorf("handle b blocks = %v", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}
