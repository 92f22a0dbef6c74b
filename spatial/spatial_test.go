package spatial

import (
	"testing"

	"github.com/gogpu/sceneprep/geom"
)

// stubTree returns the same transform for every node pair.
type stubTree struct {
	m  geom.Matrix
	ok bool
}

func (t stubTree) RelativeTransform(from, to NodeIndex) (geom.Matrix, bool) {
	return t.m, t.ok
}

func (t stubTree) WorldTransform(node NodeIndex) geom.Matrix {
	return t.m
}

func TestSpaceMapperIdentity(t *testing.T) {
	tree := stubTree{m: geom.Scale(99, 99), ok: true}
	m := NewSpaceMapper(RootNodeIndex, RootNodeIndex, geom.NewRect(0, 0, 1000, 1000), tree)

	r := geom.NewRect(5, 6, 7, 8)
	got, ok := m.MapRect(r)
	if !ok || got != r {
		t.Errorf("identity MapRect = %+v, %v, want %+v, true", got, ok, r)
	}
	got, ok = m.UnmapRect(r)
	if !ok || got != r {
		t.Errorf("identity UnmapRect = %+v, %v, want %+v, true", got, ok, r)
	}
}

func TestSpaceMapperScaleOffset(t *testing.T) {
	tree := stubTree{m: geom.Translate(10, 20).Multiply(geom.Scale(2, 2)), ok: true}
	m := NewSpaceMapper(RootNodeIndex, NodeIndex(3), geom.NewRect(0, 0, 1000, 1000), tree)

	got, ok := m.MapRect(geom.NewRect(0, 0, 5, 5))
	if !ok {
		t.Fatal("MapRect failed")
	}
	want := geom.NewRect(10, 20, 10, 10)
	if got != want {
		t.Errorf("MapRect = %+v, want %+v", got, want)
	}

	back, ok := m.UnmapRect(got)
	if !ok || back != geom.NewRect(0, 0, 5, 5) {
		t.Errorf("UnmapRect round trip = %+v, %v", back, ok)
	}
}

func TestSpaceMapperDegenerate(t *testing.T) {
	tree := stubTree{m: geom.Scale(0, 1), ok: true}
	m := NewSpaceMapper(RootNodeIndex, NodeIndex(3), geom.NewRect(0, 0, 100, 100), tree)

	if _, ok := m.MapRect(geom.NewRect(0, 0, 5, 5)); ok {
		t.Error("MapRect on collapsed transform = ok, want failure")
	}
	if _, ok := m.UnmapRect(geom.NewRect(0, 0, 5, 5)); ok {
		t.Error("UnmapRect on collapsed transform = ok, want failure")
	}
}

func TestSpaceMapperDisconnected(t *testing.T) {
	tree := stubTree{ok: false}
	m := NewSpaceMapper(RootNodeIndex, NodeIndex(7), geom.NewRect(0, 0, 100, 100), tree)

	if _, ok := m.MapRect(geom.NewRect(0, 0, 5, 5)); ok {
		t.Error("MapRect on disconnected nodes = ok, want failure")
	}
}

func TestSpaceMapperRetarget(t *testing.T) {
	tree := stubTree{m: geom.Translate(100, 0), ok: true}
	m := NewSpaceMapper(RootNodeIndex, NodeIndex(2), geom.NewRect(0, 0, 1000, 1000), tree)

	// Retargeting to the reference node switches to the identity fast path
	// regardless of what the tree reports.
	m.SetTarget(RootNodeIndex, tree)
	r := geom.NewRect(1, 2, 3, 4)
	got, ok := m.MapRect(r)
	if !ok || got != r {
		t.Errorf("after retarget to ref, MapRect = %+v, %v", got, ok)
	}
}

func TestSpaceMapperVisibleRect(t *testing.T) {
	tree := stubTree{m: geom.Scale(2, 2), ok: true}
	m := NewSpaceMapper(RootNodeIndex, NodeIndex(1), geom.NewRect(0, 0, 200, 200), tree)

	got, ok := m.VisibleRect(geom.NewRect(0, 0, 100, 100))
	if !ok || got != geom.NewRect(0, 0, 50, 50) {
		t.Errorf("VisibleRect = %+v, %v, want {0 0 50 50}, true", got, ok)
	}
}
