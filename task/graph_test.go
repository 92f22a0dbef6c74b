package task

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestGraphAddAndLookup(t *testing.T) {
	g := NewGraph()
	id := g.Add(Picture{TaskSize: image.Pt(800, 600)})
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}

	got := g.Task(id)
	if got.Size() != image.Pt(800, 600) {
		t.Errorf("Size = %v", got.Size())
	}
	if got.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("picture format = %v", got.Format())
	}
}

func TestMaskFormat(t *testing.T) {
	m := Mask{DeviceRect: image.Rect(0, 0, 32, 16)}
	if m.Format() != gputypes.TextureFormatR8Unorm {
		t.Errorf("mask format = %v, want R8Unorm", m.Format())
	}
	if m.Size() != image.Pt(32, 16) {
		t.Errorf("mask size = %v", m.Size())
	}
}

func TestGraphDependencies(t *testing.T) {
	g := NewGraph()
	surface := g.Add(Picture{TaskSize: image.Pt(100, 100)})
	mask := g.Add(Mask{DeviceRect: image.Rect(0, 0, 10, 10)})
	g.AddDependency(surface, mask)

	deps := g.Dependencies(surface)
	if len(deps) != 1 || deps[0] != mask {
		t.Errorf("Dependencies = %v, want [%d]", deps, mask)
	}
	if g.ConsumerCount(mask) != 1 {
		t.Errorf("ConsumerCount(mask) = %d, want 1", g.ConsumerCount(mask))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGraphValidateCycle(t *testing.T) {
	g := NewGraph()
	a := g.Add(Picture{TaskSize: image.Pt(1, 1)})
	b := g.Add(Picture{TaskSize: image.Pt(1, 1)})
	c := g.Add(Picture{TaskSize: image.Pt(1, 1)})
	g.AddDependency(a, b)
	g.AddDependency(b, c)
	g.AddDependency(c, a)

	if err := g.Validate(); err == nil {
		t.Error("Validate accepted a cycle")
	}
}

func TestGraphPanics(t *testing.T) {
	tests := []struct {
		name string
		f    func(*Graph)
	}{
		{"invalid task lookup", func(g *Graph) { g.Task(InvalidID) }},
		{"out of range lookup", func(g *Graph) { g.Task(99) }},
		{"invalid consumer", func(g *Graph) { g.AddDependency(InvalidID, 0) }},
		{"invalid producer", func(g *Graph) { g.AddDependency(0, InvalidID) }},
		{"self dependency", func(g *Graph) { g.AddDependency(0, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			g.Add(Picture{TaskSize: image.Pt(1, 1)})
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			tt.f(g)
		})
	}
}
