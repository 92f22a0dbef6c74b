// Package task provides the render-task dependency graph that frame
// preparation emits into, and the content-addressed cache that deduplicates
// pre-rasterized artifacts (masks, border corners, dashed lines, gradient
// strips) across requests and frames.
//
// The graph is rebuilt every frame; scheduling and execution of its nodes
// belong to the downstream render-task engine.
package task

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/spatial"
)

// ID identifies a task within one frame's graph.
type ID int32

// InvalidID marks an unset task reference.
const InvalidID ID = -1

// Task is one unit of GPU work: a node in the frame's dependency graph.
// Concrete task types carry the data their render pass needs.
type Task interface {
	// Size returns the pixel size of the task's target allocation.
	Size() image.Point
	// Format returns the texture format the task renders into.
	Format() gputypes.TextureFormat
}

// Mask rasterizes a clip chain into an alpha mask.
type Mask struct {
	// DeviceRect is the device-space area the mask covers, after clamping
	// to the maximum mask size.
	DeviceRect image.Rectangle
	// DeviceScale is the device pixel scale the mask is rasterized at.
	// Clamping an oversized mask lowers it below the surface's scale.
	DeviceScale float64
	// Clips addresses the clip items the mask rasterizes.
	Clips clip.Range
	// Root is the raster root node the clips are resolved against.
	Root spatial.NodeIndex
}

// Size returns the mask's pixel size.
func (t Mask) Size() image.Point {
	return image.Pt(t.DeviceRect.Dx(), t.DeviceRect.Dy())
}

// Format returns the mask target format (single channel).
func (t Mask) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatR8Unorm
}

// LineDecoration rasterizes a dashed, dotted, or wavy line pattern.
type LineDecoration struct {
	TaskSize    image.Point
	Style       LineStyle
	Orientation LineOrientation
	// WavyThickness is the stroke thickness for wavy lines, in device px.
	WavyThickness float64
	// LocalSize is the line's size in layout units.
	LocalSize image.Point
}

// Size returns the decoration's pixel size.
func (t LineDecoration) Size() image.Point { return t.TaskSize }

// Format returns the decoration target format.
func (t LineDecoration) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// BorderSegment rasterizes one edge or corner of a border.
type BorderSegment struct {
	TaskSize image.Point
	Key      BorderSegmentKey
	// DeviceScale is the resolved (power-of-two clamped) raster scale.
	DeviceScale float64
}

// Size returns the border segment's pixel size.
func (t BorderSegment) Size() image.Point { return t.TaskSize }

// Format returns the border target format.
func (t BorderSegment) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Gradient rasterizes one cached run of gradient stops into a strip.
type Gradient struct {
	TaskSize    image.Point
	Stops       [GradientStopsPerRun]GradientStopKey
	StopCount   int
	Orientation LineOrientation
	// StartOffset and EndOffset bound the run in gradient stop space.
	StartOffset float64
	EndOffset   float64
	// Opaque is set when every stop in the run has full alpha, letting
	// the executor pick an opaque blend state for the strip.
	Opaque bool
}

// Size returns the gradient strip's pixel size.
func (t Gradient) Size() image.Point { return t.TaskSize }

// Format returns the gradient target format.
func (t Gradient) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Picture is the root task of a composite surface. Mask and cache tasks
// register dependency edges against the surface task that samples them.
type Picture struct {
	TaskSize image.Point
}

// Size returns the surface's pixel size.
func (t Picture) Size() image.Point { return t.TaskSize }

// Format returns the surface target format.
func (t Picture) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Graph is one frame's render-task DAG. It is rebuilt from scratch each
// frame and owned exclusively by the frame-building context.
type Graph struct {
	tasks []Task
	// deps[consumer] lists the producers that must run first.
	deps [][]ID
	// consumers[producer] counts edges pointing at the producer.
	consumers []int
}

// NewGraph returns an empty task graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a task and returns its id.
func (g *Graph) Add(t Task) ID {
	id := ID(len(g.tasks))
	g.tasks = append(g.tasks, t)
	g.deps = append(g.deps, nil)
	g.consumers = append(g.consumers, 0)
	return id
}

// Task returns the task with the given id.
func (g *Graph) Task(id ID) Task {
	if id < 0 || int(id) >= len(g.tasks) {
		panic(fmt.Sprintf("task: invalid task id %d", id))
	}
	return g.tasks[id]
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// AddDependency records that consumer samples producer's output, so
// producer must be executed first. Passing an invalid id is a fatal bug in
// the caller: it means work was requested against a surface that never
// received a task.
func (g *Graph) AddDependency(consumer, producer ID) {
	if consumer < 0 || int(consumer) >= len(g.tasks) {
		panic(fmt.Sprintf("task: dependency from invalid consumer %d", consumer))
	}
	if producer < 0 || int(producer) >= len(g.tasks) {
		panic(fmt.Sprintf("task: dependency on invalid producer %d", producer))
	}
	if consumer == producer {
		panic(fmt.Sprintf("task: self dependency on task %d", consumer))
	}
	g.deps[consumer] = append(g.deps[consumer], producer)
	g.consumers[producer]++
}

// Dependencies returns the producers the given task depends on.
func (g *Graph) Dependencies(id ID) []ID {
	return g.deps[id]
}

// ConsumerCount returns the number of edges pointing at the given task.
func (g *Graph) ConsumerCount(id ID) int {
	return g.consumers[id]
}

// Validate checks that the dependency edges form a DAG. A cycle is a fatal
// programming error upstream; Validate exists so frame teardown and tests
// can assert the invariant cheaply.
func (g *Graph) Validate() error {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make([]uint8, len(g.tasks))

	var visit func(id ID) error
	visit = func(id ID) error {
		switch state[id] {
		case done:
			return nil
		case onStack:
			return fmt.Errorf("task: dependency cycle through task %d", id)
		}
		state[id] = onStack
		for _, dep := range g.deps[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for id := range g.tasks {
		if err := visit(ID(id)); err != nil {
			return err
		}
	}
	return nil
}
