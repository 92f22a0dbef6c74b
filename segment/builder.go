// Package segment decomposes a primitive's local rect into clip-aligned
// sub-rectangles. Splitting along the edges of the clips that affect a
// primitive lets most of its area render without a mask; only the
// sub-rectangles that touch a rounded corner or a blur region pay for one.
package segment

import (
	"math"
	"sort"

	"github.com/gogpu/sceneprep/clip"
	"github.com/gogpu/sceneprep/geom"
)

// EdgeFlags marks which edges of a segment coincide with the outer edges of
// the primitive. Outer edges receive anti-aliasing; interior edges must not,
// or seams appear between adjacent segments.
type EdgeFlags uint8

const (
	EdgeLeft EdgeFlags = 1 << iota
	EdgeTop
	EdgeRight
	EdgeBottom

	// EdgeAll is the flag set of a segment spanning the whole primitive.
	EdgeAll = EdgeLeft | EdgeTop | EdgeRight | EdgeBottom
)

// Segment is one clip-aligned sub-rectangle of a primitive.
type Segment struct {
	Rect geom.Rect

	// HasMask is true when the segment overlaps clip geometry that cannot
	// be resolved by rectangle intersection alone, so a clip mask may be
	// required for it.
	HasMask bool

	Edges EdgeFlags
}

// constraint is one recorded clip shape, normalized for decomposition.
type constraint struct {
	rect   geom.Rect
	radius clip.BorderRadius
	mode   clip.Mode

	// Mask regions (box shadows) contribute mask coverage without
	// clipping anything themselves.
	maskRegion bool
	inner      geom.Rect
	innerOut   bool // Inner region is provably unaffected and culled.
}

// Builder accumulates clip constraints for one primitive and emits the
// resulting disjoint segments. A single Builder is reused across all
// primitives of a frame; Initialize resets it.
type Builder struct {
	bounds      geom.Rect
	constraints []constraint
	xs, ys      []float64
}

// NewBuilder returns an empty segment builder.
func NewBuilder() *Builder {
	return &Builder{
		constraints: make([]constraint, 0, 8),
		xs:          make([]float64, 0, 16),
		ys:          make([]float64, 0, 16),
	}
}

// Initialize resets the builder for a new primitive. The decomposition is
// confined to the intersection of the primitive's local rect and its local
// clip rect.
func (b *Builder) Initialize(localRect, localClipRect geom.Rect) {
	b.bounds, _ = localRect.Intersect(localClipRect)
	b.constraints = b.constraints[:0]
}

// PushClipRect records a rectangle or rounded-rectangle clip constraint.
func (b *Builder) PushClipRect(rect geom.Rect, radius clip.BorderRadius, mode clip.Mode) {
	b.constraints = append(b.constraints, constraint{
		rect:   rect,
		radius: radius,
		mode:   mode,
	})
}

// PushMaskRegion records a region in which a mask may be required without
// clipping anything itself: the area an inset box shadow's blur can reach.
// Pixels inside inner are provably unaffected by the blur; when innerOut is
// true they are additionally clipped out entirely.
func (b *Builder) PushMaskRegion(outer, inner geom.Rect, innerOut bool) {
	b.constraints = append(b.constraints, constraint{
		rect:       outer,
		maskRegion: true,
		inner:      inner,
		innerOut:   innerOut,
	})
}

// Build emits the disjoint segments covering the visible parts of the
// primitive, in row-major order. Segments fully removed by a clip are not
// emitted. The callback receives each segment exactly once.
func (b *Builder) Build(f func(Segment)) {
	if b.bounds.IsEmpty() {
		return
	}

	b.collectSplits()

	for j := 0; j+1 < len(b.ys); j++ {
		for i := 0; i+1 < len(b.xs); i++ {
			cell := geom.Rect{
				X: b.xs[i],
				Y: b.ys[j],
				W: b.xs[i+1] - b.xs[i],
				H: b.ys[j+1] - b.ys[j],
			}
			if cell.IsEmpty() {
				continue
			}

			keep, mask := b.classify(cell)
			if !keep {
				continue
			}

			f(Segment{
				Rect:    cell,
				HasMask: mask,
				Edges:   b.edgeFlags(cell),
			})
		}
	}
}

// collectSplits gathers the x and y coordinates that partition the bounds,
// sorted and deduplicated.
func (b *Builder) collectSplits() {
	b.xs = append(b.xs[:0], b.bounds.X, b.bounds.Right())
	b.ys = append(b.ys[:0], b.bounds.Y, b.bounds.Bottom())

	for i := range b.constraints {
		c := &b.constraints[i]
		b.pushRectSplits(c.rect)
		if c.maskRegion {
			b.pushRectSplits(c.inner)
			continue
		}
		if !c.radius.IsZero() {
			// Split off the corner boxes so that only they carry masks.
			for _, box := range cornerBoxes(c.rect, c.radius) {
				b.pushRectSplits(box)
			}
		}
	}

	b.xs = sortSplits(b.xs, b.bounds.X, b.bounds.Right())
	b.ys = sortSplits(b.ys, b.bounds.Y, b.bounds.Bottom())
}

func (b *Builder) pushRectSplits(r geom.Rect) {
	b.xs = append(b.xs, r.X, r.Right())
	b.ys = append(b.ys, r.Y, r.Bottom())
}

// sortSplits sorts coordinates, drops values outside [lo, hi], and removes
// near-duplicates.
func sortSplits(vs []float64, lo, hi float64) []float64 {
	sort.Float64s(vs)
	out := vs[:0]
	for _, v := range vs {
		if v < lo || v > hi {
			continue
		}
		if len(out) > 0 && math.Abs(v-out[len(out)-1]) < 1e-6 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// classify decides whether a cell survives all constraints and whether it
// needs a mask. Cells are never partially inside a constraint rect because
// every constraint edge is a split coordinate, so center sampling is exact
// for the rectangle tests.
func (b *Builder) classify(cell geom.Rect) (keep, mask bool) {
	center := geom.Point{X: cell.X + cell.W/2, Y: cell.Y + cell.H/2}

	for i := range b.constraints {
		c := &b.constraints[i]
		inside := c.rect.Contains(center)

		if c.maskRegion {
			if !inside {
				continue
			}
			if c.inner.Contains(center) {
				if c.innerOut {
					return false, false
				}
				continue
			}
			mask = true
			continue
		}

		inCorner := inside && cellInCorner(cell, c.rect, c.radius)

		switch c.mode {
		case clip.ModeClip:
			if !inside {
				return false, false
			}
			if inCorner {
				mask = true
			}
		case clip.ModeClipOut:
			if inside && !inCorner {
				return false, false
			}
			if inCorner {
				mask = true
			}
		}
	}
	return true, mask
}

// cellInCorner reports whether the cell overlaps one of the rounded corner
// boxes of a clip rect.
func cellInCorner(cell, rect geom.Rect, radius clip.BorderRadius) bool {
	if radius.IsZero() {
		return false
	}
	for _, box := range cornerBoxes(rect, radius) {
		if box.IsEmpty() {
			continue
		}
		if cell.Intersects(box) {
			return true
		}
	}
	return false
}

// cornerBoxes returns the four axis-aligned boxes bounding the rounded
// corners of a rect. Zero-radius corners produce empty boxes.
func cornerBoxes(r geom.Rect, radius clip.BorderRadius) [4]geom.Rect {
	return [4]geom.Rect{
		{X: r.X, Y: r.Y, W: radius.TopLeft.X, H: radius.TopLeft.Y},
		{X: r.Right() - radius.TopRight.X, Y: r.Y, W: radius.TopRight.X, H: radius.TopRight.Y},
		{X: r.X, Y: r.Bottom() - radius.BottomLeft.Y, W: radius.BottomLeft.X, H: radius.BottomLeft.Y},
		{X: r.Right() - radius.BottomRight.X, Y: r.Bottom() - radius.BottomRight.Y, W: radius.BottomRight.X, H: radius.BottomRight.Y},
	}
}

// edgeFlags marks the cell edges that lie on the outer bounds.
func (b *Builder) edgeFlags(cell geom.Rect) EdgeFlags {
	var flags EdgeFlags
	const eps = 1e-6
	if math.Abs(cell.X-b.bounds.X) < eps {
		flags |= EdgeLeft
	}
	if math.Abs(cell.Y-b.bounds.Y) < eps {
		flags |= EdgeTop
	}
	if math.Abs(cell.Right()-b.bounds.Right()) < eps {
		flags |= EdgeRight
	}
	if math.Abs(cell.Bottom()-b.bounds.Bottom()) < eps {
		flags |= EdgeBottom
	}
	return flags
}
