// Package spatial defines the read-only contract to the spatial transform
// tree and the SpaceMapper used to carry rectangles between the nested
// coordinate spaces of a frame (local, picture, raster, world, device).
//
// The tree itself is built and animated elsewhere; frame preparation only
// queries it.
package spatial

import "github.com/gogpu/sceneprep/geom"

// NodeIndex identifies a node in the spatial tree.
type NodeIndex int32

const (
	// RootNodeIndex is the root of the spatial tree, i.e. world space.
	RootNodeIndex NodeIndex = 0
	// InvalidNodeIndex marks an unset node reference.
	InvalidNodeIndex NodeIndex = -1
)

// Tree is the read-only spatial tree contract. Implementations must be
// queryable any number of times during a frame without being mutated.
type Tree interface {
	// RelativeTransform returns the transform mapping coordinates in the
	// "from" node's space into the "to" node's space. The second result is
	// false if the two nodes are not connected by an invertible chain of
	// transforms.
	RelativeTransform(from, to NodeIndex) (geom.Matrix, bool)

	// WorldTransform returns the transform from the node's space to world
	// space.
	WorldTransform(node NodeIndex) geom.Matrix
}

// mapperKind describes how a SpaceMapper carries rectangles.
type mapperKind uint8

const (
	mapperIdentity mapperKind = iota
	mapperScaleOffset
	mapperTransform
)

// SpaceMapper maps rectangles from a source space to a fixed reference
// space. Retargeting an existing mapper with SetTarget is cheap when
// consecutive primitives share a spatial node, which is why primitives are
// grouped into clusters.
type SpaceMapper struct {
	ref    NodeIndex
	target NodeIndex
	bounds geom.Rect // Conservative bounds in the reference space.

	kind   mapperKind
	matrix geom.Matrix
	valid  bool
}

// NewSpaceMapper creates a mapper targeting the given node, with the given
// conservative bounds in the reference space.
func NewSpaceMapper(ref, target NodeIndex, bounds geom.Rect, tree Tree) *SpaceMapper {
	m := &SpaceMapper{ref: ref, bounds: bounds}
	m.SetTarget(target, tree)
	return m
}

// SetTarget retargets the mapper to map from the given node's space into the
// reference space.
func (m *SpaceMapper) SetTarget(target NodeIndex, tree Tree) {
	m.target = target
	if target == m.ref {
		m.kind = mapperIdentity
		m.valid = true
		return
	}

	mat, ok := tree.RelativeTransform(target, m.ref)
	if !ok {
		m.valid = false
		return
	}
	m.matrix = mat
	m.valid = true
	if mat.IsScaleOffset() {
		m.kind = mapperScaleOffset
	} else {
		m.kind = mapperTransform
	}
}

// Ref returns the reference node the mapper maps into.
func (m *SpaceMapper) Ref() NodeIndex {
	return m.ref
}

// Bounds returns the conservative bounds in the reference space.
func (m *SpaceMapper) Bounds() geom.Rect {
	return m.bounds
}

// MapRect maps a rectangle from the target space into the reference space.
// The second result is false when the mapping is degenerate (the transform
// collapses the plane), in which case no rectangle can meaningfully be
// produced.
func (m *SpaceMapper) MapRect(r geom.Rect) (geom.Rect, bool) {
	if !m.valid {
		return geom.Rect{}, false
	}
	switch m.kind {
	case mapperIdentity:
		return r, true
	default:
		if !m.matrix.IsInvertible() {
			return geom.Rect{}, false
		}
		return m.matrix.TransformRect(r), true
	}
}

// UnmapRect maps a rectangle from the reference space back into the target
// space. The second result is false when the transform is not invertible.
func (m *SpaceMapper) UnmapRect(r geom.Rect) (geom.Rect, bool) {
	if !m.valid {
		return geom.Rect{}, false
	}
	if m.kind == mapperIdentity {
		return r, true
	}
	inv, ok := m.matrix.Invert()
	if !ok {
		return geom.Rect{}, false
	}
	return inv.TransformRect(r), true
}

// VisibleRect unmaps the given reference-space rectangle into the target
// space, falling back to the conservative bounds when the transform cannot
// be inverted.
func (m *SpaceMapper) VisibleRect(refRect geom.Rect) (geom.Rect, bool) {
	if r, ok := m.UnmapRect(refRect); ok {
		return r, true
	}
	return m.UnmapRect(m.bounds)
}
