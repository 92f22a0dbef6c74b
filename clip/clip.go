// Package clip defines the clip-chain contract between frame preparation and
// the clip store. The store itself (item interning, chain building) lives
// outside this module; preparation consumes chain instances and enumerates
// the items inside a chain when decomposing primitives into segments.
package clip

import (
	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/spatial"
)

// Mode controls whether a clip item keeps the inside or the outside of its
// shape.
type Mode uint8

const (
	// ModeClip keeps pixels inside the shape.
	ModeClip Mode = iota
	// ModeClipOut keeps pixels outside the shape.
	ModeClipOut
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeClip:
		return "Clip"
	case ModeClipOut:
		return "ClipOut"
	default:
		return "Unknown"
	}
}

// ItemKind identifies the shape of a clip item.
type ItemKind uint8

const (
	// KindRectangle is an axis-aligned rectangle clip.
	KindRectangle ItemKind = iota
	// KindRoundedRectangle is a rectangle clip with per-corner radii.
	KindRoundedRectangle
	// KindBoxShadow is the mask region of a blurred box shadow.
	KindBoxShadow
	// KindImageMask is a pixel-level mask image.
	KindImageMask
)

// String returns the name of the item kind.
func (k ItemKind) String() string {
	switch k {
	case KindRectangle:
		return "Rectangle"
	case KindRoundedRectangle:
		return "RoundedRectangle"
	case KindBoxShadow:
		return "BoxShadow"
	case KindImageMask:
		return "ImageMask"
	default:
		return "Unknown"
	}
}

// BorderRadius holds the per-corner ellipse radii of a rounded rectangle.
type BorderRadius struct {
	TopLeft     geom.Point
	TopRight    geom.Point
	BottomLeft  geom.Point
	BottomRight geom.Point
}

// IsZero returns true if all corner radii are zero.
func (r BorderRadius) IsZero() bool {
	zero := geom.Point{}
	return r.TopLeft == zero && r.TopRight == zero &&
		r.BottomLeft == zero && r.BottomRight == zero
}

// ShadowClipMode distinguishes inset from outset box shadows.
type ShadowClipMode uint8

const (
	// ShadowOutset shadows extend outward from the shadow rect.
	ShadowOutset ShadowClipMode = iota
	// ShadowInset shadows are confined to the inside of the shadow rect.
	ShadowInset
)

// Item is one clip constraint. Rect, Radius and Mode describe rectangle and
// rounded-rectangle clips; the Shadow fields describe box-shadow clips.
type Item struct {
	Kind   ItemKind
	Rect   geom.Rect
	Radius BorderRadius
	Mode   Mode

	// Box shadow clips only.
	ShadowRect      geom.Rect      // Region the blurred shadow can affect.
	ShadowAllocSize geom.Point     // Allocated size of the blur source.
	ShadowMode      ShadowClipMode // Inset or outset.

	// SpatialNode positions the clip. Clips positioned by a node other
	// than the primitive's defeat per-segment optimization.
	SpatialNode spatial.NodeIndex
}

// NodeFlags carries precomputed relationships between a clip item and the
// primitive the chain was built for.
type NodeFlags uint8

const (
	// FlagSameSpatialNode is set when the clip is positioned by the
	// primitive's own spatial node.
	FlagSameSpatialNode NodeFlags = 1 << iota
	// FlagSameCoordSystem is set when no rotation or perspective separates
	// the clip from the primitive.
	FlagSameCoordSystem
)

// ItemInstance is a clip item resolved against a particular primitive.
type ItemInstance struct {
	Item  Item
	Flags NodeFlags
}

// Range addresses a run of clip item instances inside the store.
type Range struct {
	Index int32
	Count int32
}

// ChainInstance is the result of resolving a primitive's clip chain: the
// ordered items that still apply, the aggregate footprints, and whether a
// GPU mask is required at all.
type ChainInstance struct {
	ClipsRange Range

	// PicClipRect is the aggregate clip rect in picture space.
	PicClipRect geom.Rect

	// CombinedLocalClipRect is the aggregate clip rect in the primitive's
	// local space.
	CombinedLocalClipRect geom.Rect

	// NeedsMask is true when at least one item cannot be expressed as a
	// plain rectangle intersection and requires a rasterized mask.
	NeedsMask bool

	// HasNonLocalClips is true when any item is positioned by a spatial
	// node other than the primitive's.
	HasNonLocalClips bool
}

// Store is the contract to the external clip store.
type Store interface {
	// SetActiveClips primes the store with the items of an existing chain
	// so that BuildClipChainInstance can re-evaluate them against a
	// different (usually smaller) rect.
	SetActiveClips(chain *ChainInstance, prim spatial.NodeIndex, tree spatial.Tree)

	// BuildClipChainInstance resolves the active clips against the given
	// local-space rect. It returns nil when the rect is fully clipped.
	BuildClipChainInstance(
		localRect geom.Rect,
		mapLocalToPic *spatial.SpaceMapper,
		mapPicToWorld *spatial.SpaceMapper,
		dirtyWorldRect geom.Rect,
		deviceScale float64,
	) *ChainInstance

	// Instance returns the i-th clip item of a range.
	Instance(rng Range, i int32) ItemInstance
}
