package sceneprep

import (
	"github.com/go-text/typesetting/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/sceneprep/geom"
	"github.com/gogpu/sceneprep/gpucache"
	"github.com/gogpu/sceneprep/spatial"
)

// GlyphKey identifies one rasterized glyph in the resource cache: the
// glyph id plus its subpixel offset under the raster-space transform,
// quantized to quarter pixels so nearby positions share a rasterization.
type GlyphKey struct {
	GID      font.GID
	Subpixel fixed.Point26_6
}

// subpixelQuantum is a quarter pixel in 26.6 fixed point.
const subpixelQuantum = 16

// prepareTextRun requests the run's glyphs from the resource cache under
// the current raster transform and refreshes the run's GPU data, emitting
// glyphs in visual order.
func prepareTextRun(
	data *TextRunData,
	inst *Instance,
	primNode spatial.NodeIndex,
	picCtx *PictureContext,
	fc *FrameContext,
	fs *FrameState,
	deviceScale float64,
) {
	// The glyph transform must match the one the text shader applies: it
	// positions glyphs in the rasterizing space of the surface.
	transform, ok := fc.SpatialTree.RelativeTransform(primNode, picCtx.RasterSpatialNode)
	if !ok {
		transform = geom.Identity()
	}
	primOffset := data.Common.PrimRect.Origin().Sub(data.ReferenceFrameOffset)

	keys := make([]GlyphKey, 0, len(data.Glyphs))
	for _, g := range data.Glyphs {
		device := transform.TransformPoint(g.Point.Add(primOffset)).Mul(deviceScale)
		keys = append(keys, GlyphKey{
			GID:      g.GID,
			Subpixel: quantizeSubpixel(device),
		})
	}
	fs.Resources.RequestGlyphs(data.Font, keys)

	chase(inst, "text run", "glyphs", len(keys), "font", data.Font.ID)

	updateTemplate(&data.Common, fs.GPUCache, func(req *gpucache.Request) {
		req.Push(data.Color)
		writeGlyphBlocks(req, data)
	})
}

// writeGlyphBlocks pushes one block per glyph in visual order. Right to
// left runs are stored in logical order and emitted reversed so the shader
// walks them as drawn.
func writeGlyphBlocks(req *gpucache.Request, data *TextRunData) {
	if data.Direction == bidi.RightToLeft {
		for i := len(data.Glyphs) - 1; i >= 0; i-- {
			g := data.Glyphs[i]
			req.Push([4]float32{
				float32(g.Point.X), float32(g.Point.Y),
				float32(g.GID), 0,
			})
		}
		return
	}
	for _, g := range data.Glyphs {
		req.Push([4]float32{
			float32(g.Point.X), float32(g.Point.Y),
			float32(g.GID), 0,
		})
	}
}

// quantizeSubpixel keeps the fractional part of a device position at
// quarter-pixel resolution.
func quantizeSubpixel(p geom.Point) fixed.Point26_6 {
	return fixed.Point26_6{
		X: quantizeFrac(p.X),
		Y: quantizeFrac(p.Y),
	}
}

func quantizeFrac(v float64) fixed.Int26_6 {
	frac := v - float64(int(v))
	if frac < 0 {
		frac++
	}
	q := fixed.Int26_6(frac * 64)
	return q - q%subpixelQuantum
}
