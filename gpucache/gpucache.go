// Package gpucache is the per-frame GPU uniform-data write buffer. Callers
// hold a Handle per piece of GPU data; Request returns a write sink exactly
// once per frame per handle, so unchanged data is never re-serialized.
//
// The cache stores opaque 4-float blocks; their layout is a contract between
// the code that writes them and the shaders that read them.
package gpucache

import (
	"fmt"

	"github.com/gogpu/sceneprep/geom"
)

// Handle tracks whether a piece of GPU data is current for the active
// frame. The zero value is a fresh handle that has never been written.
type Handle struct {
	frame uint64
	addr  int32
	len   int32
}

// Cache owns the frame's GPU data blocks. It is single-writer: exactly one
// frame-building context writes to it per frame.
type Cache struct {
	frame  uint64
	blocks [][4]float32
}

// New returns an empty GPU cache.
func New() *Cache {
	// Frame ids start at 1 so that the zero Handle is always stale.
	return &Cache{frame: 1}
}

// BeginFrame starts a new frame. All handles become stale.
func (c *Cache) BeginFrame() {
	c.frame++
	c.blocks = c.blocks[:0]
}

// Request returns a write sink for the handle's data, or nil if the handle
// is already current this frame and needs no re-write.
func (c *Cache) Request(h *Handle) *Request {
	if h.frame == c.frame {
		return nil
	}
	h.frame = c.frame
	h.addr = int32(len(c.blocks))
	h.len = 0
	return &Request{cache: c, handle: h}
}

// Invalidate marks the handle stale so the next Request re-writes it, even
// within the same frame. Used when animated bindings change data that was
// already written.
func (c *Cache) Invalidate(h *Handle) {
	h.frame = 0
}

// Blocks returns the blocks written for a handle this frame. It panics if
// the handle is not current: reading stale data would silently render a
// corrupt frame.
func (c *Cache) Blocks(h Handle) [][4]float32 {
	if h.frame != c.frame {
		panic(fmt.Sprintf("gpucache: reading stale handle (frame %d, cache frame %d)", h.frame, c.frame))
	}
	return c.blocks[h.addr : h.addr+h.len]
}

// Len returns the number of blocks written this frame.
func (c *Cache) Len() int {
	return len(c.blocks)
}

// Request is an open write sink for one handle's data.
type Request struct {
	cache  *Cache
	handle *Handle
}

// Push appends one raw block.
func (r *Request) Push(block [4]float32) {
	r.cache.blocks = append(r.cache.blocks, block)
	r.handle.len++
}

// PushRect appends a rectangle as one block (x, y, w, h).
func (r *Request) PushRect(rect geom.Rect) {
	r.Push([4]float32{
		float32(rect.X),
		float32(rect.Y),
		float32(rect.W),
		float32(rect.H),
	})
}

// WriteSegment appends the blocks describing one brush segment: its local
// rect followed by per-segment extra data.
func (r *Request) WriteSegment(localRect geom.Rect, extra [4]float32) {
	r.PushRect(localRect)
	r.Push(extra)
}
