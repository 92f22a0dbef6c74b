package task

import "fmt"

// Handle refers to one cache entry. Handles stay valid across frames for as
// long as the entry is retained; the task id behind a handle is only valid
// within the frame the task was built in.
type Handle int32

// InvalidHandle marks an unset cache handle.
const InvalidHandle Handle = -1

// retainedGenerations is how many frame generations an unused entry
// survives before eviction.
const retainedGenerations = 2

type cacheEntry struct {
	key      CacheKey
	id       ID // Task id, valid when builtGen == current generation.
	builtGen uint64
	usedGen  uint64
	live     bool
}

// Cache is the content-addressed render-task cache: each key maps to at
// most one live render task per frame generation. Requesting an existing
// key returns its handle without invoking the build callback again.
//
// Cache entries persist across frames (the cached artifact lives in the
// texture cache); the per-frame task is only rebuilt when the key is first
// seen or was evicted.
type Cache struct {
	generation uint64
	entries    []cacheEntry
	index      map[CacheKey]Handle
	free       []Handle

	// builds counts build callbacks, for tests and diagnostics.
	builds uint64
}

// NewCache returns an empty render-task cache.
func NewCache() *Cache {
	return &Cache{
		generation: 1,
		index:      make(map[CacheKey]Handle),
	}
}

// BeginFrame advances the frame generation and evicts entries that have not
// been requested for several generations.
func (c *Cache) BeginFrame() {
	c.generation++
	for i := range c.entries {
		e := &c.entries[i]
		if !e.live {
			continue
		}
		if e.usedGen+retainedGenerations < c.generation {
			delete(c.index, e.key)
			e.live = false
			c.free = append(c.free, Handle(i))
		}
	}
}

// RequestRenderTask returns the handle for the given key, invoking build to
// allocate a new render task only if the key has no live entry. Within one
// frame generation the build callback runs at most once per key.
func (c *Cache) RequestRenderTask(key CacheKey, g *Graph, build func(*Graph) ID) Handle {
	if h, ok := c.index[key]; ok {
		e := &c.entries[h]
		e.usedGen = c.generation
		return h
	}

	id := build(g)
	if id == InvalidID {
		panic("task: cache build callback returned an invalid task id")
	}
	c.builds++

	var h Handle
	if n := len(c.free); n > 0 {
		h = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		h = Handle(len(c.entries))
		c.entries = append(c.entries, cacheEntry{})
	}
	c.entries[h] = cacheEntry{
		key:      key,
		id:       id,
		builtGen: c.generation,
		usedGen:  c.generation,
		live:     true,
	}
	c.index[key] = h
	return h
}

// TaskID returns the render task behind a handle, or InvalidID if no task
// was built for it this frame (the cached artifact is still resident from a
// previous frame).
func (c *Cache) TaskID(h Handle) ID {
	e := c.entry(h)
	if e.builtGen != c.generation {
		return InvalidID
	}
	return e.id
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return len(c.index)
}

// Builds returns the number of build callbacks invoked so far.
func (c *Cache) Builds() uint64 {
	return c.builds
}

func (c *Cache) entry(h Handle) *cacheEntry {
	if h < 0 || int(h) >= len(c.entries) || !c.entries[h].live {
		panic(fmt.Sprintf("task: invalid cache handle %d", h))
	}
	return &c.entries[h]
}
