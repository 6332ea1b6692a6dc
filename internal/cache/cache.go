// Package cache keeps decoded image buffers for the entries around the
// navigation cursor.
package cache

import (
	"image"
	"sync"

	"imgsort/pkg/types"
)

// Buffers is a decoded image. A published Buffers value is never mutated;
// updates replace the whole value.
type Buffers struct {
	Full  image.Image // scaled to the display box, nil when only the thumbnail is kept
	Thumb image.Image
	Dim   types.Dim // dimensions of the source image after orientation
}

// HasFull reports whether the full image is present.
func (b *Buffers) HasFull() bool {
	return b != nil && b.Full != nil
}

// HasThumb reports whether the thumbnail is present.
func (b *Buffers) HasThumb() bool {
	return b != nil && b.Thumb != nil
}

// Cache maps catalog paths to decoded buffers. Workers write to it and the
// UI reads and evicts; all access goes through one RWMutex and entries are
// swapped as whole pointers.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Buffers
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*Buffers)}
}

// Get returns the buffers for path. A miss returns false and never blocks
// on a pending load.
func (c *Cache) Get(path string) (*Buffers, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[path]
	return b, ok
}

// Put publishes a complete decode result for path.
func (c *Cache) Put(path string, full, thumb image.Image, dim types.Dim) {
	if full == nil && thumb == nil {
		return
	}
	b := &Buffers{Full: full, Thumb: thumb, Dim: dim}
	c.mu.Lock()
	c.entries[path] = b
	c.mu.Unlock()
}

// PutThumb publishes a thumbnail for path, keeping an existing full image.
func (c *Cache) PutThumb(path string, thumb image.Image, dim types.Dim) {
	if thumb == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[path]; ok && old.Full != nil {
		c.entries[path] = &Buffers{Full: old.Full, Thumb: thumb, Dim: old.Dim}
		return
	}
	c.entries[path] = &Buffers{Thumb: thumb, Dim: dim}
}

// EvictOutsideWindow drops full images whose index is farther than radius
// from cursor and thumbnails farther than thumbRadius. Paths indexOf does
// not know are dropped entirely. It returns the paths that lost their full
// image.
func (c *Cache) EvictOutsideWindow(cursor, radius, thumbRadius int, indexOf func(path string) (int, bool)) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted []string
	for path, b := range c.entries {
		i, ok := indexOf(path)
		if !ok {
			delete(c.entries, path)
			if b.Full != nil {
				evicted = append(evicted, path)
			}
			continue
		}

		d := distance(i, cursor)
		switch {
		case d > thumbRadius && d > radius:
			delete(c.entries, path)
			if b.Full != nil {
				evicted = append(evicted, path)
			}
		case d > radius && b.Full != nil:
			if b.Thumb == nil {
				delete(c.entries, path)
			} else {
				c.entries[path] = &Buffers{Thumb: b.Thumb, Dim: b.Dim}
			}
			evicted = append(evicted, path)
		case d > thumbRadius && b.Thumb != nil:
			if b.Full == nil {
				delete(c.entries, path)
			} else {
				c.entries[path] = &Buffers{Full: b.Full, Dim: b.Dim}
			}
		}
	}
	return evicted
}

// Remove drops path from the cache.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*Buffers)
	c.mu.Unlock()
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats counts cached full images and thumbnails.
func (c *Cache) Stats() (full, thumbs int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.entries {
		if b.Full != nil {
			full++
		}
		if b.Thumb != nil {
			thumbs++
		}
	}
	return full, thumbs
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
