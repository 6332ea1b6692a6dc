// Package navigation tracks the user's position in the catalog.
package navigation

import (
	"sync"

	serr "imgsort/internal/errors"
)

// Prefetcher is told about every cursor move. *prefetch.Scheduler
// implements it.
type Prefetcher interface {
	SetPriorityIndex(i int)
	EvictOutsideWindow(cursor int)
}

// Cursor is the current index into a catalog of fixed length. Only user
// actions move it.
type Cursor struct {
	mu       sync.Mutex
	length   int
	index    int
	prefetch Prefetcher
}

// New creates a cursor at index 0 over length entries. Nothing is
// prefetched until the first move.
func New(length int, p Prefetcher) *Cursor {
	return &Cursor{length: length, prefetch: p}
}

// Len returns the catalog length the cursor navigates.
func (c *Cursor) Len() int {
	return c.length
}

// Index returns the current index, or false when the catalog is empty.
func (c *Cursor) Index() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.length == 0 {
		return 0, false
	}
	return c.index, true
}

// MoveTo jumps to i. Out of range indices, including any index on an empty
// catalog, are rejected with an IndexError and leave the cursor unchanged.
func (c *Cursor) MoveTo(i int) error {
	if i < 0 || i >= c.length {
		return serr.NewIndexError(i, c.length)
	}
	c.set(i)
	return nil
}

// Next moves one entry forward. At the last entry it does nothing.
func (c *Cursor) Next() (int, bool) {
	return c.step(1)
}

// Prev moves one entry back. At index 0 it does nothing.
func (c *Cursor) Prev() (int, bool) {
	return c.step(-1)
}

// First moves to index 0.
func (c *Cursor) First() (int, bool) {
	if c.length == 0 {
		return 0, false
	}
	c.set(0)
	return 0, true
}

// Last moves to the last index.
func (c *Cursor) Last() (int, bool) {
	if c.length == 0 {
		return 0, false
	}
	c.set(c.length - 1)
	return c.length - 1, true
}

// step moves by delta, clamped to the catalog. It reports the resulting
// index and whether the cursor moved.
func (c *Cursor) step(delta int) (int, bool) {
	c.mu.Lock()
	if c.length == 0 {
		c.mu.Unlock()
		return 0, false
	}
	i := min(max(c.index+delta, 0), c.length-1)
	if i == c.index {
		c.mu.Unlock()
		return i, false
	}
	c.index = i
	c.mu.Unlock()

	c.notify(i)
	return i, true
}

func (c *Cursor) set(i int) {
	c.mu.Lock()
	c.index = i
	c.mu.Unlock()
	c.notify(i)
}

func (c *Cursor) notify(i int) {
	if c.prefetch == nil {
		return
	}
	c.prefetch.SetPriorityIndex(i)
	c.prefetch.EvictOutsideWindow(i)
}
