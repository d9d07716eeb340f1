// Package refcount provides a shared cell that keeps a resource alive on
// behalf of several holders and finalizes it exactly once, when the last
// holder releases it.
package refcount

import "sync"

// Cell owns a value together with a holder count. A new cell starts with one
// holder. Each derived object that needs the value alive takes its own
// reference with Acquire and gives it back with Release; the release that
// brings the count to zero runs the finalizer and returns its error. Cells
// cannot be revived: Acquire fails after finalization.
type Cell[T any] struct {
	mu       sync.Mutex
	refs     int
	value    T
	finalize func(T) error
}

// New wraps value in a cell with a single holder.
func New[T any](value T, finalize func(T) error) *Cell[T] {
	return &Cell[T]{refs: 1, value: value, finalize: finalize}
}

// Value returns the held resource. Only valid while the caller holds a
// reference.
func (c *Cell[T]) Value() T {
	return c.value
}

// Acquire registers one more holder. It reports false once the cell has
// already been finalized.
func (c *Cell[T]) Acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return false
	}
	c.refs++
	return true
}

// Release drops one holder. The final release runs the finalizer and hands
// its error to that releaser; earlier releases return nil. Releasing an
// already-finalized cell is a no-op.
func (c *Cell[T]) Release() error {
	c.mu.Lock()
	if c.refs == 0 {
		c.mu.Unlock()
		return nil
	}
	c.refs--
	last := c.refs == 0
	c.mu.Unlock()

	if last {
		return c.finalize(c.value)
	}
	return nil
}

// Refs reports the current holder count.
func (c *Cell[T]) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}
