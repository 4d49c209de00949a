// FILE: lixenwraith/lazy/blocking.go
package lazy

import "context"

// Cell is a lazy value with an infallible builder. Operations block the
// calling goroutine while the cell is locked by someone else.
type Cell[T any] struct {
	c *cell[T]
}

// New creates an unset cell whose value is computed by build on first demand.
func New[T any](build func() T, opts ...Option) *Cell[T] {
	return &Cell[T]{c: newCell(infallible(build), opts)}
}

// NewWithValue creates a cell that starts set to v. build computes the value
// again after a Clear; it may be nil if the cell is never cleared.
func NewWithValue[T any](v T, build func() T, opts ...Option) *Cell[T] {
	return &Cell[T]{c: newCellWithValue(v, infallible(build), opts)}
}

// Get returns the value, running the builder if the cell is unset.
// Concurrent callers of an unset cell wait for a single builder call and all
// observe its result. Get panics with [ErrNoBuilder] if the cell is unset and
// has no builder.
func (c *Cell[T]) Get() T {
	v, err := c.c.get(background())
	mustGet(err)
	return v
}

// View is like Get but returns a read view that keeps the cell locked for
// shared access until released.
func (c *Cell[T]) View() *ReadView[T] {
	v, err := c.c.view(background())
	mustGet(err)
	return v
}

// GetMut is like Get but returns an exclusive write view. No other caller
// reads or writes the cell until the view is released.
func (c *Cell[T]) GetMut() *WriteView[T] {
	v, err := c.c.getMut(background())
	mustGet(err)
	return v
}

// Set stores v and marks the cell set without running the builder.
func (c *Cell[T]) Set(v T) {
	mustGet(c.c.set(background(), v))
}

// Clear unsets the cell, returning the previous value if there was one.
// The next Get runs the builder again.
func (c *Cell[T]) Clear() (T, bool) {
	v, ok, err := c.c.clear(background())
	mustGet(err)
	return v, ok
}

// Has reports whether the cell is set. It never runs or waits for the builder.
func (c *Cell[T]) Has() bool {
	return c.c.has()
}

// Peek returns the value if the cell is set, without running the builder.
func (c *Cell[T]) Peek() (T, bool) {
	v, ok, err := c.c.peek(background())
	mustGet(err)
	return v, ok
}

// Stats returns usage counters.
func (c *Cell[T]) Stats() Stats {
	return c.c.stats.snapshot()
}

// TryCell is a lazy value whose builder may fail. A failed build leaves the
// cell unset and is returned unchanged to the caller; the next Get tries again.
type TryCell[T any] struct {
	c *cell[T]
}

// NewTry creates an unset cell with a fallible builder.
func NewTry[T any](build func() (T, error), opts ...Option) *TryCell[T] {
	return &TryCell[T]{c: newCell(fallible(build), opts)}
}

// NewTryWithValue creates a cell that starts set to v. build may be nil.
func NewTryWithValue[T any](v T, build func() (T, error), opts ...Option) *TryCell[T] {
	return &TryCell[T]{c: newCellWithValue(v, fallible(build), opts)}
}

// Get returns the value, running the builder if the cell is unset.
func (c *TryCell[T]) Get() (T, error) {
	return c.c.get(background())
}

// View returns a read view, running the builder if the cell is unset.
func (c *TryCell[T]) View() (*ReadView[T], error) {
	return c.c.view(background())
}

// GetMut returns an exclusive write view, running the builder if the cell is unset.
func (c *TryCell[T]) GetMut() (*WriteView[T], error) {
	return c.c.getMut(background())
}

// Set stores v and marks the cell set without running the builder.
func (c *TryCell[T]) Set(v T) {
	mustGet(c.c.set(background(), v))
}

// Clear unsets the cell, returning the previous value if there was one.
func (c *TryCell[T]) Clear() (T, bool) {
	v, ok, err := c.c.clear(background())
	mustGet(err)
	return v, ok
}

// Has reports whether the cell is set. It never runs or waits for the builder.
func (c *TryCell[T]) Has() bool {
	return c.c.has()
}

// Peek returns the value if the cell is set, without running the builder.
func (c *TryCell[T]) Peek() (T, bool) {
	v, ok, err := c.c.peek(background())
	mustGet(err)
	return v, ok
}

// Stats returns usage counters.
func (c *TryCell[T]) Stats() Stats {
	return c.c.stats.snapshot()
}

func infallible[T any](build func() T) func(context.Context) (T, error) {
	if build == nil {
		return nil
	}
	return func(context.Context) (T, error) {
		return build(), nil
	}
}

func fallible[T any](build func() (T, error)) func(context.Context) (T, error) {
	if build == nil {
		return nil
	}
	return func(context.Context) (T, error) {
		return build()
	}
}

// mustGet panics on an error a blocking call has no way to return.
func mustGet(err error) {
	if err != nil {
		panic(err)
	}
}
