// FILE: lixenwraith/lazy/async.go
package lazy

import "context"

// AsyncCell is a lazy value whose operations are cancellable suspension points.
// The builder receives the context of the caller that triggers it and may
// itself block on other work; the cell stays exclusively held meanwhile, so
// other callers queue behind it.
//
// Errors returned by AsyncCell operations are either the builder's own error
// or a lock acquisition error wrapping ctx.Err().
type AsyncCell[T any] struct {
	c *cell[T]
}

// NewAsync creates an unset cell with an infallible context-aware builder.
func NewAsync[T any](build func(ctx context.Context) T, opts ...Option) *AsyncCell[T] {
	var fn func(context.Context) (T, error)
	if build != nil {
		fn = func(ctx context.Context) (T, error) {
			return build(ctx), nil
		}
	}
	return &AsyncCell[T]{c: newCell(fn, opts)}
}

// NewAsyncTry creates an unset cell with a fallible context-aware builder.
func NewAsyncTry[T any](build func(ctx context.Context) (T, error), opts ...Option) *AsyncCell[T] {
	return &AsyncCell[T]{c: newCell(build, opts)}
}

// NewAsyncWithValue creates a cell that starts set to v. build may be nil.
func NewAsyncWithValue[T any](v T, build func(ctx context.Context) (T, error), opts ...Option) *AsyncCell[T] {
	return &AsyncCell[T]{c: newCellWithValue(v, build, opts)}
}

// Get returns the value, running the builder if the cell is unset.
func (c *AsyncCell[T]) Get(ctx context.Context) (T, error) {
	return c.c.get(ctx)
}

// View returns a read view, running the builder if the cell is unset.
func (c *AsyncCell[T]) View(ctx context.Context) (*ReadView[T], error) {
	return c.c.view(ctx)
}

// GetMut returns an exclusive write view, running the builder if the cell is unset.
func (c *AsyncCell[T]) GetMut(ctx context.Context) (*WriteView[T], error) {
	return c.c.getMut(ctx)
}

// Set stores v and marks the cell set without running the builder.
func (c *AsyncCell[T]) Set(ctx context.Context, v T) error {
	return c.c.set(ctx, v)
}

// Clear unsets the cell, returning the previous value if there was one.
func (c *AsyncCell[T]) Clear(ctx context.Context) (T, bool, error) {
	return c.c.clear(ctx)
}

// Has reports whether the cell is set. It never runs or waits for the builder.
func (c *AsyncCell[T]) Has() bool {
	return c.c.has()
}

// Peek returns the value if the cell is set, without running the builder.
func (c *AsyncCell[T]) Peek(ctx context.Context) (T, bool, error) {
	return c.c.peek(ctx)
}

// Stats returns usage counters.
func (c *AsyncCell[T]) Stats() Stats {
	return c.c.stats.snapshot()
}
