// FILE: lixenwraith/lazy/cell.go
package lazy

import (
	"context"
	"sync/atomic"

	"github.com/lixenwraith/lazy/rwlock"
)

// slot is the lock-protected part of a cell.
type slot[T any] struct {
	value T
	set   bool
}

// cell is the state machine shared by every public cell type.
// All blocking operations take a context; blocking cells pass context.Background.
type cell[T any] struct {
	lock  *rwlock.RWLock[slot[T]]
	build func(ctx context.Context) (T, error) // nil for value-only cells

	// isSet mirrors slot.set so Has never waits on the lock.
	// It is only written while the exclusive hold is taken.
	isSet atomic.Bool

	opts  options
	stats counters
}

func newCell[T any](build func(context.Context) (T, error), opts []Option) *cell[T] {
	return &cell[T]{
		lock:  rwlock.New(slot[T]{}),
		build: build,
		opts:  buildOptions(opts),
	}
}

func newCellWithValue[T any](v T, build func(context.Context) (T, error), opts []Option) *cell[T] {
	c := &cell[T]{
		lock:  rwlock.New(slot[T]{value: v, set: true}),
		build: build,
		opts:  buildOptions(opts),
	}
	c.isSet.Store(true)
	return c
}

// get returns the value, running the builder if the cell is unset.
func (c *cell[T]) get(ctx context.Context) (T, error) {
	if v, ok, err := c.peek(ctx); err != nil || ok {
		return v, err
	}
	return c.getSlow(ctx)
}

// getSlow takes the upgradeable hold, re-checks and, if still unset,
// promotes and fills the slot.
func (c *cell[T]) getSlow(ctx context.Context) (T, error) {
	var zero T

	u, err := c.lock.UpgradableReadContext(ctx)
	if err != nil {
		return zero, err
	}
	defer u.Release()

	if s := u.Value(); s.set {
		return s.value, nil
	}

	w, err := u.UpgradeContext(ctx)
	if err != nil {
		return zero, err
	}
	defer w.Release()

	return c.fill(ctx, w)
}

// fill runs the builder under the exclusive hold w unless the slot is already set.
// The slot only changes after the builder returns successfully.
func (c *cell[T]) fill(ctx context.Context, w *rwlock.WriteGuard[slot[T]]) (T, error) {
	var zero T

	s := w.Value()
	if s.set {
		return s.value, nil
	}

	if c.build == nil {
		return zero, ErrNoBuilder
	}

	c.stats.builds.Add(1)
	v, err := c.build(ctx)
	if err != nil {
		c.stats.failures.Add(1)
		return zero, err
	}

	s.value, s.set = v, true
	c.isSet.Store(true)
	c.debug("value built")

	return v, nil
}

// view returns a read view over a set slot, building first if needed.
func (c *cell[T]) view(ctx context.Context) (*ReadView[T], error) {
	for {
		r, err := c.lock.ReadContext(ctx)
		if err != nil {
			return nil, err
		}
		if r.Value().set {
			return &ReadView[T]{g: r}, nil
		}
		r.Release()

		// A Clear may land between the build and the next read; loop until
		// a read observes a set slot.
		if _, err := c.getSlow(ctx); err != nil {
			return nil, err
		}
	}
}

// getMut returns a write view over a set slot, building first if needed.
func (c *cell[T]) getMut(ctx context.Context) (*WriteView[T], error) {
	w, err := c.lock.WriteContext(ctx)
	if err != nil {
		return nil, err
	}

	filled := false
	defer func() {
		if !filled {
			w.Release()
		}
	}()

	if _, err := c.fill(ctx, w); err != nil {
		return nil, err
	}
	filled = true

	return &WriteView[T]{g: w}, nil
}

// set stores v without consulting the builder.
func (c *cell[T]) set(ctx context.Context, v T) error {
	w, err := c.lock.WriteContext(ctx)
	if err != nil {
		return err
	}
	defer w.Release()

	w.Set(slot[T]{value: v, set: true})
	c.isSet.Store(true)
	c.stats.sets.Add(1)
	c.debug("value set")

	return nil
}

// clear empties the slot and returns the previous value, starting a new era.
func (c *cell[T]) clear(ctx context.Context) (T, bool, error) {
	var zero T

	w, err := c.lock.WriteContext(ctx)
	if err != nil {
		return zero, false, err
	}
	defer w.Release()

	old := *w.Value()
	if !old.set {
		return zero, false, nil
	}

	w.Set(slot[T]{})
	c.isSet.Store(false)
	c.stats.clears.Add(1)
	c.debug("value cleared")

	return old.value, true, nil
}

// peek returns the value if set, never running the builder.
func (c *cell[T]) peek(ctx context.Context) (T, bool, error) {
	r, err := c.lock.ReadContext(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	defer r.Release()

	s := r.Value()
	return s.value, s.set, nil
}

func (c *cell[T]) has() bool {
	return c.isSet.Load()
}

func (c *cell[T]) debug(msg string) {
	if c.opts.logger != nil {
		c.opts.logger.Debug(msg, "cell", c.opts.name)
	}
}

// background is the context used by the blocking cell types. Operations
// under it cannot fail for lock reasons.
func background() context.Context {
	return context.Background()
}
