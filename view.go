package lazy

import "github.com/lixenwraith/lazy/rwlock"

// ReadView is a shared hold on a set cell. Other read views may coexist with
// it; writers wait until it is released.
type ReadView[T any] struct {
	g *rwlock.ReadGuard[slot[T]]
}

// Value returns the cell's value.
func (v *ReadView[T]) Value() T {
	return v.g.Value().value
}

// Release ends the view. Extra calls are no-ops.
func (v *ReadView[T]) Release() {
	v.g.Release()
}

// WriteView is an exclusive hold on a set cell. No other view or operation
// on the cell proceeds until it is released.
type WriteView[T any] struct {
	g *rwlock.WriteGuard[slot[T]]
}

// Value returns a pointer to the cell's value, valid until Release.
// Mutations through it are visible to every caller that acquires the cell afterwards.
func (v *WriteView[T]) Value() *T {
	return &v.g.Value().value
}

// Release ends the view. Extra calls are no-ops.
func (v *WriteView[T]) Release() {
	v.g.Release()
}
