package rwlock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ReadGuard is a scoped shared hold on an [RWLock].
// The value must not be used after Release.
type ReadGuard[V any] struct {
	l        *RWLock[V]
	released atomic.Bool
}

// Value returns the protected value.
func (g *ReadGuard[V]) Value() V {
	return g.l.value
}

// Release gives up the shared hold. Extra calls are no-ops.
func (g *ReadGuard[V]) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.l.slots.Release(1)
	}
}

// WriteGuard is a scoped exclusive hold on an [RWLock].
// Changes made through it become visible to holders that acquire the lock after Release.
type WriteGuard[V any] struct {
	l        *RWLock[V]
	released atomic.Bool
}

// Value returns a pointer to the protected value, valid until Release.
func (g *WriteGuard[V]) Value() *V {
	return &g.l.value
}

// Set replaces the protected value.
func (g *WriteGuard[V]) Set(v V) {
	g.l.value = v
}

// Release gives up the exclusive hold. Extra calls are no-ops.
func (g *WriteGuard[V]) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.l.slots.Release(maxReaders)
		g.l.intent.Release(1)
	}
}

// errUpgradeReleased is the panic value for promoting a released guard.
var errUpgradeReleased = errors.New("rwlock: upgrade of released guard")

// UpgradeGuard is a shared hold that can be promoted to exclusive without an
// intervening release.
type UpgradeGuard[V any] struct {
	l        *RWLock[V]
	released atomic.Bool
}

// Value returns the protected value.
func (g *UpgradeGuard[V]) Value() V {
	return g.l.value
}

// Upgrade promotes the hold to exclusive, blocking until the remaining readers
// leave. The guard is consumed; releasing it afterwards is a no-op.
func (g *UpgradeGuard[V]) Upgrade() *WriteGuard[V] {
	w, err := g.UpgradeContext(context.Background())
	must(err)
	return w
}

// UpgradeContext is the context-aware form of [UpgradeGuard.Upgrade].
// If ctx is done first the guard stays valid and must still be released.
func (g *UpgradeGuard[V]) UpgradeContext(ctx context.Context) (*WriteGuard[V], error) {
	if g.released.Load() {
		panic(errUpgradeReleased)
	}
	// Only plain readers can share the lock with us, and they never write,
	// so nothing can change between the caller's check and the promotion.
	if err := g.l.slots.Acquire(ctx, maxReaders-1); err != nil {
		return nil, fmt.Errorf("rwlock: upgrade: %w", err)
	}
	g.released.Store(true)
	return &WriteGuard[V]{l: g.l}, nil
}

// Release gives up the upgradeable hold. Extra calls are no-ops.
func (g *UpgradeGuard[V]) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.l.slots.Release(1)
		g.l.intent.Release(1)
	}
}
