package rwlock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxReaders is the weight of the slot semaphore. A reader holds one slot and a
// writer holds all of them.
const maxReaders int64 = 1 << 30

// RWLock is a reader/writer lock protecting a value of type V.
// Create instances with [New]; the zero value is not usable.
type RWLock[V any] struct {
	// slots admits readers one unit at a time and writers at full weight.
	slots *semaphore.Weighted
	// intent is held by a writer or an upgradeable reader for the whole hold.
	// Writers and upgraders therefore never overlap, which is what makes
	// promotion atomic.
	intent *semaphore.Weighted
	// gate is held by a writer from arrival until it owns every slot. Readers
	// pass through it, so a queued writer holds back readers that arrive later
	// even while it waits behind an upgradeable holder.
	gate *semaphore.Weighted
	// writers counts writers between arrival and acquisition, for TryRead.
	writers atomic.Int32
	value   V
}

// New creates an unlocked [RWLock] holding v.
func New[V any](v V) *RWLock[V] {
	return &RWLock[V]{
		slots:  semaphore.NewWeighted(maxReaders),
		intent: semaphore.NewWeighted(1),
		gate:   semaphore.NewWeighted(1),
		value:  v,
	}
}

// Read acquires shared access, blocking while a writer holds or awaits the lock.
func (l *RWLock[V]) Read() *ReadGuard[V] {
	g, err := l.ReadContext(context.Background())
	must(err)
	return g
}

// ReadContext acquires shared access, suspending until it is available or ctx is done.
func (l *RWLock[V]) ReadContext(ctx context.Context) (*ReadGuard[V], error) {
	if err := l.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("rwlock: acquire read: %w", err)
	}
	defer l.gate.Release(1)

	if err := l.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("rwlock: acquire read: %w", err)
	}
	return &ReadGuard[V]{l: l}, nil
}

// TryRead acquires shared access only if it is immediately available.
func (l *RWLock[V]) TryRead() (*ReadGuard[V], bool) {
	if l.writers.Load() > 0 {
		return nil, false
	}
	if !l.slots.TryAcquire(1) {
		return nil, false
	}
	return &ReadGuard[V]{l: l}, true
}

// Write acquires exclusive access, blocking until no reader or writer holds the lock.
func (l *RWLock[V]) Write() *WriteGuard[V] {
	g, err := l.WriteContext(context.Background())
	must(err)
	return g
}

// WriteContext acquires exclusive access, suspending until it is available or ctx is done.
func (l *RWLock[V]) WriteContext(ctx context.Context) (*WriteGuard[V], error) {
	l.writers.Add(1)
	defer l.writers.Add(-1)

	if err := l.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("rwlock: acquire write: %w", err)
	}
	defer l.gate.Release(1)

	if err := l.intent.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("rwlock: acquire write: %w", err)
	}
	if err := l.slots.Acquire(ctx, maxReaders); err != nil {
		l.intent.Release(1)
		return nil, fmt.Errorf("rwlock: acquire write: %w", err)
	}
	return &WriteGuard[V]{l: l}, nil
}

// TryWrite acquires exclusive access only if it is immediately available.
func (l *RWLock[V]) TryWrite() (*WriteGuard[V], bool) {
	if !l.gate.TryAcquire(1) {
		return nil, false
	}
	defer l.gate.Release(1)

	if !l.intent.TryAcquire(1) {
		return nil, false
	}
	if !l.slots.TryAcquire(maxReaders) {
		l.intent.Release(1)
		return nil, false
	}
	return &WriteGuard[V]{l: l}, true
}

// WriteTimeout acquires exclusive access, waiting at most d.
// A non-positive d makes a single attempt and returns [ErrWouldBlock] on failure.
// On expiry the returned error matches both [ErrTimeout] and [ErrWouldBlock],
// and the lock state is unchanged.
func (l *RWLock[V]) WriteTimeout(d time.Duration) (*WriteGuard[V], error) {
	if d <= 0 {
		if g, ok := l.TryWrite(); ok {
			return g, nil
		}
		return nil, ErrWouldBlock
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	g, err := l.WriteContext(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, d)
		}
		return nil, err
	}
	return g, nil
}

// UpgradableRead acquires upgradeable shared access. It coexists with plain
// readers but excludes writers and other upgradeable readers.
func (l *RWLock[V]) UpgradableRead() *UpgradeGuard[V] {
	g, err := l.UpgradableReadContext(context.Background())
	must(err)
	return g
}

// UpgradableReadContext is the context-aware form of [RWLock.UpgradableRead].
func (l *RWLock[V]) UpgradableReadContext(ctx context.Context) (*UpgradeGuard[V], error) {
	if err := l.intent.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("rwlock: acquire upgradable read: %w", err)
	}
	if err := l.slots.Acquire(ctx, 1); err != nil {
		l.intent.Release(1)
		return nil, fmt.Errorf("rwlock: acquire upgradable read: %w", err)
	}
	return &UpgradeGuard[V]{l: l}, nil
}

// Load returns a copy of the protected value under shared access.
func (l *RWLock[V]) Load() V {
	g := l.Read()
	defer g.Release()
	return g.Value()
}

// Store replaces the protected value under exclusive access.
func (l *RWLock[V]) Store(v V) {
	g := l.Write()
	defer g.Release()
	g.Set(v)
}

// Update runs fn with exclusive access to the protected value.
func (l *RWLock[V]) Update(fn func(v *V)) {
	g := l.Write()
	defer g.Release()
	fn(g.Value())
}

// must panics on errors that cannot happen with a background context.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
