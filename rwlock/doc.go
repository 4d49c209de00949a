// Package rwlock provides a generic reader/writer lock that owns the value it
// protects.
//
// An RWLock[V] hands out scoped guards instead of exposing Lock/Unlock pairs:
//
//	l := rwlock.New(map[string]int{})
//
//	r := l.Read()
//	n := r.Value()["hits"]
//	r.Release()
//
//	w := l.Write()
//	(*w.Value())["hits"] = n + 1
//	w.Release()
//
// Three acquisition modes are supported. Shared (Read) access may be held by any
// number of readers. Exclusive (Write) access excludes everyone else. Upgradeable
// (UpgradableRead) access coexists with plain readers, excludes writers and other
// upgradeable readers, and can be promoted to exclusive access without releasing
// the lock, so a check made under the upgradeable guard is still valid after the
// promotion.
//
// Every mode comes in two scheduling variants with identical semantics. The
// blocking methods (Read, Write, UpgradableRead) park the calling goroutine until
// the lock is available and cannot fail. The context-aware methods (ReadContext,
// WriteContext, UpgradableReadContext, UpgradeGuard.UpgradeContext) are
// cancellable suspension points: when the context is done the waiter leaves the
// queue, the next waiter advances and the lock state is unchanged.
//
// Waiters are served in FIFO order. A queued writer blocks readers that arrive
// after it, including while it waits behind an upgradeable holder, so a steady
// stream of readers cannot starve writers.
//
// The lock is not re-entrant. Acquiring it again from a goroutine that already
// holds a conflicting guard deadlocks; this is a caller obligation and is not
// detected.
package rwlock
