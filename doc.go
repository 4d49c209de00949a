// FILE: lixenwraith/lazy/doc.go

// Package lazy provides lazy, concurrency-safe value cells: containers that
// compute a value on first demand exactly once, hand out read and write views
// guarded by a reader/writer lock, and can be cleared so the next read computes
// the value again.
//
// Features:
//   - At most one successful builder invocation per era (construction or Clear
//     up to the next Clear), no matter how many goroutines call Get at once
//   - Fallible builders whose failures are returned, never cached, and retried
//     by the next caller
//   - Direct writes (Set) that bypass the builder
//   - A predicate (Has) that never triggers or waits for a computation
//   - Blocking cells (Cell, TryCell) and context-aware cells (AsyncCell) built
//     on one state machine
//
// Quick Start:
//
//	type Profile struct {
//	    Name     string
//	    Greeting *lazy.Cell[string]
//	}
//
//	p := &Profile{Name: "ada"}
//	p.Greeting = lazy.New(func() string {
//	    return "hello, " + p.Name
//	})
//
//	fmt.Println(p.Greeting.Get()) // builder runs here, once
//	p.Greeting.Clear()            // next Get runs the builder again
//
// Builders that need sibling fields close over a read-only reference to the
// owning record, as above. The cell never holds a back-reference of its own.
//
// Scheduling:
// Cell and TryCell block the calling goroutine while waiting for the lock.
// AsyncCell takes a context.Context on every blocking operation; waiting is a
// cancellable suspension point, and the builder receives the caller's context.
// A caller cancelled while queued leaves the queue without touching the cell.
// The exclusive hold is kept for the whole builder call, so concurrent callers
// wait for the result instead of racing a second computation.
//
// Views:
// View and GetMut return guards that keep the lock held until Release.
// Read views may coexist; a write view excludes every other access. Calling
// any operation of a cell while holding one of its write views deadlocks.
package lazy
