package rwlock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/lazy/rwlock"
)

// blockedFor is how long a goroutine must stay parked to count as blocked.
const blockedFor = 50 * time.Millisecond

func TestRWLock_SharedAccess(t *testing.T) {
	t.Parallel()

	l := rwlock.New(42)

	r1 := l.Read()
	r2, ok := l.TryRead()
	require.True(t, ok, "readers must share the lock")

	assert.Equal(t, 42, r1.Value())
	assert.Equal(t, 42, r2.Value())

	_, ok = l.TryWrite()
	assert.False(t, ok, "writer must wait for readers")

	r1.Release()
	r2.Release()

	w, ok := l.TryWrite()
	require.True(t, ok)
	w.Release()
}

func TestRWLock_WriterExcludes(t *testing.T) {
	t.Parallel()

	l := rwlock.New("a")
	w := l.Write()

	_, ok := l.TryRead()
	assert.False(t, ok)

	_, ok = l.TryWrite()
	assert.False(t, ok)

	done := make(chan string)
	go func() {
		r := l.Read()
		defer r.Release()
		done <- r.Value()
	}()

	select {
	case <-done:
		t.Fatal("reader acquired the lock while a writer held it")
	case <-time.After(blockedFor):
	}

	w.Set("b")
	w.Release()

	assert.Equal(t, "b", <-done, "reader must observe the write after release")
}

func TestRWLock_WriteTimeout(t *testing.T) {
	t.Parallel()

	t.Run("expires while reader holds", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		r := l.Read()
		defer r.Release()

		start := time.Now()
		g, err := l.WriteTimeout(20 * time.Millisecond)
		require.Error(t, err)
		assert.Nil(t, g)
		assert.ErrorIs(t, err, rwlock.ErrTimeout)
		assert.ErrorIs(t, err, rwlock.ErrWouldBlock)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

		// State is unchanged: readers are still admitted.
		r2, ok := l.TryRead()
		require.True(t, ok)
		r2.Release()
	})

	t.Run("zero duration tries once", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		w := l.Write()

		_, err := l.WriteTimeout(0)
		require.ErrorIs(t, err, rwlock.ErrWouldBlock)
		assert.NotErrorIs(t, err, rwlock.ErrTimeout)

		w.Release()

		g, err := l.WriteTimeout(0)
		require.NoError(t, err)
		g.Release()
	})

	t.Run("acquires when released in time", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		r := l.Read()

		time.AfterFunc(10*time.Millisecond, r.Release)

		g, err := l.WriteTimeout(time.Second)
		require.NoError(t, err)
		g.Set(7)
		g.Release()

		assert.Equal(t, 7, l.Load())
	})
}

func TestRWLock_Upgrade(t *testing.T) {
	t.Parallel()

	t.Run("coexists with readers", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(1)
		u := l.UpgradableRead()
		defer u.Release()

		r, ok := l.TryRead()
		require.True(t, ok)
		r.Release()
	})

	t.Run("excludes other upgraders", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(1)
		u := l.UpgradableRead()
		defer u.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := l.UpgradableReadContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("promotion is atomic", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		u := l.UpgradableRead()
		seen := u.Value()

		// A writer queued behind the upgradeable guard must not slip in
		// between the check and the promotion.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			l.Update(func(v *int) { *v *= 10 })
		}()

		select {
		case <-writerDone:
			t.Fatal("writer ran while upgradeable guard was held")
		case <-time.After(blockedFor):
		}

		w := u.Upgrade()
		w.Set(seen + 1)
		w.Release()

		<-writerDone
		assert.Equal(t, 10, l.Load())
	})

	t.Run("waits for readers", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		r := l.Read()
		u := l.UpgradableRead()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := u.UpgradeContext(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// The failed promotion leaves the guard usable.
		r.Release()
		w := u.Upgrade()
		w.Set(3)
		w.Release()
		u.Release()

		assert.Equal(t, 3, l.Load())
	})

	t.Run("upgrade of released guard panics", func(t *testing.T) {
		t.Parallel()

		l := rwlock.New(0)
		u := l.UpgradableRead()
		u.Release()

		assert.Panics(t, func() { u.Upgrade() })
	})
}

func TestRWLock_CancelAdvancesQueue(t *testing.T) {
	t.Parallel()

	l := rwlock.New(0)
	r := l.Read()

	ctx, cancel := context.WithCancel(context.Background())
	writerErr := make(chan error, 1)
	go func() {
		w, err := l.WriteContext(ctx)
		if err == nil {
			w.Release()
		}
		writerErr <- err
	}()

	// Give the writer time to queue, then queue a reader behind it.
	time.Sleep(blockedFor)

	readerDone := make(chan struct{})
	go func() {
		g := l.Read()
		g.Release()
		close(readerDone)
	}()

	select {
	case <-readerDone:
		t.Fatal("reader overtook a queued writer")
	case <-time.After(blockedFor):
	}

	cancel()

	err := <-writerErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	select {
	case <-readerDone:
	case <-time.After(time.Second):
		t.Fatal("queue did not advance after the writer was cancelled")
	}

	r.Release()

	w, ok := l.TryWrite()
	require.True(t, ok, "cancelled waiter must leave no hold behind")
	w.Release()
}

func TestRWLock_WriterQueuedBehindUpgraderBlocksReaders(t *testing.T) {
	t.Parallel()

	l := rwlock.New(0)
	u := l.UpgradableRead()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		l.Store(1)
	}()

	// Give the writer time to queue behind the upgradeable guard.
	time.Sleep(blockedFor)

	_, ok := l.TryRead()
	assert.False(t, ok, "reader admitted while a writer is queued")

	readerSaw := make(chan int, 1)
	go func() {
		readerSaw <- l.Load()
	}()

	select {
	case <-readerSaw:
		t.Fatal("reader overtook a writer queued behind an upgradeable guard")
	case <-time.After(blockedFor):
	}

	u.Release()

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer did not run after the upgradeable guard was released")
	}
	assert.Equal(t, 1, <-readerSaw, "the later reader observes the queued write")

	r, ok := l.TryRead()
	require.True(t, ok, "readers are admitted again once no writer is queued")
	r.Release()
}

func TestRWLock_ReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := rwlock.New(0)

	r := l.Read()
	r.Release()
	r.Release()

	w := l.Write()
	w.Release()
	w.Release()

	u := l.UpgradableRead()
	w = u.Upgrade()
	u.Release()
	w.Release()

	g, ok := l.TryWrite()
	require.True(t, ok)
	g.Release()
}

func TestRWLock_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	l := rwlock.New(0)

	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for range n {
		go func() {
			defer wg.Done()
			l.Update(func(v *int) { *v++ })
		}()
		go func() {
			defer wg.Done()
			_ = l.Load()
		}()
	}

	wg.Wait()

	assert.Equal(t, n, l.Load())

	l.Store(-1)
	assert.Equal(t, -1, l.Load())
}
