// FILE: lixenwraith/lazy/filecell/watch.go
package filecell

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// EventKind classifies a watcher notification
type EventKind string

const (
	// EventChanged reports that the file changed and loaded successfully
	EventChanged EventKind = "changed"
	// EventDeleted reports that the file disappeared. The cached value is kept.
	EventDeleted EventKind = "deleted"
	// EventPermissions reports a group/world permission change. No reload is done for it.
	EventPermissions EventKind = "permissions_changed"
	// EventReloadError reports a failed load after a change. The cell stays unset.
	EventReloadError EventKind = "reload_error"
	// EventReloadTimeout reports a load that outlived WatchOptions.ReloadTimeout
	EventReloadTimeout EventKind = "reload_timeout"
)

// Event is sent to Watch subscribers
type Event struct {
	Kind EventKind
	Path string
	Err  error // set for EventReloadError
}

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum MinPollInterval)
	PollInterval time.Duration

	// Debounce duration to coalesce rapid writes into one reload
	Debounce time.Duration

	// MaxWatchers limits concurrent subscription channels
	MaxWatchers int

	// ReloadTimeout bounds a single reload
	ReloadTimeout time.Duration

	// VerifyPermissions reports group/world permission changes instead of reloading
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

func (o WatchOptions) normalized() WatchOptions {
	if o.PollInterval < MinPollInterval {
		o.PollInterval = MinPollInterval
	}
	if o.Debounce < 0 {
		o.Debounce = 0
	}
	if o.MaxWatchers <= 0 {
		o.MaxWatchers = DefaultMaxWatchers
	}
	if o.ReloadTimeout <= 0 {
		o.ReloadTimeout = DefaultReloadTimeout
	}
	return o
}

// watcher polls one file and reloads its cell on change
type watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	filePath         string
	reload           func() error
	logger           *log.Logger
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	missing          bool
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	watchers         map[int64]chan Event
	watcherID        atomic.Int64
	debounceTimer    *time.Timer
}

func newWatcher(path string, opts WatchOptions, reload func() error, logger *log.Logger) *watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts.normalized(),
		filePath: path,
		reload:   reload,
		logger:   logger,
		watchers: make(map[int64]chan Event),
	}
	w.recordLocked()
	w.watching.Store(true)
	return w
}

// writeQuietly runs write with polling paused and records its result as seen,
// so the watcher does not report a change made by the cell itself.
func (w *watcher) writeQuietly(write func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := write()
	w.recordLocked()
	return err
}

// recordLocked stores the current file state as already handled
func (w *watcher) recordLocked() {
	info, err := os.Stat(w.filePath)
	if err != nil {
		w.missing = errors.Is(err, os.ErrNotExist)
		return
	}
	w.missing = false
	w.lastModTime = info.ModTime()
	w.lastSize = info.Size()
	w.lastMode = info.Mode()
}

// watchLoop is the main file watching loop
func (w *watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload checks if file changed and schedules a debounced reload
func (w *watcher) checkAndReload() {
	w.mu.Lock()
	ev, changed := w.detectLocked()
	if changed {
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
	}
	w.mu.Unlock()

	if ev != nil {
		w.notifyWatchers(*ev)
	}
}

// detectLocked compares the file against the recorded state and records the
// new one. It returns an event to send, or whether a reload is due.
func (w *watcher) detectLocked() (*Event, bool) {
	info, err := os.Stat(w.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || w.missing {
			return nil, false
		}
		w.missing = true
		w.lastModTime = time.Time{}
		w.lastSize = 0
		return &Event{Kind: EventDeleted, Path: w.filePath}, false
	}
	w.missing = false

	if w.opts.VerifyPermissions && w.lastMode != 0 && (info.Mode()&0077) != (w.lastMode&0077) {
		w.lastMode = info.Mode()
		return &Event{Kind: EventPermissions, Path: w.filePath}, false
	}

	if info.ModTime().Equal(w.lastModTime) && info.Size() == w.lastSize {
		return nil, false
	}

	w.lastModTime = info.ModTime()
	w.lastSize = info.Size()
	w.lastMode = info.Mode()
	return nil, true
}

// performReload clears and reloads the cell, bounded by ReloadTimeout
func (w *watcher) performReload() {
	if w.ctx.Err() != nil {
		return
	}
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.reload()
	}()

	select {
	case err := <-done:
		if err != nil {
			if w.logger != nil {
				w.logger.Warn("config reload failed", "path", w.filePath, "err", err)
			}
			w.notifyWatchers(Event{Kind: EventReloadError, Path: w.filePath, Err: err})
			return
		}
		if w.logger != nil {
			w.logger.Info("config reloaded", "path", w.filePath)
		}
		w.notifyWatchers(Event{Kind: EventChanged, Path: w.filePath})

	case <-ctx.Done():
		if w.ctx.Err() != nil {
			return
		}
		w.notifyWatchers(Event{Kind: EventReloadTimeout, Path: w.filePath})
	}
}

// subscribe creates a new subscription channel
func (w *watcher) subscribe() <-chan Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Closed channel once the limit is reached
	if len(w.watchers) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, 10)
	id := w.watcherID.Add(1)
	w.watchers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.watchers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notifyWatchers sends ev to every subscriber without blocking
func (w *watcher) notifyWatchers(ev Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.watchers {
		select {
		case ch <- ev:
		default:
			// full, drop
		}
	}
}

func (w *watcher) count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.watchers)
}

// stop terminates the watcher
func (w *watcher) stop() {
	w.cancel()

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}
