// FILE: lixenwraith/lazy/filecell/cell.go
package filecell

import (
	"fmt"
	"sync"

	"github.com/lixenwraith/lazy"
)

// Cell is a lazily loaded, file-backed value. It is safe for concurrent use.
type Cell[T any] struct {
	cell   *lazy.TryCell[T]
	loader *loader[T]
	name   string

	mu      sync.Mutex // guards watcher
	watcher *watcher
}

// Get returns the decoded value, loading the file if the cell is unset.
// A failed load is returned and not cached.
func (c *Cell[T]) Get() (T, error) {
	return c.cell.Get()
}

// Reload discards the cached value and loads the file again.
func (c *Cell[T]) Reload() (T, error) {
	c.cell.Clear()
	return c.cell.Get()
}

// Peek returns the cached value without loading.
func (c *Cell[T]) Peek() (T, bool) {
	return c.cell.Peek()
}

// Has reports whether a value is cached. It never loads.
func (c *Cell[T]) Has() bool {
	return c.cell.Has()
}

// Clear discards the cached value; the next Get loads the file.
func (c *Cell[T]) Clear() (T, bool) {
	return c.cell.Clear()
}

// Stats returns the underlying cell's counters. Builds counts file loads.
func (c *Cell[T]) Stats() lazy.Stats {
	return c.cell.Stats()
}

// Path returns the backing file path
func (c *Cell[T]) Path() string {
	return c.loader.path
}

// Store validates v, writes it to the backing file atomically and caches it.
// The file format is taken from the configured format, the extension, or the
// tag name, in that order. A running watcher does not report the write.
func (c *Cell[T]) Store(v T) error {
	for i, validate := range c.loader.validators {
		if err := validate(&v); err != nil {
			return fmt.Errorf("%w: validator %d: %w", ErrValidation, i, err)
		}
	}

	format := c.storeFormat()
	data, err := encode(v, format, c.loader.tagName)
	if err != nil {
		return fmt.Errorf("failed to encode config for '%s': %w", c.loader.path, err)
	}

	write := func() error {
		return atomicWriteFile(c.loader.path, data)
	}
	c.mu.Lock()
	w := c.watcher
	c.mu.Unlock()
	if w != nil {
		err = w.writeQuietly(write)
	} else {
		err = write()
	}
	if err != nil {
		return fmt.Errorf("failed to store config file '%s': %w", c.loader.path, err)
	}

	c.cell.Set(v)

	if c.loader.logger != nil {
		c.loader.logger.Debug("config stored", "name", c.name, "path", c.loader.path, "format", format)
	}
	return nil
}

func (c *Cell[T]) storeFormat() string {
	if c.loader.format != "" && c.loader.format != FormatAuto {
		return c.loader.format
	}
	if format := detectFileFormat(c.loader.path); format != "" {
		return format
	}
	switch c.loader.tagName {
	case FormatJSON, FormatYAML:
		return c.loader.tagName
	}
	return FormatTOML
}

// Watch starts polling the backing file, if not already running, and returns
// a subscription channel. On a change the cached value is discarded and the
// file is loaded again; the outcome is reported as an Event. opts apply only
// when this call starts the watcher.
//
// The channel is closed by StopWatch. It is buffered and never blocks the
// watcher, so a slow subscriber misses events.
func (c *Cell[T]) Watch(opts WatchOptions) <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		c.watcher = newWatcher(c.loader.path, opts, c.reload, c.loader.logger)
		go c.watcher.watchLoop()
	}
	return c.watcher.subscribe()
}

// StopWatch stops the watcher and closes every subscription channel.
func (c *Cell[T]) StopWatch() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		w.stop()
	}
}

// IsWatching reports whether the watcher is running
func (c *Cell[T]) IsWatching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcher != nil && c.watcher.watching.Load()
}

// WatcherCount returns the number of active subscriptions
func (c *Cell[T]) WatcherCount() int {
	c.mu.Lock()
	w := c.watcher
	c.mu.Unlock()

	if w == nil {
		return 0
	}
	return w.count()
}

func (c *Cell[T]) reload() error {
	_, err := c.Reload()
	return err
}
