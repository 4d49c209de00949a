package filecell

import "time"

// Timing defaults for file watching and reloads.
const (
	SpinWaitInterval     = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinPollInterval      = 100 * time.Millisecond // Hard floor for file stat polling
	ShutdownTimeout      = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce      = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval  = time.Second            // Standard file monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for a reload
)

// DefaultMaxWatchers limits subscriber channels per cell.
const DefaultMaxWatchers = 100

// MaxValueSize bounds a single environment override.
const MaxValueSize = 1024 * 1024
