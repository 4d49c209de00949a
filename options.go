package lazy

import (
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// ErrNoBuilder is returned when an unset cell has no builder to compute a value.
// Only cells constructed with a value and a nil builder can reach this state,
// by being cleared.
var ErrNoBuilder = errors.New("lazy: cell is unset and has no builder")

// Option configures a cell at construction.
type Option func(*options)

type options struct {
	name   string
	logger *log.Logger
}

// WithName labels the cell in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger enables debug logging of state transitions (built, set, cleared).
// Builder errors are never logged; they are returned to the caller.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Stats reports how a cell has been used since construction.
type Stats struct {
	Builds   int64 // builder invocations, successful or not
	Failures int64 // builder invocations that returned an error
	Sets     int64 // direct writes
	Clears   int64 // clears of a set cell
}

type counters struct {
	builds   atomic.Int64
	failures atomic.Int64
	sets     atomic.Int64
	clears   atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Builds:   c.builds.Load(),
		Failures: c.failures.Load(),
		Sets:     c.sets.Load(),
		Clears:   c.clears.Load(),
	}
}
