package rwlock

import (
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock indicates a bounded acquisition could not obtain the lock.
	ErrWouldBlock = errors.New("rwlock: would block")

	// ErrTimeout indicates a timed acquisition expired. It wraps [ErrWouldBlock].
	ErrTimeout = fmt.Errorf("%w: timeout", ErrWouldBlock)
)
