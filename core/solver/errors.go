package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLock is returned when a locked CRN cannot be honored.
	ErrInvalidLock = errors.New("invalid lock")
	// ErrTimeout is returned when the search is cancelled or runs past its deadline.
	ErrTimeout = errors.New("solve timed out")
)

// LockError describes why a locked CRN was rejected.
type LockError struct {
	CRN    string
	Reason string
}

func (e *LockError) Error() string { return fmt.Sprintf("invalid lock %s: %s", e.CRN, e.Reason) }

func (e *LockError) Unwrap() error { return ErrInvalidLock }
