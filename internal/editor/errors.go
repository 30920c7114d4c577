package editor

import (
	"errors"
	"fmt"
)

var (
	ErrNavigationCancelled = errors.New("navigation cancelled: unsaved changes")
	ErrNoLesson            = errors.New("no lesson open")
	ErrClosed              = errors.New("editing session closed")
)

// PersistenceError describes a remote write that did not go through.
// Permanent is set once the autosave pipeline stops retrying.
type PersistenceError struct {
	Op        string
	Attempts  int
	Permanent bool
	Err       error
}

func (e *PersistenceError) Error() string {
	state := "transient"
	if e.Permanent {
		state = "permanent"
	}
	return fmt.Sprintf("%s failed (%s, %d attempt(s)): %v", e.Op, state, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// isTransient treats errors that don't classify themselves as retryable.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return true
}
