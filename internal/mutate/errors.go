package mutate

import "fmt"

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvariantViolationError reports a payload that would break the block list's shape
// (e.g. a reorder that is not a permutation of the existing ids).
type InvariantViolationError struct {
	Op     string
	Reason string
}

func (e InvariantViolationError) Error() string {
	if e.Op == "" {
		return "invariant violation: " + e.Reason
	}
	return fmt.Sprintf("%s: invariant violation: %s", e.Op, e.Reason)
}

func violation(op, format string, args ...any) error {
	return InvariantViolationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
