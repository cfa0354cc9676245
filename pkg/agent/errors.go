package agent

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks turn input that cannot be coerced into a valid
// pipeline run, such as a missing user question. It is the only error class
// RunTurn surfaces to its caller.
var ErrInvariantViolation = errors.New("pipeline invariant violation")

// TransientError wraps a provider failure that is worth retrying, such as a
// rate limit or a network fault. Stages retry these with bounded backoff and
// fail closed once retries exhaust.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient provider failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError wraps provider output that does not match the
// expected structured schema. Handled by defaulting, never by guessing.
type MalformedResponseError struct {
	Op  string
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed provider response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
