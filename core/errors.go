package core

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument signals a malformed request rejected before any side
// effect (missing thread id, nil item, and similar).
var ErrInvalidArgument = errors.New("invalid argument")

// MaxIterationsError terminates a run whose iteration budget is exhausted
// while the model still requests tools. It is terminal but not a corruption:
// the triggering assistant turn is already persisted, so a later run resumes
// by executing its pending tool calls first.
type MaxIterationsError struct {
	Max int
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("max iterations %d reached", e.Max)
}

// ModelInvocationError wraps a failure of the model invoker. It aborts the
// run; no further items are persisted beyond what already completed.
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// ToolExecutionError wraps a failure of the tool executor, aborting the run
// under the same rule as ModelInvocationError. Executors may instead encode a
// tool business-error as a result payload; the engine does not distinguish
// tool business-errors from success at this layer.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool %s execution failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool execution failed: %v", e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure. The engine surfaces it to the
// caller immediately and never retries; retry policy, if any, belongs to the
// store implementation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
