// Package tool implements the function / tool calling subsystem that lets the
// engine invoke structured capabilities (APIs, computations, side effects)
// with JSON-schema described arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/x3bits/go-react-agent/core"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with decoded arguments and the per-run Context.
	Call(ctx context.Context, toolCtx *Context, args map[string]any) (any, error)
}

// Context carries per-run information into tool invocations: the opaque
// payload supplied on the run request, the thread being operated on and the
// id of the call being answered.
type Context struct {
	ThreadID string
	CallID   string
	Payload  map[string]any
}

// Executor turns a batch of pending tool calls into tool-result items.
// Implementations must return exactly one result message per incoming call,
// in the same order the calls were issued. A returned error aborts the run;
// tool business-errors should instead be encoded into the result payload.
type Executor interface {
	Execute(ctx context.Context, calls []core.ToolCall, toolCtx *Context) ([]core.ToolResultMessage, error)
}

// ExecutionError reports a failure the executor could not encode as a result
// payload, such as a call referencing an unregistered tool.
type ExecutionError struct {
	Tool    string
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool executor: %s: %s", e.Tool, e.Message)
}
