package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/logging"
	"github.com/x3bits/go-react-agent/model"
)

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// Registry is the default Executor: a name-indexed set of Tools executed
// sequentially in call order. Tool errors are encoded into the result payload
// so the model can observe and recover from them; only structural failures
// (unknown tool) abort the run.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger logging.Logger
}

// NewRegistry constructs an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{tools: make(map[string]Tool), logger: opts.Logger}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Definitions exposes the registered tools to the model in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Kind: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute implements Executor. One ToolResultMessage is produced per call,
// each carrying a single response, in call order.
func (r *Registry) Execute(ctx context.Context, calls []core.ToolCall, toolCtx *Context) ([]core.ToolResultMessage, error) {
	results := make([]core.ToolResultMessage, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, ok := r.tools[call.Name]
		if !ok {
			return nil, &ExecutionError{Tool: call.Name, Message: "tool not registered"}
		}

		args := map[string]any{}
		var data string
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				data = encodeError(fmt.Errorf("invalid arguments: %w", err))
			}
		}

		if data == "" {
			callScoped := &Context{ThreadID: toolCtxThreadID(toolCtx), CallID: call.ID, Payload: toolCtxPayload(toolCtx)}
			start := time.Now()
			result, err := t.Call(ctx, callScoped, args)
			r.logger.Info("tool executed",
				"tool", call.Name, "call_id", call.ID,
				"duration_ms", time.Since(start).Milliseconds(), "error", err != nil)
			if err != nil {
				data = encodeError(err)
			} else {
				data = encodeResult(result)
			}
		}

		results = append(results, core.ToolResultMessage{
			Responses: []core.ToolResponse{{CallID: call.ID, Name: call.Name, Data: data}},
		})
	}
	return results, nil
}

func toolCtxThreadID(tc *Context) string {
	if tc == nil {
		return ""
	}
	return tc.ThreadID
}

func toolCtxPayload(tc *Context) map[string]any {
	if tc == nil {
		return nil
	}
	return tc.Payload
}

func encodeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

func encodeError(err error) string {
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}
