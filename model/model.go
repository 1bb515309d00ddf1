// Package model defines the invoker abstraction the engine drives for
// language model generation, normalized across providers. Concrete adapters
// live in subpackages (openai, anthropic); MockInvoker serves tests and
// examples.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/x3bits/go-react-agent/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Kind     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Options bundles per-invocation generation parameters. A nil Options on a
// Request leaves the adapter's defaults in effect.
type Options struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// Request captures the normalized model input produced by the engine.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
	Options  *Options         `json:"options,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) fragment emitted by an invoker.
//
// Partial fragments carry incremental Text and/or tool-call deltas; the
// engine accumulates them and synthesizes one assistant turn once the
// sequence drains. A non-partial fragment carries a complete turn and is
// authoritative over any accumulation.
type Response struct {
	Partial      bool            `json:"partial"`
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about an invoker implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Invoker is the minimal interface the engine requires to drive generation.
// Generate returns a fragment channel and an error channel; both are closed
// when the invocation completes. An error delivered on the error channel
// terminates the invocation.
type Invoker interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the invoker implementation.
	Info() Info
}

// MockInvoker is a lightweight in-memory Invoker useful for tests & examples.
// Turns are consumed in the order they were enqueued; when the queue is empty
// it echoes the last user message.
type MockInvoker struct {
	info  Info
	turns []Response
	err   error
	calls int
}

// NewMockInvoker constructs a MockInvoker with tool support enabled.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		info: Info{Name: "mock-model", Provider: "mock", SupportsTools: true},
	}
}

// EnqueueText registers a plain assistant text turn.
func (m *MockInvoker) EnqueueText(text string) {
	m.turns = append(m.turns, Response{Text: text, FinishReason: "stop"})
}

// EnqueueToolCalls registers an assistant turn requesting the given tool calls.
func (m *MockInvoker) EnqueueToolCalls(text string, calls ...core.ToolCall) {
	m.turns = append(m.turns, Response{Text: text, ToolCalls: calls, FinishReason: "tool_calls"})
}

// FailWith makes every subsequent Generate call deliver err.
func (m *MockInvoker) FailWith(err error) { m.err = err }

// Calls reports how many times Generate was invoked.
func (m *MockInvoker) Calls() int { return m.calls }

// Generate implements Invoker; in streaming mode it emits rune-sized partial
// text fragments followed by a final turn.
func (m *MockInvoker) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.calls++
	var turn Response
	switch {
	case m.err != nil:
		turn = Response{}
	case len(m.turns) > 0:
		turn = m.turns[0]
		m.turns = m.turns[1:]
	default:
		turn = Response{Text: fmt.Sprintf("Mock response to: %s", lastUserText(req.Messages)), FinishReason: "stop"}
	}

	go func() {
		defer close(respCh)
		defer close(errCh)
		if m.err != nil {
			errCh <- m.err
			return
		}
		if req.Stream {
			for _, r := range turn.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
			if len(turn.ToolCalls) > 0 {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, ToolCalls: turn.ToolCalls}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- turn:
		}
	}()

	return respCh, errCh
}

// Info implements Invoker.
func (m *MockInvoker) Info() Info { return m.info }

func lastUserText(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if um, ok := messages[i].(core.UserMessage); ok {
			return strings.TrimSpace(um.Text)
		}
	}
	return ""
}
