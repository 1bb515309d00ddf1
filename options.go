package reactagent

import (
	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/model"
)

// RunOptions carries the entry contract of a single run. Zero values fall
// back to the agent's defaults.
type RunOptions struct {
	// NewMessages are appended to the assembled context and persisted
	// (possibly empty).
	NewMessages []core.Message
	// ThreadID names the conversation. Required when a store is configured.
	ThreadID string
	// PreviousMessageID is an explicit resume point. Empty means continue
	// from the thread head.
	PreviousMessageID string
	// Stream requests incrementally streamed model output re-emitted as
	// partial-text events.
	Stream bool
	// MaxIterations overrides the per-run iteration budget.
	MaxIterations int
	// HistoryWindowSize overrides how many prior messages are loaded.
	HistoryWindowSize int
	// ToolPayload is the opaque per-run payload handed to tool invocations
	// and the system prompt provider.
	ToolPayload map[string]any
	// ModelOptions overrides the model-options bundle for this run.
	ModelOptions *model.Options
}

// RunOption mutates RunOptions.
type RunOption func(*RunOptions)

// WithNewMessages sets the new input messages for the run.
func WithNewMessages(messages ...core.Message) RunOption {
	return func(o *RunOptions) { o.NewMessages = append(o.NewMessages, messages...) }
}

// WithUserMessage appends a plain text user message to the run input.
func WithUserMessage(text string) RunOption {
	return func(o *RunOptions) { o.NewMessages = append(o.NewMessages, core.NewUserMessage(text)) }
}

// WithThreadID names the thread the run operates on.
func WithThreadID(threadID string) RunOption {
	return func(o *RunOptions) { o.ThreadID = threadID }
}

// WithPreviousMessageID resumes the run from an explicit message id instead
// of the thread head, creating a new branch off the shared prefix.
func WithPreviousMessageID(id string) RunOption {
	return func(o *RunOptions) { o.PreviousMessageID = id }
}

// WithStream toggles incremental streaming of model output.
func WithStream(stream bool) RunOption {
	return func(o *RunOptions) { o.Stream = stream }
}

// WithMaxIterations overrides the iteration budget for this run.
func WithMaxIterations(n int) RunOption {
	return func(o *RunOptions) { o.MaxIterations = n }
}

// WithHistoryWindowSize overrides the context-assembly window for this run.
func WithHistoryWindowSize(n int) RunOption {
	return func(o *RunOptions) { o.HistoryWindowSize = n }
}

// WithToolPayload attaches the opaque per-run payload visible to tools and
// the system prompt provider.
func WithToolPayload(payload map[string]any) RunOption {
	return func(o *RunOptions) { o.ToolPayload = payload }
}

// WithModelOptions overrides the model-options bundle for this run.
func WithModelOptions(opts *model.Options) RunOption {
	return func(o *RunOptions) { o.ModelOptions = opts }
}
