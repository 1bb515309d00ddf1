// Package reactagent drives a bounded request/respond/act loop against a
// language model: it alternates model invocation and tool execution, persists
// every conversational turn into a branching thread history, and streams
// progress events to the caller in real time. Most applications interact with
// this package by:
//  1. Creating an Agent via New() around a model.Invoker (optionally wiring a
//     branch store, a tool executor and a system prompt provider)
//  2. Starting runs with Agent.Run, ranging over the returned event channel
//  3. Resuming later runs from the thread head or any earlier message id
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable store implementation and a
// structured logger.
package reactagent

import (
	"context"
	"fmt"

	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/logging"
	"github.com/x3bits/go-react-agent/model"
	"github.com/x3bits/go-react-agent/tool"
)

// DefaultMaxIterations bounds the number of model invocations per run when
// the run request does not override it.
const DefaultMaxIterations = 25

// DefaultHistoryWindowSize bounds how many prior messages are loaded from the
// branch store when assembling the model context.
const DefaultHistoryWindowSize = 100

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Store persists branch items. Nil disables persistence; events are
	// still emitted with freshly generated item ids.
	Store core.BranchStore
	// Executor turns pending tool calls into tool results. Required when the
	// model is given tools.
	Executor tool.Executor
	// SystemPromptProvider, when set, prepends a system message to every
	// assembled context.
	SystemPromptProvider SystemPromptProvider
	// Logger receives structured engine logs.
	Logger logging.Logger
	// HistoryWindowSize bounds context assembly from the store.
	HistoryWindowSize int
	// EventBufferSize sets channel buffering for emitted events.
	EventBufferSize int
	// MaxIterations is the default per-run iteration budget.
	MaxIterations int
	// ModelOptions is the default model-options bundle for invocations.
	ModelOptions *model.Options
}

// Agent executes runs against a model invoker. An Agent is immutable after
// construction and safe for concurrent runs; every run operates on
// independently owned state.
type Agent struct {
	invoker  model.Invoker
	store    core.BranchStore
	executor tool.Executor
	prompts  SystemPromptProvider
	logger   logging.Logger

	historyWindowSize int
	eventBufferSize   int
	maxIterations     int
	modelOptions      *model.Options
}

// New constructs an Agent around the given invoker with optional overrides.
func New(invoker model.Invoker, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Logger:            logging.NoOpLogger{},
		HistoryWindowSize: DefaultHistoryWindowSize,
		EventBufferSize:   100,
		MaxIterations:     DefaultMaxIterations,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		invoker:           invoker,
		store:             opts.Store,
		executor:          opts.Executor,
		prompts:           opts.SystemPromptProvider,
		logger:            opts.Logger,
		historyWindowSize: opts.HistoryWindowSize,
		eventBufferSize:   opts.EventBufferSize,
		maxIterations:     opts.MaxIterations,
		modelOptions:      opts.ModelOptions,
	}
}

// BranchMessages returns every item ever saved under the thread in insertion
// order. It fails when the agent was built without a branch store.
func (a *Agent) BranchMessages(ctx context.Context, threadID string) ([]core.BranchItem, error) {
	if a.store == nil {
		return nil, fmt.Errorf("%w: no branch store configured, messages were not saved", core.ErrInvalidArgument)
	}
	return a.store.AllMessages(ctx, threadID)
}
