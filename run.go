package reactagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/model"
	"github.com/x3bits/go-react-agent/tool"
)

// Run starts an asynchronous run and returns its event channel plus an error
// channel. The event channel delivers ItemPersisted and PartialText events in
// order; both channels are closed when the run terminates. A terminal failure
// (ModelInvocationError, ToolExecutionError, MaxIterationsError, StoreError)
// is delivered on the error channel before it closes. Cancelling ctx stops
// further model and tool invocation promptly; items persisted before
// cancellation remain valid history.
func (a *Agent) Run(ctx context.Context, optFns ...RunOption) (<-chan core.Event, <-chan error) {
	opts := RunOptions{
		MaxIterations:     a.maxIterations,
		HistoryWindowSize: a.historyWindowSize,
		ModelOptions:      a.modelOptions,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	events := make(chan core.Event, a.eventBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)
		if err := a.run(ctx, &opts, events); err != nil {
			a.logger.Error("run failed", "thread_id", opts.ThreadID, "error", err)
			errs <- err
		}
	}()

	return events, errs
}

// run executes the state machine: context assembly, resume check, new-input
// persistence, then alternating model invocation and tool execution until the
// model stops requesting tools or the iteration budget is exhausted.
func (a *Agent) run(ctx context.Context, opts *RunOptions, events chan<- core.Event) error {
	if a.store != nil && opts.ThreadID == "" {
		return fmt.Errorf("%w: thread id is required when a branch store is configured", core.ErrInvalidArgument)
	}

	a.logger.Debug("run started",
		"thread_id", opts.ThreadID, "stream", opts.Stream,
		"max_iterations", opts.MaxIterations, "new_messages", len(opts.NewMessages))

	// Step 1: context assembly.
	var messages []core.Message
	if a.prompts != nil {
		text, err := a.prompts.SystemPrompt(opts.ToolPayload)
		if err != nil {
			return fmt.Errorf("system prompt provider: %w", err)
		}
		messages = append(messages, core.NewSystemMessage(text))
	}
	if a.store != nil {
		history, err := a.store.LatestMessages(ctx, opts.ThreadID, opts.HistoryWindowSize, opts.PreviousMessageID)
		if err != nil {
			return err
		}
		messages = append(messages, history...)
	}
	messages = append(messages, opts.NewMessages...)

	// Resolve the chain-off point before persisting anything, so resume tool
	// results and new input both extend the current head (or the explicit
	// resume point).
	previousID := opts.PreviousMessageID
	if a.store != nil && previousID == "" {
		head, err := a.store.LatestMessageID(ctx, opts.ThreadID)
		if err != nil {
			return err
		}
		previousID = head
	}

	toolCtx := &tool.Context{ThreadID: opts.ThreadID, Payload: opts.ToolPayload}

	// Step 2: resume check. A prior run may have been interrupted after
	// persisting an assistant turn but before executing its tools.
	if len(messages) > 0 {
		if last, ok := messages[len(messages)-1].(core.AssistantMessage); ok {
			if !last.HasToolCalls() {
				// History already ends on a completed turn and there is no
				// new input to act on.
				return nil
			}
			a.logger.Info("resuming interrupted tool execution",
				"thread_id", opts.ThreadID, "pending_calls", len(last.ToolCalls))
			results, err := a.executeTools(ctx, last.ToolCalls, toolCtx)
			if err != nil {
				return err
			}
			for _, res := range results {
				previousID, err = a.saveAndEmit(ctx, opts.ThreadID, res, previousID, events)
				if err != nil {
					return err
				}
				messages = append(messages, res)
			}
		}
	}

	// Step 3: persist new input chained off the current head.
	for _, msg := range opts.NewMessages {
		var err error
		previousID, err = a.saveAndEmit(ctx, opts.ThreadID, msg, previousID, events)
		if err != nil {
			return err
		}
	}

	// Steps 4-6: invoke, persist, execute tools, repeat.
	iterLeft := opts.MaxIterations
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		turn, err := a.invokeModel(ctx, messages, opts, events)
		if err != nil {
			return err
		}
		iterLeft--

		previousID, err = a.saveAndEmit(ctx, opts.ThreadID, turn, previousID, events)
		if err != nil {
			return err
		}
		messages = append(messages, turn)

		if !turn.HasToolCalls() {
			a.logger.Debug("run completed", "thread_id", opts.ThreadID, "iterations", opts.MaxIterations-iterLeft)
			return nil
		}
		if iterLeft <= 0 {
			// The triggering assistant turn is already persisted; a later run
			// picks up its pending tool calls via the resume check.
			return &core.MaxIterationsError{Max: opts.MaxIterations}
		}

		results, err := a.executeTools(ctx, turn.ToolCalls, toolCtx)
		if err != nil {
			return err
		}
		for _, res := range results {
			previousID, err = a.saveAndEmit(ctx, opts.ThreadID, res, previousID, events)
			if err != nil {
				return err
			}
			messages = append(messages, res)
		}
	}
}

// invokeModel drains one invoker generation. Partial fragments are re-emitted
// as partial-text events and accumulated; a non-partial fragment is taken as
// the authoritative complete turn.
func (a *Agent) invokeModel(ctx context.Context, messages []core.Message, opts *RunOptions, events chan<- core.Event) (core.AssistantMessage, error) {
	req := model.Request{Messages: messages, Stream: opts.Stream, Options: opts.ModelOptions}
	if a.executor != nil {
		if d, ok := a.executor.(interface{ Definitions() []model.ToolDefinition }); ok {
			req.Tools = d.Definitions()
		}
	}

	respCh, errCh := a.invoker.Generate(ctx, req)

	var accumulated strings.Builder
	var calls []core.ToolCall
	var final *model.Response

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.AssistantMessage{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				f := r
				final = &f
				continue
			}
			if r.Text != "" {
				accumulated.WriteString(r.Text)
				if err := a.emit(ctx, events, core.PartialTextEvent{Text: r.Text}); err != nil {
					return core.AssistantMessage{}, err
				}
			}
			if len(r.ToolCalls) > 0 {
				calls = mergeToolCalls(calls, r.ToolCalls)
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.AssistantMessage{}, &core.ModelInvocationError{Err: err}
			}
		}
	}

	if final != nil {
		return core.AssistantMessage{Text: final.Text, ToolCalls: final.ToolCalls}, nil
	}
	return core.AssistantMessage{Text: accumulated.String(), ToolCalls: calls}, nil
}

// executeTools delegates to the configured executor and enforces the
// one-result-per-call, same-order contract.
func (a *Agent) executeTools(ctx context.Context, calls []core.ToolCall, toolCtx *tool.Context) ([]core.ToolResultMessage, error) {
	if a.executor == nil {
		return nil, &core.ToolExecutionError{Err: fmt.Errorf("no tool executor configured")}
	}
	results, err := a.executor.Execute(ctx, calls, toolCtx)
	if err != nil {
		return nil, &core.ToolExecutionError{Err: err}
	}
	if len(results) != len(calls) {
		return nil, &core.ToolExecutionError{
			Err: fmt.Errorf("executor returned %d results for %d calls", len(results), len(calls)),
		}
	}
	return results, nil
}

// saveAndEmit persists one message as a fresh branch item (when a store is
// configured), emits its ItemPersisted event, and returns the new item id as
// the next chain-off point.
func (a *Agent) saveAndEmit(ctx context.Context, threadID string, msg core.Message, previousID string, events chan<- core.Event) (string, error) {
	item := core.NewBranchItem(msg, previousID)
	if a.store != nil {
		if err := a.store.Save(ctx, threadID, item); err != nil {
			return "", err
		}
	}
	if err := a.emit(ctx, events, core.ItemPersistedEvent{ID: item.ID, Message: item.Message}); err != nil {
		return "", err
	}
	return item.ID, nil
}

func (a *Agent) emit(ctx context.Context, events chan<- core.Event, ev core.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case events <- ev:
		return nil
	}
}

// mergeToolCalls folds streaming tool-call deltas into the accumulated set:
// a delta sharing an id replaces the earlier aggregate, new ids append.
func mergeToolCalls(existing, deltas []core.ToolCall) []core.ToolCall {
	for _, d := range deltas {
		replaced := false
		if d.ID != "" {
			for i := range existing {
				if existing[i].ID == d.ID {
					existing[i] = d
					replaced = true
					break
				}
			}
		}
		if !replaced {
			existing = append(existing, d)
		}
	}
	return existing
}
