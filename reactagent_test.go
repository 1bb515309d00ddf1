package reactagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/model"
	"github.com/x3bits/go-react-agent/store"
	"github.com/x3bits/go-react-agent/tool"
)

// echoTool answers every call with a fixed payload and records the contexts
// it was invoked with.
type echoTool struct {
	name     string
	result   any
	err      error
	contexts []*tool.Context
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echoes a fixed result" }

func (t *echoTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *echoTool) Call(_ context.Context, tc *tool.Context, _ map[string]any) (any, error) {
	t.contexts = append(t.contexts, tc)
	return t.result, t.err
}

func collectRun(t *testing.T, events <-chan core.Event, errs <-chan error) ([]core.Event, error) {
	t.Helper()
	var collected []core.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return collected, <-errs
			}
			collected = append(collected, ev)
		case <-timeout:
			t.Fatal("run did not finish in time")
			return nil, nil
		}
	}
}

func persistedMessages(events []core.Event) []core.Message {
	var msgs []core.Message
	for _, ev := range events {
		if pe, ok := ev.(core.ItemPersistedEvent); ok {
			msgs = append(msgs, pe.Message)
		}
	}
	return msgs
}

func TestRun_TextOnly(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.EnqueueText("Hello there")
	memStore := store.NewInMemoryStore()

	agent := New(invoker, func(o *Options) {
		o.Store = memStore
	})

	events, errs := agent.Run(context.Background(),
		WithThreadID("t1"),
		WithUserMessage("Hi"),
	)
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	msgs := persistedMessages(collected)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.UserMessage{Text: "Hi"}, msgs[0])
	assert.Equal(t, core.AssistantMessage{Text: "Hello there"}, msgs[1])
	assert.Equal(t, 1, invoker.Calls())

	// The final assistant item is the new thread head.
	head, err := memStore.LatestMessageID(context.Background(), "t1")
	require.NoError(t, err)
	last := collected[len(collected)-1].(core.ItemPersistedEvent)
	assert.Equal(t, last.ID, head)
}

func TestRun_ToolRoundTrip(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.EnqueueToolCalls("", core.ToolCall{ID: "call-1", Kind: "function", Name: "echo", Arguments: `{}`})
	invoker.EnqueueText("Done: 42")

	registry := tool.NewRegistry()
	echo := &echoTool{name: "echo", result: map[string]any{"answer": 42}}
	registry.Register(echo)

	memStore := store.NewInMemoryStore()
	agent := New(invoker, func(o *Options) {
		o.Store = memStore
		o.Executor = registry
	})

	events, errs := agent.Run(context.Background(),
		WithThreadID("t1"),
		WithUserMessage("What is the answer?"),
		WithToolPayload(map[string]any{"tenant": "acme"}),
	)
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	msgs := persistedMessages(collected)
	require.Len(t, msgs, 4)
	assert.Equal(t, core.MessageTypeUser, msgs[0].Type())
	assert.Equal(t, core.MessageTypeAssistant, msgs[1].Type())
	assert.Equal(t, core.MessageTypeTool, msgs[2].Type())
	assert.Equal(t, core.MessageTypeAssistant, msgs[3].Type())
	assert.Equal(t, 2, invoker.Calls())

	result := msgs[2].(core.ToolResultMessage)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "call-1", result.Responses[0].CallID)
	assert.JSONEq(t, `{"answer":42}`, result.Responses[0].Data)

	// The per-call tool context carries the thread id and opaque payload.
	require.Len(t, echo.contexts, 1)
	assert.Equal(t, "t1", echo.contexts[0].ThreadID)
	assert.Equal(t, "acme", echo.contexts[0].Payload["tenant"])

	// Every item chains off the previous one.
	items, err := memStore.AllMessages(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Empty(t, items[0].PreviousID)
	for i := 1; i < len(items); i++ {
		assert.Equal(t, items[i-1].ID, items[i].PreviousID)
	}
}

func TestRun_ResumesPendingToolCalls(t *testing.T) {
	memStore := store.NewInMemoryStore()
	ctx := context.Background()

	// Simulate a prior run interrupted after persisting an assistant turn
	// that still has pending tool calls.
	userItem := core.NewBranchItem(core.NewUserMessage("compute"), "")
	require.NoError(t, memStore.Save(ctx, "t1", userItem))
	pending := core.AssistantMessage{ToolCalls: []core.ToolCall{
		{ID: "call-9", Kind: "function", Name: "echo", Arguments: `{}`},
	}}
	assistantItem := core.NewBranchItem(pending, userItem.ID)
	require.NoError(t, memStore.Save(ctx, "t1", assistantItem))

	invoker := model.NewMockInvoker()
	invoker.EnqueueText("All finished")
	registry := tool.NewRegistry()
	registry.Register(&echoTool{name: "echo", result: "ok"})

	agent := New(invoker, func(o *Options) {
		o.Store = memStore
		o.Executor = registry
	})

	events, errs := agent.Run(ctx, WithThreadID("t1"))
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	msgs := persistedMessages(collected)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.MessageTypeTool, msgs[0].Type())
	assert.Equal(t, core.MessageTypeAssistant, msgs[1].Type())
	assert.Equal(t, 1, invoker.Calls())

	// The resumed tool result extends the chain from the interrupted turn
	// instead of starting a new root.
	items, err := memStore.AllMessages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, assistantItem.ID, items[2].PreviousID)
}

func TestRun_NoNewInputOnCompletedTurn(t *testing.T) {
	memStore := store.NewInMemoryStore()
	ctx := context.Background()

	userItem := core.NewBranchItem(core.NewUserMessage("hi"), "")
	require.NoError(t, memStore.Save(ctx, "t1", userItem))
	doneItem := core.NewBranchItem(core.AssistantMessage{Text: "hello"}, userItem.ID)
	require.NoError(t, memStore.Save(ctx, "t1", doneItem))

	invoker := model.NewMockInvoker()
	agent := New(invoker, func(o *Options) { o.Store = memStore })

	events, errs := agent.Run(ctx, WithThreadID("t1"))
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)
	assert.Empty(t, collected)
	assert.Equal(t, 0, invoker.Calls())
}

func TestRun_MaxIterations(t *testing.T) {
	invoker := model.NewMockInvoker()
	// Always request more tool work so the budget is the only stop condition.
	for i := 0; i < 5; i++ {
		invoker.EnqueueToolCalls("", core.ToolCall{ID: "c", Kind: "function", Name: "echo", Arguments: `{}`})
	}
	registry := tool.NewRegistry()
	registry.Register(&echoTool{name: "echo", result: "ok"})

	agent := New(invoker, func(o *Options) {
		o.Store = store.NewInMemoryStore()
		o.Executor = registry
	})

	events, errs := agent.Run(context.Background(),
		WithThreadID("t1"),
		WithUserMessage("loop"),
		WithMaxIterations(2),
	)
	collected, err := collectRun(t, events, errs)

	var maxErr *core.MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 2, maxErr.Max)
	assert.Equal(t, 2, invoker.Calls())

	// The budget is checked before executing the last turn's tools: the final
	// persisted item is the assistant turn holding the pending calls.
	msgs := persistedMessages(collected)
	last := msgs[len(msgs)-1].(core.AssistantMessage)
	assert.True(t, last.HasToolCalls())
}

func TestRun_StreamingEmitsPartialsBeforePersist(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.EnqueueText("abc")

	agent := New(invoker, func(o *Options) {
		o.Store = store.NewInMemoryStore()
	})

	events, errs := agent.Run(context.Background(),
		WithThreadID("t1"),
		WithUserMessage("stream please"),
		WithStream(true),
	)
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	var partials string
	assistantPersistedAt := -1
	for i, ev := range collected {
		switch e := ev.(type) {
		case core.PartialTextEvent:
			assert.Equal(t, -1, assistantPersistedAt, "partial arrived after the turn was persisted")
			partials += e.Text
		case core.ItemPersistedEvent:
			if e.Message.Type() == core.MessageTypeAssistant {
				assistantPersistedAt = i
			}
		}
	}
	assert.Equal(t, "abc", partials)
	require.GreaterOrEqual(t, assistantPersistedAt, 0)
	final := collected[assistantPersistedAt].(core.ItemPersistedEvent).Message.(core.AssistantMessage)
	assert.Equal(t, "abc", final.Text)
}

func TestRun_ModelFailure(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.FailWith(errors.New("upstream 500"))

	agent := New(invoker, func(o *Options) {
		o.Store = store.NewInMemoryStore()
	})

	events, errs := agent.Run(context.Background(),
		WithThreadID("t1"),
		WithUserMessage("hi"),
	)
	collected, err := collectRun(t, events, errs)

	var modelErr *core.ModelInvocationError
	require.ErrorAs(t, err, &modelErr)

	// The failed run still persisted the user input.
	msgs := persistedMessages(collected)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageTypeUser, msgs[0].Type())
}

func TestRun_RequiresThreadIDWithStore(t *testing.T) {
	agent := New(model.NewMockInvoker(), func(o *Options) {
		o.Store = store.NewInMemoryStore()
	})

	events, errs := agent.Run(context.Background(), WithUserMessage("hi"))
	_, err := collectRun(t, events, errs)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRun_StatelessWithoutStore(t *testing.T) {
	invoker := model.NewMockInvoker()
	invoker.EnqueueText("stateless reply")

	agent := New(invoker)
	events, errs := agent.Run(context.Background(), WithUserMessage("hi"))
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	// Events still carry fresh ids even though nothing was persisted.
	msgs := persistedMessages(collected)
	require.Len(t, msgs, 2)
	for _, ev := range collected {
		if pe, ok := ev.(core.ItemPersistedEvent); ok {
			assert.NotEmpty(t, pe.ID)
		}
	}
}

func TestRun_SystemPromptPrepended(t *testing.T) {
	var seen []core.Message
	invoker := &recordingInvoker{inner: model.NewMockInvoker(), onRequest: func(req model.Request) {
		seen = req.Messages
	}}

	agent := New(invoker, func(o *Options) {
		o.Store = store.NewInMemoryStore()
		o.SystemPromptProvider = NewFixedSystemPromptProvider("be terse")
	})

	events, errs := agent.Run(context.Background(), WithThreadID("t1"), WithUserMessage("hi"))
	_, err := collectRun(t, events, errs)
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, core.SystemMessage{Text: "be terse"}, seen[0])
}

func TestRun_FromEarlierMessageBranches(t *testing.T) {
	memStore := store.NewInMemoryStore()
	ctx := context.Background()

	u1 := core.NewBranchItem(core.NewUserMessage("first"), "")
	require.NoError(t, memStore.Save(ctx, "t1", u1))
	a1 := core.NewBranchItem(core.AssistantMessage{Text: "first reply"}, u1.ID)
	require.NoError(t, memStore.Save(ctx, "t1", a1))
	u2 := core.NewBranchItem(core.NewUserMessage("second"), a1.ID)
	require.NoError(t, memStore.Save(ctx, "t1", u2))
	a2 := core.NewBranchItem(core.AssistantMessage{Text: "second reply"}, u2.ID)
	require.NoError(t, memStore.Save(ctx, "t1", a2))

	invoker := model.NewMockInvoker()
	invoker.EnqueueText("branched reply")
	agent := New(invoker, func(o *Options) { o.Store = memStore })

	// Chain off a1 instead of the head, creating a sibling branch of u2.
	events, errs := agent.Run(ctx,
		WithThreadID("t1"),
		WithPreviousMessageID(a1.ID),
		WithUserMessage("alternative second"),
	)
	collected, err := collectRun(t, events, errs)
	require.NoError(t, err)

	msgs := persistedMessages(collected)
	require.Len(t, msgs, 2)

	items, err := memStore.AllMessages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, a1.ID, items[4].PreviousID)
	assert.Equal(t, items[4].ID, items[5].PreviousID)
}

// recordingInvoker wraps an Invoker to observe the request.
type recordingInvoker struct {
	inner     model.Invoker
	onRequest func(model.Request)
}

func (r *recordingInvoker) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	if r.onRequest != nil {
		r.onRequest(req)
	}
	return r.inner.Generate(ctx, req)
}

func (r *recordingInvoker) Info() model.Info { return r.inner.Info() }

func TestDeriveRunOptions(t *testing.T) {
	opts := RunOptions{}
	WithUserMessage("hi")(&opts)
	WithThreadID("t1")(&opts)
	WithStream(true)(&opts)
	WithMaxIterations(7)(&opts)
	WithHistoryWindowSize(12)(&opts)

	require.Len(t, opts.NewMessages, 1)
	assert.Equal(t, core.UserMessage{Text: "hi"}, opts.NewMessages[0])
	assert.Equal(t, "t1", opts.ThreadID)
	assert.True(t, opts.Stream)
	assert.Equal(t, 7, opts.MaxIterations)
	assert.Equal(t, 12, opts.HistoryWindowSize)
}

func TestBranchMessages_RequiresStore(t *testing.T) {
	agent := New(model.NewMockInvoker())
	_, err := agent.BranchMessages(context.Background(), "t1")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
