package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x3bits/go-react-agent/core"
)

// Interface compliance (compile-time assertion)
var _ Invoker = (*MockInvoker)(nil)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	t.Helper()
	var responses []Response
	for r := range respCh {
		responses = append(responses, r)
	}
	return responses, <-errCh
}

func TestMockInvoker_Buffered(t *testing.T) {
	m := NewMockInvoker()
	m.EnqueueText("hello")

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	require.Len(t, responses, 1)
	assert.False(t, responses[0].Partial)
	assert.Equal(t, "hello", responses[0].Text)
	assert.Equal(t, "stop", responses[0].FinishReason)
	assert.Equal(t, 1, m.Calls())
}

func TestMockInvoker_Streaming(t *testing.T) {
	m := NewMockInvoker()
	m.EnqueueText("abc")

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	// One partial per rune, then the complete turn.
	require.Len(t, responses, 4)
	var text string
	for _, r := range responses[:3] {
		assert.True(t, r.Partial)
		text += r.Text
	}
	assert.Equal(t, "abc", text)
	assert.False(t, responses[3].Partial)
	assert.Equal(t, "abc", responses[3].Text)
}

func TestMockInvoker_StreamingToolCalls(t *testing.T) {
	m := NewMockInvoker()
	call := core.ToolCall{ID: "c1", Kind: "function", Name: "lookup", Arguments: "{}"}
	m.EnqueueToolCalls("", call)

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)

	require.Len(t, responses, 2)
	assert.True(t, responses[0].Partial)
	assert.Equal(t, []core.ToolCall{call}, responses[0].ToolCalls)
	assert.False(t, responses[1].Partial)
	assert.Equal(t, "tool_calls", responses[1].FinishReason)
}

func TestMockInvoker_QueueOrderAndFallback(t *testing.T) {
	m := NewMockInvoker()
	m.EnqueueText("first")
	m.EnqueueText("second")

	for _, want := range []string{"first", "second"} {
		respCh, errCh := m.Generate(context.Background(), Request{})
		responses, err := drain(t, respCh, errCh)
		require.NoError(t, err)
		assert.Equal(t, want, responses[0].Text)
	}

	// Empty queue echoes the last user message.
	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("  ping  ")},
	})
	responses, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", responses[0].Text)
}

func TestMockInvoker_FailWith(t *testing.T) {
	m := NewMockInvoker()
	boom := errors.New("boom")
	m.FailWith(boom)

	respCh, errCh := m.Generate(context.Background(), Request{})
	responses, err := drain(t, respCh, errCh)
	assert.Empty(t, responses)
	assert.ErrorIs(t, err, boom)
}

func TestMockInvoker_Info(t *testing.T) {
	info := NewMockInvoker().Info()
	assert.Equal(t, "mock", info.Provider)
	assert.True(t, info.SupportsTools)
}
