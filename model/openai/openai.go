// Package openai provides a model.Invoker implementation using the OpenAI
// Chat Completions API (including streaming and function/tool calling). It
// adapts the engine's normalized Request/Response structures into the SDK's
// message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// allowing reconstruction of complete tool calls when the finish reason is
// emitted. Internal helper (unexported).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI invoker adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; per-request
// model.Options override them.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Invoker wraps the OpenAI Chat Completions API behind the generic
// model.Invoker interface.
type Invoker struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI invoker from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Invoker {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Invoker) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.buildParams(req)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts normalized messages into OpenAI chat messages. Tool
// results follow their assistant turn in history order, so they map directly
// onto tool role messages.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch m := msg.(type) {
		case core.SystemMessage:
			result = append(result, openai.SystemMessage(m.Text))
		case core.UserMessage:
			result = append(result, openai.UserMessage(m.Text))
		case core.AssistantMessage:
			if len(m.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(m.Text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			if m.Text != "" {
				assistant.Content.OfString = openai.String(m.Text)
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case core.ToolResultMessage:
			for _, r := range m.Responses {
				result = append(result, openai.ToolMessage(r.Data, r.CallID))
			}
		}
	}
	return result
}

// buildParams assembles the OpenAI request parameters including tool
// definitions, applying any per-request option overrides.
func (m *Invoker) buildParams(req model.Request) openai.ChatCompletionNewParams {
	opts := m.opts
	if req.Options != nil {
		if req.Options.Model != "" {
			opts.Model = req.Options.Model
		}
		if req.Options.Temperature != 0 {
			opts.Temperature = req.Options.Temperature
		}
		if req.Options.MaxTokens != 0 {
			opts.MaxCompletionTokens = req.Options.MaxTokens
		}
	}
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req.Messages),
		Model:               opts.Model,
		Temperature:         openai.Float(opts.Temperature),
		MaxCompletionTokens: openai.Int(opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming processes streaming responses forwarding partial and final
// fragments.
func (m *Invoker) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var fullText string
	toolAgg := map[int64]*aggCall{}
	order := []int64{}
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				fullText += ch.Delta.Content
				if !send(ctx, out, model.Response{Partial: true, Text: ch.Delta.Content}) {
					return
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
			if ch.FinishReason != "" {
				final := model.Response{
					Partial:      false,
					Text:         fullText,
					ToolCalls:    collectCalls(toolAgg, order),
					FinishReason: ch.FinishReason,
				}
				if !send(ctx, out, final) {
					return
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

// send delivers one fragment unless ctx is cancelled first, so a consumer
// that stopped draining after cancellation never strands the producer on a
// full channel.
func send(ctx context.Context, out chan<- model.Response, r model.Response) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- r:
		return true
	}
}

func collectCalls(agg map[int64]*aggCall, order []int64) []core.ToolCall {
	var calls []core.ToolCall
	for _, idx := range order {
		ac := agg[idx]
		calls = append(calls, core.ToolCall{ID: ac.id, Kind: "function", Name: ac.name, Arguments: ac.args})
	}
	return calls
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Invoker) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}
	ch0 := resp.Choices[0]
	var calls []core.ToolCall
	for _, tc := range ch0.Message.ToolCalls {
		calls = append(calls, core.ToolCall{
			ID:        tc.ID,
			Kind:      "function",
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	out <- model.Response{
		Partial:      false,
		Text:         ch0.Message.Content,
		ToolCalls:    calls,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI invoker implementation.
func (m *Invoker) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
