// Package anthropic provides a model.Invoker implementation using the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/model"
)

// Options configure the Anthropic invoker adapter (model id, temperature,
// max tokens, API key). Per-request model.Options override model id,
// temperature and max tokens.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Invoker wraps the Anthropic Messages API behind the generic model.Invoker
// interface.
type Invoker struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic invoker using the official client.
func New(optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Invoker{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic invoker from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Invoker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Invoker{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
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

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var text string
		var calls []core.ToolCall
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text += block.AsText().Text
			case "tool_use":
				calls = append(calls, toolUseToCall(block.AsToolUse()))
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			Partial:      false,
			Text:         text,
			ToolCalls:    calls,
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
				TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			},
		}
	}()

	return out, errCh
}

// Info returns metadata describing this Anthropic invoker implementation.
func (m *Invoker) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

// handleStreaming accumulates message stream events into partial fragments
// followed by one final turn.
func (m *Invoker) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic stream accumulate: %w", err)
			return
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta.Delta.Type == "text_delta" && delta.Delta.Text != "" {
				if !send(ctx, out, model.Response{Partial: true, Text: delta.Delta.Text}) {
					return
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}

	var text string
	var calls []core.ToolCall
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			text += block.AsText().Text
		case "tool_use":
			calls = append(calls, toolUseToCall(block.AsToolUse()))
		}
	}
	finishReason := "stop"
	if message.StopReason != "" {
		finishReason = string(message.StopReason)
	}
	send(ctx, out, model.Response{Partial: false, Text: text, ToolCalls: calls, FinishReason: finishReason})
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

func toolUseToCall(block anthropic.ToolUseBlock) core.ToolCall {
	args := ""
	if len(block.Input) > 0 {
		args = string(block.Input)
	}
	return core.ToolCall{ID: block.ID, Kind: "function", Name: block.Name, Arguments: args}
}

// buildParams assembles the Anthropic request, applying per-request option
// overrides.
func (m *Invoker) buildParams(req model.Request) anthropic.MessageNewParams {
	opts := m.opts
	if req.Options != nil {
		if req.Options.Model != "" {
			opts.Model = anthropic.Model(req.Options.Model)
		}
		if req.Options.Temperature != 0 {
			opts.Temperature = req.Options.Temperature
		}
		if req.Options.MaxTokens != 0 {
			opts.MaxTokens = req.Options.MaxTokens
		}
	}

	params := anthropic.MessageNewParams{
		Model:       opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if systemBlocks := extractSystemBlocks(req.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages converts normalized messages to the Anthropic message format.
// Tool results are delivered as tool_result blocks inside a user message, per
// the Messages API convention.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var result []anthropic.MessageParam
	for _, msg := range messages {
		switch m := msg.(type) {
		case core.SystemMessage:
			// Handled separately via params.System.
		case core.UserMessage:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case core.AssistantMessage:
			var content []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				content = append(content, anthropic.NewTextBlock(m.Text))
			}
			for _, tc := range m.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(content) > 0 {
				result = append(result, anthropic.NewAssistantMessage(content...))
			}
		case core.ToolResultMessage:
			var content []anthropic.ContentBlockParamUnion
			for _, r := range m.Responses {
				content = append(content, anthropic.NewToolResultBlock(r.CallID, r.Data, false))
			}
			if len(content) > 0 {
				result = append(result, anthropic.NewUserMessage(content...))
			}
		}
	}
	return result
}

func extractSystemBlocks(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if sm, ok := msg.(core.SystemMessage); ok && sm.Text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: sm.Text})
		}
	}
	return blocks
}

// buildTools converts tool definitions to the Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if params := t.Function.Parameters; params != nil {
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				inputSchema.Required = toStringSlice(required)
			}
		}
		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Function.Name)
	}
	return result
}

func toStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		var result []string
		for _, item := range vals {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}
