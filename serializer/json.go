package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/x3bits/go-react-agent/core"
)

// JSONSerializer encodes each message variant as a small JSON document. The
// per-variant payload structs keep the wire format decoupled from the domain
// types so either side can change without silently breaking stored rows.
type JSONSerializer struct{}

// NewJSONSerializer constructs a JSONSerializer.
func NewJSONSerializer() *JSONSerializer { return &JSONSerializer{} }

type textPayload struct {
	Text string `json:"text"`
}

type toolCallPayload struct {
	ID        string `json:"id,omitempty"`
	Kind      string `json:"type"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type assistantPayload struct {
	Text      string            `json:"text"`
	ToolCalls []toolCallPayload `json:"tool_calls,omitempty"`
}

type toolResponsePayload struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

type toolResultPayload struct {
	Responses []toolResponsePayload `json:"responses"`
}

// Serialize implements MessageSerializer with an exhaustive variant switch.
func (s *JSONSerializer) Serialize(msg core.Message) (string, error) {
	var (
		payload any
	)
	switch m := msg.(type) {
	case core.SystemMessage:
		payload = textPayload{Text: m.Text}
	case core.UserMessage:
		payload = textPayload{Text: m.Text}
	case core.AssistantMessage:
		calls := make([]toolCallPayload, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			calls[i] = toolCallPayload{ID: tc.ID, Kind: tc.Kind, Name: tc.Name, Arguments: tc.Arguments}
		}
		if len(calls) == 0 {
			calls = nil
		}
		payload = assistantPayload{Text: m.Text, ToolCalls: calls}
	case core.ToolResultMessage:
		responses := make([]toolResponsePayload, len(m.Responses))
		for i, r := range m.Responses {
			responses[i] = toolResponsePayload{CallID: r.CallID, Name: r.Name, Data: r.Data}
		}
		payload = toolResultPayload{Responses: responses}
	default:
		return "", &UnsupportedTypeError{MessageType: msg.Type()}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serialize %s message: %w", msg.Type(), err)
	}
	return string(data), nil
}

// Deserialize implements MessageSerializer.
func (s *JSONSerializer) Deserialize(messageType core.MessageType, data string) (core.Message, error) {
	switch messageType {
	case core.MessageTypeSystem:
		var p textPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("deserialize system message: %w", err)
		}
		return core.SystemMessage{Text: p.Text}, nil
	case core.MessageTypeUser:
		var p textPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("deserialize user message: %w", err)
		}
		return core.UserMessage{Text: p.Text}, nil
	case core.MessageTypeAssistant:
		var p assistantPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("deserialize assistant message: %w", err)
		}
		var calls []core.ToolCall
		for _, tc := range p.ToolCalls {
			calls = append(calls, core.ToolCall{ID: tc.ID, Kind: tc.Kind, Name: tc.Name, Arguments: tc.Arguments})
		}
		return core.AssistantMessage{Text: p.Text, ToolCalls: calls}, nil
	case core.MessageTypeTool:
		var p toolResultPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("deserialize tool result message: %w", err)
		}
		responses := make([]core.ToolResponse, len(p.Responses))
		for i, r := range p.Responses {
			responses[i] = core.ToolResponse{CallID: r.CallID, Name: r.Name, Data: r.Data}
		}
		return core.ToolResultMessage{Responses: responses}, nil
	default:
		return nil, &UnsupportedTypeError{MessageType: messageType}
	}
}
