package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x3bits/go-react-agent/core"
)

// Interface compliance (compile-time assertion)
var _ MessageSerializer = (*JSONSerializer)(nil)

func TestJSONSerializer_AssistantWithToolCalls(t *testing.T) {
	s := NewJSONSerializer()
	msg := core.AssistantMessage{
		Text: "let me check",
		ToolCalls: []core.ToolCall{
			{ID: "c1", Kind: "function", Name: "lookup", Arguments: `{"q":"weather"}`},
			{ID: "c2", Kind: "function", Name: "lookup", Arguments: `{"q":"news"}`},
		},
	}

	data, err := s.Serialize(msg)
	require.NoError(t, err)

	restored, err := s.Deserialize(core.MessageTypeAssistant, data)
	require.NoError(t, err)
	assert.Equal(t, msg, restored)
}

func TestJSONSerializer_AssistantWithoutToolCallsOmitsField(t *testing.T) {
	s := NewJSONSerializer()
	data, err := s.Serialize(core.AssistantMessage{Text: "plain"})
	require.NoError(t, err)
	assert.NotContains(t, data, "tool_calls")

	restored, err := s.Deserialize(core.MessageTypeAssistant, data)
	require.NoError(t, err)
	got := restored.(core.AssistantMessage)
	assert.Equal(t, "plain", got.Text)
	assert.False(t, got.HasToolCalls())
}

func TestJSONSerializer_ToolResult(t *testing.T) {
	s := NewJSONSerializer()
	msg := core.ToolResultMessage{
		Responses: []core.ToolResponse{
			{CallID: "c1", Name: "lookup", Data: `{"hits":3}`},
		},
	}

	data, err := s.Serialize(msg)
	require.NoError(t, err)

	restored, err := s.Deserialize(core.MessageTypeTool, data)
	require.NoError(t, err)
	assert.Equal(t, msg, restored)
}

func TestJSONSerializer_UserAndSystem(t *testing.T) {
	s := NewJSONSerializer()

	data, err := s.Serialize(core.NewUserMessage("héllo 世界"))
	require.NoError(t, err)
	restored, err := s.Deserialize(core.MessageTypeUser, data)
	require.NoError(t, err)
	assert.Equal(t, core.UserMessage{Text: "héllo 世界"}, restored)

	data, err = s.Serialize(core.NewSystemMessage("be brief"))
	require.NoError(t, err)
	restored, err = s.Deserialize(core.MessageTypeSystem, data)
	require.NoError(t, err)
	assert.Equal(t, core.SystemMessage{Text: "be brief"}, restored)
}

func TestJSONSerializer_UnsupportedType(t *testing.T) {
	s := NewJSONSerializer()
	_, err := s.Deserialize(core.MessageType("BOGUS"), "{}")
	require.Error(t, err)

	var typeErr *UnsupportedTypeError
	assert.ErrorAs(t, err, &typeErr)
	assert.Equal(t, core.MessageType("BOGUS"), typeErr.MessageType)
}

func TestJSONSerializer_MalformedPayload(t *testing.T) {
	s := NewJSONSerializer()
	_, err := s.Deserialize(core.MessageTypeUser, "{not json")
	assert.Error(t, err)
}
