package core

// MessageType tags the concrete variant of a Message. The string values
// double as the message_type column in relational storage.
type MessageType string

const (
	// MessageTypeSystem tags instructions prepended by a system prompt provider.
	MessageTypeSystem MessageType = "SYSTEM"
	// MessageTypeUser tags caller-supplied input.
	MessageTypeUser MessageType = "USER"
	// MessageTypeAssistant tags a model turn, optionally carrying tool calls.
	MessageTypeAssistant MessageType = "ASSISTANT"
	// MessageTypeTool tags the results answering an assistant's tool calls.
	MessageTypeTool MessageType = "TOOL"
)

// Message represents a polymorphic conversation item. Concrete message types
// implement the unexported isMessage marker enabling a closed set, so
// serialization and event-handling boundaries can switch exhaustively.
type Message interface {
	isMessage()
	// Type returns the variant tag of this message.
	Type() MessageType
}

// SystemMessage carries immutable instruction text.
type SystemMessage struct {
	Text string `json:"text"`
}

func (SystemMessage) isMessage() {}

// Type implements Message.
func (SystemMessage) Type() MessageType { return MessageTypeSystem }

// UserMessage carries immutable user input text.
type UserMessage struct {
	Text string `json:"text"`
}

func (UserMessage) isMessage() {}

// Type implements Message.
func (UserMessage) Type() MessageType { return MessageTypeUser }

// ToolCall describes a model-issued request to invoke an external function.
type ToolCall struct {
	ID        string `json:"id,omitempty"`        // Provider-assigned call id
	Kind      string `json:"type"`                // "function"
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// AssistantMessage is one model turn: accumulated text plus the ordered tool
// calls the model requested (possibly none).
type AssistantMessage struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

func (AssistantMessage) isMessage() {}

// Type implements Message.
func (AssistantMessage) Type() MessageType { return MessageTypeAssistant }

// HasToolCalls reports whether this turn still requires tool execution.
func (m AssistantMessage) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// ToolResponse is the returned value for a single tool call.
type ToolResponse struct {
	CallID string `json:"call_id"` // Matches the originating ToolCall ID
	Name   string `json:"name"`    // Tool / function name
	Data   string `json:"data"`    // Serialized result payload
}

// ToolResultMessage answers one or more tool calls, with responses in the
// same order the calls were issued.
type ToolResultMessage struct {
	Responses []ToolResponse `json:"responses"`
}

func (ToolResultMessage) isMessage() {}

// Type implements Message.
func (ToolResultMessage) Type() MessageType { return MessageTypeTool }

// NewUserMessage is a convenience constructor for plain text user input.
func NewUserMessage(text string) UserMessage { return UserMessage{Text: text} }

// NewSystemMessage is a convenience constructor for instruction text.
func NewSystemMessage(text string) SystemMessage { return SystemMessage{Text: text} }
