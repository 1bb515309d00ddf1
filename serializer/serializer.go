// Package serializer owns the wire format of persisted message payloads. The
// relational store delegates message_content encoding to a MessageSerializer
// so storage layout and payload format can evolve independently.
package serializer

import (
	"fmt"

	"github.com/x3bits/go-react-agent/core"
)

// MessageSerializer converts messages to and from their persisted textual
// payload. The variant tag is stored separately (message_type column); only
// the variant payload is encoded here.
type MessageSerializer interface {
	Serialize(msg core.Message) (string, error)
	Deserialize(messageType core.MessageType, data string) (core.Message, error)
}

// UnsupportedTypeError reports a message variant the serializer cannot handle.
type UnsupportedTypeError struct {
	MessageType core.MessageType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported message type: %s", e.MessageType)
}
