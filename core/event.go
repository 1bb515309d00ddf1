package core

// Event is an immutable record streamed to the caller during a run. Concrete
// event types implement the unexported isEvent marker enabling a closed set.
//
// Ordering guarantee (per run): ItemPersistedEvents appear in the exact order
// items were persisted; PartialTextEvents for an assistant turn are emitted
// strictly before that turn's ItemPersistedEvent.
type Event interface{ isEvent() }

// ItemPersistedEvent announces that a message was durably saved under the
// run's thread. ID is the persisted item's id.
type ItemPersistedEvent struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`
}

func (ItemPersistedEvent) isEvent() {}

// PartialTextEvent carries one incremental text fragment of a streaming
// assistant turn. Partial text is never persisted.
type PartialTextEvent struct {
	Text string `json:"text"`
}

func (PartialTextEvent) isEvent() {}
