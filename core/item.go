package core

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// BranchItem is the persisted unit of a thread: a message plus its position in
// the branch tree. Items are created exactly once by the engine and never
// mutated afterwards.
type BranchItem struct {
	ID         string            `json:"id"`
	PreviousID string            `json:"previous_id,omitempty"` // Empty for root items
	Message    Message           `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewBranchItem creates an item with a freshly generated id chained off
// previousID (empty string for a root item).
func NewBranchItem(msg Message, previousID string) BranchItem {
	return BranchItem{
		ID:         NewID(),
		PreviousID: previousID,
		Message:    msg,
		Metadata:   map[string]string{},
	}
}

// NewID generates a globally unique message identifier: a 128-bit random
// value encoded as unpadded URL-safe base64 (22 characters).
func NewID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}
