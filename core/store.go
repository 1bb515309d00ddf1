package core

import "context"

// BranchStore persists branch items and answers windowed history queries over
// branching threads. Implementations must be safe for concurrent use across
// different thread ids; concurrent saves on the same thread id need only stay
// consistent enough to keep the head pointer correct (single writer per
// thread id is the recommended discipline).
type BranchStore interface {
	// Save appends item to the thread and moves the thread's head pointer to
	// item.ID. It fails with ErrInvalidArgument when threadID or the item id
	// is empty. A Save is all-or-nothing; no half-written item is ever
	// observable.
	Save(ctx context.Context, threadID string, item BranchItem) error

	// LatestMessageID returns the thread's head pointer, or the empty string
	// when the thread has no items.
	LatestMessageID(ctx context.Context, threadID string) (string, error)

	// AllMessages returns every item ever saved under the thread in insertion
	// order. Unknown threads yield an empty slice.
	AllMessages(ctx context.Context, threadID string) ([]BranchItem, error)

	// LatestMessages walks the parent chain starting at fromID (or the thread
	// head when fromID is empty) backward up to count items and returns their
	// messages oldest-first. Fewer messages are returned when the chain is
	// shorter or a referenced parent is missing; count <= 0 or an unknown
	// thread yields an empty slice.
	LatestMessages(ctx context.Context, threadID string, count int, fromID string) ([]Message, error)
}
