package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/x3bits/go-react-agent/core"
)

// InMemoryStore is a volatile core.BranchStore implementation storing branch
// items in process local maps. It is safe for concurrent access and best
// suited for tests, ephemeral demo servers and single-process deployments.
type InMemoryStore struct {
	mu sync.RWMutex
	// items maps message id -> stored item.
	items map[string]core.BranchItem
	// chain maps message id -> previous message id (only non-empty links).
	chain map[string]string
	// heads maps thread id -> most recently saved message id.
	heads map[string]string
	// threads maps thread id -> message ids in insertion order.
	threads map[string][]string
	// owner maps message id -> owning thread id.
	owner map[string]string
}

// NewInMemoryStore constructs an empty in-memory branch store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items:   make(map[string]core.BranchItem),
		chain:   make(map[string]string),
		heads:   make(map[string]string),
		threads: make(map[string][]string),
		owner:   make(map[string]string),
	}
}

// Save implements core.BranchStore.
func (s *InMemoryStore) Save(_ context.Context, threadID string, item core.BranchItem) error {
	if threadID == "" {
		return fmt.Errorf("%w: threadID must not be empty", core.ErrInvalidArgument)
	}
	if item.ID == "" || item.Message == nil {
		return fmt.Errorf("%w: item id and message must not be empty", core.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	if item.PreviousID != "" {
		s.chain[item.ID] = item.PreviousID
	}
	s.threads[threadID] = append(s.threads[threadID], item.ID)
	s.heads[threadID] = item.ID
	s.owner[item.ID] = threadID
	return nil
}

// LatestMessageID implements core.BranchStore.
func (s *InMemoryStore) LatestMessageID(_ context.Context, threadID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heads[threadID], nil
}

// AllMessages implements core.BranchStore returning items in insertion order.
func (s *InMemoryStore) AllMessages(_ context.Context, threadID string) ([]core.BranchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.threads[threadID]
	result := make([]core.BranchItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			result = append(result, item)
		}
	}
	return result, nil
}

// LatestMessages implements core.BranchStore by walking the parent chain
// backward from fromID (or the thread head) and reversing into oldest-first
// order. The walk stops early at a missing parent, so a dangling PreviousID
// degrades to a shorter chain rather than an error. Ids saved under a
// different thread are treated as missing, so an unknown thread yields an
// empty slice even when fromID exists elsewhere.
func (s *InMemoryStore) LatestMessages(_ context.Context, threadID string, count int, fromID string) ([]core.Message, error) {
	if threadID == "" || count <= 0 {
		return []core.Message{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	currentID := fromID
	if currentID == "" {
		currentID = s.heads[threadID]
	}

	var collected []core.Message
	for currentID != "" && len(collected) < count {
		item, ok := s.items[currentID]
		if !ok || s.owner[currentID] != threadID {
			break
		}
		collected = append(collected, item.Message)
		currentID = s.chain[currentID]
	}

	// Reverse into chain order, oldest first.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	if collected == nil {
		collected = []core.Message{}
	}
	return collected, nil
}

// MessageCount returns the number of items saved under the thread.
func (s *InMemoryStore) MessageCount(threadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads[threadID])
}

// ClearThread removes every item saved under the thread. This is the
// external maintenance purge; the engine never deletes items.
func (s *InMemoryStore) ClearThread(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.threads[threadID] {
		delete(s.items, id)
		delete(s.chain, id)
		delete(s.owner, id)
	}
	delete(s.threads, threadID)
	delete(s.heads, threadID)
}

// ClearAll removes every thread and item from the store.
func (s *InMemoryStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]core.BranchItem)
	s.chain = make(map[string]string)
	s.heads = make(map[string]string)
	s.threads = make(map[string][]string)
	s.owner = make(map[string]string)
}
