package thread

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/x3bits/go-react-agent/core"
)

// InMemoryRepository is a volatile Repository backed by a map. Safe for
// concurrent use.
type InMemoryRepository struct {
	mu      sync.RWMutex
	threads map[string]Thread
}

// NewInMemoryRepository constructs an empty in-memory thread repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{threads: make(map[string]Thread)}
}

// Insert implements Repository.
func (r *InMemoryRepository) Insert(_ context.Context, t Thread) error {
	if t.ThreadID == "" {
		return fmt.Errorf("%w: thread id must not be empty", core.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.threads[t.ThreadID]; exists {
		return fmt.Errorf("%w: thread %s already exists", core.ErrInvalidArgument, t.ThreadID)
	}
	r.threads[t.ThreadID] = t
	return nil
}

// Get implements Repository.
func (r *InMemoryRepository) Get(_ context.Context, threadID string) (*Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.threads[threadID]; ok {
		return &t, nil
	}
	return nil, nil
}

// ListByUserAndAgent implements Repository.
func (r *InMemoryRepository) ListByUserAndAgent(_ context.Context, userID, agent string) ([]Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Thread
	for _, t := range r.threads {
		if t.UserID == userID && t.Agent == agent {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// UpdateTitle implements Repository.
func (r *InMemoryRepository) UpdateTitle(_ context.Context, threadID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[threadID]
	if !ok {
		return fmt.Errorf("%w: thread %s not found", core.ErrInvalidArgument, threadID)
	}
	t.Title = title
	t.UpdatedAt = time.Now()
	r.threads[threadID] = t
	return nil
}

// Delete implements Repository.
func (r *InMemoryRepository) Delete(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}
