// Package thread provides a registry of conversation threads: the naming and
// ownership layer on top of the branch store. A thread row ties a thread id
// to a user, an agent name and a display title; the branch items themselves
// live in the core.BranchStore.
package thread

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/x3bits/go-react-agent/core"
)

// Thread is one registry entry.
type Thread struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Agent     string    `json:"agent"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists thread registry entries.
type Repository interface {
	// Insert stores a new thread entry.
	Insert(ctx context.Context, t Thread) error
	// Get returns the thread with the given id, or nil when absent.
	Get(ctx context.Context, threadID string) (*Thread, error)
	// ListByUserAndAgent returns a user's threads for one agent, most
	// recently updated first.
	ListByUserAndAgent(ctx context.Context, userID, agent string) ([]Thread, error)
	// UpdateTitle renames a thread and refreshes its updated timestamp.
	UpdateTitle(ctx context.Context, threadID, title string) error
	// Delete removes a thread entry. Branch items are purged separately.
	Delete(ctx context.Context, threadID string) error
}

const maxDerivedTitleLen = 30

// Service wraps a Repository with id generation and title derivation.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Create registers a new thread with a freshly generated id. An empty title
// stays empty until the first user message arrives (see DeriveTitle).
func (s *Service) Create(ctx context.Context, userID, agent, title string) (*Thread, error) {
	if userID == "" || agent == "" {
		return nil, fmt.Errorf("%w: userID and agent must not be empty", core.ErrInvalidArgument)
	}
	now := time.Now()
	t := Thread{
		ThreadID:  core.NewID(),
		UserID:    userID,
		Agent:     agent,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Get returns the thread with the given id, or nil when absent.
func (s *Service) Get(ctx context.Context, threadID string) (*Thread, error) {
	return s.repo.Get(ctx, threadID)
}

// List returns a user's threads for one agent, most recently updated first.
func (s *Service) List(ctx context.Context, userID, agent string) ([]Thread, error) {
	return s.repo.ListByUserAndAgent(ctx, userID, agent)
}

// Rename updates a thread's display title.
func (s *Service) Rename(ctx context.Context, threadID, title string) error {
	return s.repo.UpdateTitle(ctx, threadID, title)
}

// Delete removes a thread registry entry.
func (s *Service) Delete(ctx context.Context, threadID string) error {
	return s.repo.Delete(ctx, threadID)
}

// DeriveTitle builds a display title from the first user message of a
// conversation: whitespace collapsed and truncated to a short prefix.
func DeriveTitle(firstUserMessage string) string {
	title := strings.Join(strings.Fields(firstUserMessage), " ")
	if utf8.RuneCountInString(title) <= maxDerivedTitleLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxDerivedTitleLen]) + "…"
}
