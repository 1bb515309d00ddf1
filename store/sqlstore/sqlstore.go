// Package sqlstore implements core.BranchStore on a relational database via
// database/sql, so any driver works; tests run on the pure-Go sqlite driver.
//
// To keep windowed history reads cheap on deep threads, each row materializes
// its depth and ancestor path (the comma-joined ids from the chain root up to,
// excluding, the row itself) at write time. Reading the last N messages ending
// at a given id then needs exactly two round trips: one point lookup for the
// ancestor path and one batched fetch of the sliced ids sorted by depth. The
// cost is O(depth) write-once storage per row.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/x3bits/go-react-agent/core"
	"github.com/x3bits/go-react-agent/logging"
	"github.com/x3bits/go-react-agent/serializer"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS message_branch (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL UNIQUE,
	thread_id TEXT NOT NULL,
	previous_id TEXT,
	message_type TEXT NOT NULL,
	message_content TEXT NOT NULL,
	depth INTEGER NOT NULL DEFAULT 0,
	ancestor_path TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_message_branch_thread ON message_branch (thread_id);
CREATE INDEX IF NOT EXISTS idx_message_branch_thread_order ON message_branch (thread_id, id);
`

// Options configure the SQL branch store.
type Options struct {
	Logger logging.Logger
}

// Store is a relational core.BranchStore using ancestor-path compression.
type Store struct {
	db         *sql.DB
	serializer serializer.MessageSerializer
	logger     logging.Logger
}

// New constructs a Store over an open database handle. The message payload
// format is owned by the provided serializer.
func New(db *sql.DB, ser serializer.MessageSerializer, optFns ...func(o *Options)) *Store {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{db: db, serializer: ser, logger: opts.Logger}
}

// CreateSchema creates the message_branch table and its indexes if absent.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &core.StoreError{Op: "create schema", Err: err}
		}
	}
	return nil
}

// Save implements core.BranchStore. Depth and ancestor path are derived from
// the parent row in a single query; a dangling PreviousID stores the item as
// a degraded root (depth 0, empty path) rather than failing.
func (s *Store) Save(ctx context.Context, threadID string, item core.BranchItem) error {
	if threadID == "" {
		return fmt.Errorf("%w: threadID must not be empty", core.ErrInvalidArgument)
	}
	if item.ID == "" || item.Message == nil {
		return fmt.Errorf("%w: item id and message must not be empty", core.ErrInvalidArgument)
	}

	content, err := s.serializer.Serialize(item.Message)
	if err != nil {
		return &core.StoreError{Op: "save", Err: err}
	}

	depth := 0
	ancestorPath := ""
	if item.PreviousID != "" {
		var parentDepth int
		var parentPath string
		err := s.db.QueryRowContext(ctx,
			"SELECT depth, ancestor_path FROM message_branch WHERE message_id = ?",
			item.PreviousID,
		).Scan(&parentDepth, &parentPath)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Degraded root: the declared parent was purged or never existed.
			s.logger.Warn("branch item parent not found, storing as root",
				"thread_id", threadID, "message_id", item.ID, "previous_id", item.PreviousID)
		case err != nil:
			return &core.StoreError{Op: "save", Err: err}
		default:
			depth = parentDepth + 1
			if parentPath != "" {
				ancestorPath = parentPath + "," + item.PreviousID
			} else {
				ancestorPath = item.PreviousID
			}
		}
	}

	previousID := sql.NullString{String: item.PreviousID, Valid: item.PreviousID != ""}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO message_branch
			(message_id, thread_id, previous_id, message_type, message_content, depth, ancestor_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, threadID, previousID, string(item.Message.Type()), content, depth, ancestorPath,
	)
	if err != nil {
		return &core.StoreError{Op: "save", Err: err}
	}
	return nil
}

// LatestMessageID implements core.BranchStore using the insertion-order key.
func (s *Store) LatestMessageID(ctx context.Context, threadID string) (string, error) {
	if threadID == "" {
		return "", nil
	}
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT message_id FROM message_branch WHERE thread_id = ? ORDER BY id DESC LIMIT 1",
		threadID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &core.StoreError{Op: "latest message id", Err: err}
	}
	return id, nil
}

// AllMessages implements core.BranchStore returning rows in insertion order.
func (s *Store) AllMessages(ctx context.Context, threadID string) ([]core.BranchItem, error) {
	if threadID == "" {
		return []core.BranchItem{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, previous_id, message_type, message_content
		 FROM message_branch WHERE thread_id = ? ORDER BY id ASC`,
		threadID,
	)
	if err != nil {
		return nil, &core.StoreError{Op: "all messages", Err: err}
	}
	defer rows.Close()

	items := []core.BranchItem{}
	for rows.Next() {
		item, err := s.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "all messages", Err: err}
	}
	return items, nil
}

// LatestMessages implements core.BranchStore with the two-round-trip windowed
// read: a point lookup for the ancestor path followed by one batched fetch.
func (s *Store) LatestMessages(ctx context.Context, threadID string, count int, fromID string) ([]core.Message, error) {
	if threadID == "" || count <= 0 {
		return []core.Message{}, nil
	}

	startID := fromID
	if startID == "" {
		var err error
		startID, err = s.LatestMessageID(ctx, threadID)
		if err != nil {
			return nil, err
		}
	}
	if startID == "" {
		return []core.Message{}, nil
	}

	var ancestorPath string
	err := s.db.QueryRowContext(ctx,
		"SELECT ancestor_path FROM message_branch WHERE message_id = ? AND thread_id = ?",
		startID, threadID,
	).Scan(&ancestorPath)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Message{}, nil
	}
	if err != nil {
		return nil, &core.StoreError{Op: "latest messages", Err: err}
	}

	ids := windowIDs(ancestorPath, startID, count)

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, previous_id, message_type, message_content
		 FROM message_branch WHERE message_id IN (`+placeholders+`) ORDER BY depth ASC`,
		args...,
	)
	if err != nil {
		return nil, &core.StoreError{Op: "latest messages", Err: err}
	}
	defer rows.Close()

	messages := []core.Message{}
	for rows.Next() {
		item, err := s.scanItem(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, item.Message)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "latest messages", Err: err}
	}
	return messages, nil
}

// ClearThread deletes every row saved under the thread. External maintenance
// operation; the engine never deletes rows.
func (s *Store) ClearThread(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM message_branch WHERE thread_id = ?", threadID); err != nil {
		return &core.StoreError{Op: "clear thread", Err: err}
	}
	return nil
}

// windowIDs slices the last count-1 entries of the ancestor path (clamped to
// the path start) and appends the starting id itself.
func windowIDs(ancestorPath, startID string, count int) []string {
	var ids []string
	if ancestorPath != "" {
		ancestors := strings.Split(ancestorPath, ",")
		start := len(ancestors) - count + 1
		if start < 0 {
			start = 0
		}
		ids = append(ids, ancestors[start:]...)
	}
	return append(ids, startID)
}

func (s *Store) scanItem(rows *sql.Rows) (core.BranchItem, error) {
	var (
		messageID   string
		previousID  sql.NullString
		messageType string
		content     string
	)
	if err := rows.Scan(&messageID, &previousID, &messageType, &content); err != nil {
		return core.BranchItem{}, &core.StoreError{Op: "scan", Err: err}
	}
	msg, err := s.serializer.Deserialize(core.MessageType(messageType), content)
	if err != nil {
		return core.BranchItem{}, &core.StoreError{Op: "scan", Err: err}
	}
	return core.BranchItem{
		ID:         messageID,
		PreviousID: previousID.String,
		Message:    msg,
		Metadata:   map[string]string{},
	}, nil
}
