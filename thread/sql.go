package thread

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/x3bits/go-react-agent/core"
)

const threadSchemaDDL = `
CREATE TABLE IF NOT EXISTS threads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threads_user_agent ON threads (user_id, agent);
`

// SQLRepository is a Repository over database/sql.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository constructs a SQLRepository over an open database handle.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// CreateSchema creates the threads table and its index if absent.
func (r *SQLRepository) CreateSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(threadSchemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return &core.StoreError{Op: "create thread schema", Err: err}
		}
	}
	return nil
}

// Insert implements Repository.
func (r *SQLRepository) Insert(ctx context.Context, t Thread) error {
	if t.ThreadID == "" {
		return fmt.Errorf("%w: thread id must not be empty", core.ErrInvalidArgument)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO threads (thread_id, user_id, agent, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ThreadID, t.UserID, t.Agent, t.Title, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return &core.StoreError{Op: "insert thread", Err: err}
	}
	return nil
}

// Get implements Repository.
func (r *SQLRepository) Get(ctx context.Context, threadID string) (*Thread, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT thread_id, user_id, agent, title, created_at, updated_at
		 FROM threads WHERE thread_id = ?`, threadID)
	t, err := scanThread(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.StoreError{Op: "get thread", Err: err}
	}
	return &t, nil
}

// ListByUserAndAgent implements Repository.
func (r *SQLRepository) ListByUserAndAgent(ctx context.Context, userID, agent string) ([]Thread, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT thread_id, user_id, agent, title, created_at, updated_at
		 FROM threads WHERE user_id = ? AND agent = ? ORDER BY updated_at DESC`,
		userID, agent,
	)
	if err != nil {
		return nil, &core.StoreError{Op: "list threads", Err: err}
	}
	defer rows.Close()

	var result []Thread
	for rows.Next() {
		t, err := scanThread(rows.Scan)
		if err != nil {
			return nil, &core.StoreError{Op: "list threads", Err: err}
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "list threads", Err: err}
	}
	return result, nil
}

// UpdateTitle implements Repository.
func (r *SQLRepository) UpdateTitle(ctx context.Context, threadID, title string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE threads SET title = ?, updated_at = ? WHERE thread_id = ?",
		title, time.Now(), threadID,
	)
	if err != nil {
		return &core.StoreError{Op: "update thread title", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: thread %s not found", core.ErrInvalidArgument, threadID)
	}
	return nil
}

// Delete implements Repository.
func (r *SQLRepository) Delete(ctx context.Context, threadID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM threads WHERE thread_id = ?", threadID); err != nil {
		return &core.StoreError{Op: "delete thread", Err: err}
	}
	return nil
}

func scanThread(scan func(dest ...any) error) (Thread, error) {
	var t Thread
	err := scan(&t.ThreadID, &t.UserID, &t.Agent, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
