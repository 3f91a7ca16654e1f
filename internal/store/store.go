// Package store persists conversations and messages in SQLite. The driver is
// CGO-free (modernc.org/sqlite) so the server builds and tests without a C
// toolchain.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"chatd/internal/common/fsutil"
	"chatd/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT 'New Chat',
	created_ts INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS message (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL REFERENCES conversation (id),
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	token_count INTEGER NOT NULL DEFAULT 0,
	completion_time_ms INTEGER NOT NULL DEFAULT 0,
	created_ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id);
`

// Store wraps the SQLite handle. All methods are safe for concurrent use;
// database/sql serializes access to the underlying connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// A leading '~' in path is expanded and missing parent directories are created.
func Open(path string) (*Store, error) {
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := fsutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// CreateConversation inserts a conversation and returns it with its id set.
func (s *Store) CreateConversation(ctx context.Context, title string) (types.Conversation, error) {
	if title == "" {
		title = "New Chat"
	}
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO conversation (title, created_ts) VALUES (?, ?)", title, now)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Conversation{}, err
	}
	return types.Conversation{ID: id, Title: title, CreatedTs: now}, nil
}

// GetConversation looks up a conversation by id. Returns sql.ErrNoRows when
// absent.
func (s *Store) GetConversation(ctx context.Context, id int64) (types.Conversation, error) {
	var c types.Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, created_ts FROM conversation WHERE id = ?", id).
		Scan(&c.ID, &c.Title, &c.CreatedTs)
	return c, err
}

// CreateMessage inserts a message and returns its id. Assistant placeholders
// are created with empty content and filled in by FinalizeMessage.
func (s *Store) CreateMessage(ctx context.Context, conversationID int64, role, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO message (conversation_id, role, content, created_ts) VALUES (?, ?, ?, ?)",
		conversationID, role, content, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return res.LastInsertId()
}

// FinalizeMessage stores the accumulated content and generation metadata onto
// a previously created placeholder message.
func (s *Store) FinalizeMessage(ctx context.Context, id int64, content string, tokenCount int, completionTimeMs int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE message SET content = ?, token_count = ?, completion_time_ms = ? WHERE id = ?",
		content, tokenCount, completionTimeMs, id)
	if err != nil {
		return fmt.Errorf("finalize message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetMessage looks up a single message by id. Returns sql.ErrNoRows when
// absent.
func (s *Store) GetMessage(ctx context.Context, id int64) (types.Message, error) {
	var m types.Message
	err := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, role, content, token_count, completion_time_ms, created_ts
		 FROM message WHERE id = ?`, id).
		Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.TokenCount, &m.CompletionTimeMs, &m.CreatedTs)
	return m, err
}

// ListMessages returns a conversation's messages in creation order.
func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, token_count, completion_time_ms, created_ts
		 FROM message WHERE conversation_id = ? ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.TokenCount, &m.CompletionTimeMs, &m.CreatedTs); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
