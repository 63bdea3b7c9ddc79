// Package session persists per-agent conversation history in SQLite so each
// pipeline stage can replay a bounded window of its own prior exchanges.
package session

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of a conversation.
type Message struct {
	Role string
	Text string
}

// Store keeps conversation messages keyed by session ID. By default it uses a
// shared in-memory database that is lost when the process ends; pass a file
// path for persistent history.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and if needed initializes) the session database. dsn may be
// empty, a file path, or any sqlite3 DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", cmp.Or(dsn, "file::memory:?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS agent_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_agent_messages_session
		ON agent_messages (session_id, id)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session index: %w", err)
	}

	return &Store{db: db}, nil
}

// Append adds messages to a session's history in order.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session append: %w", err)
	}
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO agent_messages (session_id, role, content) VALUES (?, ?, ?)
		`, sessionID, m.Role, m.Text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert session message: %w", err)
		}
	}
	return tx.Commit()
}

// Recent returns the latest limit messages of a session in chronological
// order. limit <= 0 returns the full history.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) (_ []Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	if limit <= 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT role, content FROM agent_messages
			WHERE session_id = ?
			ORDER BY id ASC
		`, sessionID)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT role, content FROM agent_messages
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, sessionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query session messages: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil && err == nil {
			err = fmt.Errorf("close session rows: %w", e)
		}
	}()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Text); err != nil {
			return nil, fmt.Errorf("scan session message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read session messages: %w", err)
	}

	if limit > 0 {
		slices.Reverse(out)
	}
	return out, nil
}

// Clear removes all history for a session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM agent_messages WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
