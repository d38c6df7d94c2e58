// Package sink persists the broadcast transcript: what was said, who
// chatted, and which events happened.
package sink

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stellarlinkco/onair/internal/perception"
)

const schema = `
CREATE TABLE IF NOT EXISTS utterances (
	id      TEXT PRIMARY KEY,
	kind    TEXT NOT NULL,
	text    TEXT NOT NULL,
	viewers INTEGER NOT NULL,
	at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS chat (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	message  TEXT NOT NULL,
	platform TEXT NOT NULL,
	at       TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id       TEXT PRIMARY KEY,
	type     TEXT NOT NULL,
	username TEXT,
	amount   REAL,
	at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_utterances_at ON utterances(at);
CREATE INDEX IF NOT EXISTS idx_chat_at ON chat(at);
`

// Store writes the transcript to a SQLite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sink dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sink db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) InsertUtterance(kind, text string, viewers int) error {
	_, err := s.db.Exec(
		"INSERT INTO utterances (id, kind, text, viewers, at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), kind, text, viewers, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert utterance: %w", err)
	}
	return nil
}

func (s *Store) InsertChat(entry perception.ChatEntry) error {
	at := entry.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(
		"INSERT INTO chat (id, username, message, platform, at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), entry.Username, entry.Message, entry.Platform, at.UTC())
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *Store) InsertEvent(ev perception.Event) error {
	_, err := s.db.Exec(
		"INSERT INTO events (id, type, username, amount, at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), ev.Type, ev.Username, ev.Amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// UtteranceCount is used by the status command.
func (s *Store) UtteranceCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM utterances").Scan(&n); err != nil {
		return 0, fmt.Errorf("count utterances: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
