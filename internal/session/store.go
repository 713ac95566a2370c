// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists per-bot client identity.
//
// Each bot gets its own chat id, minted client-side as a UUID and
// stored durably before its first use, so the backend can associate
// history with the session across restarts. Operator passwords that
// unlocked a bot's console are kept alongside, so unlocking is a
// one-time affair per bot.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("session store closed")

	// ErrNoPassword indicates no password is saved for the bot.
	ErrNoPassword = errors.New("no saved password")
)

// StoreError wraps store failures with the bot they concern.
type StoreError struct {
	BotID string
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("session store: %s for bot %q: %v", e.Op, e.BotID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// =============================================================================
// STORE
// =============================================================================

// Value kinds for the entries table.
const (
	kindChatID   = "chat_id"
	kindPassword = "password"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	bot_id     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (bot_id, kind)
);
`

// Store is the SQLite-backed per-bot identity store.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// DefaultPath returns the default database location under the user's
// home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".botdeck", "sessions.db"), nil
}

// Open opens (creating if needed) the store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// Single connection: the store serializes access anyway and this
	// avoids SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// =============================================================================
// CHAT IDENTITY
// =============================================================================

// Resolve returns the bot's chat id, minting and persisting a fresh
// UUID when none exists. The id is durable before Resolve returns, so
// it is always safe to put on the wire. isNew reports whether the id
// was just minted.
func (s *Store) Resolve(botID string) (chatID string, isNew bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, &StoreError{BotID: botID, Op: "resolve", Err: ErrClosed}
	}

	existing, err := s.get(botID, kindChatID)
	if err == nil && existing != "" {
		return existing, false, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", false, &StoreError{BotID: botID, Op: "resolve", Err: err}
	}

	fresh := uuid.NewString()
	if err := s.put(botID, kindChatID, fresh); err != nil {
		return "", false, &StoreError{BotID: botID, Op: "resolve", Err: err}
	}
	return fresh, true, nil
}

// Reset abandons the bot's current chat id, minting and persisting a
// new one. The old session's server-side history is simply never
// fetched again.
func (s *Store) Reset(botID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", &StoreError{BotID: botID, Op: "reset", Err: ErrClosed}
	}

	fresh := uuid.NewString()
	if err := s.put(botID, kindChatID, fresh); err != nil {
		return "", &StoreError{BotID: botID, Op: "reset", Err: err}
	}
	return fresh, nil
}

// =============================================================================
// OPERATOR PASSWORDS
// =============================================================================

// Password returns the saved admin password for a bot, or ErrNoPassword.
func (s *Store) Password(botID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", &StoreError{BotID: botID, Op: "password", Err: ErrClosed}
	}

	pw, err := s.get(botID, kindPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &StoreError{BotID: botID, Op: "password", Err: ErrNoPassword}
	}
	if err != nil {
		return "", &StoreError{BotID: botID, Op: "password", Err: err}
	}
	return pw, nil
}

// SetPassword saves the admin password that unlocked a bot.
func (s *Store) SetPassword(botID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &StoreError{BotID: botID, Op: "set password", Err: ErrClosed}
	}

	if err := s.put(botID, kindPassword, password); err != nil {
		return &StoreError{BotID: botID, Op: "set password", Err: err}
	}
	return nil
}

// ForgetPassword drops the saved password, forcing a re-prompt. Used
// after the backend rejects a stored password with 401.
func (s *Store) ForgetPassword(botID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &StoreError{BotID: botID, Op: "forget password", Err: ErrClosed}
	}

	_, err := s.db.Exec(`DELETE FROM entries WHERE bot_id = ? AND kind = ?`, botID, kindPassword)
	if err != nil {
		return &StoreError{BotID: botID, Op: "forget password", Err: err}
	}
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// get reads one entry; callers hold the mutex.
func (s *Store) get(botID, kind string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM entries WHERE bot_id = ? AND kind = ?`,
		botID, kind,
	).Scan(&value)
	return value, err
}

// put upserts one entry; callers hold the mutex.
func (s *Store) put(botID, kind, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO entries (bot_id, kind, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (bot_id, kind) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		botID, kind, value, time.Now().Unix(),
	)
	return err
}
