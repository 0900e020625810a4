// Package store persists the session transcript: one row per completed
// query with the user input and the agent's final answer. Tables are
// never persisted; this is an audit trail only.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tablenerd/internal/logging"
)

// SessionStore is a SQLite-backed transcript store.
type SessionStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// TurnRecord is one persisted transcript row.
type TurnRecord struct {
	SessionID  string
	TurnNumber int
	UserInput  string
	Response   string
	CreatedAt  time.Time
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema as needed.
func Open(path string) (*SessionStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SessionStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("session store opened: %s", path)
	return s, nil
}

func (s *SessionStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_history (
			session_id  TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			user_input  TEXT NOT NULL,
			response    TEXT NOT NULL,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, turn_number)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// StoreTurn records one completed query. Uses INSERT OR IGNORE so
// replayed turns are silently skipped.
func (s *SessionStore) StoreTurn(sessionID string, turnNumber int, userInput, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("storing turn: session=%s turn=%d input_len=%d response_len=%d",
		sessionID, turnNumber, len(userInput), len(response))

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO session_history (session_id, turn_number, user_input, response)
		 VALUES (?, ?, ?, ?)`,
		sessionID, turnNumber, userInput, response,
	)
	if err != nil {
		logging.StoreError("failed to store turn: session=%s turn=%d: %v", sessionID, turnNumber, err)
		return err
	}
	return nil
}

// History retrieves up to limit turns of a session, oldest first.
func (s *SessionStore) History(sessionID string, limit int) ([]TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT turn_number, user_input, response, created_at
		 FROM session_history
		 WHERE session_id = ?
		 ORDER BY turn_number ASC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		logging.StoreError("failed to query history: session=%s: %v", sessionID, err)
		return nil, err
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		rec := TurnRecord{SessionID: sessionID}
		if err := rows.Scan(&rec.TurnNumber, &rec.UserInput, &rec.Response, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
