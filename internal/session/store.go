package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists sessions and their transcripts in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a SQLite-backed session store at the given path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			title       TEXT,
			schedule    TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS session_messages (
			seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
			id                  TEXT NOT NULL UNIQUE,
			session_id          TEXT NOT NULL,
			sender              TEXT NOT NULL,
			content             TEXT,
			system_type         TEXT,
			exclude_from_prompt INTEGER NOT NULL DEFAULT 0,
			command_results     TEXT,
			created_at          TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session ON session_messages(session_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_type ON sessions(type);
	`)
	return err
}

// CreateSession creates a new session of the given type.
func (s *Store) CreateSession(sessionType, title, schedule string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Type:      sessionType,
		Title:     title,
		Schedule:  schedule,
		CreatedAt: now,
		UpdatedAt: now,
	}

	nowStr := now.Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, type, title, schedule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Type, sess.Title, sess.Schedule, nowStr, nowStr)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, type, title, schedule, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, type, title, schedule, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ScheduledSessions returns AUTOMATION sessions carrying a cron schedule.
func (s *Store) ScheduledSessions() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, type, title, schedule, created_at, updated_at
		FROM sessions
		WHERE type = ? AND schedule IS NOT NULL AND schedule != ''
	`, TypeAutomation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var title, schedule sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&sess.ID, &sess.Type, &title, &schedule, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.Title = title.String
	sess.Schedule = schedule.String
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		sess.UpdatedAt = t
	}
	return &sess, nil
}

// AppendMessage appends a message to a session transcript and bumps the
// session's updated_at. The message id is assigned here when empty.
func (s *Store) AppendMessage(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now()
	msg.CreatedAt = now
	nowStr := now.Format(time.RFC3339)

	excl := 0
	if msg.ExcludeFromPrompt {
		excl = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO session_messages (id, session_id, sender, content, system_type, exclude_from_prompt, command_results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Sender, msg.Content, msg.SystemType, excl, toJSON(msg.CommandResults), nowStr)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, nowStr, msg.SessionID)
	return err
}

// Messages returns a session's full transcript in append order. The seq
// column carries the ordering; created_at is second precision and UUIDs do
// not sort, so neither can.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, session_id, sender, content, system_type, exclude_from_prompt, command_results, created_at
		FROM session_messages
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var content, systemType, results sql.NullString
		var excl int
		var createdAt string

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &content, &systemType, &excl, &results, &createdAt); err != nil {
			return nil, err
		}
		msg.Content = content.String
		msg.SystemType = systemType.String
		msg.ExcludeFromPrompt = excl != 0
		if results.Valid {
			_ = fromJSON(results.String, &msg.CommandResults)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			msg.CreatedAt = t
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteSession removes a session and its transcript.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM session_messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
