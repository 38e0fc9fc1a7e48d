// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides session/event persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id       TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			start_time       TEXT NOT NULL,
			end_time         TEXT,
			duration_seconds INTEGER,
			summary          TEXT
		);

		CREATE TABLE IF NOT EXISTS events (
			event_id   TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			timestamp  TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant', 'tool'))
		);

		CREATE INDEX IF NOT EXISTS idx_events_session
			ON events(session_id, timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// CreateSession inserts a new session record.
// Returns ErrDuplicateSession if a session with the same id already exists.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, start_time)
		VALUES (?, ?, ?)
	`

	userID := session.UserID
	if userID == "" {
		userID = AnonymousUser
	}

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		userID,
		session.StartTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateSession
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("session created", "session_id", session.ID, "user_id", userID)
	return nil
}

// GetSession retrieves a session by id. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT session_id, user_id, start_time, end_time, duration_seconds, summary
		FROM sessions
		WHERE session_id = ?
	`

	session := &Session{}
	var startStr string
	var endStr *string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&startStr,
		&endStr,
		&session.DurationSeconds,
		&session.Summary,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session.StartTime, err = time.Parse(time.RFC3339Nano, startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if endStr != nil {
		endTime, err := time.Parse(time.RFC3339Nano, *endStr)
		if err != nil {
			return nil, fmt.Errorf("parsing end_time: %w", err)
		}
		session.EndTime = &endTime
	}

	return session, nil
}

// UpdateSessionSummary sets the closing summary, duration and end time on a session.
// Returns ErrNotFound if the session does not exist.
func (s *SQLiteStore) UpdateSessionSummary(ctx context.Context, id, summary string, durationSeconds int, endTime time.Time) error {
	query := `
		UPDATE sessions
		SET summary = ?, duration_seconds = ?, end_time = ?
		WHERE session_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		summary,
		durationSeconds,
		endTime.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("session summary updated",
		"session_id", id,
		"duration_seconds", durationSeconds,
	)
	return nil
}

// InsertEvent appends an event to the session ledger.
func (s *SQLiteStore) InsertEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (event_id, session_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		string(event.Role),
		event.Content,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	s.logger.Debug("event inserted",
		"event_id", event.ID,
		"session_id", event.SessionID,
		"role", event.Role,
	)
	return nil
}

// GetSessionHistory returns all events for a session ordered by timestamp.
// Same-instant events keep insertion order via the rowid tiebreaker, so a
// session's history always reconstructs in conversation order.
func (s *SQLiteStore) GetSessionHistory(ctx context.Context, sessionID string) ([]*Event, error) {
	query := `
		SELECT event_id, session_id, role, content, timestamp
		FROM events
		WHERE session_id = ?
		ORDER BY timestamp, rowid
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		var role, timestampStr string

		if err := rows.Scan(&event.ID, &event.SessionID, &role, &event.Content, &timestampStr); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		event.Role = Role(role)
		event.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
