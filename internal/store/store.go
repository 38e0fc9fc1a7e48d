// ABOUTME: Store interface and data types for parley persistence
// ABOUTME: Defines Session, Event structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSession is returned when trying to create a session that already exists
var ErrDuplicateSession = errors.New("session already exists")

// AnonymousUser is the user id recorded for sessions that carry no identity.
const AnonymousUser = "anonymous"

// Role identifies the author of an event within a session.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Session represents one client conversation, keyed by a caller-supplied id.
// EndTime, DurationSeconds and Summary stay nil until the finalizer runs.
type Session struct {
	ID              string
	UserID          string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int
	Summary         *string
}

// Event is one durable record of a single message within a session.
// Events are append-only; they are never mutated or deleted.
type Event struct {
	ID        string
	SessionID string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Store defines the interface for session and event persistence
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSessionSummary(ctx context.Context, id, summary string, durationSeconds int, endTime time.Time) error

	// Events (append-only conversation ledger)
	InsertEvent(ctx context.Context, event *Event) error
	GetSessionHistory(ctx context.Context, sessionID string) ([]*Event, error)

	// Close releases any resources held by the store
	Close() error
}
