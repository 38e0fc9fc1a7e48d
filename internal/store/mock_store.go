// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session // keyed by session ID
	events   map[string][]*Event // keyed by session ID, in insertion order

	// Optional failure injection
	CreateSessionErr error
	InsertEventErr   error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string]*Session),
		events:   make(map[string][]*Event),
	}
}

// CreateSession stores a new session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	if m.CreateSessionErr != nil {
		return m.CreateSessionErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}

	// Make a copy to avoid external modification
	s := *session
	if s.UserID == "" {
		s.UserID = AnonymousUser
	}
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a session by ID.
func (m *MockStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	s := *session
	return &s, nil
}

// UpdateSessionSummary sets summary, duration and end time on a stored session.
func (m *MockStore) UpdateSessionSummary(ctx context.Context, id, summary string, durationSeconds int, endTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}

	session.Summary = &summary
	session.DurationSeconds = &durationSeconds
	session.EndTime = &endTime
	return nil
}

// InsertEvent appends an event for a session.
func (m *MockStore) InsertEvent(ctx context.Context, event *Event) error {
	if m.InsertEventErr != nil {
		return m.InsertEventErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := *event
	m.events[e.SessionID] = append(m.events[e.SessionID], &e)
	return nil
}

// GetSessionHistory returns a session's events ordered by timestamp,
// with insertion order as the tiebreaker (mirrors the SQLite rowid order).
func (m *MockStore) GetSessionHistory(ctx context.Context, sessionID string) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.events[sessionID]
	events := make([]*Event, len(stored))
	for i, e := range stored {
		copied := *e
		events[i] = &copied
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
