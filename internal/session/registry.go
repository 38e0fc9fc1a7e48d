// ABOUTME: Process-wide registry of live chat sessions and their transcripts
// ABOUTME: Owns creation and teardown of per-session in-memory state

package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/parley/internal/store"
)

// ErrSessionActive indicates a live entry already exists for the session id.
var ErrSessionActive = errors.New("session already active")

// ErrUnknownSession indicates no live entry exists for the session id.
var ErrUnknownSession = errors.New("unknown session")

// Message is one entry in a session's in-memory transcript.
type Message struct {
	Role    store.Role
	Content string
}

// entry is the per-session state held while a connection is live.
type entry struct {
	transcript  []Message
	connectedAt time.Time
}

// Registry tracks which sessions are currently connected and holds each
// one's mutable conversation transcript. At most one live entry exists per
// session id; Unregister's return value is the single signal used to
// schedule finalization exactly once.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	logger   *slog.Logger
}

// NewRegistry creates an empty Registry. Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		logger:   logger.With("component", "registry"),
	}
}

// Register creates a live entry with an empty transcript for the session id.
// Returns ErrSessionActive if an entry already exists.
func (r *Registry) Register(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; exists {
		return ErrSessionActive
	}

	r.sessions[sessionID] = &entry{connectedAt: time.Now()}
	r.logger.Info("session registered",
		"session_id", sessionID,
		"active_sessions", len(r.sessions),
	)
	return nil
}

// AppendMessage appends a message to the session's transcript.
// Returns ErrUnknownSession if no live entry exists, which can happen when a
// disconnect races the current response cycle — callers must treat that as a
// signal to stop, not as a fatal error.
func (r *Registry) AppendMessage(sessionID string, role store.Role, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}

	e.transcript = append(e.transcript, Message{Role: role, Content: content})
	return nil
}

// Snapshot returns a copy of the session's transcript, safe to iterate while
// the live transcript keeps growing. Returns ErrUnknownSession if no live
// entry exists.
func (r *Registry) Snapshot(sessionID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrUnknownSession
	}

	transcript := make([]Message, len(e.transcript))
	copy(transcript, e.transcript)
	return transcript, nil
}

// Unregister removes the session's entry and reports whether one existed.
// The removal and the report are atomic: under concurrent disconnect paths
// exactly one caller observes true, so exactly one finalize job is scheduled.
func (r *Registry) Unregister(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, existed := r.sessions[sessionID]
	if !existed {
		return false
	}

	delete(r.sessions, sessionID)
	r.logger.Info("session unregistered",
		"session_id", sessionID,
		"transcript_len", len(e.transcript),
		"active_sessions", len(r.sessions),
	)
	return true
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
