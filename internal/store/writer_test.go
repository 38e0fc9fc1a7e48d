// ABOUTME: Tests for the background writer pool
// ABOUTME: Covers non-blocking dispatch, queue drain on close, and failure absorption

package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriter_PersistsDispatchedWrites(t *testing.T) {
	mock := NewMockStore()
	w := NewWriter(mock, 2, 16, discardLogger())

	w.CreateSession(&Session{ID: "sess-1", StartTime: time.Now()})
	w.InsertEvent(&Event{ID: "evt-1", SessionID: "sess-1", Role: RoleUser, Content: "hello", Timestamp: time.Now()})
	w.InsertEvent(&Event{ID: "evt-2", SessionID: "sess-1", Role: RoleAssistant, Content: "hi", Timestamp: time.Now()})

	// Close drains the queue before returning.
	w.Close()

	session, err := mock.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)

	events, err := mock.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWriter_StoreFailureIsAbsorbed(t *testing.T) {
	mock := NewMockStore()
	mock.InsertEventErr = errors.New("store down")
	w := NewWriter(mock, 1, 16, discardLogger())

	// Must not block or panic; the failure is logged and dropped.
	w.InsertEvent(&Event{ID: "evt-1", SessionID: "sess-1", Role: RoleUser, Content: "hello", Timestamp: time.Now()})
	w.Close()

	events, err := mock.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWriter_DispatchAfterCloseIsDropped(t *testing.T) {
	mock := NewMockStore()
	w := NewWriter(mock, 1, 16, discardLogger())
	w.Close()

	// Must not panic on the closed queue.
	w.InsertEvent(&Event{ID: "evt-late", SessionID: "sess-1", Role: RoleUser, Content: "late", Timestamp: time.Now()})

	events, err := mock.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	w := NewWriter(NewMockStore(), 1, 16, discardLogger())
	w.Close()
	w.Close()
}
