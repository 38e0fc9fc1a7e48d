// ABOUTME: Tests for the session finalizer and summary heuristic
// ABOUTME: Covers empty sessions, duration clamping, topic tagging, and failure absorption

package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) (*store.MockStore, *Finalizer) {
	t.Helper()

	mock := store.NewMockStore()
	f := NewFinalizer(mock, discardLogger())
	return mock, f
}

func insertEvents(t *testing.T, mock *store.MockStore, sessionID string, entries []store.Event) {
	t.Helper()

	for _, e := range entries {
		e.ID = uuid.New().String()
		e.SessionID = sessionID
		err := mock.InsertEvent(context.Background(), &e)
		require.NoError(t, err)
	}
}

func TestFinalizer_EmptySession(t *testing.T) {
	mock, f := newFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Minute)
	require.NoError(t, mock.CreateSession(ctx, &store.Session{ID: "sess-empty", StartTime: start}))

	f.Run(ctx, "sess-empty")

	session, err := mock.GetSession(ctx, "sess-empty")
	require.NoError(t, err)

	require.NotNil(t, session.Summary)
	assert.Equal(t, EmptySessionSummary, *session.Summary)
	require.NotNil(t, session.DurationSeconds)
	assert.Equal(t, 0, *session.DurationSeconds)
	assert.NotNil(t, session.EndTime)
}

func TestFinalizer_SummaryAndDuration(t *testing.T) {
	mock, f := newFixture(t)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, mock.CreateSession(ctx, &store.Session{ID: "sess-1", StartTime: start}))
	insertEvents(t, mock, "sess-1", []store.Event{
		{Role: store.RoleUser, Content: "tell me about websockets", Timestamp: start},
		{Role: store.RoleAssistant, Content: "WebSockets enable...", Timestamp: start.Add(time.Second)},
		{Role: store.RoleUser, Content: "now fetch my stats", Timestamp: start.Add(2 * time.Second)},
		{Role: store.RoleTool, Content: `{"total_sessions": 42}`, Timestamp: start.Add(3 * time.Second)},
		{Role: store.RoleAssistant, Content: "The data shows...", Timestamp: start.Add(4 * time.Second)},
	})

	// Pin the clock three minutes after the session started.
	f.now = func() time.Time { return start.Add(3 * time.Minute) }

	f.Run(ctx, "sess-1")

	session, err := mock.GetSession(ctx, "sess-1")
	require.NoError(t, err)

	require.NotNil(t, session.Summary)
	assert.Contains(t, *session.Summary, "2 user message(s)")
	assert.Contains(t, *session.Summary, "2 AI response(s)")
	assert.Contains(t, *session.Summary, "1 tool call(s)")
	assert.Contains(t, *session.Summary, "WebSockets")
	assert.Contains(t, *session.Summary, "Data Retrieval")

	require.NotNil(t, session.DurationSeconds)
	assert.Equal(t, 180, *session.DurationSeconds)
}

func TestFinalizer_DurationClampedToZero(t *testing.T) {
	mock, f := newFixture(t)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, mock.CreateSession(ctx, &store.Session{ID: "sess-clock", StartTime: start}))
	insertEvents(t, mock, "sess-clock", []store.Event{
		{Role: store.RoleUser, Content: "hello", Timestamp: start},
	})

	// Clock skew: now before the recorded start.
	f.now = func() time.Time { return start.Add(-time.Minute) }

	f.Run(ctx, "sess-clock")

	session, err := mock.GetSession(ctx, "sess-clock")
	require.NoError(t, err)
	require.NotNil(t, session.DurationSeconds)
	assert.Equal(t, 0, *session.DurationSeconds)
}

func TestFinalizer_MissingSessionIsQuiet(t *testing.T) {
	_, f := newFixture(t)

	// Must not panic or error out.
	f.Run(context.Background(), "never-created")
}

func TestFinalizer_StoreFailureIsAbsorbed(t *testing.T) {
	mock, f := newFixture(t)
	mock.CreateSessionErr = errors.New("unused") // failure injection unrelated to reads

	f.Run(context.Background(), "missing")

	// Reaching here without a panic is the contract: failures are logged only.
	_, err := mock.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummarize_Deterministic(t *testing.T) {
	events := []*store.Event{
		{Role: store.RoleUser, Content: "analyze my database performance"},
		{Role: store.RoleAssistant, Content: "Looking at it now."},
	}

	first := Summarize(events)
	second := Summarize(events)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "Databases")
}

func TestSummarize_GeneralConversation(t *testing.T) {
	events := []*store.Event{
		{Role: store.RoleUser, Content: "hello there"},
		{Role: store.RoleAssistant, Content: "Hello!"},
	}

	got := Summarize(events)
	assert.Contains(t, got, "1 user message(s) and 1 AI response(s)")
	assert.Contains(t, got, "General conversation.")
	assert.NotContains(t, got, "tool call")
}

func TestSummarize_TopicsFromFirstThreeUserMessagesOnly(t *testing.T) {
	events := []*store.Event{
		{Role: store.RoleUser, Content: "one"},
		{Role: store.RoleUser, Content: "two"},
		{Role: store.RoleUser, Content: "three"},
		{Role: store.RoleUser, Content: "four about websockets"},
	}

	got := Summarize(events)
	assert.NotContains(t, got, "WebSockets")
}
