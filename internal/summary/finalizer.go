// ABOUTME: Best-effort post-session finalizer computing summary and duration
// ABOUTME: Runs in the background after disconnect; all failures are logged, never propagated

// Package summary closes out sessions after they end. The finalizer reads
// the durable event ledger, derives a short human-readable summary and the
// session duration, and writes them back onto the session record. It is
// advisory: a failed finalization leaves the session record open-ended and
// the chat history intact.
package summary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/parley/internal/store"
)

// EmptySessionSummary is recorded for sessions that exchanged no messages.
const EmptySessionSummary = "Empty session - no messages exchanged."

// runTimeout bounds one finalization run against a slow store.
const runTimeout = 30 * time.Second

// Finalizer computes and persists closing summaries for ended sessions.
type Finalizer struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewFinalizer creates a Finalizer. Pass nil logger for default.
func NewFinalizer(s store.Store, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		store:  s,
		logger: logger.With("component", "finalizer"),
		now:    time.Now,
	}
}

// Run finalizes one session: fetch the session record and its events,
// compute summary and duration, and persist them. Every failure path logs
// and returns quietly — finalization is idempotent best-effort and must
// never affect the connection teardown that scheduled it.
func (f *Finalizer) Run(ctx context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	log := f.logger.With("session_id", sessionID)
	log.Debug("processing session end")

	session, err := f.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("session not found, skipping finalization")
		} else {
			log.Error("fetching session failed", "error", err)
		}
		return
	}

	events, err := f.store.GetSessionHistory(ctx, sessionID)
	if err != nil {
		log.Error("fetching session history failed", "error", err)
		return
	}

	var summaryText string
	var duration int
	if len(events) == 0 {
		summaryText = EmptySessionSummary
		duration = 0
	} else {
		summaryText = Summarize(events)
		duration = int(f.now().Sub(session.StartTime).Seconds())
		if duration < 0 {
			duration = 0
		}
	}

	if err := f.store.UpdateSessionSummary(ctx, sessionID, summaryText, duration, f.now()); err != nil {
		log.Error("updating session summary failed", "error", err)
		return
	}

	log.Info("session finalized",
		"summary", summaryText,
		"duration_seconds", duration,
	)
}
