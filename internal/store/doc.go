// ABOUTME: Package documentation for the store package
// ABOUTME: Explains the persistence model and the background writer

// Package store provides durable persistence for sessions and their
// conversation events.
//
// # Data model
//
// A Session row is created when a connection is first accepted and mutated
// exactly once more, by the finalizer, when the session ends. Events are an
// append-only ledger: one row per user, assistant, or tool message, ordered
// by timestamp with the SQLite rowid as a stable tiebreaker for same-instant
// writes.
//
// # Implementations
//
//   - SQLiteStore: production store backed by modernc.org/sqlite with
//     schema-on-open and WAL enabled.
//   - MockStore: in-memory store for tests.
//
// # Background writes
//
// Live sessions never wait on the database. The Writer type owns a bounded
// job queue drained by a fixed worker pool; CreateSession and InsertEvent
// dispatches return immediately. Failed or overflowed writes are logged and
// dropped — persistence here is at-least-once best-effort by design, and the
// chat keeps flowing even when the store is down.
package store
