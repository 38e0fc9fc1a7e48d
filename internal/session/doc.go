// ABOUTME: Package documentation for the session package
// ABOUTME: Describes the registry's concurrency contract

// Package session tracks live chat sessions.
//
// The Registry is the only cross-connection shared structure in the server.
// Each live session owns an in-memory transcript, mutated only by the
// goroutine handling that session's connection and read via Snapshot copies.
// All operations take the registry mutex, so appends to a session's
// transcript are mutually exclusive with a concurrent disconnect-triggered
// removal of the same entry.
//
// Unregister atomically removes an entry and reports whether it existed.
// That boolean is the finalize-once guard: overlapping close and error paths
// may both call Unregister, but only one of them sees true.
package session
