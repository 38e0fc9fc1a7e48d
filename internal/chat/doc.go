// ABOUTME: Package documentation for the chat package
// ABOUTME: Describes the orchestrator state machine and its ordering guarantees

// Package chat implements the per-connection session orchestrator, the core
// state machine of the server.
//
// # Lifecycle
//
// Each WebSocket connection runs one HandleSession call through four states:
//
//	Connecting -> Active -> Draining -> Closed
//
// Connecting registers the session and dispatches the durable session-create
// in the background — a store failure there is logged, not fatal, so the
// live chat proceeds. Active is the receive loop. Draining means a
// disconnect or fatal error was observed; nothing further is received and
// outstanding background writes are not awaited. Closed removes the
// registry entry and, if the entry existed, schedules exactly one finalizer
// run.
//
// # Response cycle
//
// One inbound {"message": text} payload produces one cycle:
//
//  1. Malformed JSON or an empty message yields a single error frame and
//     the loop continues — the connection stays open.
//  2. The user message is appended to the transcript and its durable write
//     dispatched without waiting.
//  3. A transcript snapshot feeds the generator, whose parts are forwarded
//     strictly in production order: token, tool_call, tool_result and error
//     parts map one-to-one onto frames. Tool results also dispatch a
//     durable write with the tool role.
//  4. The cycle ends with exactly one end frame, then the accumulated
//     assistant response is appended and dispatched.
//
// No second inbound message is processed until the current cycle reaches
// its end frame, so frames of different cycles never interleave on one
// connection.
//
// # Failure domains
//
// A failure anywhere in a cycle terminates that session only. Transport
// errors are normal session end. The generator's part channel is always
// drained, even after a failed send, so its goroutine can exit.
package chat
