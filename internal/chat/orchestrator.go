// ABOUTME: Per-connection session orchestrator - the core chat state machine
// ABOUTME: Serializes message/response cycles, streams parts in order, guarantees finalize-once

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/2389/parley/internal/generator"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/store"
)

// state tracks the per-connection lifecycle. Transitions are linear:
// Connecting -> Active -> Draining -> Closed.
type state int

const (
	stateConnecting state = iota
	stateActive
	stateDraining
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateActive:
		return "active"
	case stateDraining:
		return "draining"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Streamer produces the ordered response parts for one cycle.
type Streamer interface {
	Stream(ctx context.Context, transcript []session.Message) <-chan generator.Part
}

// Finalizer runs the post-session close-out for a session id.
type Finalizer interface {
	Run(ctx context.Context, sessionID string)
}

// Orchestrator drives one WebSocket connection per call to HandleSession.
// It owns no cross-session state; everything shared lives in the registry.
type Orchestrator struct {
	registry  *session.Registry
	writer    *store.Writer
	streamer  Streamer
	finalizer Finalizer
	logger    *slog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators. Pass nil logger
// for default.
func NewOrchestrator(registry *session.Registry, writer *store.Writer, streamer Streamer, finalizer Finalizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:  registry,
		writer:    writer,
		streamer:  streamer,
		finalizer: finalizer,
		logger:    logger.With("component", "orchestrator"),
	}
}

// HandleSession runs the full lifecycle of one connection: register the
// session, stream response cycles until the peer goes away, then tear down
// and schedule finalization exactly once. It never panics outward and never
// returns an error — any failure is terminal for this session only.
func (o *Orchestrator) HandleSession(ctx context.Context, conn *websocket.Conn, sessionID string) {
	log := o.logger.With("session_id", sessionID)

	st := stateConnecting
	registered := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("orchestrator panic recovered", "panic", r, "state", st.String())
		}
		st = stateClosed
		// Closed: the unregister result is the only finalize trigger, so
		// overlapping exit paths schedule at most one run. A rejected
		// connection never unregisters - the entry belongs to another handler.
		if registered && o.registry.Unregister(sessionID) {
			go o.finalizer.Run(context.WithoutCancel(ctx), sessionID)
		}
	}()

	// Connecting
	if err := o.registry.Register(sessionID); err != nil {
		log.Warn("rejecting connection", "error", err)
		_ = conn.WriteJSON(Frame{Type: FrameError, Content: fmt.Sprintf("Session %s is already active", sessionID)})
		return
	}
	registered = true

	// The durable session record is created in the background. If it fails
	// the live chat still proceeds: availability over persistence.
	o.writer.CreateSession(&store.Session{
		ID:        sessionID,
		UserID:    store.AnonymousUser,
		StartTime: time.Now().UTC(),
	})

	if err := conn.WriteJSON(Frame{Type: FrameSystem, Content: "Connected to session: " + sessionID}); err != nil {
		log.Warn("welcome frame failed", "error", err)
		return
	}

	log.Info("client connected")
	st = stateActive

	// Active: one cycle per inbound message, strictly sequential. The next
	// message is not read until the current cycle reached its end frame.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			st = stateDraining
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("client disconnected")
			} else {
				log.Warn("connection read failed", "error", err)
			}
			return
		}

		if err := o.runCycle(ctx, conn, sessionID, data, log); err != nil {
			st = stateDraining
			log.Warn("response cycle aborted", "error", err)
			return
		}
	}
}

// runCycle handles one inbound payload through the terminal end frame.
// A non-nil return means the connection is unusable and the session should
// drain; client-input errors are reported on the connection and return nil.
func (o *Orchestrator) runCycle(ctx context.Context, conn *websocket.Conn, sessionID string, data []byte, log *slog.Logger) error {
	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return conn.WriteJSON(Frame{Type: FrameError, Content: "Invalid JSON format"})
	}
	if in.Message == "" {
		return conn.WriteJSON(Frame{Type: FrameError, Content: "Empty message received"})
	}

	log.Debug("message received", "length", len(in.Message))

	if err := o.registry.AppendMessage(sessionID, store.RoleUser, in.Message); err != nil {
		// Entry vanished mid-cycle: the disconnect path already won.
		return fmt.Errorf("appending user message: %w", err)
	}
	o.dispatchEvent(sessionID, store.RoleUser, in.Message)

	transcript, err := o.registry.Snapshot(sessionID)
	if err != nil {
		return fmt.Errorf("snapshotting transcript: %w", err)
	}

	fullResponse, err := o.streamResponse(ctx, conn, sessionID, transcript)
	if err != nil {
		return err
	}

	if err := conn.WriteJSON(Frame{Type: FrameEnd, Content: ""}); err != nil {
		return fmt.Errorf("writing end frame: %w", err)
	}

	if err := o.registry.AppendMessage(sessionID, store.RoleAssistant, fullResponse); err != nil {
		return fmt.Errorf("appending assistant message: %w", err)
	}
	o.dispatchEvent(sessionID, store.RoleAssistant, fullResponse)

	log.Debug("response cycle complete", "response_length", len(fullResponse))
	return nil
}

// streamResponse consumes the generator's parts strictly in order,
// forwarding each as a frame and folding text into the running buffers.
// The part stream is always fully drained, even after a send failure, so
// the generator goroutine can terminate.
func (o *Orchestrator) streamResponse(ctx context.Context, conn *websocket.Conn, sessionID string, transcript []session.Message) (string, error) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parts := o.streamer.Stream(cycleCtx, transcript)

	var fullResponse strings.Builder
	var toolActivity strings.Builder
	var sendErr error

	for part := range parts {
		if sendErr != nil {
			continue // draining after a failed send
		}

		var frame Frame
		switch part.Type {
		case generator.PartToken:
			fullResponse.WriteString(part.Content)
			frame = Frame{Type: FrameToken, Content: part.Content}

		case generator.PartToolCall:
			toolActivity.WriteString(part.Content + "\n")
			frame = Frame{Type: FrameToolCall, Content: part.Content}

		case generator.PartToolResult:
			toolActivity.WriteString(part.Content + "\n")
			o.dispatchEvent(sessionID, store.RoleTool, part.Content)
			frame = Frame{Type: FrameToolResult, Content: part.Content}

		case generator.PartError:
			// Forwarded as-is; the generator decides whether to continue.
			frame = Frame{Type: FrameError, Content: part.Content}

		default:
			o.logger.Warn("unknown part type", "type", part.Type)
			continue
		}

		if err := conn.WriteJSON(frame); err != nil {
			sendErr = fmt.Errorf("writing %s frame: %w", frame.Type, err)
			cancel()
		}
	}

	if sendErr != nil {
		return "", sendErr
	}
	return fullResponse.String(), nil
}

// dispatchEvent fires a non-blocking durable write for one ledger event.
func (o *Orchestrator) dispatchEvent(sessionID string, role store.Role, content string) {
	o.writer.InsertEvent(&store.Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}
