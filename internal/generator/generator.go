// ABOUTME: Mock streaming response generator with tool calling support
// ABOUTME: Produces an ordered, finite stream of typed parts for one response cycle

package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/tools"
)

// PartType tags one unit of the generator's output stream.
type PartType string

const (
	PartToken      PartType = "token"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
	PartError      PartType = "error"
)

// Part is one unit of a streamed response. Only its text survives the
// cycle: the orchestrator folds it into the transcript and the event ledger.
type Part struct {
	Type    PartType
	Content string
}

// DefaultTokenDelay paces token emission to simulate a real model.
const DefaultTokenDelay = 30 * time.Millisecond

// Generator produces mock streamed responses. It keeps no state across
// calls; swapping in a real LLM backend means replacing this type behind
// the same Stream signature.
type Generator struct {
	tools      *tools.Registry
	tokenDelay time.Duration
	logger     *slog.Logger
}

// New creates a Generator. A negative tokenDelay disables pacing (used in
// tests); zero selects DefaultTokenDelay. Pass nil logger for default.
func New(registry *tools.Registry, tokenDelay time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenDelay == 0 {
		tokenDelay = DefaultTokenDelay
	}
	if tokenDelay < 0 {
		tokenDelay = 0
	}
	return &Generator{
		tools:      registry,
		tokenDelay: tokenDelay,
		logger:     logger.With("component", "generator"),
	}
}

// Stream produces the response parts for the given transcript snapshot, in
// order, on the returned channel. The channel is closed when the response is
// complete or ctx is cancelled. The sequence is always finite.
//
// If the latest user message requests a named tool, the stream is exactly
// one tool_call, then one tool_result (or one error, ending the stream),
// then tokens narrating the outcome. Otherwise it is tokens only.
func (g *Generator) Stream(ctx context.Context, transcript []session.Message) <-chan Part {
	out := make(chan Part)

	go func() {
		defer close(out)

		mode := classifyMode(transcript)

		var last string
		if len(transcript) > 0 {
			last = transcript[len(transcript)-1].Content
		}

		if call, ok := g.tools.Detect(last); ok {
			g.streamToolResponse(ctx, out, call)
			return
		}

		g.streamTokens(ctx, out, cannedReply(last, mode))
	}()

	return out
}

// streamToolResponse emits the tool_call/tool_result pair followed by a
// token narration of the result.
func (g *Generator) streamToolResponse(ctx context.Context, out chan<- Part, call tools.Call) {
	if !g.emit(ctx, out, Part{Type: PartToolCall, Content: fmt.Sprintf("Calling tool: %s...", call.Name)}) {
		return
	}

	result, err := g.tools.Execute(ctx, call)
	if err != nil {
		g.logger.Warn("tool execution failed", "tool", call.Name, "error", err)
		g.emit(ctx, out, Part{Type: PartError, Content: fmt.Sprintf("Tool execution failed: %v", err)})
		return
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		g.emit(ctx, out, Part{Type: PartError, Content: fmt.Sprintf("Tool execution failed: %v", err)})
		return
	}

	if !g.emit(ctx, out, Part{Type: PartToolResult, Content: string(payload)}) {
		return
	}

	// The metric count is a display heuristic over the result's top-level
	// fields, not a contract.
	narration := fmt.Sprintf(
		"Based on the %s results, here's what I found: The data shows %d key metrics.",
		call.Name, len(result),
	)
	g.streamTokens(ctx, out, narration)
}

// streamTokens tokenizes text and emits each token with pacing delay.
func (g *Generator) streamTokens(ctx context.Context, out chan<- Part, text string) {
	for _, token := range tokenize(text) {
		if g.tokenDelay > 0 {
			select {
			case <-time.After(g.tokenDelay):
			case <-ctx.Done():
				return
			}
		}
		if !g.emit(ctx, out, Part{Type: PartToken, Content: token}) {
			return
		}
	}
}

// emit sends a part unless ctx is cancelled. Reports whether the send happened.
func (g *Generator) emit(ctx context.Context, out chan<- Part, part Part) bool {
	select {
	case out <- part:
		return true
	case <-ctx.Done():
		return false
	}
}

// tokenize splits text into words, whitespace, and punctuation tokens so a
// client can reassemble the exact response by concatenation.
func tokenize(text string) []string {
	var tokens []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for _, r := range text {
		switch r {
		case ' ', '\n', '\t':
			flush()
			tokens = append(tokens, string(r))
		case '.', ',', '!', '?', ';', ':':
			flush()
			tokens = append(tokens, string(r))
		default:
			current = append(current, r)
		}
	}
	flush()

	return tokens
}
