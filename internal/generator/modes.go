// ABOUTME: Conversation mode classification and canned reply selection
// ABOUTME: Mode is derived once per cycle from the transcript's first user message

package generator

import (
	"fmt"
	"strings"

	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/store"
)

// Mode labels the conversational register for a session.
type Mode string

const (
	ModeAnalytical Mode = "analytical"
	ModeCasual     Mode = "casual"
)

// analyticalKeywords trigger the analytical mode when found in the first
// user message.
var analyticalKeywords = []string{
	"analyze", "data", "statistics", "report",
	"metrics", "performance", "technical",
}

// classifyMode derives the conversation mode from the transcript's first
// user message. Defaults to casual on no match or an empty transcript.
func classifyMode(transcript []session.Message) Mode {
	for _, msg := range transcript {
		if msg.Role != store.RoleUser {
			continue
		}
		lower := strings.ToLower(msg.Content)
		for _, keyword := range analyticalKeywords {
			if strings.Contains(lower, keyword) {
				return ModeAnalytical
			}
		}
		return ModeCasual
	}
	return ModeCasual
}

// cannedReply picks a response for the message. Keyword buckets first,
// then a mode-flavored fallback that echoes the question back.
func cannedReply(message string, mode Mode) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi"):
		return "Hello! I'm here to help you. How can I assist you today?"

	case strings.Contains(lower, "how are you"):
		return "I'm functioning perfectly, thank you for asking! I'm ready to help with any questions or tasks you have."

	case strings.Contains(lower, "websocket"), strings.Contains(lower, "realtime"):
		return "WebSockets enable real-time, bidirectional communication between clients and servers. This is perfect for chat applications, live updates, and streaming data like we're doing right now!"

	case strings.Contains(lower, "database"):
		return "A durable store keeps every message of this conversation as an append-only event ledger, so the full history can be reconstructed after the session ends."
	}

	if mode == ModeAnalytical {
		return fmt.Sprintf("I understand you're asking about: '%s'. Let me break that down: could you share the specific data points or metrics you'd like me to look at?", message)
	}
	return fmt.Sprintf("I understand you're asking about: '%s'. I'm here to help! Could you provide more details about what you'd like to know?", message)
}
