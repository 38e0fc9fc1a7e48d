// ABOUTME: Wire frame types for the WebSocket chat protocol
// ABOUTME: Inbound is {"message": text}; outbound is {"type": ..., "content": ...}

package chat

// FrameType enumerates the outbound frame types.
type FrameType string

const (
	FrameSystem     FrameType = "system"
	FrameToken      FrameType = "token"
	FrameToolCall   FrameType = "tool_call"
	FrameToolResult FrameType = "tool_result"
	FrameError      FrameType = "error"
	// FrameEnd terminates one response cycle. Content is empty. Clients use
	// it to distinguish a pause from a fully delivered response.
	FrameEnd FrameType = "end"
)

// Frame is one server-to-client message.
type Frame struct {
	Type    FrameType `json:"type"`
	Content string    `json:"content"`
}

// inboundMessage is the single recognized client-to-server payload shape.
type inboundMessage struct {
	Message string `json:"message"`
}
