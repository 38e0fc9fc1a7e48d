// ABOUTME: Built-in mock tools returning canned fixture data
// ABOUTME: Stand-ins for real backends; swap the Func impls to integrate live services

package tools

import (
	"context"
	"time"
)

// toolCallDelay simulates the latency of a real backend call.
const toolCallDelay = 100 * time.Millisecond

// getUserStats returns fixed user statistics.
func getUserStats(ctx context.Context, _ string) (map[string]any, error) {
	select {
	case <-time.After(toolCallDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return map[string]any{
		"total_sessions":       42,
		"total_messages":       1337,
		"avg_session_duration": 180,
		"favorite_topics":      []string{"AI", "WebSockets", "Go"},
	}, nil
}

// fetchData returns canned data keyed by query type. Unknown queries fall
// back to the general payload.
func fetchData(ctx context.Context, query string) (map[string]any, error) {
	select {
	case <-time.After(toolCallDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	switch query {
	case "stats":
		return map[string]any{
			"status":  "success",
			"metrics": map[string]any{"cpu": "45%", "memory": "2.1GB", "uptime": "24h"},
		}, nil
	default:
		return map[string]any{
			"status": "success",
			"data":   []string{"Item 1", "Item 2", "Item 3"},
			"count":  3,
		}, nil
	}
}
