// ABOUTME: Deterministic summary heuristic over a session's event ledger
// ABOUTME: Counts roles and tags topics from keywords in the first user messages

package summary

import (
	"fmt"
	"strings"

	"github.com/2389/parley/internal/store"
)

// topicKeywords maps message keywords to topic tags, checked in order so
// summaries are deterministic for a given event list.
var topicKeywords = []struct {
	keywords []string
	topic    string
}{
	{[]string{"websocket", "realtime"}, "WebSockets"},
	{[]string{"api", "server"}, "APIs"},
	{[]string{"database", "sql", "storage"}, "Databases"},
	{[]string{"data", "fetch", "stats"}, "Data Retrieval"},
}

// summaryContextMessages is how many leading user messages contribute topics.
const summaryContextMessages = 3

// Summarize builds a short human-readable summary from a session's events.
// It is a pure function of the event list.
func Summarize(events []*store.Event) string {
	var userCount, assistantCount, toolCount int
	var userMessages []string

	for _, event := range events {
		switch event.Role {
		case store.RoleUser:
			userCount++
			userMessages = append(userMessages, event.Content)
		case store.RoleAssistant:
			assistantCount++
		case store.RoleTool:
			toolCount++
		}
	}

	parts := []string{
		fmt.Sprintf("Session with %d user message(s) and %d AI response(s).", userCount, assistantCount),
	}

	if toolCount > 0 {
		parts = append(parts, fmt.Sprintf("Used %d tool call(s) for data retrieval.", toolCount))
	}

	if topics := extractTopics(userMessages); len(topics) > 0 {
		parts = append(parts, fmt.Sprintf("Topics discussed: %s.", strings.Join(topics, ", ")))
	} else {
		parts = append(parts, "General conversation.")
	}

	return strings.Join(parts, " ")
}

// extractTopics tags topics from the first few user messages, deduplicated
// in first-seen order.
func extractTopics(userMessages []string) []string {
	if len(userMessages) > summaryContextMessages {
		userMessages = userMessages[:summaryContextMessages]
	}

	var topics []string
	seen := make(map[string]bool)

	for _, msg := range userMessages {
		lower := strings.ToLower(msg)
		for _, entry := range topicKeywords {
			for _, keyword := range entry.keywords {
				if strings.Contains(lower, keyword) && !seen[entry.topic] {
					seen[entry.topic] = true
					topics = append(topics, entry.topic)
					break
				}
			}
		}
	}

	return topics
}
