// ABOUTME: Named tool registry with keyword-based invocation detection
// ABOUTME: Tools return flat JSON-shaped results consumed by the response generator

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Func is a single invocable tool. Query carries the optional argument
// derived from the user message.
type Func func(ctx context.Context, query string) (map[string]any, error)

// Call describes a detected tool invocation.
type Call struct {
	Name  string
	Query string
}

// Registry holds the available tools and decides when a user message
// requests one.
type Registry struct {
	tools  map[string]Func
	logger *slog.Logger
}

// NewRegistry creates a Registry with the built-in tools installed.
// Pass nil logger for default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tools:  make(map[string]Func),
		logger: logger.With("component", "tools"),
	}
	r.tools["get_user_stats"] = getUserStats
	r.tools["fetch_data"] = fetchData
	return r
}

// Detect reports whether the message requests a named tool.
// Stats keywords win over fetch keywords when both are present.
func (r *Registry) Detect(message string) (Call, bool) {
	lower := strings.ToLower(message)

	for _, keyword := range []string{"stats", "statistics", "user data"} {
		if strings.Contains(lower, keyword) {
			return Call{Name: "get_user_stats"}, true
		}
	}

	for _, keyword := range []string{"fetch", "get data", "retrieve"} {
		if strings.Contains(lower, keyword) {
			query := "general"
			if strings.Contains(lower, "stats") {
				query = "stats"
			}
			return Call{Name: "fetch_data", Query: query}, true
		}
	}

	return Call{}, false
}

// Execute runs the named tool and returns its result.
func (r *Registry) Execute(ctx context.Context, call Call) (map[string]any, error) {
	fn, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("tool %q not found", call.Name)
	}

	result, err := fn(ctx, call.Query)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", call.Name, err)
	}

	r.logger.Debug("tool executed", "tool", call.Name, "query", call.Query)
	return result, nil
}
