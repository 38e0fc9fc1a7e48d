// ABOUTME: HTTP handlers for status, health, and WebSocket session endpoints
// ABOUTME: The WebSocket handler upgrades and hands the connection to the orchestrator

package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

// handleRoot reports basic liveness and where to connect.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":             "online",
		"message":            "parley is running",
		"websocket_endpoint": "/ws/session/{session_id}",
		"active_sessions":    s.registry.Active(),
	})
}

// handleHealth reports service health and capability flags.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "healthy",
		"service": "parley",
		"version": Version,
		"features": map[string]bool{
			"websocket_streaming":     true,
			"llm_interaction":         true,
			"tool_calling":            true,
			"database_persistence":    true,
			"post_session_processing": true,
		},
	})
}

// handleWebSocket upgrades /ws/session/{session_id} connections and runs
// the orchestrator for the connection's lifetime.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/ws/session/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}
	defer conn.Close()

	s.orchestrator.HandleSession(r.Context(), conn, sessionID)
}
