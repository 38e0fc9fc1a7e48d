// ABOUTME: Tests for the HTTP surface: status, health, and WebSocket routing
// ABOUTME: Exercises the fully wired server against a real sqlite store

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/config"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "parley.db")
	cfg.Generator.TokenDelay = -1 // no pacing in tests

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(func() {
		ts.Close()
		s.writer.Close()
		_ = s.store.Close()
	})
	return s, ts
}

func getJSON(t *testing.T, url string) (map[string]any, *http.Response) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body, resp
}

func TestHandleRoot(t *testing.T) {
	_, ts := newTestServer(t)

	body, resp := getJSON(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "/ws/session/{session_id}", body["websocket_endpoint"])
	assert.EqualValues(t, 0, body["active_sessions"])
}

func TestHandleRoot_UnknownPath(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleRoot_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	body, resp := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "parley", body["service"])
	assert.Equal(t, Version, body["version"])

	features, ok := body["features"].(map[string]any)
	require.True(t, ok, "features must be an object")
	for _, feature := range []string{
		"websocket_streaming",
		"llm_interaction",
		"tool_calling",
		"database_persistence",
		"post_session_processing",
	} {
		assert.Equal(t, true, features[feature], feature)
	}
}

func TestHandleWebSocket_BadSessionID(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/ws/session/", "/ws/session/a/b"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestHandleWebSocket_EndToEnd(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/session/e2e-session"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frame struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "system", frame.Type)
	assert.Equal(t, "Connected to session: e2e-session", frame.Content)

	assert.Equal(t, 1, s.registry.Active())

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "hello"}))

	sawToken := false
	for {
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == "end" {
			break
		}
		require.Equal(t, "token", frame.Type)
		sawToken = true
	}
	assert.True(t, sawToken, "expected at least one token before the end frame")
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// The default config allows any origin.
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
