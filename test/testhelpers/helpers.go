// Package testhelpers provides common utilities for testing the DrawHub relay.
//
// It contains reusable helpers shared by the integration tests: starting a
// relay backed by an httptest server, dialing WebSocket connections with an
// allowed origin, and exchanging JSON envelopes with deadlines.
package testhelpers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drawhub/drawhub/internal/server"
)

// Relay bundles a running hub and its HTTP test server.
type Relay struct {
	Hub    *server.Hub
	Server *httptest.Server
}

// StartRelay boots a hub and HTTP surface with the given config and registers
// cleanup on the test. The returned relay serves /ws on Server.URL.
func StartRelay(t *testing.T, cfg server.Config) *Relay {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := server.NewHub(logger)
	go hub.Run()

	srv := server.NewServer(cfg, hub, logger)
	ts := httptest.NewServer(srv.Routes())

	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(5 * time.Second)
	})

	return &Relay{Hub: hub, Server: ts}
}

// WebSocketURL converts the relay's HTTP URL to its ws:// endpoint.
func (r *Relay) WebSocketURL() string {
	return strings.Replace(r.Server.URL, "http://", "ws://", 1) + "/ws"
}

// Dial opens a WebSocket connection to the relay using an allowed origin and
// registers cleanup on the test.
func Dial(t *testing.T, r *Relay, origin string) *websocket.Conn {
	t.Helper()

	conn, err := DialOrigin(r, origin)
	if err != nil {
		t.Fatalf("Failed to connect websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// DialOrigin opens a WebSocket connection presenting the given Origin header,
// returning the handshake error if the relay refuses it.
func DialOrigin(r *Relay, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(r.WebSocketURL(), headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEnvelope writes one JSON envelope to the connection.
func SendEnvelope(t *testing.T, conn *websocket.Conn, envelope map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(envelope); err != nil {
		t.Fatalf("Failed to send envelope: %v", err)
	}
}

// SendRaw writes raw bytes as one text frame.
func SendRaw(t *testing.T, conn *websocket.Conn, data string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
		t.Fatalf("Failed to send raw frame: %v", err)
	}
}

// ReadEnvelope reads one JSON envelope, failing the test after two seconds.
func ReadEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope map[string]any
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("Failed to read envelope: %v", err)
	}
	return envelope
}

// AssertNoEnvelope verifies nothing arrives on the connection within wait.
func AssertNoEnvelope(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no envelope, received: %s", data)
	}
	if netErr, ok := err.(interface{ Timeout() bool }); !ok || !netErr.Timeout() {
		t.Fatalf("Expected read timeout, got: %v", err)
	}
}

// MakeRequest executes an HTTP request against the relay with a short timeout.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}
