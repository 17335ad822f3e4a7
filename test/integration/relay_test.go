// Package integration contains end-to-end tests that run the relay behind a
// real HTTP server and talk to it over actual WebSocket connections.
package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawhub/drawhub/internal/server"
	"github.com/drawhub/drawhub/test/testhelpers"
)

const allowedOrigin = "http://localhost:8080"

func TestHealthEndpoint(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	resp := testhelpers.MakeRequest(t, http.MethodGet, relay.Server.URL+"/")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
}

func TestTestPageIsServed(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	resp := testhelpers.MakeRequest(t, http.MethodGet, relay.Server.URL+"/test")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
}

func TestWebSocketEndpointRejectsNonGet(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	resp := testhelpers.MakeRequest(t, http.MethodPost, relay.Server.URL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestOriginAllowList(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	conn, err := testhelpers.DialOrigin(relay, allowedOrigin)
	require.NoError(t, err)
	_ = conn.Close()

	_, err = testhelpers.DialOrigin(relay, "http://evil.example.com")
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)

	_, err = testhelpers.DialOrigin(relay, "")
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

// TestEndToEndCollaboration walks two connections through the full life of a
// room: create, join with replay, drawing, chat, clear, and departure.
// Self-exclusion is verified by ordering: a client's next received envelope
// is always the other side's event, never an echo of its own.
func TestEndToEndCollaboration(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	alice := testhelpers.Dial(t, relay, allowedOrigin)
	bob := testhelpers.Dial(t, relay, allowedOrigin)

	// Alice creates r1 and receives the join announcement herself.
	testhelpers.SendEnvelope(t, alice, map[string]any{
		"type": "create_room", "roomId": "r1", "username": "alice",
	})
	joined := testhelpers.ReadEnvelope(t, alice)
	require.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, []any{"alice"}, joined["users"])
	assert.EqualValues(t, 1, joined["userCount"])
	assert.Equal(t, []any{}, joined["drawings"])

	// Bob joins; both sides see the updated membership.
	testhelpers.SendEnvelope(t, bob, map[string]any{
		"type": "join_room", "roomId": "r1", "username": "bob",
	})
	for _, conn := range []*websocket.Conn{alice, bob} {
		joined = testhelpers.ReadEnvelope(t, conn)
		require.Equal(t, "user_joined", joined["type"])
		assert.Equal(t, []any{"alice", "bob"}, joined["users"])
		assert.EqualValues(t, 2, joined["userCount"])
	}

	// Alice draws; Bob receives the event verbatim.
	testhelpers.SendEnvelope(t, alice, map[string]any{
		"type": "draw", "roomId": "r1", "x1": 1, "y1": 2, "x2": 3, "y2": 4,
	})
	draw := testhelpers.ReadEnvelope(t, bob)
	require.Equal(t, "draw", draw["type"])
	assert.EqualValues(t, 1, draw["x1"])
	assert.EqualValues(t, 4, draw["y2"])

	// Bob chats; Alice's next envelope is the chat, not an echo of her draw.
	testhelpers.SendEnvelope(t, bob, map[string]any{
		"type": "chat", "message": "nice line",
	})
	chat := testhelpers.ReadEnvelope(t, alice)
	require.Equal(t, "chat", chat["type"])
	assert.Equal(t, "bob", chat["username"])
	assert.Equal(t, "nice line", chat["message"])
	assert.NotZero(t, chat["timestamp"])

	// Alice clears; Bob's next envelope is the clear, not an echo of his chat.
	testhelpers.SendEnvelope(t, alice, map[string]any{"type": "clear", "roomId": "r1"})
	clear := testhelpers.ReadEnvelope(t, bob)
	assert.Equal(t, "clear", clear["type"])

	// A late joiner after the clear receives an empty history.
	carol := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, carol, map[string]any{
		"type": "join_room", "roomId": "r1", "username": "carol",
	})
	joined = testhelpers.ReadEnvelope(t, carol)
	require.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, []any{}, joined["drawings"])
	testhelpers.ReadEnvelope(t, alice) // alice and bob see carol's join too
	testhelpers.ReadEnvelope(t, bob)

	// Bob disconnects; the remaining members are told who is left.
	require.NoError(t, bob.Close())
	left := testhelpers.ReadEnvelope(t, alice)
	require.Equal(t, "user_left", left["type"])
	assert.Equal(t, []any{"alice", "carol"}, left["users"])
	assert.EqualValues(t, 2, left["userCount"])
}

// TestReplayToNewJoiner verifies that drawing history accumulated before a
// join is delivered inside the join announcement, in original order.
func TestReplayToNewJoiner(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	alice := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, alice, map[string]any{
		"type": "create_room", "roomId": "board", "username": "alice",
	})
	testhelpers.ReadEnvelope(t, alice)

	testhelpers.SendEnvelope(t, alice, map[string]any{"type": "start", "x1": 0, "y1": 0})
	testhelpers.SendEnvelope(t, alice, map[string]any{"type": "draw", "x1": 0, "y1": 0, "x2": 5, "y2": 5})
	testhelpers.SendEnvelope(t, alice, map[string]any{"type": "rectangle", "x1": 1, "y1": 1, "x2": 2, "y2": 2})

	bob := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, bob, map[string]any{
		"type": "join_room", "roomId": "board", "username": "bob",
	})

	joined := testhelpers.ReadEnvelope(t, bob)
	require.Equal(t, "user_joined", joined["type"])
	drawings, ok := joined["drawings"].([]any)
	require.True(t, ok)
	require.Len(t, drawings, 3)

	first, ok := drawings[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "start", first["type"])
	last, ok := drawings[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rectangle", last["type"])
}

func TestExpectedNegativeOutcomes(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	alice := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, alice, map[string]any{
		"type": "create_room", "roomId": "taken", "username": "alice",
	})
	testhelpers.ReadEnvelope(t, alice)

	// Creating an existing room notifies only the requester.
	bob := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, bob, map[string]any{
		"type": "create_room", "roomId": "taken", "username": "bob",
	})
	reply := testhelpers.ReadEnvelope(t, bob)
	assert.Equal(t, "room_exists", reply["type"])

	// Joining a room that never existed.
	testhelpers.SendEnvelope(t, bob, map[string]any{
		"type": "join_room", "roomId": "ghost", "username": "bob",
	})
	reply = testhelpers.ReadEnvelope(t, bob)
	assert.Equal(t, "room_not_found", reply["type"])

	// The other member saw none of it.
	testhelpers.AssertNoEnvelope(t, alice, 200*time.Millisecond)
}

// TestMalformedFrameKeepsConnectionOpen sends garbage, expects the generic
// error reply, and then uses the same connection for a successful create.
func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	conn := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendRaw(t, conn, "{definitely not json")

	reply := testhelpers.ReadEnvelope(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "Invalid data format", reply["message"])

	testhelpers.SendEnvelope(t, conn, map[string]any{
		"type": "create_room", "roomId": "recovered", "username": "alice",
	})
	joined := testhelpers.ReadEnvelope(t, conn)
	assert.Equal(t, "user_joined", joined["type"])
}

func TestGracefulShutdownClosesClients(t *testing.T) {
	relay := testhelpers.StartRelay(t, server.DefaultConfig())

	conn := testhelpers.Dial(t, relay, allowedOrigin)
	testhelpers.SendEnvelope(t, conn, map[string]any{
		"type": "create_room", "roomId": "r1", "username": "alice",
	})
	testhelpers.ReadEnvelope(t, conn)

	require.NoError(t, relay.Hub.Shutdown(5*time.Second))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
