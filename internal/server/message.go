// Package server defines the wire envelopes exchanged between clients and the
// relay, including the type tags the router dispatches on.
package server

import "encoding/json"

// Inbound message types understood by the router.
const (
	MsgCreateRoom = "create_room"
	MsgJoinRoom   = "join_room"
	MsgChat       = "chat"
	MsgStart      = "start"
	MsgDraw       = "draw"
	MsgText       = "text"
	MsgRectangle  = "rectangle"
	MsgCircle     = "circle"
	MsgClear      = "clear"
)

// Outbound message types produced by the relay.
const (
	MsgUserJoined   = "user_joined"
	MsgUserLeft     = "user_left"
	MsgRoomExists   = "room_exists"
	MsgRoomNotFound = "room_not_found"
	MsgError        = "error"
)

// Envelope is the common shape of every inbound frame. Drawing geometry is
// deliberately not modeled here: drawing frames are stored, replayed, and
// forwarded verbatim from the raw bytes, so the relay only ever reads the
// fields below.
type Envelope struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// UserJoinedEvent announces a join to every member of the room, including the
// joiner, which is how a new member receives the username list and the full
// drawing history needed to reconstruct the canvas.
type UserJoinedEvent struct {
	Type      string            `json:"type"`
	Users     []string          `json:"users"`
	UserCount int               `json:"userCount"`
	Drawings  []json.RawMessage `json:"drawings"`
}

// UserLeftEvent announces a departure to the members that remain.
type UserLeftEvent struct {
	Type      string   `json:"type"`
	Users     []string `json:"users"`
	UserCount int      `json:"userCount"`
}

// ChatEvent carries one chat line with a server-assigned timestamp in
// milliseconds since the Unix epoch.
type ChatEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorEvent is a reply delivered only to the connection that triggered it.
// It covers both hard protocol errors and expected negative outcomes such as
// MsgRoomExists and MsgRoomNotFound, distinguished by Type.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
