// Package server routes inbound frames to room lifecycle and broadcast
// operations.
package server

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Router classifies inbound frames by type and applies them to the registry
// and rooms. Each frame is a self-contained unit; the only state between
// frames is the session carried on the client itself. Router methods run
// exclusively on the hub loop, which makes every handler atomic with respect
// to every other.
type Router struct {
	registry  *RoomRegistry
	broadcast *Broadcaster
	logger    *slog.Logger
	now       func() time.Time
}

// NewRouter creates a router over the given registry and broadcaster.
func NewRouter(registry *RoomRegistry, broadcast *Broadcaster, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:  registry,
		broadcast: broadcast,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleMessage dispatches one inbound frame. Nothing here ever tears down
// the connection: a malformed frame or a panicking handler produces an error
// reply to the sender and the connection keeps serving subsequent frames.
func (rt *Router) HandleMessage(c *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("recovered from handler panic", "client", c.id, "panic", r)
			rt.replyInvalid(c)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		rt.logger.Warn("unparsable frame", "client", c.id, "error", err)
		rt.replyInvalid(c)
		return
	}

	switch env.Type {
	case MsgCreateRoom:
		rt.handleCreateRoom(c, env)
	case MsgJoinRoom:
		rt.handleJoinRoom(c, env)
	case MsgChat:
		rt.handleChat(c, env)
	case MsgStart, MsgDraw, MsgText, MsgRectangle, MsgCircle:
		rt.handleDrawing(c, env.Type, raw)
	case MsgClear:
		rt.handleClear(c, raw)
	default:
		rt.logger.Warn("ignoring frame with unknown type", "client", c.id, "type", env.Type)
	}
}

// HandleDisconnect runs the leave path for a closing connection. Connection
// close is the one reliable lifecycle hook against stale membership, so this
// runs regardless of why the connection went away.
func (rt *Router) HandleDisconnect(c *Client) {
	rt.leaveCurrentRoom(c)
}

func (rt *Router) handleCreateRoom(c *Client, env Envelope) {
	rt.leaveCurrentRoom(c)

	if env.RoomID == "" || env.Username == "" {
		rt.reply(c, ErrorEvent{Type: MsgError, Message: "Room ID and username are required"})
		return
	}

	c.roomID = env.RoomID
	c.username = env.Username

	room, created := rt.registry.Create(env.RoomID)
	if !created {
		rt.reply(c, ErrorEvent{Type: MsgRoomExists, Message: "Room already exists"})
		return
	}
	rt.join(room, c)
}

func (rt *Router) handleJoinRoom(c *Client, env Envelope) {
	rt.leaveCurrentRoom(c)

	if env.RoomID == "" || env.Username == "" {
		rt.reply(c, ErrorEvent{Type: MsgError, Message: "Room ID and username are required"})
		return
	}

	c.roomID = env.RoomID
	c.username = env.Username

	room, found := rt.registry.Lookup(env.RoomID)
	if !found {
		rt.reply(c, ErrorEvent{Type: MsgRoomNotFound, Message: "Room not found"})
		return
	}
	rt.join(room, c)
}

// join adds the connection to the room and announces it. Unlike every other
// broadcast this one includes the joiner, so the joiner receives the current
// username list, member count, and the history needed to redraw the canvas.
func (rt *Router) join(room *Room, c *Client) {
	room.AddMember(c, c.username)
	rt.logger.Info("client joined room",
		"room", room.ID,
		"client", c.id,
		"username", c.username,
		"members", room.MemberCount())

	payload, ok := rt.encode(UserJoinedEvent{
		Type:      MsgUserJoined,
		Users:     room.Usernames(),
		UserCount: room.MemberCount(),
		Drawings:  room.History.Snapshot(),
	})
	if ok {
		rt.broadcast.All(room, payload)
	}
}

// leaveCurrentRoom removes the connection from its current room, if any.
// When the room becomes empty it is deleted with no broadcast; otherwise the
// remaining members receive a user_left event. The departing connection is
// removed before fan-out, so it never sees its own departure.
func (rt *Router) leaveCurrentRoom(c *Client) {
	if c.roomID == "" {
		return
	}
	roomID := c.roomID
	c.roomID = ""

	room, found := rt.registry.Lookup(roomID)
	if !found || !room.HasMember(c) {
		// A failed create/join adopts the room ID without membership;
		// there is nothing to remove and nobody to notify.
		return
	}

	room.RemoveMember(c, c.username)
	rt.logger.Info("client left room",
		"room", roomID,
		"client", c.id,
		"username", c.username,
		"members", room.MemberCount())

	if rt.registry.DeleteIfEmpty(roomID) {
		return
	}

	payload, ok := rt.encode(UserLeftEvent{
		Type:      MsgUserLeft,
		Users:     room.Usernames(),
		UserCount: room.MemberCount(),
	})
	if ok {
		rt.broadcast.All(room, payload)
	}
}

func (rt *Router) handleChat(c *Client, env Envelope) {
	room, ok := rt.currentRoom(c)
	if !ok {
		return
	}
	payload, encoded := rt.encode(ChatEvent{
		Type:      MsgChat,
		Username:  c.username,
		Message:   env.Message,
		Timestamp: rt.now().UnixMilli(),
	})
	if encoded {
		rt.broadcast.Except(room, c, payload)
	}
}

func (rt *Router) handleDrawing(c *Client, eventType string, raw []byte) {
	room, ok := rt.currentRoom(c)
	if !ok {
		return
	}
	room.History.Append(eventType, raw)
	rt.broadcast.Except(room, c, raw)
}

func (rt *Router) handleClear(c *Client, raw []byte) {
	room, ok := rt.currentRoom(c)
	if !ok {
		return
	}
	room.History.Reset()
	rt.broadcast.Except(room, c, raw)
}

func (rt *Router) currentRoom(c *Client) (*Room, bool) {
	if c.roomID == "" {
		return nil, false
	}
	room, found := rt.registry.Lookup(c.roomID)
	if !found {
		rt.logger.Debug("dropped frame for vanished room", "room", c.roomID, "client", c.id)
		return nil, false
	}
	return room, true
}

func (rt *Router) reply(c *Client, v any) {
	if payload, ok := rt.encode(v); ok {
		c.trySend(payload)
	}
}

func (rt *Router) replyInvalid(c *Client) {
	rt.reply(c, ErrorEvent{Type: MsgError, Message: "Invalid data format"})
}

func (rt *Router) encode(v any) ([]byte, bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		rt.logger.Error("failed to encode outbound event", "error", err)
		return nil, false
	}
	return payload, true
}
