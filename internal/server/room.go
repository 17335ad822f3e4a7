// Package server models rooms: the membership set, the username set, and the
// drawing history replayed to new joiners.
package server

import "encoding/json"

// DrawingLog is the per-room ordered history of drawing events. It has no
// size bound and no persistence; it lives exactly as long as its room.
type DrawingLog struct {
	events []json.RawMessage
}

// NewDrawingLog returns an empty log.
func NewDrawingLog() *DrawingLog {
	return &DrawingLog{}
}

// Append records a drawing event for replay. Clear markers are not history;
// they arrive through Reset instead.
func (l *DrawingLog) Append(eventType string, raw json.RawMessage) {
	if eventType == MsgClear {
		return
	}
	l.events = append(l.events, raw)
}

// Reset replaces the log with an empty sequence.
func (l *DrawingLog) Reset() {
	l.events = nil
}

// Snapshot returns the ordered history. The slice is a copy; the payloads are
// shared and must be treated as read-only.
func (l *DrawingLog) Snapshot() []json.RawMessage {
	out := make([]json.RawMessage, len(l.events))
	copy(out, l.events)
	return out
}

// Len reports the number of recorded events.
func (l *DrawingLog) Len() int {
	return len(l.events)
}

// Room is one broadcast domain: the set of live member connections, the set
// of usernames currently associated with the room, and the drawing history.
// Usernames are unique by string value and kept in insertion order so the
// lists sent to clients are deterministic; two connections sharing a username
// collapse to a single entry while userCount stays connection-based.
//
// Rooms are mutated only on the hub loop and need no locking of their own.
type Room struct {
	ID      string
	History *DrawingLog

	members   map[*Client]struct{}
	usernames []string
}

// NewRoom creates an empty room with the given identifier.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		History: NewDrawingLog(),
		members: make(map[*Client]struct{}),
	}
}

// AddMember adds the connection and its username to the room. Joining always
// succeeds: there is no capacity limit and no duplicate-username rejection.
func (r *Room) AddMember(c *Client, username string) {
	r.members[c] = struct{}{}
	for _, name := range r.usernames {
		if name == username {
			return
		}
	}
	r.usernames = append(r.usernames, username)
}

// RemoveMember removes the connection and its username from the room.
func (r *Room) RemoveMember(c *Client, username string) {
	delete(r.members, c)
	for i, name := range r.usernames {
		if name == username {
			r.usernames = append(r.usernames[:i], r.usernames[i+1:]...)
			return
		}
	}
}

// HasMember reports whether the connection is currently in the room.
func (r *Room) HasMember(c *Client) bool {
	_, ok := r.members[c]
	return ok
}

// MemberCount reports the number of member connections.
func (r *Room) MemberCount() int {
	return len(r.members)
}

// Members returns a snapshot of the member connections for fan-out.
func (r *Room) Members() []*Client {
	out := make([]*Client, 0, len(r.members))
	for c := range r.members {
		out = append(out, c)
	}
	return out
}

// Usernames returns a copy of the username list in insertion order.
func (r *Room) Usernames() []string {
	out := make([]string, len(r.usernames))
	copy(out, r.usernames)
	return out
}

// Empty reports whether both the membership and username sets are empty,
// which is the condition for garbage-collecting the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0 && len(r.usernames) == 0
}
