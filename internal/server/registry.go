// Package server tracks the set of live rooms through the RoomRegistry.
package server

import "log/slog"

// RoomRegistry maps room identifiers to live rooms. A room exists here if and
// only if it was explicitly created and has not yet been garbage-collected.
// The registry is owned by the hub and mutated only on the hub loop, so it
// carries no lock.
type RoomRegistry struct {
	rooms  map[string]*Room
	logger *slog.Logger
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry(logger *slog.Logger) *RoomRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomRegistry{
		rooms:  make(map[string]*Room),
		logger: logger,
	}
}

// Create adds an empty room under roomID. When the ID is already taken it
// returns the existing room and created=false without mutating anything;
// that is an expected outcome, not an error.
func (reg *RoomRegistry) Create(roomID string) (*Room, bool) {
	if room, exists := reg.rooms[roomID]; exists {
		return room, false
	}
	room := NewRoom(roomID)
	reg.rooms[roomID] = room
	reg.logger.Info("room created", "room", roomID)
	return room, true
}

// Lookup returns the room for roomID, if one exists.
func (reg *RoomRegistry) Lookup(roomID string) (*Room, bool) {
	room, exists := reg.rooms[roomID]
	return room, exists
}

// DeleteIfEmpty removes the room iff its membership and username sets are
// both empty. It is invoked after every departure and reports whether the
// room was removed.
func (reg *RoomRegistry) DeleteIfEmpty(roomID string) bool {
	room, exists := reg.rooms[roomID]
	if !exists || !room.Empty() {
		return false
	}
	delete(reg.rooms, roomID)
	reg.logger.Info("room removed", "room", roomID)
	return true
}

// Len reports the number of live rooms.
func (reg *RoomRegistry) Len() int {
	return len(reg.rooms)
}
