// Package server implements the DrawHub real-time collaboration relay.
//
// Connections join named rooms over WebSocket and the hub broadcasts drawing
// and chat events among room members, replaying each room's drawing history
// to new joiners. All shared state — the room registry, the rooms, and the
// client set — is owned by the Hub and mutated only on its event loop, one
// inbound frame or lifecycle event at a time. The implementation is organized
// into specialized files for configuration, the hub loop, rooms, routing,
// broadcast, clients, and HTTP handlers.
package server
