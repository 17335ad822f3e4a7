// Package server fans serialized payloads out to room members.
package server

import "log/slog"

// Broadcaster delivers one serialized payload to the members of a room.
// Delivery is best effort and at most once per writable member: a member
// whose send buffer is full or whose connection is closing is skipped, never
// retried, and never surfaces an error to the sender. Fan-out order across
// members is unspecified.
type Broadcaster struct {
	logger *slog.Logger
}

// NewBroadcaster creates a broadcaster that logs skipped deliveries.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{logger: logger}
}

// All sends payload to every member of the room.
func (b *Broadcaster) All(room *Room, payload []byte) {
	b.fanOut(room, nil, payload)
}

// Except sends payload to every member of the room other than sender.
func (b *Broadcaster) Except(room *Room, sender *Client, payload []byte) {
	b.fanOut(room, sender, payload)
}

func (b *Broadcaster) fanOut(room *Room, skip *Client, payload []byte) {
	for _, member := range room.Members() {
		if member == skip {
			continue
		}
		if !member.trySend(payload) {
			b.logger.Debug("skipped unwritable member",
				"room", room.ID,
				"client", member.id)
		}
	}
}
