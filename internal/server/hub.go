// Package server coordinates client registration, room lifecycle, and message
// dispatch for the DrawHub relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub owns every piece of shared state in the relay: the client set, the room
// registry, and the rooms themselves. All of it is mutated exclusively by the
// Run loop, one event at a time, which makes each handler atomic with respect
// to every other without per-room locks. Client pumps only ever talk to the
// hub through channels.
type Hub struct {
	registry *RoomRegistry
	router   *Router
	clients  map[*Client]bool

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame

	logger *slog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// inboundFrame pairs a raw frame with the connection that produced it.
type inboundFrame struct {
	client *Client
	data   []byte
}

// NewHub creates a hub with an empty registry. Call Run in its own goroutine
// before accepting connections.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	registry := NewRoomRegistry(logger)
	return &Hub{
		registry:   registry,
		router:     NewRouter(registry, NewBroadcaster(logger), logger),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry exposes the room registry for diagnostics and tests.
func (h *Hub) Registry() *RoomRegistry {
	return h.registry
}

// Register hands a newly upgraded connection to the hub, which starts its
// read and write pumps.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// Run is the hub event loop. It processes one connection lifecycle event or
// one inbound frame to completion before the next, so messages from a single
// connection are handled in order and handlers from different connections
// interleave only at frame boundaries.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case frame := <-h.inbound:
			h.router.HandleMessage(frame.client, frame.data)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	if c == nil {
		h.logger.Warn("nil client registration skipped")
		return
	}

	h.clients[c] = true
	h.logger.Info("client connected", "client", c.id, "addr", c.addr, "clients", len(h.clients))

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// handleUnregister runs the leave path before the client is forgotten, so a
// departure always updates room membership and notifies remaining members.
func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	h.router.HandleDisconnect(c)

	delete(h.clients, c)
	c.closed = true
	close(c.send)
	h.logger.Info("client disconnected", "client", c.id, "addr", c.addr, "clients", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.logger.Info("closing all client connections", "clients", len(h.clients))

	for c := range h.clients {
		if c.conn == nil {
			continue
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.logger.Warn("error closing client connection", "client", c.id, "error", err)
		}
	}
}

// Shutdown stops the event loop, closes every client connection, and waits
// for the pump goroutines to finish or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("initiating hub shutdown")
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info("hub shutdown complete")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timed out; some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
