// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and per-connection session state.
package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Client is one WebSocket connection together with its session: the room it
// currently occupies (at most one at any instant) and the username it last
// supplied. The session fields and the closed flag are read and written only
// on the hub loop; the pumps never touch them.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	addr   string
	logger *slog.Logger

	roomID   string
	username string
	closed   bool

	maxMessageSize int64
	limiter        *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient wraps an upgraded connection. The send channel is buffered so the
// hub loop never blocks on a slow reader.
func NewClient(conn *websocket.Conn, hub *Hub, cfg Config, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		hub:            hub,
		addr:           addr,
		logger:         hub.logger,
		maxMessageSize: cfg.MaxMessageSize,
		limiter:        newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
}

// ID returns the connection's identifier as used in logs.
func (c *Client) ID() string {
	return c.id
}

// trySend queues a payload for delivery without blocking the hub loop. A
// false return means the member was skipped: its buffer is full or the
// connection is closing.
func (c *Client) trySend(payload []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// disconnect reports the connection to the hub for cleanup. During shutdown
// the loop is gone, so the send must not block forever.
func (c *Client) disconnect() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.ctx.Done():
	}
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("error closing connection in read pump", "client", c.id, "error", err)
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if c.limiter != nil && !c.limiter.allow() {
			c.logger.Warn("rate limit exceeded; frame discarded",
				"client", c.id,
				"burst", c.rateLimit.Burst,
				"interval", c.rateLimit.RefillInterval)
			continue
		}

		select {
		case c.hub.inbound <- inboundFrame{client: c, data: raw}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("frame exceeded maximum size", "client", c.id, "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Info("client closed connection", "client", c.id, "reason", err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.logger.Info("connection closed", "client", c.id, "reason", err)
	default:
		c.logger.Warn("websocket read error", "client", c.id, "error", err)
	}
}

// writePump drains the send channel onto the wire, one frame per message so
// JSON envelopes are never concatenated, and keeps the connection alive with
// periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("error closing connection in write pump", "client", c.id, "error", err)
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Warn("websocket write error", "client", c.id, "error", err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
