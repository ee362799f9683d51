package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/verdantquest/questboard/pkg/logger"
)

// Connection timing constants.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// client is one WebSocket connection and its subscription state.
// scopes is owned by the hub and guarded by the hub mutex.
type client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	scopes map[string]struct{}

	mu     sync.Mutex
	closed bool
	logger logger.Logger
}

// trySend queues a payload without blocking. Returns false if the
// client is closed or its buffer is full.
func (c *client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
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

// Serve upgrades an HTTP request and runs the connection until it drops.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  maxMessageSize,
		WriteBufferSize: maxMessageSize,
		// The live page is served from the same origin; cross-origin
		// dashboards are expected during development.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(r.Context(), "upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		id:     uuid.NewString(),
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		scopes: make(map[string]struct{}),
		logger: h.logger,
	}
	if err := h.register(c); err != nil {
		_ = conn.Close()
		return
	}

	h.logger.Debug(r.Context(), "client connected", logger.String("connID", c.id))

	go c.writePump()
	c.readPump(r.Context())
}

// readPump consumes subscription messages until the connection drops.
// Disconnect tears down every subscription the client holds.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.close()
		c.logger.Debug(ctx, "client disconnected", logger.String("connID", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := c.handle(raw); err != nil {
			c.sendError(err.Error())
		}
	}
}

// handle applies one subscribe or unsubscribe request.
func (c *client) handle(raw []byte) error {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ErrUnknownAction
	}

	sc, err := parseScope(msg)
	if err != nil {
		return err
	}

	switch msg.Action {
	case "subscribe":
		c.hub.join(c, sc.Key())
	case "unsubscribe":
		c.hub.leave(c, sc.Key())
	default:
		return ErrUnknownAction
	}
	return nil
}

// writePump flushes queued payloads and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError queues a protocol error message, dropping it if the client
// is backed up.
func (c *client) sendError(msg string) {
	payload, err := json.Marshal(errorMessage{Type: "error", Message: msg})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// close shuts the send channel, which ends the write pump.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
