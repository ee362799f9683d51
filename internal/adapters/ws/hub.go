// Package ws fans leaderboard snapshots out to WebSocket subscribers.
//
// Clients subscribe to scope keys and receive a fresh top-K push every
// time a worker publishes for that scope. Delivery is best effort: a
// subscriber whose send buffer is full has the message dropped rather
// than blocking the publisher.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/verdantquest/questboard/internal/adapters/rankstore"
	"github.com/verdantquest/questboard/internal/domain/scope"
	"github.com/verdantquest/questboard/pkg/logger"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// Default hub configuration constants.
const (
	defaultSendBuffer = 32
	updateType        = "leaderboard:update"
)

// clientMessage is the inbound subscription protocol.
type clientMessage struct {
	Action string `json:"action"`
	Scope  string `json:"scope"`
	City   string `json:"city,omitempty"`
}

// updateMessage is the outbound snapshot push.
type updateMessage struct {
	Type        string       `json:"type"`
	Scope       string       `json:"scope"`
	Leaderboard []boardEntry `json:"leaderboard"`
}

type boardEntry struct {
	Rank     int    `json:"rank"`
	MemberID string `json:"member_id"`
	XP       int64  `json:"xp"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Hub tracks connected clients and their scope subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	subs    map[string]map[*client]struct{}
	closed  bool

	sendBuffer int
	logger     logger.Logger
}

// NewHub creates a new hub with configuration options.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		subs:       make(map[string]map[*client]struct{}),
		sendBuffer: defaultSendBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws-hub")
	}
	return h
}

// Publish pushes a snapshot to every subscriber of the scope.
// Slow subscribers are skipped; the publisher never blocks.
func (h *Hub) Publish(ctx context.Context, sc scope.Scope, entries []rankstore.Entry) {
	metrics.RecordHubPublish()

	board := make([]boardEntry, len(entries))
	for i, e := range entries {
		board[i] = boardEntry{Rank: e.Rank, MemberID: e.MemberID, XP: e.Score}
	}
	payload, err := json.Marshal(updateMessage{
		Type:        updateType,
		Scope:       sc.Key(),
		Leaderboard: board,
	})
	if err != nil {
		metrics.RecordErrorByComponent("ws_hub", "marshal_error")
		h.logger.Error(ctx, "snapshot marshal failed",
			logger.String("scope", sc.Key()),
			logger.Error(err),
		)
		return
	}

	h.mu.RLock()
	subscribers := make([]*client, 0, len(h.subs[sc.Key()]))
	for c := range h.subs[sc.Key()] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	for _, c := range subscribers {
		if c.trySend(payload) {
			metrics.RecordHubDelivery()
			continue
		}
		metrics.RecordHubDrop()
		h.logger.Warn(ctx, "dropping update for slow subscriber",
			logger.String("connID", c.id),
			logger.String("scope", sc.Key()),
		)
	}
}

// register adds a connected client to the hub.
func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	metrics.UpdateHubConnections(len(h.clients))
	return nil
}

// unregister removes a client and all of its subscriptions.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for key := range c.scopes {
		h.dropSubLocked(key, c)
	}
	metrics.UpdateHubConnections(len(h.clients))
	metrics.UpdateHubSubscriptions(h.subCountLocked())
}

// join subscribes a client to a scope key.
func (h *Hub) join(c *client, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[key] = set
	}
	set[c] = struct{}{}
	c.scopes[key] = struct{}{}
	metrics.UpdateHubSubscriptions(h.subCountLocked())
}

// leave unsubscribes a client from a scope key.
func (h *Hub) leave(c *client, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropSubLocked(key, c)
	delete(c.scopes, key)
	metrics.UpdateHubSubscriptions(h.subCountLocked())
}

func (h *Hub) dropSubLocked(key string, c *client) {
	if set, ok := h.subs[key]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
}

func (h *Hub) subCountLocked() int {
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriptionCount returns the number of active subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subCountLocked()
}

// Subscribers returns how many clients follow the given scope.
func (h *Hub) Subscribers(sc scope.Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sc.Key()])
}

// Close disconnects all clients and rejects further registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	// Closing the connection ends each client's read pump, which
	// unregisters and tears down the write pump.
	for _, c := range clients {
		_ = c.conn.Close()
	}
}

// parseScope maps a client message to a scope key.
func parseScope(msg clientMessage) (scope.Scope, error) {
	switch msg.Scope {
	case "global":
		return scope.Global(), nil
	case "city":
		sc, err := scope.City(msg.City)
		if err != nil {
			return scope.Scope{}, ErrBadScope
		}
		return sc, nil
	default:
		return scope.Scope{}, ErrBadScope
	}
}
