package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sensorpulse/sensorpulse/collector/internal/metrics"
)

// EventDashboard is the Message.Event value of every broadcast.
const EventDashboard = "dashboard"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are checked at the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Source is what the hub reads on every tick. *metrics.Collector satisfies it.
type Source interface {
	Snapshot() metrics.Snapshot
	SystemHealth() metrics.SystemHealth
}

// Dashboard is the live view pushed to clients.
type Dashboard struct {
	Snapshot    metrics.Snapshot     `json:"snapshot"`
	Health      metrics.SystemHealth `json:"health"`
	GeneratedAt string               `json:"generated_at"` // RFC3339
}

// Message is the JSON envelope of every frame sent to clients.
type Message struct {
	Event string    `json:"event"`
	Data  Dashboard `json:"data"`
}

// Hub tracks WebSocket clients and pushes a Dashboard to each of them every
// interval.
type Hub struct {
	src      Source
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a Hub that reads from src and broadcasts every interval.
func New(src Source, interval time.Duration) *Hub {
	return &Hub{
		src:      src,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run broadcasts on every tick until ctx is cancelled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.Broadcast()
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket, sends the current dashboard
// straight away and then relays broadcasts until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		return
	}

	c := newClient(conn)
	h.register(c)
	defer h.unregister(c)

	if data, err := h.encode(); err == nil {
		h.trySend(c, data)
	}

	go c.writeLoop()
	c.readLoop()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends the current dashboard to every client now. Clients whose
// queue is full are dropped.
func (h *Hub) Broadcast() {
	data, err := h.encode()
	if err != nil {
		slog.Error("ws: encode dashboard", "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !h.trySend(c, data) {
			slog.Debug("ws: dropping slow client", "remote", c.remote)
			h.unregister(c)
		}
	}
}

// trySend queues data for c without blocking. It reports false when c's
// queue is full. Sending happens under the read lock so unregister cannot
// close c.send concurrently.
func (h *Hub) trySend(c *client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) encode() ([]byte, error) {
	b, err := json.Marshal(Message{
		Event: EventDashboard,
		Data: Dashboard{
			Snapshot:    h.src.Snapshot(),
			Health:      h.src.SystemHealth(),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ws: marshal message: %w", err)
	}
	return b, nil
}
