package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sipa-dev/sipa/pkg/component"
)

// LiveMessageType identifies a live stream message.
type LiveMessageType string

const (
	LiveHello     LiveMessageType = "hello"
	LiveRender    LiveMessageType = "render"
	LiveCreated   LiveMessageType = "created"
	LiveLive      LiveMessageType = "live"
	LiveDestroyed LiveMessageType = "destroyed"
)

// LiveMessage is sent to /live clients.
type LiveMessage struct {
	Type      LiveMessageType `json:"type"`
	ID        uint64          `json:"id,omitempty"`
	Component string          `json:"component,omitempty"`
	Patches   int             `json:"patches,omitempty"`
	Trailing  bool            `json:"trailing,omitempty"`
	Duration  float64         `json:"durationMs,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Hub fans engine events out to WebSocket clients.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Install makes the hub broadcast the renders and lifecycle transitions of
// eng.
func (h *Hub) Install(eng *component.Engine) {
	eng.Use(h.middleware)
	eng.OnLifecycle(h.observe)
}

func (h *Hub) middleware(ctx context.Context, info *component.RenderInfo, next func(context.Context) error) error {
	start := time.Now()
	err := next(ctx)
	msg := LiveMessage{
		Type:      LiveRender,
		ID:        info.ID,
		Component: info.Type,
		Patches:   info.Patches,
		Trailing:  info.Trailing,
		Duration:  float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		msg.Error = err.Error()
	}
	h.broadcast(msg)
	return err
}

func (h *Hub) observe(e component.LifecycleEvent) {
	msg := LiveMessage{ID: e.Instance.ID(), Component: e.Instance.Type().Tag()}
	switch e.Kind {
	case component.LifecycleCreated:
		msg.Type = LiveCreated
	case component.LifecycleLive:
		msg.Type = LiveLive
	case component.LifecycleDestroyed:
		msg.Type = LiveDestroyed
	default:
		return
	}
	h.broadcast(msg)
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	if data, err := json.Marshal(LiveMessage{Type: LiveHello}); err == nil {
		h.write(conn, data)
	}

	// Clients only listen; reads detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) broadcast(msg LiveMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.write(client, data)
	}
}

// write sends data to conn. gorilla connections allow one concurrent
// writer, so writes are serialized on the hub lock.
func (h *Hub) write(conn *websocket.Conn, data []byte) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	var err error
	if ok {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		err = conn.WriteMessage(websocket.TextMessage, data)
	}
	h.mu.Unlock()
	if err != nil {
		h.drop(conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
