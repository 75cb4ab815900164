package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Hub pushes refresh notifications to connected browsers. Broadcast only
// sets a coalesced signal; the actual writes happen on the hub's own
// goroutine so a slow client never stalls the owning context.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	kick     chan struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub and starts its broadcast goroutine.
func NewHub() *Hub {
	h := &Hub{
		conns: make(map[*websocket.Conn]bool),
		kick:  make(chan struct{}, 1),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	go h.loop()
	return h
}

// Handle upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	go h.discard(conn)
}

// discard drains client messages; the protocol is push-only.
func (h *Hub) discard(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// Broadcast schedules a "refresh" push. Multiple calls before the hub gets
// around to writing collapse into one.
func (h *Hub) Broadcast() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) loop() {
	for range h.kick {
		h.send("refresh")
	}
}

func (h *Hub) send(msg string) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}
