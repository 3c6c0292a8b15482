package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturefall/internal/logging"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes every published game state to WebSocket clients.
type EventsHandler struct {
	source  EventSource
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates a new EventsHandler for the given source.
func NewEventsHandler(source EventSource) *EventsHandler {
	return &EventsHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection, sends the current state and then every
// update until either side goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade error", err, nil)
		return
	}
	defer conn.Close()

	updates, cancel := h.source.Subscribe()
	defer cancel()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reads only detect the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.source.State()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case st, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, st); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
