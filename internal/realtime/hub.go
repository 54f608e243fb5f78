package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

// Event is a real-time event pushed to a connected client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event types.
const (
	EventNewMessage            = "message:new"
	EventApplicationTransition = "application:transition"
)

// connection is a single client WebSocket.
type connection struct {
	userID utils.SixID
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients and delivers per-user events. Delivery is
// best-effort: a slow or disconnected client simply misses the event and
// refetches state on reconnect.
type Hub struct {
	mu          sync.RWMutex
	connections map[utils.SixID][]*connection
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[utils.SixID][]*connection)}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.userID] = append(h.connections[c.userID], c)
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.connections[c.userID]
	for i, existing := range conns {
		if existing == c {
			conns = append(conns[:i], conns[i+1:]...)
			close(c.send)
			break
		}
	}
	if len(conns) == 0 {
		delete(h.connections, c.userID)
	} else {
		h.connections[c.userID] = conns
	}
}

// SendToUser pushes an event to every open connection of a user.
func (h *Hub) SendToUser(userID utils.SixID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal realtime event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections[userID] {
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the event.
		}
	}
}

// ServeWS registers a connection and runs its read/write loops. Blocks until
// the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID utils.SixID) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only receive; inbound frames are drained for control handling.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
